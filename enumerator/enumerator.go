// Package enumerator implements the resumable, pattern-filtered key scan.
//
// An Enumerator moves through Idle, Scanning, HasMore and Exhausted. StartScan
// always begins a fresh scan; NextPage is legal only in HasMore and fails
// without touching the network otherwise. An Enumerator is not safe for
// concurrent use: callers issue one operation at a time.
package enumerator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

type State int

const (
	Idle State = iota
	Scanning
	HasMore
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Scanning:
		return "Scanning"
	case HasMore:
		return "HasMore"
	case Exhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

const (
	modePaged   = "paged"
	modeUnpaged = "unpaged"
)

// Page is one batch of keys and the state it left the scan in. Keys are
// returned as the service produced them, duplicates across pages included.
type Page struct {
	Keys  []string
	State State
}

type Enumerator struct {
	scanner  model.Scanner
	log      *zap.Logger
	rec      model.Recorder
	pageSize int64

	state     State
	cursor    model.Cursor
	pattern   string
	paginated bool
}

func New(scanner model.Scanner, options ...model.Option) *Enumerator {
	bcfg := model.NewBaseConfig(options...)

	return &Enumerator{
		scanner:  scanner,
		log:      bcfg.Logger,
		rec:      bcfg.Recorder,
		pageSize: bcfg.PageSize,
	}
}

// StartScan discards any previous scan and fetches the first batch for
// pattern. Without pagination every matching key is fetched in one call and
// the scan is immediately exhausted. A failed StartScan leaves the
// Enumerator Idle.
func (e *Enumerator) StartScan(ctx context.Context, pattern string, paginated bool) (Page, error) {
	e.Reset()

	if pattern == "" {
		return Page{State: e.state}, keyerr.ErrPatternEmpty
	}

	e.pattern = pattern
	e.paginated = paginated
	e.state = Scanning

	if !paginated {
		start := time.Now()

		keys, err := e.scanner.Keys(ctx, pattern)
		if err != nil {
			e.Reset()
			return Page{State: e.state}, err
		}

		e.rec.ObserveBatch(modeUnpaged, len(keys), time.Since(start))
		e.state = Exhausted
		e.log.Debug("listed keys", zap.String("pattern", pattern), zap.Int("keys", len(keys)))

		return Page{Keys: keys, State: e.state}, nil
	}

	keys, err := e.fetch(ctx, model.StartCursor)
	if err != nil {
		e.Reset()
		return Page{State: e.state}, err
	}

	return Page{Keys: keys, State: e.state}, nil
}

// NextPage fetches the batch following the stored cursor. A failed NextPage
// keeps the previous cursor so the caller may retry.
func (e *Enumerator) NextPage(ctx context.Context) (Page, error) {
	if e.state != HasMore {
		return Page{State: e.state}, &keyerr.ProtocolError{Op: "NextPage", State: e.state.String()}
	}

	prev := e.cursor
	e.state = Scanning

	keys, err := e.fetch(ctx, prev)
	if err != nil {
		e.state = HasMore
		e.cursor = prev

		return Page{State: e.state}, err
	}

	return Page{Keys: keys, State: e.state}, nil
}

func (e *Enumerator) fetch(ctx context.Context, cursor model.Cursor) ([]string, error) {
	start := time.Now()

	keys, next, err := e.scanner.Scan(ctx, cursor, e.pattern, e.pageSize)
	if err != nil {
		e.log.Warn("scan batch failed", zap.String("pattern", e.pattern), zap.Error(err))
		return nil, err
	}

	e.rec.ObserveBatch(modePaged, len(keys), time.Since(start))

	// a start cursor coming back would restart the scan forever
	if next.IsTerminal() || next.IsStart() {
		e.state = Exhausted
		e.cursor = model.StartCursor
	} else {
		e.state = HasMore
		e.cursor = next
	}

	e.log.Debug("scanned batch",
		zap.String("pattern", e.pattern), zap.Int("keys", len(keys)), zap.Stringer("state", e.state))

	return keys, nil
}

// Reset returns to Idle and forgets the cursor and pattern. Callers reset
// whenever the pattern or the paging mode changes.
func (e *Enumerator) Reset() {
	e.state = Idle
	e.cursor = model.StartCursor
	e.pattern = ""
	e.paginated = false
}

func (e *Enumerator) State() State { return e.state }

// Cursor returns the continuation token, which is empty unless State is HasMore.
func (e *Enumerator) Cursor() model.Cursor { return e.cursor }

func (e *Enumerator) Pattern() string { return e.pattern }

func (e *Enumerator) Paginated() bool { return e.paginated }
