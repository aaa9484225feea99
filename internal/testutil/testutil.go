package testutil

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/TykTechnologies/keyscope/descriptor"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

// Miniredis starts a miniredis server for the test and returns the
// standalone configuration that reaches it.
func Miniredis(t *testing.T) (*model.ConnectionConfig, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := model.NewConnectionConfig()
	cfg.SetHost(mr.Host())
	cfg.SetPort(port)
	cfg.SetTimeout(0)

	return cfg, mr
}

// MiniredisDescriptor is Miniredis followed by descriptor.Build.
func MiniredisDescriptor(t *testing.T) (model.Descriptor, *miniredis.Miniredis) {
	t.Helper()

	cfg, mr := Miniredis(t)

	desc, err := descriptor.Build(cfg)
	require.NoError(t, err)

	return desc, mr
}

// Batch is one scripted SCAN reply.
type Batch struct {
	Keys []string
	Next model.Cursor
	Err  error
}

// FakeConn is a scripted model.Conn that counts every call.
type FakeConn struct {
	mu sync.Mutex

	PingReply string
	PingErr   error

	Batches  []Batch
	KeysList []string
	KeysErr  error

	Types  map[string]model.KeyType
	TTLs   map[string]model.TTL
	Report string
	Size   int64

	ScanCalls   int
	KeysCalls   int
	Disconnects int
	// Cursors and Counts record the arguments of every Scan call.
	Cursors []model.Cursor
	Counts  []int64
}

var _ model.Conn = (*FakeConn)(nil)

func (f *FakeConn) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Disconnects++
	return nil
}

func (f *FakeConn) Ping(context.Context) (string, error) {
	return f.PingReply, f.PingErr
}

func (f *FakeConn) Type() string { return "fake" }

func (f *FakeConn) As(interface{}) bool { return false }

func (f *FakeConn) Scan(_ context.Context, cursor model.Cursor, _ string, count int64) ([]string, model.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ScanCalls++
	f.Cursors = append(f.Cursors, cursor)
	f.Counts = append(f.Counts, count)

	if len(f.Batches) == 0 {
		return nil, model.TerminalCursor, nil
	}

	b := f.Batches[0]
	f.Batches = f.Batches[1:]

	return b.Keys, b.Next, b.Err
}

func (f *FakeConn) Keys(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.KeysCalls++

	return f.KeysList, f.KeysErr
}

func (f *FakeConn) KeyType(_ context.Context, key string) (model.KeyType, error) {
	if kt, ok := f.Types[key]; ok {
		return kt, nil
	}

	return model.KeyTypeNone, nil
}

func (f *FakeConn) TTL(_ context.Context, key string) (model.TTL, error) {
	if ttl, ok := f.TTLs[key]; ok {
		return ttl, nil
	}

	return model.TTL{Missing: true}, nil
}

func (f *FakeConn) Info(context.Context) (string, error) { return f.Report, nil }

func (f *FakeConn) DBSize(context.Context) (int64, error) { return f.Size, nil }

// FakeDialer hands out Conn, or fails with Err.
type FakeDialer struct {
	mu    sync.Mutex
	Conn  *FakeConn
	Err   error
	Dials int
}

func (d *FakeDialer) Dial(context.Context, model.Descriptor) (model.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Dials++
	if d.Err != nil {
		return nil, &keyerr.ConnectionError{Cause: d.Err}
	}

	return d.Conn, nil
}
