package local

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

// defaultScanCount matches the redis default COUNT.
const defaultScanCount = 10

// Scan walks the sorted key space. The cursor is the offset of the next key to
// examine and count bounds the keys examined, not the keys returned.
func (api *LocalConnector) Scan(ctx context.Context,
	cursor model.Cursor,
	pattern string,
	count int64,
) ([]string, model.Cursor, error) {
	if err := api.check(); err != nil {
		return nil, cursor, err
	}

	offset := 0
	if !cursor.IsStart() && !cursor.IsTerminal() {
		n, err := strconv.Atoi(string(cursor))
		if err != nil || n < 0 {
			return nil, cursor, fmt.Errorf("%w: %q", keyerr.ErrInvalidCursor, cursor)
		}

		offset = n
	}

	if count <= 0 {
		count = defaultScanCount
	}

	g, err := compile(pattern)
	if err != nil {
		return nil, cursor, err
	}

	all := api.Store.Keys()
	sort.Strings(all)

	if offset > len(all) {
		offset = len(all)
	}

	end := offset + int(count)
	if end > len(all) {
		end = len(all)
	}

	keys := []string{}
	for _, k := range all[offset:end] {
		if g.Match(k) {
			keys = append(keys, k)
		}
	}

	if end == len(all) {
		return keys, model.TerminalCursor, nil
	}

	return keys, model.Cursor(strconv.Itoa(end)), nil
}

// Keys returns all keys matching the given pattern
func (api *LocalConnector) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := api.check(); err != nil {
		return nil, err
	}

	g, err := compile(pattern)
	if err != nil {
		return nil, err
	}

	keys := []string{}
	for _, k := range api.Store.Keys() {
		if g.Match(k) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

func (api *LocalConnector) KeyType(ctx context.Context, key string) (model.KeyType, error) {
	o, err := api.lookup(key)
	if err != nil {
		return model.KeyTypeUnknown, err
	}

	if o == nil {
		return model.KeyTypeNone, nil
	}

	if o.Type == "" {
		return model.KeyTypeString, nil
	}

	return o.Type, nil
}

func (api *LocalConnector) TTL(ctx context.Context, key string) (model.TTL, error) {
	o, err := api.lookup(key)
	if err != nil {
		return model.TTL{}, err
	}

	switch {
	case o == nil:
		return model.TTL{Missing: true}, nil
	case o.NoExp:
		return model.TTL{Persistent: true}, nil
	default:
		return model.TTL{Remaining: time.Until(o.Exp).Round(time.Second)}, nil
	}
}

func (api *LocalConnector) Info(ctx context.Context) (string, error) {
	if err := api.check(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Server\r\n")
	b.WriteString("redis_mode:local\r\n")
	b.WriteString("\r\n# Keyspace\r\n")
	fmt.Fprintf(&b, "db0:keys=%d\r\n", len(api.Store.Keys()))

	return b.String(), nil
}

func (api *LocalConnector) DBSize(ctx context.Context) (int64, error) {
	if err := api.check(); err != nil {
		return 0, err
	}

	return int64(len(api.Store.Keys())), nil
}

func (api *LocalConnector) lookup(key string) (*Object, error) {
	if key == "" {
		return nil, keyerr.ErrKeyEmpty
	}

	if err := api.check(); err != nil {
		return nil, err
	}

	return api.Store.Get(key)
}

// compile translates a redis glob into a gobwas glob. Braces and commas are
// literals in redis, and a negated class is written [^...] instead of [!...].
func compile(pattern string) (glob.Glob, error) {
	var b strings.Builder

	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]

		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
			b.WriteByte(c)
		case c == '[':
			inClass = true
			b.WriteByte(c)
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				b.WriteByte('!')
				i++
			}
		case c == '{' || c == '}' || c == ',':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	g, err := glob.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return g, nil
}
