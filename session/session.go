// Package session binds one connection descriptor to a key scan and to the
// per-key lookups of a browsing session. Every network call dials its own
// connection and releases it before returning.
package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/TykTechnologies/keyscope/enumerator"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
	"github.com/TykTechnologies/keyscope/tester"
)

type Session struct {
	desc   model.Descriptor
	dialer model.Dialer
	log    *zap.Logger
	enum   *enumerator.Enumerator
	tester *tester.Tester
}

// Open returns a session for desc. No connection is made.
func Open(desc model.Descriptor, dialer model.Dialer, options ...model.Option) *Session {
	bcfg := model.NewBaseConfig(options...)

	s := &Session{
		desc:   desc,
		dialer: dialer,
		log:    bcfg.Logger.With(zap.Stringer("target", desc)),
		tester: tester.New(dialer, options...),
	}
	s.enum = enumerator.New(scanner{s}, options...)

	return s
}

func (s *Session) Descriptor() model.Descriptor { return s.desc }

func (s *Session) StartScan(ctx context.Context, pattern string, paginated bool) (enumerator.Page, error) {
	return s.enum.StartScan(ctx, pattern, paginated)
}

func (s *Session) NextPage(ctx context.Context) (enumerator.Page, error) {
	return s.enum.NextPage(ctx)
}

func (s *Session) Reset() { s.enum.Reset() }

func (s *Session) State() enumerator.State { return s.enum.State() }

func (s *Session) KeyType(ctx context.Context, key string) (model.KeyType, error) {
	if key == "" {
		return model.KeyTypeUnknown, keyerr.ErrKeyEmpty
	}

	return withConn(ctx, s, func(ctx context.Context, conn model.Conn) (model.KeyType, error) {
		return conn.KeyType(ctx, key)
	})
}

func (s *Session) TTL(ctx context.Context, key string) (model.TTL, error) {
	if key == "" {
		return model.TTL{}, keyerr.ErrKeyEmpty
	}

	return withConn(ctx, s, func(ctx context.Context, conn model.Conn) (model.TTL, error) {
		return conn.TTL(ctx, key)
	})
}

// Overview reports the key count and the INFO text of the database.
func (s *Session) Overview(ctx context.Context) (model.Overview, error) {
	return withConn(ctx, s, func(ctx context.Context, conn model.Conn) (model.Overview, error) {
		info, err := conn.Info(ctx)
		if err != nil {
			return model.Overview{}, err
		}

		size, err := conn.DBSize(ctx)
		if err != nil {
			return model.Overview{}, err
		}

		return model.Overview{KeyCount: size, Info: info}, nil
	})
}

// Ping checks liveness the way tester.Tester does.
func (s *Session) Ping(ctx context.Context) error {
	return s.tester.Test(ctx, s.desc)
}

func withConn[T any](ctx context.Context, s *Session, fn func(context.Context, model.Conn) (T, error)) (T, error) {
	var zero T

	timeout := s.desc.Timeout
	if timeout <= 0 {
		timeout = tester.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := s.dialer.Dial(ctx, s.desc)
	if err != nil {
		return zero, keyerr.Connection(err)
	}

	defer func() {
		if err := conn.Disconnect(context.Background()); err != nil {
			s.log.Debug("disconnect failed", zap.Error(err))
		}
	}()

	return fn(ctx, conn)
}

// scanner is the model.Scanner the enumerator drives. Each batch uses its own connection.
type scanner struct {
	s *Session
}

type batch struct {
	keys []string
	next model.Cursor
}

func (sc scanner) Scan(ctx context.Context, cursor model.Cursor, pattern string, count int64) ([]string, model.Cursor, error) {
	b, err := withConn(ctx, sc.s, func(ctx context.Context, conn model.Conn) (batch, error) {
		keys, next, err := conn.Scan(ctx, cursor, pattern, count)
		return batch{keys: keys, next: next}, err
	})
	if err != nil {
		return nil, cursor, err
	}

	return b.keys, b.next, nil
}

func (sc scanner) Keys(ctx context.Context, pattern string) ([]string, error) {
	return withConn(ctx, sc.s, func(ctx context.Context, conn model.Conn) ([]string, error) {
		return conn.Keys(ctx, pattern)
	})
}
