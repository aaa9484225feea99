package model

import (
	"context"
	"time"
)

const (
	RedisV9Type = "redisv9"
	LocalType   = "local"
)

type Connector interface {
	// Disconnect releases the connection
	Disconnect(context.Context) error

	// Ping issues a liveness probe and returns the raw reply
	Ping(context.Context) (string, error)

	// Type returns the connector type
	Type() string

	// As converts i to driver-specific types.
	As(interface{}) bool
}

// Scanner enumerates keys.
type Scanner interface {
	// Scan returns one bounded batch of keys matching pattern, continuing from cursor.
	// count is a batch size hint, 0 lets the service decide.
	Scan(ctx context.Context, cursor Cursor, pattern string, count int64) ([]string, Cursor, error)

	// Keys returns every key matching pattern in one unbounded call.
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Inspector answers per-key and per-database questions.
type Inspector interface {
	KeyType(ctx context.Context, key string) (KeyType, error)
	TTL(ctx context.Context, key string) (TTL, error)
	Info(ctx context.Context) (string, error)
	DBSize(ctx context.Context) (int64, error)
}

// Conn is an open connection to the service.
type Conn interface {
	Connector
	Scanner
	Inspector
}

// Dialer opens connections for a descriptor. Callers own the returned Conn
// and must Disconnect it.
type Dialer interface {
	Dial(ctx context.Context, desc Descriptor) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, desc Descriptor) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, desc Descriptor) (Conn, error) {
	return f(ctx, desc)
}

// Recorder receives operational events. metrics.Metrics implements it.
type Recorder interface {
	ObserveProbe(result string)
	ObserveBatch(mode string, keys int, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveProbe(string)                     {}
func (noopRecorder) ObserveBatch(string, int, time.Duration) {}
