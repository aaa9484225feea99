package keyerr

import (
	"errors"
	"fmt"
)

var (
	// Configuration related errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMasterNameRequired   = errors.New("sentinel master id is required")

	// Connection related errors
	ErrInvalidHandlerType = errors.New("invalid handler type")
	ErrClosedConnection   = errors.New("connection closed")
	ErrInvalidRedisClient = errors.New("invalid redis client")
	ErrUnexpectedReply    = errors.New("unexpected reply to ping")

	// Scan related errors
	ErrIllegalState  = errors.New("operation not allowed in current state")
	ErrPatternEmpty  = errors.New("pattern cannot be empty")
	ErrInvalidCursor = errors.New("invalid cursor")

	// Key related errors
	ErrKeyEmpty = errors.New("key cannot be empty")
)

// ValidationError reports the first rule a connection configuration violates.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// ConnectionError is returned by every operation that talks to the service.
// Reply holds the raw server reply when the service answered with something unexpected.
type ConnectionError struct {
	Cause error
	Reply string
}

func (e *ConnectionError) Error() string {
	switch {
	case e.Cause != nil && e.Reply != "":
		return fmt.Sprintf("connection error: %v (reply: %q)", e.Cause, e.Reply)
	case e.Cause != nil:
		return fmt.Sprintf("connection error: %v", e.Cause)
	default:
		return fmt.Sprintf("connection error: reply %q", e.Reply)
	}
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// ProtocolError is a caller mistake, such as resuming a scan that is not resumable.
type ProtocolError struct {
	Op    string
	State string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

func (e *ProtocolError) Unwrap() error {
	return ErrIllegalState
}

// PersistenceError wraps a failure at the file boundary.
type PersistenceError struct {
	Op    string
	Path  string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Connection wraps err into a *ConnectionError unless it already is one.
func Connection(err error) error {
	if err == nil {
		return nil
	}

	var ce *ConnectionError
	if errors.As(err, &ce) {
		return err
	}

	return &ConnectionError{Cause: err}
}
