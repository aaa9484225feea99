package model

import (
	"strings"
	"time"
)

// Cursor is an opaque scan continuation token.
// Only the start (empty) and terminal values carry meaning.
type Cursor string

const (
	StartCursor    Cursor = ""
	TerminalCursor Cursor = "0"
)

// IsStart reports whether c is the start of a scan.
func (c Cursor) IsStart() bool { return c == StartCursor }

// IsTerminal reports whether c marks an exhausted scan.
func (c Cursor) IsTerminal() bool { return c == TerminalCursor }

// KeyType is the data type stored under a key.
type KeyType string

const (
	KeyTypeString  KeyType = "string"
	KeyTypeList    KeyType = "list"
	KeyTypeSet     KeyType = "set"
	KeyTypeZSet    KeyType = "zset"
	KeyTypeHash    KeyType = "hash"
	KeyTypeStream  KeyType = "stream"
	KeyTypeNone    KeyType = "none"
	KeyTypeUnknown KeyType = "unknown"
)

var knownKeyTypes = []KeyType{
	KeyTypeString, KeyTypeList, KeyTypeSet, KeyTypeZSet, KeyTypeHash, KeyTypeStream, KeyTypeNone,
}

// ParseKeyType maps a TYPE reply to a KeyType. Unrecognised replies map to KeyTypeUnknown.
func ParseKeyType(reply string) KeyType {
	reply = strings.TrimSpace(reply)
	for _, kt := range knownKeyTypes {
		if strings.EqualFold(string(kt), reply) {
			return kt
		}
	}

	return KeyTypeUnknown
}

// TTL is the remaining lifetime of a key.
type TTL struct {
	// Missing is set when the key does not exist.
	Missing bool
	// Persistent is set when the key has no expiry.
	Persistent bool
	Remaining  time.Duration
}

func (t TTL) String() string {
	switch {
	case t.Missing:
		return "missing"
	case t.Persistent:
		return "persistent"
	default:
		return t.Remaining.String()
	}
}

// Overview is a short report about the connected database.
type Overview struct {
	KeyCount int64
	Info     string
}
