package store

import (
	"encoding/base64"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/magiconair/properties"

	"github.com/TykTechnologies/keyscope/codec"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

const (
	SettingPageSize = "scan.page_size"
	SettingPaginate = "scan.paginate"
)

// Settings is the global settings file. Every Set is written through.
type Settings struct {
	mu   sync.Mutex
	path string
	p    *properties.Properties
}

func openSettings(path string) (*Settings, error) {
	p, err := loadProperties(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		p = properties.NewProperties()
	default:
		return nil, &keyerr.PersistenceError{Op: "load", Path: path, Cause: err}
	}

	p.DisableExpansion = true
	p.WriteSeparator = "="

	return &Settings{path: path, p: p}, nil
}

func (s *Settings) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.p.Get(key)
}

func (s *Settings) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, err := s.p.Set(key, value); err != nil {
		return &keyerr.PersistenceError{Op: "save", Path: s.path, Cause: err}
	}

	if err := writeProperties(s.path, s.p); err != nil {
		return &keyerr.PersistenceError{Op: "save", Path: s.path, Cause: err}
	}

	return nil
}

// PageSize is the scan batch size hint, model.DefaultPageSize when unset or malformed.
func (s *Settings) PageSize() int64 {
	v, ok := s.Get(SettingPageSize)
	if !ok {
		return model.DefaultPageSize
	}

	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 1 {
		return model.DefaultPageSize
	}

	return n
}

// Paginate reports whether scans are paged, true when unset or malformed.
func (s *Settings) Paginate() bool {
	v, ok := s.Get(SettingPaginate)
	if !ok {
		return true
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return true
	}

	return b
}

func encodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

func decodeKey(raw []byte) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, err
	}

	if len(key) != codec.KeySize {
		return nil, codec.ErrInvalidKeySize
	}

	return key, nil
}
