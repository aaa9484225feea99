// Package store persists saved connections in the application home: one
// properties file per connection, a global config.cfg and the secret key
// used to seal passwords.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/magiconair/properties"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/TykTechnologies/keyscope/codec"
	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

const (
	connectionExt = ".properties"
	settingsFile  = "config.cfg"
	secretKeyFile = "secret.key"

	dirPerm  = 0o700
	filePerm = 0o600
)

var ErrNameEmpty = errors.New("connection name cannot be empty")

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9 _\-.]`)

// NormalizeName maps a display name to a file-safe name: Unicode NFD
// decomposition, then every character outside [A-Za-z0-9 _-.] becomes '_'.
func NormalizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(norm.NFD.String(strings.TrimSpace(name)), "_")
}

type Store struct {
	dir    string
	log    *zap.Logger
	sealer model.Sealer
}

// Open returns the store rooted at dir, creating it if absent. Passwords are
// sealed with the sealer given by model.WithSealer, or else with a key kept in
// dir/secret.key, generated on first use.
func Open(dir string, options ...model.Option) (*Store, error) {
	bcfg := model.NewBaseConfig(options...)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, &keyerr.PersistenceError{Op: "create", Path: dir, Cause: err}
	}

	s := &Store{dir: dir, log: bcfg.Logger, sealer: bcfg.Sealer}

	if s.sealer == nil {
		sb, err := s.loadOrCreateKey()
		if err != nil {
			return nil, err
		}

		s.sealer = sb
	}

	return s, nil
}

func (s *Store) Dir() string { return s.dir }

// List returns the sorted names of the saved connections.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &keyerr.PersistenceError{Op: "list", Path: s.dir, Cause: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), connectionExt) {
			continue
		}

		names = append(names, strings.TrimSuffix(e.Name(), connectionExt))
	}

	slices.Sort(names)

	return names, nil
}

// Load reads a saved connection. Unreadable files are errors, malformed
// values degrade to defaults.
func (s *Store) Load(name string) (*model.ConnectionConfig, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, &keyerr.PersistenceError{Op: "load", Path: name, Cause: err}
	}

	p, err := loadProperties(path)
	if err != nil {
		return nil, &keyerr.PersistenceError{Op: "load", Path: path, Cause: err}
	}

	return codec.Decode(p.Map(), model.WithLogger(s.log), model.WithSealer(s.sealer)), nil
}

// Save writes cfg under the normalised name and returns that name. The
// properties format drops leading whitespace of a value, so string fields
// are persisted without it.
func (s *Store) Save(name string, cfg *model.ConnectionConfig) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", &keyerr.PersistenceError{Op: "save", Path: name, Cause: err}
	}

	encoded, err := codec.Encode(cfg, model.WithSealer(s.sealer))
	if err != nil {
		return "", &keyerr.PersistenceError{Op: "save", Path: path, Cause: err}
	}

	p := properties.NewProperties()
	p.DisableExpansion = true
	p.WriteSeparator = "="

	for _, k := range codec.Keys {
		if _, _, err := p.Set(string(k), encoded[string(k)]); err != nil {
			return "", &keyerr.PersistenceError{Op: "save", Path: path, Cause: err}
		}
	}

	if err := writeProperties(path, p); err != nil {
		return "", &keyerr.PersistenceError{Op: "save", Path: path, Cause: err}
	}

	s.log.Debug("saved connection", zap.String("path", path))

	return strings.TrimSuffix(filepath.Base(path), connectionExt), nil
}

func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return &keyerr.PersistenceError{Op: "delete", Path: name, Cause: err}
	}

	if err := os.Remove(path); err != nil {
		return &keyerr.PersistenceError{Op: "delete", Path: path, Cause: err}
	}

	return nil
}

// Settings loads the global settings file. A missing file yields defaults.
func (s *Store) Settings() (*Settings, error) {
	return openSettings(filepath.Join(s.dir, settingsFile))
}

func (s *Store) path(name string) (string, error) {
	n := NormalizeName(name)
	if n == "" || n == "." || n == ".." {
		return "", ErrNameEmpty
	}

	return filepath.Join(s.dir, n+connectionExt), nil
}

func (s *Store) loadOrCreateKey() (*codec.SecretBox, error) {
	path := filepath.Join(s.dir, secretKeyFile)

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		key, err := decodeKey(raw)
		if err != nil {
			return nil, &keyerr.PersistenceError{Op: "read key", Path: path, Cause: err}
		}

		return codec.NewSecretBox(key)

	case errors.Is(err, os.ErrNotExist):
		key, err := codec.GenerateKey()
		if err != nil {
			return nil, &keyerr.PersistenceError{Op: "create key", Path: path, Cause: err}
		}

		if err := writeFileAtomic(path, []byte(encodeKey(key)+"\n")); err != nil {
			return nil, &keyerr.PersistenceError{Op: "create key", Path: path, Cause: err}
		}

		s.log.Info("generated secret key", zap.String("path", path))

		return codec.NewSecretBox(key)

	default:
		return nil, &keyerr.PersistenceError{Op: "read key", Path: path, Cause: err}
	}
}

func loadProperties(path string) (*properties.Properties, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	return l.LoadFile(path)
}

func writeProperties(path string, p *properties.Properties) error {
	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}

	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic replaces path with data through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
