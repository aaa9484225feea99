package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "home"))
	require.NoError(t, err)

	return s
}

func TestNormalizeName(t *testing.T) {
	tcs := []struct {
		given    string
		expected string
	}{
		{given: "prod cache", expected: "prod cache"},
		{given: "  spaced  ", expected: "spaced"},
		{given: "a/b\\c", expected: "a_b_c"},
		{given: "café", expected: "cafe_"},
		{given: "v1.2_beta-3", expected: "v1.2_beta-3"},
		{given: "键", expected: "_"},
	}

	for _, tc := range tcs {
		t.Run(tc.given, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeName(tc.given))
			assert.Equal(t, tc.expected, NormalizeName(NormalizeName(tc.given)))
		})
	}
}

func TestOpen_CreatesHome(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "home")

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dir, secretKeyFile))
	assert.NoError(t, err)
}

func TestStore_SaveLoadListDelete(t *testing.T) {
	s := openTestStore(t)

	cfg := model.NewConnectionConfig()
	cfg.SetTopology(model.Sentinel)
	cfg.SetHost("10.0.0.1")
	cfg.SetPort(26379)
	cfg.SetSentinelMasterID("mymaster")
	cfg.AddExtraNode(model.Node{Host: "10.0.0.2", Port: 26379})
	cfg.SetUsername("admin")
	cfg.SetPassword([]byte("p=ss:${word}#!"))
	cfg.SetTimeout(30 * time.Second)

	name, err := s.Save("prod/sentinel", cfg)
	require.NoError(t, err)
	assert.Equal(t, "prod_sentinel", name)

	_, err = s.Save("local", model.NewConnectionConfig())
	require.NoError(t, err)

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"local", "prod_sentinel"}, names)

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "prod_sentinel.properties"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "connectionType=SENTINEL")
	assert.Contains(t, string(raw), "password=sealed:")
	assert.NotContains(t, string(raw), "${word}")

	loaded, err := s.Load("prod_sentinel")
	require.NoError(t, err)
	assert.Equal(t, cfg.Values(), loaded.Values())

	require.NoError(t, s.Delete("prod_sentinel"))

	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, names)

	err = s.Delete("prod_sentinel")
	var pe *keyerr.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStore_LeadingWhitespaceIsDropped(t *testing.T) {
	s := openTestStore(t)

	cfg := model.NewConnectionConfig()
	cfg.SetClientName("  padded ")
	cfg.SetUsername(" u")

	_, err := s.Save("padded", cfg)
	require.NoError(t, err)

	got, err := s.Load("padded")
	require.NoError(t, err)

	v := got.Values()
	assert.Equal(t, "padded ", v.ClientName)
	assert.Equal(t, "u", v.Username)
}

func TestStore_KeySurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	cfg := model.NewConnectionConfig()
	cfg.SetPassword([]byte("secret"))
	_, err = s.Save("c", cfg)
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)

	loaded, err := reopened.Load("c")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), loaded.Values().Password)
}

func TestStore_LoadLegacyFile(t *testing.T) {
	s := openTestStore(t)

	legacy := strings.Join([]string{
		"connectionType=STANDALONE_SSL",
		"host=redis.example.com",
		"port=6380",
		"password=cleartext",
		"gui.lookandfeel=ignored",
		"timeout=oops",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "old.properties"), []byte(legacy), 0o600))

	cfg, err := s.Load("old")
	require.NoError(t, err)

	v := cfg.Values()
	assert.Equal(t, model.Standalone, v.Topology)
	assert.True(t, v.TLSEnabled)
	assert.Equal(t, "redis.example.com", v.Host)
	assert.Equal(t, 6380, v.Port)
	assert.Equal(t, []byte("cleartext"), v.Password)
	assert.Equal(t, model.DefaultTimeout, v.Timeout)
}

func TestStore_Errors(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load("missing")
	var pe *keyerr.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "load", pe.Op)

	_, err = s.Save("   ", model.NewConnectionConfig())
	assert.ErrorIs(t, err, ErrNameEmpty)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), secretKeyFile), []byte("short"), 0o600))
	_, err = Open(s.Dir())
	assert.True(t, errors.As(err, &pe))
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)

	settings, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPageSize, settings.PageSize())
	assert.True(t, settings.Paginate())

	require.NoError(t, settings.Set(SettingPageSize, "250"))
	require.NoError(t, settings.Set(SettingPaginate, "false"))

	reloaded, err := s.Settings()
	require.NoError(t, err)
	assert.Equal(t, int64(250), reloaded.PageSize())
	assert.False(t, reloaded.Paginate())

	require.NoError(t, reloaded.Set(SettingPageSize, "-4"))
	assert.Equal(t, model.DefaultPageSize, reloaded.PageSize())

	v, ok := reloaded.Get(SettingPaginate)
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}

func TestConnectionList(t *testing.T) {
	l := NewConnectionList("b", "a", "b")
	assert.Equal(t, []string{"a", "b"}, l.Names())
	assert.Equal(t, 2, l.Len())

	assert.True(t, l.Add("c"))
	assert.False(t, l.Add("a"))
	assert.True(t, l.Contains("c"))

	assert.True(t, l.Remove("a"))
	assert.False(t, l.Remove("a"))
	assert.Equal(t, []string{"b", "c"}, l.Names())

	names := l.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"b", "c"}, l.Names())
}
