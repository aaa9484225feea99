package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/TykTechnologies/keyscope/model"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := run(context.Background(), args, &out, zaptest.NewLogger(t))

	return out.String(), err
}

func TestParseNodes(t *testing.T) {
	tcs := []struct {
		name     string
		in       string
		expected []model.Node
		wantErr  bool
	}{
		{name: "empty", in: "", expected: nil},
		{name: "semicolon", in: "a:1;b:2", expected: []model.Node{{Host: "a", Port: 1}, {Host: "b", Port: 2}}},
		{name: "comma and spaces", in: "a:1, b:2", expected: []model.Node{{Host: "a", Port: 1}, {Host: "b", Port: 2}}},
		{name: "ipv6", in: "[::1]:7000", expected: []model.Node{{Host: "::1", Port: 7000}}},
		{name: "no port", in: "a", wantErr: true},
		{name: "bad port", in: "a:x", wantErr: true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			nodes, err := parseNodes(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, nodes)
		})
	}
}

func TestConnFlags_AppliesOnlySetFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cf connFlags
	cf.register(fs)
	require.NoError(t, fs.Parse([]string{"-type", "sentinel", "-master", "mymaster", "-ssl"}))

	cfg := model.NewConnectionConfig()
	cfg.SetHost("kept")
	require.NoError(t, cf.apply(fs, cfg))

	v := cfg.Values()
	assert.Equal(t, model.Sentinel, v.Topology)
	assert.Equal(t, "mymaster", v.SentinelMasterID)
	assert.True(t, v.TLSEnabled)
	assert.Equal(t, "kept", v.Host)
	assert.Equal(t, model.DefaultPort, v.Port)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cf.register(fs)
	require.NoError(t, fs.Parse([]string{"-type", "bogus"}))
	assert.Error(t, cf.apply(fs, cfg))
}

func TestRun_Usage(t *testing.T) {
	t.Setenv(envHome, t.TempDir())

	out, err := runCmd(t)
	require.NoError(t, err)
	assert.Contains(t, out, "usage: keyscope")

	_, err = runCmd(t, "frobnicate")
	assert.ErrorIs(t, err, errUsage)
	assert.Equal(t, 2, exitCode(err))

	_, err = runCmd(t, "show")
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_SavedConnections(t *testing.T) {
	t.Setenv(envHome, t.TempDir())
	t.Setenv(envPassword, "from-env")

	out, err := runCmd(t, "save", "My:Redis", "-host", "redis.internal", "-port", "6380", "-db", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "saved My_Redis")

	_, err = runCmd(t, "save", "broken", "-port", "70000")
	assert.Error(t, err)

	out, err = runCmd(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "My_Redis\n", out)

	out, err = runCmd(t, "show", "My_Redis")
	require.NoError(t, err)
	assert.Contains(t, out, "host=redis.internal\n")
	assert.Contains(t, out, "port=6380\n")
	assert.Contains(t, out, "database=2\n")
	assert.Contains(t, out, "password=***\n")
	assert.NotContains(t, out, "from-env")
	assert.NotContains(t, out, "socket=")

	// updating keeps what was saved before
	_, err = runCmd(t, "save", "My_Redis", "-db", "3")
	require.NoError(t, err)

	out, err = runCmd(t, "show", "My_Redis")
	require.NoError(t, err)
	assert.Contains(t, out, "host=redis.internal\n")
	assert.Contains(t, out, "database=3\n")

	out, err = runCmd(t, "delete", "My_Redis")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted My_Redis")

	out, err = runCmd(t, "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_Server(t *testing.T) {
	t.Setenv(envHome, t.TempDir())

	mr := miniredis.RunT(t)
	mr.Set("user:1", "a")
	mr.Set("user:2", "b")
	mr.Set("order:1", "c")

	target := []string{"-host", mr.Host(), "-port", mr.Port(), "-timeout", "2s"}

	out, err := runCmd(t, append([]string{"test"}, target...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "PONG")

	out, err = runCmd(t, append([]string{"scan", "-pattern", "user:*", "-paginate=false"}, target...)...)
	require.NoError(t, err)
	assert.Equal(t, "user:1\nuser:2\n", out)

	out, err = runCmd(t, append([]string{"scan", "-details"}, target...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "order:1\tstring\t")
	assert.Contains(t, out, "user:2\tstring\t")

	out, err = runCmd(t, append([]string{"info"}, target...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "keys: 3\n")

	_, err = runCmd(t, "save", "local", "-host", mr.Host(), "-port", mr.Port())
	require.NoError(t, err)

	out, err = runCmd(t, "test", "local")
	require.NoError(t, err)
	assert.Contains(t, out, "PONG")

	mr.RequireAuth("secret")
	_, err = runCmd(t, "test", "local")
	assert.Error(t, err)

	_, err = runCmd(t, "test", "local", "-password", "secret")
	assert.NoError(t, err)
}

func TestRun_Settings(t *testing.T) {
	t.Setenv(envHome, t.TempDir())

	_, err := runCmd(t, "set", "scan.page_size", "5")
	require.NoError(t, err)

	_, err = runCmd(t, "set", "only-key")
	assert.ErrorIs(t, err, errUsage)

	out, err := runCmd(t, "scan", "-driver", "local")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = runCmd(t, "scan", "-driver", "bogus")
	assert.Error(t, err)
}
