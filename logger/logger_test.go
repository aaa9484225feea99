package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildConfigByEnvironment(t *testing.T) {
	tests := []struct {
		name         string
		env          string
		wantLevel    zapcore.Level
		wantStack    bool
		wantCaller   bool
		wantTime     bool
		wantEncoding string
	}{
		{name: "default", env: "", wantLevel: zap.WarnLevel, wantEncoding: "console"},
		{name: "unknown", env: "staging", wantLevel: zap.WarnLevel, wantEncoding: "console"},
		{name: "debug", env: " DEBUG ", wantLevel: zap.DebugLevel, wantStack: true, wantCaller: true, wantTime: true, wantEncoding: "console"},
		{name: "development", env: "development", wantLevel: zap.DebugLevel, wantStack: true, wantCaller: true, wantTime: true, wantEncoding: "console"},
		{name: "json", env: "json", wantLevel: zap.InfoLevel, wantTime: true, wantEncoding: "json"},
		{name: "production", env: "production", wantLevel: zap.InfoLevel, wantTime: true, wantEncoding: "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, withCaller := buildConfig(tt.env)

			assert.Equal(t, tt.wantLevel, cfg.Level.Level())
			assert.Equal(t, !tt.wantStack, cfg.DisableStacktrace)
			assert.Equal(t, tt.wantCaller, withCaller)
			assert.Equal(t, tt.wantEncoding, cfg.Encoding)
			assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
			assert.Equal(t, "logger", cfg.EncoderConfig.NameKey)

			if tt.wantCaller {
				assert.NotEqual(t, zapcore.OmitKey, cfg.EncoderConfig.CallerKey)
			} else {
				assert.Equal(t, zapcore.OmitKey, cfg.EncoderConfig.CallerKey)
			}

			if tt.wantTime {
				assert.NotEqual(t, zapcore.OmitKey, cfg.EncoderConfig.TimeKey)
			} else {
				assert.Equal(t, zapcore.OmitKey, cfg.EncoderConfig.TimeKey)
			}
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New("keyscope", "production")
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	quiet, err := New("keyscope", "")
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zap.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zap.WarnLevel))
}
