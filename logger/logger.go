// Package logger builds the zap logger used by the keyscope command.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// preset is the logging profile selected by KEYSCOPE_ENV.
type preset struct {
	level    zapcore.Level
	json     bool
	caller   bool
	stack    bool
	withTime bool
}

var presets = map[string]preset{
	// interactive use: only problems, no timestamps cluttering the terminal
	"":      {level: zap.WarnLevel},
	"debug": {level: zap.DebugLevel, caller: true, stack: true, withTime: true},
	// machine-readable output for scripted runs
	"json": {level: zap.InfoLevel, json: true, withTime: true},
}

var aliases = map[string]string{
	"development": "debug",
	"dev":         "debug",
	"production":  "json",
	"prod":        "json",
}

// New returns a named logger for env: "debug", "json", their aliases
// ("development", "production"), or anything else for warnings only.
// Logs go to stderr so command output on stdout stays clean.
func New(name, env string) (*zap.Logger, error) {
	cfg, withCaller := buildConfig(env)

	z, err := cfg.Build(zap.WithCaller(withCaller))
	if err != nil {
		return nil, fmt.Errorf("cannot init zap logger: %w", err)
	}

	return z.Named(name), nil
}

func lookupPreset(env string) preset {
	key := strings.ToLower(strings.TrimSpace(env))
	if alias, ok := aliases[key]; ok {
		key = alias
	}

	if p, ok := presets[key]; ok {
		return p
	}

	return presets[""]
}

func buildConfig(env string) (zap.Config, bool) {
	p := lookupPreset(env)

	enc := zap.NewDevelopmentEncoderConfig()
	encoding := "console"
	if p.json {
		enc = zap.NewProductionEncoderConfig()
		encoding = "json"
	}

	enc.NameKey = "logger"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	if !p.withTime {
		enc.TimeKey = zapcore.OmitKey
	}
	if !p.caller {
		enc.CallerKey = zapcore.OmitKey
	}

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(p.level),
		Development:       p.level == zap.DebugLevel,
		DisableCaller:     !p.caller,
		DisableStacktrace: !p.stack,
		Encoding:          encoding,
		EncoderConfig:     enc,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}, p.caller
}
