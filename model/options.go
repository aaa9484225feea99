package model

import "go.uber.org/zap"

const DefaultPageSize int64 = 100

// Sealer protects secrets at rest.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(sealed string) ([]byte, error)
}

// BaseConfig collects the settings shared by every component.
type BaseConfig struct {
	Logger   *zap.Logger
	Recorder Recorder
	PageSize int64
	Sealer   Sealer
}

type Option interface {
	Apply(*BaseConfig)
}

type opts struct {
	fn func(*BaseConfig)
}

func (o *opts) Apply(bcfg *BaseConfig) {
	o.fn(bcfg)
}

// NewBaseConfig applies options over the defaults.
func NewBaseConfig(options ...Option) *BaseConfig {
	bcfg := &BaseConfig{
		Logger:   zap.NewNop(),
		Recorder: noopRecorder{},
		PageSize: DefaultPageSize,
	}

	for _, opt := range options {
		if opt != nil {
			opt.Apply(bcfg)
		}
	}

	return bcfg
}

// WithLogger sets the logger. A nil logger keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return &opts{
		fn: func(bcfg *BaseConfig) {
			if logger != nil {
				bcfg.Logger = logger
			}
		},
	}
}

// WithRecorder sets the receiver of operational events.
func WithRecorder(rec Recorder) Option {
	return &opts{
		fn: func(bcfg *BaseConfig) {
			if rec != nil {
				bcfg.Recorder = rec
			}
		},
	}
}

// WithPageSize sets the scan batch size hint. Values below 1 are ignored.
func WithPageSize(size int64) Option {
	return &opts{
		fn: func(bcfg *BaseConfig) {
			if size > 0 {
				bcfg.PageSize = size
			}
		},
	}
}

// WithSealer enables sealing of secrets at rest.
func WithSealer(s Sealer) Option {
	return &opts{
		fn: func(bcfg *BaseConfig) {
			bcfg.Sealer = s
		},
	}
}

// WithNoopConfig is a helper that changes nothing - useful for testing.
func WithNoopConfig() Option {
	return &opts{
		fn: func(bcfg *BaseConfig) {
			// Empty function that does nothing.
		},
	}
}
