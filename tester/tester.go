// Package tester probes a connection descriptor for liveness.
package tester

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TykTechnologies/keyscope/keyerr"
	"github.com/TykTechnologies/keyscope/metrics"
	"github.com/TykTechnologies/keyscope/model"
)

// DefaultTimeout bounds a probe whose descriptor carries no timeout.
const DefaultTimeout = 5 * time.Second

const expectedReply = "PONG"

type Tester struct {
	dialer model.Dialer
	log    *zap.Logger
	rec    model.Recorder
}

func New(dialer model.Dialer, options ...model.Option) *Tester {
	bcfg := model.NewBaseConfig(options...)

	return &Tester{dialer: dialer, log: bcfg.Logger, rec: bcfg.Recorder}
}

// Test opens a connection scoped to the call, sends PING and reports whether
// the service answered PONG. There is no retry.
func (t *Tester) Test(ctx context.Context, desc model.Descriptor) error {
	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := t.log.With(zap.Stringer("target", desc))

	conn, err := t.dialer.Dial(ctx, desc)
	if err != nil {
		return t.fail(log, metrics.ProbeError, keyerr.Connection(err))
	}

	defer func() {
		if err := conn.Disconnect(context.Background()); err != nil {
			log.Debug("disconnect after probe failed", zap.Error(err))
		}
	}()

	reply, err := conn.Ping(ctx)
	if err != nil {
		return t.fail(log, metrics.ProbeError, keyerr.Connection(err))
	}

	if !strings.EqualFold(reply, expectedReply) {
		return t.fail(log, metrics.ProbeUnexpectedReply,
			&keyerr.ConnectionError{Cause: keyerr.ErrUnexpectedReply, Reply: reply})
	}

	t.rec.ObserveProbe(metrics.ProbeOK)
	log.Info("connection test succeeded")

	return nil
}

func (t *Tester) fail(log *zap.Logger, result string, err error) error {
	t.rec.ObserveProbe(result)
	log.Warn("connection test failed", zap.String("result", result), zap.Error(err))

	return err
}
