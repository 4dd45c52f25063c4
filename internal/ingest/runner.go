// internal/ingest/runner.go
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/observability"
)

// Run reads while the gate is at run and waits on it otherwise. Write
// requests are served in both states. Run returns when ctx ends, the gate
// is closed or the channel is closed. Read errors are logged and the loop
// keeps going.
func (l *Loop) Run(ctx context.Context, requests <-chan writeRequest) error {
	errLog := l.log.Sample(&zerolog.BurstSampler{Burst: 5, Period: 10 * time.Second})
	lastLevel := false
	observability.SetGateRunning(false)

	for {
		run, changed, err := l.gate.Watch()
		if err != nil {
			return err
		}
		if run != lastLevel {
			lastLevel = run
			observability.SetGateRunning(run)
			l.log.Debug().Bool("run", run).Msg("gate level")
		}

		if !run {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case req := <-requests:
				req.done <- l.write(req.payload)
			case <-changed:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-requests:
			req.done <- l.write(req.payload)
			continue
		default:
		}

		_, err = l.ReadOnce()
		if errors.Is(err, broadcast.ErrClosed) {
			return err
		}
		if err != nil {
			errLog.Warn().Err(err).Msg("serial read failed")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.cfg.ErrorPause):
			}
		}
	}
}
