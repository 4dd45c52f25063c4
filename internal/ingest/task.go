// internal/ingest/task.go
package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/gate"
	"github.com/k13114/ifsmurd/internal/message"
	"github.com/k13114/ifsmurd/internal/serialport"
)

// ErrStopped is returned by Write once the task has ended.
var ErrStopped = errors.New("ingest: task stopped")

// Task is a running ingestion loop.
type Task struct {
	ID string

	loop     *Loop
	cancel   context.CancelFunc
	requests chan writeRequest
	done     chan struct{}

	once sync.Once
	err  error
}

// Start builds a loop and runs it in its own goroutine.
func Start(cfg Config, port serialport.Port, out *broadcast.Channel[message.Record], g *gate.Gate, logger zerolog.Logger) (*Task, error) {
	id := uuid.NewString()
	loop, err := New(cfg, port, out, g, logger.With().Str("task", id).Logger())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		ID:       id,
		loop:     loop,
		cancel:   cancel,
		requests: make(chan writeRequest, loop.cfg.CommandQueue),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		t.err = loop.Run(ctx, t.requests)
		loop.log.Debug().Err(t.err).Msg("ingestion ended")
	}()

	return t, nil
}

// Abort cancels the loop without waiting for it. Idempotent.
func (t *Task) Abort() {
	t.once.Do(t.cancel)
}

// Done is closed when the loop has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the loop returns and reports why it did.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Write queues payload for the loop and waits for the result.
func (t *Task) Write(ctx context.Context, payload []byte) error {
	req := writeRequest{
		payload: append([]byte(nil), payload...),
		done:    make(chan error, 1),
	}

	select {
	case t.requests <- req:
	case <-t.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-t.done:
		// The loop may have answered just before exiting.
		select {
		case err := <-req.done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the loop counters.
func (t *Task) Stats() Stats {
	return t.loop.Stats()
}

// WriteDirect clears the output buffer of port and writes payload. Used when
// no task owns the port.
func WriteDirect(port serialport.Port, payload []byte) error {
	if port == nil {
		return errors.New("ingest: port required")
	}
	_ = port.ResetOutputBuffer()
	return writeAll(port, payload)
}
