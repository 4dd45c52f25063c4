// internal/gate/gate.go

// Package gate is the run/pause level shared between a controller and the
// ingestion loop. Only the latest level matters; nothing is queued.
package gate

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("gate: closed")

// Gate holds a single boolean level. Safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	run     bool
	closed  bool
	changed chan struct{}
}

// New returns an open gate at the given level.
func New(run bool) *Gate {
	return &Gate{run: run, changed: make(chan struct{})}
}

// Set stores a new level and wakes every waiter.
func (g *Gate) Set(run bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}
	g.run = run
	close(g.changed)
	g.changed = make(chan struct{})
	return nil
}

// Running reports the current level.
func (g *Gate) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.run
}

// Watch returns the current level and a channel closed on the next Set or
// Close. err is ErrClosed once the gate is closed.
func (g *Gate) Watch() (run bool, changed <-chan struct{}, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return g.run, nil, ErrClosed
	}
	return g.run, g.changed, nil
}

// WaitFor blocks until the level equals want, the gate closes or ctx ends.
func (g *Gate) WaitFor(ctx context.Context, want bool) error {
	for {
		run, changed, err := g.Watch()
		if err != nil {
			return err
		}
		if run == want {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Close releases waiters. Idempotent.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	close(g.changed)
}
