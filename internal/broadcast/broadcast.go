// internal/broadcast/broadcast.go

// Package broadcast is a bounded fan-out channel.
//
// Every subscriber has its own cursor into a shared ring. Publishing never
// blocks: a subscriber that falls more than Capacity values behind loses
// the oldest ones and is told how many on its next Recv.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrClosed = errors.New("broadcast: closed")

// LaggedError reports values a subscriber missed. The next Recv resumes
// from the oldest value still buffered.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("broadcast: subscriber lagged, %d values skipped", e.Skipped)
}

// Channel fans values out to subscribers. Safe for concurrent use.
type Channel[T any] struct {
	mu     sync.Mutex
	ring   []T
	next   uint64 // sequence number of the next publish
	subs   int
	closed bool
	notify chan struct{}
}

// New returns a channel buffering up to capacity values (minimum 1).
func New[T any](capacity int) *Channel[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Channel[T]{
		ring:   make([]T, capacity),
		notify: make(chan struct{}),
	}
}

// Capacity is the ring size.
func (c *Channel[T]) Capacity() int { return len(c.ring) }

// Publish appends v and wakes subscribers. It returns the number of
// subscribers attached at the time of the call.
func (c *Channel[T]) Publish(v T) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	c.ring[c.next%uint64(len(c.ring))] = v
	c.next++

	close(c.notify)
	c.notify = make(chan struct{})
	return c.subs, nil
}

// Subscribe attaches a subscriber that sees values published from now on.
func (c *Channel[T]) Subscribe() *Subscription[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs++
	return &Subscription[T]{ch: c, cursor: c.next}
}

// Subscribers is the number of attached subscribers.
func (c *Channel[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs
}

// Close stops publishing. Subscribers drain what is buffered, then get
// ErrClosed. Idempotent.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.notify)
}

// Subscription is one reader. Not safe for concurrent use by itself.
type Subscription[T any] struct {
	ch       *Channel[T]
	cursor   uint64
	detached bool
}

// Recv returns the next value. It blocks until one is published, the
// channel closes or ctx ends. A *LaggedError means values were skipped;
// calling Recv again continues with the oldest buffered value.
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	c := s.ch

	for {
		c.mu.Lock()
		if s.detached {
			c.mu.Unlock()
			return zero, ErrClosed
		}

		size := uint64(len(c.ring))
		var oldest uint64
		if c.next > size {
			oldest = c.next - size
		}

		if s.cursor < oldest {
			skipped := oldest - s.cursor
			s.cursor = oldest
			c.mu.Unlock()
			return zero, &LaggedError{Skipped: skipped}
		}

		if s.cursor < c.next {
			v := c.ring[s.cursor%size]
			s.cursor++
			c.mu.Unlock()
			return v, nil
		}

		if c.closed {
			c.mu.Unlock()
			return zero, ErrClosed
		}

		notify := c.notify
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-notify:
		}
	}
}

// Close detaches the subscriber. Idempotent.
func (s *Subscription[T]) Close() {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.detached {
		return
	}
	s.detached = true
	c.subs--
}
