// internal/session/lifecycle.go

// Package session is the ingestion control plane: open the port, create
// the control gate, start and abort ingestion, release resources.
//
// The free functions are total. They never panic and report every refusal
// as an error built on one of the sentinels below.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/gate"
	"github.com/k13114/ifsmurd/internal/ingest"
	"github.com/k13114/ifsmurd/internal/message"
	"github.com/k13114/ifsmurd/internal/serialport"
)

var (
	ErrPortActive      = errors.New("session: port already active")
	ErrPortNotSelected = errors.New("session: no port selected")
	ErrBadBaudRate     = errors.New("session: baud rate must be positive")
	ErrGateActive      = errors.New("session: control gate already active")
	ErrIngestionActive = errors.New("session: ingestion already running")
	ErrNoIngestion     = errors.New("session: ingestion not running")
	ErrMissingPort     = errors.New("session: port not initialized")
	ErrMissingChannel  = errors.New("session: publish channel not initialized")
	ErrMissingGate     = errors.New("session: control gate not initialized")
	ErrNoOpener        = errors.New("session: no port opener")
	ErrUnknownCommand  = errors.New("session: unknown command")
)

// InitializePort opens name at baud unless a port is already active.
func InitializePort(active serialport.Port, open serialport.Opener, name string, baud int) (serialport.Port, error) {
	if active != nil {
		return nil, ErrPortActive
	}
	if !serialport.Selected(name) {
		return nil, ErrPortNotSelected
	}
	if baud <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadBaudRate, baud)
	}
	if open == nil {
		return nil, ErrNoOpener
	}

	p, err := open(serialport.Config{Name: strings.TrimSpace(name), BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", name, err)
	}
	return p, nil
}

// StartControlGate creates a gate at run unless one exists.
// StartIngestion moves it to paused once the loop is up.
func StartControlGate(active *gate.Gate) (*gate.Gate, error) {
	if active != nil {
		return nil, ErrGateActive
	}
	return gate.New(true), nil
}

// StartIngestion spawns the ingestion loop and pauses the gate.
func StartIngestion(
	port serialport.Port,
	ch *broadcast.Channel[message.Record],
	g *gate.Gate,
	opts ingest.Config,
	logger zerolog.Logger,
) (*ingest.Task, error) {
	switch {
	case port == nil:
		return nil, ErrMissingPort
	case ch == nil:
		return nil, ErrMissingChannel
	case g == nil:
		return nil, ErrMissingGate
	}

	task, err := ingest.Start(opts, port, ch, g, logger)
	if err != nil {
		return nil, fmt.Errorf("session: start ingestion: %w", err)
	}

	if err := g.Set(false); err != nil {
		task.Abort()
		return nil, fmt.Errorf("session: pause gate: %w", err)
	}
	return task, nil
}

// Abort cancels a running task. Safe on nil.
func Abort(task *ingest.Task) {
	if task != nil {
		task.Abort()
	}
}

// DropChannel closes ch; subscribers drain what is buffered. Safe on nil.
func DropChannel(ch *broadcast.Channel[message.Record]) {
	if ch != nil {
		ch.Close()
	}
}

// DropGate closes g, which ends any loop waiting on it. Safe on nil.
func DropGate(g *gate.Gate) {
	if g != nil {
		g.Close()
	}
}

// DropPort closes port. Safe on nil.
func DropPort(port serialport.Port) error {
	if port == nil {
		return nil
	}
	return port.Close()
}
