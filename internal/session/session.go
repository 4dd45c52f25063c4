// internal/session/session.go
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/gate"
	"github.com/k13114/ifsmurd/internal/ingest"
	"github.com/k13114/ifsmurd/internal/message"
	"github.com/k13114/ifsmurd/internal/serialport"
)

// DefaultChannelCapacity is the publish channel depth.
const DefaultChannelCapacity = 5500

// Options configures a Session.
type Options struct {
	Opener          serialport.Opener
	Ingest          ingest.Config
	ChannelCapacity int
}

// Session holds the optional resources of one control plane and applies
// the lifecycle operations to them. Safe for concurrent use.
type Session struct {
	ID string

	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	port     serialport.Port
	portName string
	baud     int
	gate     *gate.Gate
	channel  *broadcast.Channel[message.Record]
	task     *ingest.Task
}

// State is a point-in-time view of a session.
type State struct {
	ID          string       `json:"id"`
	Port        string       `json:"port"`
	BaudRate    int          `json:"baud_rate,omitempty"`
	PortOpen    bool         `json:"port_open"`
	Gate        bool         `json:"gate"`
	Running     bool         `json:"running"`
	Ingesting   bool         `json:"ingesting"`
	TaskID      string       `json:"task_id,omitempty"`
	Subscribers int          `json:"subscribers"`
	Stats       ingest.Stats `json:"stats"`
}

// New creates a session with its publish channel.
func New(opts Options, logger zerolog.Logger) *Session {
	if opts.ChannelCapacity <= 0 {
		opts.ChannelCapacity = DefaultChannelCapacity
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		opts:     opts,
		log:      logger.With().Str("component", "session").Str("session", id).Logger(),
		portName: serialport.NotSelected,
		channel:  broadcast.New[message.Record](opts.ChannelCapacity),
	}
}

// OpenPort initializes the serial port.
func (s *Session) OpenPort(name string, baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := InitializePort(s.port, s.opts.Opener, name, baud)
	if err != nil {
		s.log.Warn().Err(err).Str("port", name).Int("baud", baud).Msg("port not opened")
		return err
	}
	s.port = p
	s.portName = name
	s.baud = baud
	s.log.Info().Str("port", name).Int("baud", baud).Msg("port opened")
	return nil
}

// ClosePort stops ingestion, then releases the port.
func (s *Session) ClosePort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrMissingPort
	}
	s.stopTaskLocked()

	err := DropPort(s.port)
	s.port = nil
	s.portName = serialport.NotSelected
	s.baud = 0
	if err != nil {
		s.log.Warn().Err(err).Msg("port close failed")
		return fmt.Errorf("session: close port: %w", err)
	}
	s.log.Info().Msg("port closed")
	return nil
}

// StartGate creates the control gate.
func (s *Session) StartGate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := StartControlGate(s.gate)
	if err != nil {
		s.log.Warn().Err(err).Msg("gate not started")
		return err
	}
	s.gate = g
	return nil
}

// StopGate closes the gate. A loop blocked on it ends.
func (s *Session) StopGate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gate == nil {
		return ErrMissingGate
	}
	DropGate(s.gate)
	s.gate = nil
	return nil
}

// StartIngestion spawns the loop over the open port. The gate is left paused.
func (s *Session) StartIngestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taskAliveLocked() {
		return ErrIngestionActive
	}

	task, err := StartIngestion(s.port, s.channel, s.gate, s.opts.Ingest, s.log)
	if err != nil {
		s.log.Warn().Err(err).Msg("ingestion not started")
		return err
	}
	s.task = task
	s.log.Info().Str("task", task.ID).Msg("ingestion started")
	return nil
}

// StopIngestion aborts the loop and waits for it to return.
func (s *Session) StopIngestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.task == nil {
		return ErrNoIngestion
	}
	s.stopTaskLocked()
	return nil
}

// SetRunning sets the gate level.
func (s *Session) SetRunning(run bool) error {
	s.mu.Lock()
	g := s.gate
	s.mu.Unlock()

	if g == nil {
		return ErrMissingGate
	}
	return g.Set(run)
}

// Subscribe attaches a consumer to the publish channel.
func (s *Session) Subscribe() (*broadcast.Subscription[message.Record], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil {
		return nil, ErrMissingChannel
	}
	return s.channel.Subscribe(), nil
}

// Write sends payload to the device. While ingestion runs the write goes
// through the loop; otherwise it goes to the port directly.
func (s *Session) Write(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	if s.taskAliveLocked() {
		task := s.task
		s.mu.Unlock()
		return task.Write(ctx, payload)
	}
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrMissingPort
	}
	return ingest.WriteDirect(s.port, payload)
}

// Command writes a named device command.
func (s *Session) Command(ctx context.Context, name string) error {
	payload, ok := ingest.Commands[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return s.Write(ctx, payload)
}

// State returns a snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:       s.ID,
		Port:     s.portName,
		BaudRate: s.baud,
		PortOpen: s.port != nil,
		Gate:     s.gate != nil,
	}
	if s.gate != nil {
		st.Running = s.gate.Running()
	}
	if s.channel != nil {
		st.Subscribers = s.channel.Subscribers()
	}
	if s.task != nil {
		st.TaskID = s.task.ID
		st.Ingesting = s.taskAliveLocked()
		st.Stats = s.task.Stats()
	}
	return st
}

// Close tears everything down: task, gate, channel, port.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTaskLocked()
	DropGate(s.gate)
	s.gate = nil
	DropChannel(s.channel)
	s.channel = nil

	err := DropPort(s.port)
	s.port = nil
	return err
}

func (s *Session) taskAliveLocked() bool {
	if s.task == nil {
		return false
	}
	select {
	case <-s.task.Done():
		return false
	default:
		return true
	}
}

func (s *Session) stopTaskLocked() {
	if s.task == nil {
		return
	}
	Abort(s.task)
	err := s.task.Wait()
	s.log.Info().Str("task", s.task.ID).AnErr("reason", err).Msg("ingestion stopped")
	s.task = nil
}
