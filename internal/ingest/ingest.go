// internal/ingest/ingest.go

// Package ingest runs the read -> synchronize -> validate -> decode ->
// publish loop over one serial port.
package ingest

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/checksum"
	"github.com/k13114/ifsmurd/internal/frame"
	"github.com/k13114/ifsmurd/internal/gate"
	"github.com/k13114/ifsmurd/internal/message"
	"github.com/k13114/ifsmurd/internal/observability"
	"github.com/k13114/ifsmurd/internal/serialport"
)

// Loop owns the port for reads and writes while it runs.
type Loop struct {
	cfg   Config
	port  serialport.Port
	out   *broadcast.Channel[message.Record]
	gate  *gate.Gate
	sync  *frame.Synchronizer
	table *checksum.Table
	log   zerolog.Logger
	buf   []byte

	lastSync frame.SyncStats

	mu    sync.Mutex
	stats Stats
}

// New creates a loop. Every dependency is required.
func New(cfg Config, port serialport.Port, out *broadcast.Channel[message.Record], g *gate.Gate, logger zerolog.Logger) (*Loop, error) {
	if port == nil {
		return nil, errors.New("ingest: port required")
	}
	if out == nil {
		return nil, errors.New("ingest: channel required")
	}
	if g == nil {
		return nil, errors.New("ingest: gate required")
	}

	cfg = cfg.withDefaults()
	return &Loop{
		cfg:   cfg,
		port:  port,
		out:   out,
		gate:  g,
		sync:  frame.NewSynchronizer(),
		table: checksum.Default,
		log:   logger,
		buf:   make([]byte, cfg.ChunkSize),
	}, nil
}

// Stats returns a snapshot of the counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// ReadOnce performs exactly one read and processes what it returned.
// Bytes are processed even when the read also failed. Frame-level problems
// are counted, never returned.
func (l *Loop) ReadOnce() (published int, err error) {
	n, rerr := l.port.Read(l.buf)

	if n > 0 {
		observability.RecordRead(n)
		l.update(func(s *Stats) { s.BytesRead += uint64(n) })

		published, err = l.process(l.buf[:n])
	}

	if rerr != nil {
		observability.RecordReadError()
		l.update(func(s *Stats) {
			s.ReadErrors++
			s.LastError = rerr.Error()
			s.LastErrorAt = time.Now()
		})
		return published, rerr
	}
	return published, err
}

func (l *Loop) process(p []byte) (int, error) {
	candidates := l.sync.Feed(p)
	l.recordSyncDiscards()

	published := 0
	for _, f := range candidates {
		verdict := frame.Inspect(f, l.table)
		observability.RecordCandidate(verdict.String())
		l.countVerdict(verdict)

		if verdict != frame.Accepted {
			l.log.Trace().Str("verdict", verdict.String()).Int("len", len(f)).Msg("candidate dropped")
			continue
		}

		rec := message.Decode(f)

		if l.cfg.PublishDelay > 0 {
			time.Sleep(l.cfg.PublishDelay)
		}
		if _, err := l.out.Publish(rec); err != nil {
			return published, err
		}
		published++
		observability.RecordPublished()
		l.update(func(s *Stats) { s.Published++ })
	}
	return published, nil
}

func (l *Loop) countVerdict(v frame.Verdict) {
	l.update(func(s *Stats) {
		switch v {
		case frame.Accepted:
			s.Accepted++
			s.LastFrameAt = time.Now()
		case frame.TooShort:
			s.TooShort++
		case frame.Oversize:
			s.Oversize++
		case frame.LengthMismatch:
			s.LengthMismatch++
		case frame.CRCMismatch:
			s.CRCMismatch++
		}
	})
}

func (l *Loop) recordSyncDiscards() {
	cur := l.sync.Stats()
	short := cur.Short - l.lastSync.Short
	overruns := cur.Overruns - l.lastSync.Overruns
	l.lastSync = cur

	if short == 0 && overruns == 0 {
		return
	}
	observability.RecordSyncDiscards(short, overruns)
	l.update(func(s *Stats) {
		s.SyncShort += short
		s.SyncOverruns += overruns
	})
}

// write clears the output buffer and sends payload in full.
func (l *Loop) write(payload []byte) error {
	if err := l.port.ResetOutputBuffer(); err != nil {
		l.log.Warn().Err(err).Msg("reset output buffer failed")
	}

	err := writeAll(l.port, payload)
	observability.RecordCommandWrite(err == nil)
	l.update(func(s *Stats) { s.Commands++ })
	return err
}

func (l *Loop) update(fn func(*Stats)) {
	l.mu.Lock()
	fn(&l.stats)
	l.mu.Unlock()
}

func writeAll(w interface{ Write([]byte) (int, error) }, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("ingest: short write")
		}
		b = b[n:]
	}
	return nil
}
