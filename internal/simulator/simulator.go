// internal/simulator/simulator.go

// Package simulator stands in for the FPGA: it produces a telemetry byte
// stream of well-formed frames, optionally sprinkled with line noise and
// corrupted checksums. It satisfies serialport.Port.
package simulator

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/k13114/ifsmurd/internal/fixedpoint"
	"github.com/k13114/ifsmurd/internal/frame"
)

// Driver is the serialport driver name the daemon maps to this package.
const Driver = "sim"

// LED command payloads understood by the firmware.
var (
	ledOn  = []byte{0x6C, 0x6C, 0x6C, 0x6C}
	ledOff = []byte{0x23, 0x23, 0x23, 0x23}
)

type Config struct {
	// Variables are ids of at most 4 characters.
	Variables []string
	// Period between frames.
	Period time.Duration
	// NoiseRate is the probability of garbage bytes before a frame.
	NoiseRate float64
	// CorruptRate is the probability a frame carries a bad checksum.
	CorruptRate float64
	Seed        int64
}

// Port is a simulated FPGA link. Safe for concurrent Read and Write.
type Port struct {
	cfg Config

	mu      sync.Mutex
	rng     *rand.Rand
	pending bytes.Buffer
	tick    uint64
	last    time.Time
	led     bool
	closed  bool
}

var errClosed = errors.New("simulator: port closed")

func New(cfg Config) *Port {
	if len(cfg.Variables) == 0 {
		cfg.Variables = []string{"SIN0", "COS0", "RMP0"}
	}
	if len(cfg.Variables) > frame.MaxChunks {
		cfg.Variables = cfg.Variables[:frame.MaxChunks]
	}
	if cfg.Period <= 0 {
		cfg.Period = 10 * time.Millisecond
	}
	return &Port{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Read returns buffered stream bytes, producing the next frame once the
// period has elapsed. It sleeps at most one period.
func (p *Port) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errClosed
	}
	if p.pending.Len() == 0 {
		wait := p.cfg.Period - time.Since(p.last)
		p.mu.Unlock()
		if wait > 0 {
			time.Sleep(wait)
		}
		p.mu.Lock()
		p.produce()
	}
	n, _ := p.pending.Read(b)
	p.mu.Unlock()
	return n, nil
}

// Write accepts LED commands; other payloads are ignored like the firmware does.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errClosed
	}
	switch {
	case bytes.Equal(b, ledOn):
		p.led = true
	case bytes.Equal(b, ledOff):
		p.led = false
	}
	return len(b), nil
}

// LED reports the simulated LED state.
func (p *Port) LED() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.led
}

func (p *Port) ResetOutputBuffer() error { return nil }

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// produce appends one frame (and maybe noise) to pending. Caller holds mu.
func (p *Port) produce() {
	p.last = time.Now()
	p.tick++

	if p.rng.Float64() < p.cfg.NoiseRate {
		noise := make([]byte, 1+p.rng.Intn(7))
		p.rng.Read(noise)
		p.pending.Write(noise)
	}

	chunks := make([]frame.Chunk, len(p.cfg.Variables))
	for i, id := range p.cfg.Variables {
		chunks[i] = frame.Chunk{
			ID:    frame.ChunkID(id),
			Value: fixedpoint.Encode(p.sample(i)),
		}
	}

	wire, err := frame.Encode(chunks)
	if err != nil {
		return
	}
	if p.rng.Float64() < p.cfg.CorruptRate {
		// checksum byte: STOP(4) + reserved(3) + crc(1) from the end
		wire[len(wire)-2*frame.Unit] ^= 0xA5
	}
	p.pending.Write(wire)
}

// sample is the value of variable i at the current tick.
func (p *Port) sample(i int) float64 {
	phase := float64(p.tick) / 50
	switch i % 3 {
	case 0:
		return 10 * math.Sin(phase)
	case 1:
		return 10 * math.Cos(phase)
	default:
		return float64(p.tick%1000) / 4
	}
}
