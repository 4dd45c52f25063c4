// internal/serialport/replay.go
package serialport

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// replayPort plays a captured byte stream back as if it came off the wire.
// Once the capture is exhausted it behaves like an idle line.
type replayPort struct {
	mu      sync.Mutex
	f       *os.File
	idle    time.Duration
	done    bool
	written int
}

func openReplay(cfg Config) (Port, error) {
	f, err := os.Open(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("serialport: open capture %s: %w", cfg.Name, err)
	}
	return &replayPort{f: f, idle: cfg.ReadTimeout}, nil
}

func (p *replayPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done {
		time.Sleep(p.idle)
		return 0, nil
	}

	n, err := p.f.Read(b)
	if err == io.EOF {
		p.mu.Lock()
		p.done = true
		p.mu.Unlock()
		return n, nil
	}
	return n, err
}

// Write accepts and drops command bytes.
func (p *replayPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written += len(b)
	return len(b), nil
}

func (p *replayPort) ResetOutputBuffer() error { return nil }

func (p *replayPort) Close() error {
	return p.f.Close()
}
