// internal/serialport/goburrow.go
package serialport

import (
	"errors"
	"fmt"

	"github.com/goburrow/serial"
)

// goburrowPort reports timeouts as empty reads, like the other drivers.
type goburrowPort struct {
	serial.Port
}

func openGoburrow(cfg Config) (Port, error) {
	p, err := serial.Open(&serial.Config{
		Address:  cfg.Name,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Name, err)
	}
	return &goburrowPort{Port: p}, nil
}

func (p *goburrowPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if errors.Is(err, serial.ErrTimeout) {
		return n, nil
	}
	return n, err
}

// ResetOutputBuffer is not exposed by this driver; writes go straight out.
func (p *goburrowPort) ResetOutputBuffer() error { return nil }
