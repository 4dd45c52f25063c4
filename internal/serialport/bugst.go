// internal/serialport/bugst.go
package serialport

import (
	"fmt"

	"go.bug.st/serial"
)

func openBugst(cfg Config) (Port, error) {
	p, err := serial.Open(cfg.Name, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Name, err)
	}

	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("serialport: set read timeout on %s: %w", cfg.Name, err)
	}

	return p, nil
}
