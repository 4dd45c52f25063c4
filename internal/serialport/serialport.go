// internal/serialport/serialport.go

// Package serialport adapts OS serial drivers to the small contract the
// ingestion loop needs.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver names.
const (
	DriverBugst    = "bugst"
	DriverGoburrow = "goburrow"
	DriverReplay   = "replay"
)

// NotSelected is the placeholder name used before a port is chosen.
const NotSelected = "not selected"

// DefaultReadTimeout bounds every blocking Read.
const DefaultReadTimeout = 100 * time.Millisecond

// Port is an open serial link.
// Read returns (0, nil) when the read timeout elapses without data.
type Port interface {
	io.ReadWriteCloser
	ResetOutputBuffer() error
}

// Config selects and parameterizes a driver.
type Config struct {
	Name        string
	BaudRate    int
	Driver      string
	ReadTimeout time.Duration

	// FlowControl is "none" or "software". Drivers that cannot apply
	// XON/XOFF ignore it; see SoftwareFlowControl.
	FlowControl string
}

// Opener opens a port for a config.
type Opener func(Config) (Port, error)

// Selected reports whether name refers to a real port.
func Selected(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && name != NotSelected
}

// SoftwareFlowControl reports whether a "software" flow control setting
// is honored by driver. Replay has no line to pause, so the setting is
// moot there. bugst and goburrow expose no XON/XOFF mode.
func SoftwareFlowControl(driver string) bool {
	return driver == DriverReplay
}

// Open dispatches on cfg.Driver. An empty driver means DriverBugst.
func Open(cfg Config) (Port, error) {
	if !Selected(cfg.Name) {
		return nil, errors.New("serialport: no port selected")
	}
	if cfg.BaudRate <= 0 && cfg.Driver != DriverReplay {
		return nil, fmt.Errorf("serialport: invalid baud rate %d", cfg.BaudRate)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	switch cfg.Driver {
	case "", DriverBugst:
		return openBugst(cfg)
	case DriverGoburrow:
		return openGoburrow(cfg)
	case DriverReplay:
		return openReplay(cfg)
	default:
		return nil, fmt.Errorf("serialport: unknown driver %q", cfg.Driver)
	}
}
