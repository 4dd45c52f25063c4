// internal/serialport/list.go
package serialport

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// Info describes one port visible to the OS.
type Info struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// List enumerates serial ports. USB details are filled when known.
func List() ([]Info, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialport: enumerate: %w", err)
	}

	out := make([]Info, 0, len(ports))
	for _, p := range ports {
		info := Info{Name: p.Name, IsUSB: p.IsUSB}
		if p.IsUSB {
			info.VID = p.VID
			info.PID = p.PID
			info.SerialNumber = p.SerialNumber
			info.Product = p.Product
		}
		out = append(out, info)
	}
	return out, nil
}
