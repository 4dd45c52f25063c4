// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/k13114/ifsmurd/internal/status"
)

// StatusWriter is the delivery-only contract for link status.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// linkStatusWriter writes the status block.
// The first write, and the first write after any failure, asserts the
// whole block including the device name. Other writes only touch slots
// whose value changed.
type linkStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewStatusWriter builds a status writer if the plan has a status block.
func NewStatusWriter(plan Plan, clients map[string]endpointClient) (StatusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	sp := plan.Status
	return &linkStatusWriter{
		plan:     sp,
		cli:      clients[sp.Endpoint],
		needFull: true,
		nameRegs: status.EncodeDeviceName(sp.DeviceName),
	}, true
}

func (sw *linkStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	regs := status.Encode(s)
	base := sw.baseAddr()

	if sw.needFull {
		copy(regs[status.SlotDeviceNameStart:], sw.nameRegs)

		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	var errs []string

	// Name slots never change after the full assert.
	for start := 0; start < status.SlotDeviceNameStart; {
		if regs[start] == sw.last[start] {
			start++
			continue
		}
		end := start + 1
		for end < status.SlotDeviceNameStart && regs[end] != sw.last[end] {
			end++
		}

		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(start), regs[start:end]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", start, end-1, err))
		} else {
			copy(sw.last[start:end], regs[start:end])
		}
		start = end
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (sw *linkStatusWriter) baseAddr() uint16 {
	return sw.plan.BaseSlot * status.SlotsPerDevice
}
