// internal/writer/types.go
package writer

import (
	"context"

	"github.com/k13114/ifsmurd/internal/message"
)

// VariableDest maps one variable id to its first holding register.
type VariableDest struct {
	ID      string
	Address uint16
}

// TargetEndpoint is one Modbus TCP endpoint receiving mirrored variables.
type TargetEndpoint struct {
	Name      string
	Endpoint  string
	UnitID    uint8
	Variables []VariableDest // sorted by Address
}

// StatusPlan places the link status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built mirror plan.
type Plan struct {
	Targets []TargetEndpoint
	Status  *StatusPlan
}

// RecordWriter delivers one record to a sink.
type RecordWriter interface {
	Write(ctx context.Context, rec message.Record) error
}

// endpointClient is the exact contract the writers use.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
