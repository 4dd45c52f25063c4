// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/k13114/ifsmurd/internal/fixedpoint"
	"github.com/k13114/ifsmurd/internal/message"
)

// modbusWriter mirrors record values into holding registers.
// Each value is its raw Q16.15 word, high register first.
type modbusWriter struct {
	plan    Plan
	clients map[string]endpointClient
}

func New(plan Plan, clients map[string]endpointClient) RecordWriter {
	return &modbusWriter{
		plan:    plan,
		clients: clients,
	}
}

// Write sends every mapped variable present in rec. Adjacent registers
// go out in one request. Variables missing from rec are not touched.
func (w *modbusWriter) Write(_ context.Context, rec message.Record) error {
	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf("writer: missing client for endpoint %s", tgt.Endpoint))
			continue
		}

		for _, run := range registerRuns(tgt.Variables, rec) {
			if err := cli.WriteRegisters(tgt.UnitID, run.addr, run.regs); err != nil {
				errs = append(errs, fmt.Sprintf(
					"writer: ep=%s unit=%d addr=%d qty=%d err=%v",
					tgt.Endpoint, tgt.UnitID, run.addr, len(run.regs), err,
				))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

type registerRun struct {
	addr uint16
	regs []uint16
}

// registerRuns groups the values of vars found in rec into contiguous runs.
// vars must be sorted by Address.
func registerRuns(vars []VariableDest, rec message.Record) []registerRun {
	var runs []registerRun

	for _, v := range vars {
		val, ok := rec.Get(v.ID)
		if !ok {
			continue
		}
		word := fixedpoint.Encode(val)
		regs := []uint16{uint16(word >> 16), uint16(word)}

		if n := len(runs); n > 0 {
			last := &runs[n-1]
			if uint32(last.addr)+uint32(len(last.regs)) == uint32(v.Address) {
				last.regs = append(last.regs, regs...)
				continue
			}
		}
		runs = append(runs, registerRun{addr: v.Address, regs: regs})
	}

	return runs
}
