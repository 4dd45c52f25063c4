// internal/writer/builder.go
package writer

import (
	"fmt"
	"sort"
	"time"

	"github.com/k13114/ifsmurd/internal/config"
	wmodbus "github.com/k13114/ifsmurd/internal/writer/modbus"
)

// BuildPlan converts the mirror config into a Plan.
// Assumes config has already passed overlap validation.
func BuildPlan(m config.MirrorConfig) Plan {
	var plan Plan

	for _, t := range m.Targets {
		ep := TargetEndpoint{
			Name:     t.Name,
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
		}
		if ep.Name == "" {
			ep.Name = t.Endpoint
		}
		for id, addr := range t.Variables {
			ep.Variables = append(ep.Variables, VariableDest{ID: id, Address: addr})
		}
		sort.Slice(ep.Variables, func(i, j int) bool {
			return ep.Variables[i].Address < ep.Variables[j].Address
		})
		plan.Targets = append(plan.Targets, ep)
	}

	if st := m.Status; st != nil {
		plan.Status = &StatusPlan{
			Endpoint:   st.Endpoint,
			UnitID:     st.UnitID,
			BaseSlot:   st.Slot,
			DeviceName: st.DeviceName,
		}
	}

	return plan
}

// BuildEndpointClients creates one TCP client per unique endpoint,
// status endpoint included.
func BuildEndpointClients(plan Plan, timeout time.Duration) (map[string]endpointClient, func() error, error) {
	unique := map[string]struct{}{}
	for _, t := range plan.Targets {
		unique[t.Endpoint] = struct{}{}
	}
	if plan.Status != nil {
		unique[plan.Status.Endpoint] = struct{}{}
	}

	clients := make(map[string]endpointClient)
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	for endpoint := range unique {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  timeout,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("writer: endpoint %s: %w", endpoint, err)
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	return clients, closeAll, nil
}
