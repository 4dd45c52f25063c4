// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Status block geometry, mirrored from internal/status.
const statusSlots = 20

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ---- serial ----

	switch strings.ToLower(cfg.Serial.Driver) {
	case "", "bugst", "goburrow", "replay", "sim":
	default:
		return fmt.Errorf("serial: unknown driver %q", cfg.Serial.Driver)
	}
	if cfg.Serial.BaudRate < 0 {
		return fmt.Errorf("serial: baud_rate must not be negative")
	}
	if cfg.Serial.ReadTimeoutMs < 0 {
		return fmt.Errorf("serial: read_timeout_ms must not be negative")
	}
	switch strings.ToLower(cfg.Serial.FlowControl) {
	case "", "none", "software":
	default:
		return fmt.Errorf("serial: unknown flow_control %q", cfg.Serial.FlowControl)
	}
	if cfg.Serial.AutoOpen && strings.TrimSpace(cfg.Serial.Port) == "" {
		return fmt.Errorf("serial: auto_open requires port")
	}

	// ---- ingest ----

	if cfg.Ingest.ChunkSize < 0 || cfg.Ingest.PublishDelayUs < 0 ||
		cfg.Ingest.ErrorPauseMs < 0 || cfg.Ingest.ChannelCapacity < 0 {
		return fmt.Errorf("ingest: values must not be negative")
	}
	if cfg.Ingest.AutoStart && !cfg.Serial.AutoOpen {
		return fmt.Errorf("ingest: auto_start requires serial.auto_open")
	}
	if cfg.Ingest.AutoRun && !cfg.Ingest.AutoStart {
		return fmt.Errorf("ingest: auto_run requires auto_start")
	}

	// ---- log ----

	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}

	// ---- simulator ----

	for _, id := range cfg.Simulator.Variables {
		if id == "" || len(id) > 4 {
			return fmt.Errorf("simulator: variable id %q must have 1 to 4 characters", id)
		}
	}
	if cfg.Simulator.NoiseRate < 0 || cfg.Simulator.NoiseRate > 1 ||
		cfg.Simulator.CorruptRate < 0 || cfg.Simulator.CorruptRate > 1 {
		return fmt.Errorf("simulator: rates must be within [0, 1]")
	}

	// ---- redis ----

	if cfg.Redis.DB < 0 {
		return fmt.Errorf("redis: db must not be negative")
	}

	return validateMirror(&cfg.Mirror)
}

// validateMirror rejects destination register overlaps.
// key = endpoint | unit_id
func validateMirror(m *MirrorConfig) error {
	type span struct {
		start uint32
		end   uint32
		owner string
	}

	if m.TimeoutMs < 0 {
		return fmt.Errorf("mirror: timeout_ms must not be negative")
	}

	spans := make(map[string][]span)

	claim := func(endpoint string, unitID uint8, start, end uint32, owner string) error {
		if end > 0xFFFF {
			return fmt.Errorf(
				"mirror: %s range=%d-%d exceeds the register space",
				owner, start, end,
			)
		}

		key := fmt.Sprintf("%s|%d", endpoint, unitID)
		for _, s := range spans[key] {
			// overlap check (inclusive)
			if !(end < s.start || start > s.end) {
				return fmt.Errorf(
					"mirror overlap: endpoint=%s unit_id=%d %s range=%d-%d overlaps with %s range=%d-%d",
					endpoint, unitID, owner, start, end, s.owner, s.start, s.end,
				)
			}
		}
		spans[key] = append(spans[key], span{start: start, end: end, owner: owner})
		return nil
	}

	for ti, t := range m.Targets {
		if strings.TrimSpace(t.Endpoint) == "" {
			return fmt.Errorf("mirror: target %d has no endpoint", ti)
		}
		if len(t.Variables) == 0 {
			return fmt.Errorf("mirror: target %q has no variables", t.Endpoint)
		}

		for id, addr := range t.Variables {
			if id == "" {
				return fmt.Errorf("mirror: target %q has an empty variable id", t.Endpoint)
			}
			start := uint32(addr)
			if err := claim(t.Endpoint, t.UnitID, start, start+1, fmt.Sprintf("variable %q", id)); err != nil {
				return err
			}
		}
	}

	if m.Status == nil {
		return nil
	}

	st := m.Status
	if strings.TrimSpace(st.Endpoint) == "" {
		return fmt.Errorf("mirror: status block has no endpoint")
	}
	// device_name sanity (ASCII only)
	for i := 0; i < len(st.DeviceName); i++ {
		if st.DeviceName[i] > 0x7F {
			return fmt.Errorf("mirror: status device_name must contain ASCII characters only")
		}
	}
	if st.StaleAfterMs < 0 {
		return fmt.Errorf("mirror: status stale_after_ms must not be negative")
	}

	start := uint32(st.Slot) * statusSlots
	return claim(st.Endpoint, st.UnitID, start, start+statusSlots-1, "status block")
}
