// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

// helper to build a mirror target quickly
func target(endpoint string, unitID uint8, vars map[string]uint16) TargetConfig {
	return TargetConfig{
		Endpoint:  endpoint,
		UnitID:    unitID,
		Variables: vars,
	}
}

// ---- tests ----

func TestValidate_NoOverlapDifferentEndpoints(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{
			Targets: []TargetConfig{
				target("ep1", 1, map[string]uint16{"AB01": 0}),
				target("ep2", 1, map[string]uint16{"AB01": 0}),
			},
		},
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoOverlapDifferentUnit(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{
			Targets: []TargetConfig{
				target("ep1", 1, map[string]uint16{"AB01": 0}),
				target("ep1", 2, map[string]uint16{"AB01": 0}),
			},
		},
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TouchingRangesAllowed(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{
			Targets: []TargetConfig{
				target("ep1", 1, map[string]uint16{"AB01": 0, "AB02": 2}), // 0–1, 2–3
			},
		},
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_OverlapDetected(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{
			Targets: []TargetConfig{
				target("ep1", 1, map[string]uint16{"AB01": 10}),
				target("ep1", 1, map[string]uint16{"AB02": 11}), // 10–11 vs 11–12
			},
		},
	}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected overlap error, got nil")
	}
}

func TestValidate_StatusBlockOverlapDetected(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{
			Targets: []TargetConfig{
				target("ep1", 1, map[string]uint16{"AB01": 25}),
			},
			Status: &StatusConfig{Endpoint: "ep1", UnitID: 1, Slot: 1}, // 20–39
		},
	}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected status overlap error, got nil")
	}
}

func TestValidate_RegisterSpaceExceeded(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{
			Targets: []TargetConfig{
				target("ep1", 1, map[string]uint16{"AB01": 0xFFFF}),
			},
		},
	}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected range error, got nil")
	}
}

func TestValidate_StatusDeviceNameASCII(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{
			Status: &StatusConfig{Endpoint: "ep1", DeviceName: "FPGA-é"},
		},
	}

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected device_name error, got nil")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := map[string]Config{
		"driver":       {Serial: SerialConfig{Driver: "tarm"}},
		"flow control": {Serial: SerialConfig{FlowControl: "hardware"}},
		"auto open":    {Serial: SerialConfig{AutoOpen: true}},
		"auto start":   {Ingest: IngestConfig{AutoStart: true}},
		"auto run":     {Serial: SerialConfig{Port: "COM1", AutoOpen: true}, Ingest: IngestConfig{AutoRun: true}},
		"log format":   {Log: LogConfig{Format: "xml"}},
		"sim id":       {Simulator: SimulatorConfig{Variables: []string{"TOOLONG"}}},
		"sim rate":     {Simulator: SimulatorConfig{NoiseRate: 1.5}},
		"no endpoint":  {Mirror: MirrorConfig{Targets: []TargetConfig{target("", 1, map[string]uint16{"A": 0})}}},
		"no variables": {Mirror: MirrorConfig{Targets: []TargetConfig{target("ep", 1, nil)}}},
	}

	for name, cfg := range cases {
		cfg := cfg
		if err := Validate(&cfg); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{
		Mirror: MirrorConfig{Status: &StatusConfig{Endpoint: "ep", DeviceName: "0123456789ABCDEFXYZ"}},
		Redis:  RedisConfig{Addr: "localhost:6379"},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Normalize(cfg)

	if cfg.Serial.Driver != DefaultDriver || cfg.Serial.BaudRate != DefaultBaudRate {
		t.Fatalf("serial defaults: driver=%q baud=%d", cfg.Serial.Driver, cfg.Serial.BaudRate)
	}
	if cfg.Serial.FlowControl != "software" {
		t.Fatalf("flow control got=%q want=software", cfg.Serial.FlowControl)
	}
	if cfg.Ingest.ChannelCapacity != DefaultChannelCapacity {
		t.Fatalf("channel capacity got=%d", cfg.Ingest.ChannelCapacity)
	}
	if got := cfg.Mirror.Status.DeviceName; got != "0123456789ABCDEF" {
		t.Fatalf("device name not truncated: %q", got)
	}
	if cfg.Redis.Channel != DefaultRedisChannel {
		t.Fatalf("redis channel got=%q", cfg.Redis.Channel)
	}
}

func TestLoad_YAMLAndTOML(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "ifsmurd.yaml")
	yamlDoc := `
serial:
  port: /dev/ttyUSB0
  baud_rate: 921600
mirror:
  targets:
    - endpoint: 10.0.0.5:502
      unit_id: 3
      variables:
        AB01: 100
`
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	tomlPath := filepath.Join(dir, "ifsmurd.toml")
	tomlDoc := `
[serial]
port = "/dev/ttyUSB0"
baud_rate = 921600

[[mirror.targets]]
endpoint = "10.0.0.5:502"
unit_id = 3

[mirror.targets.variables]
AB01 = 100
`
	if err := os.WriteFile(tomlPath, []byte(tomlDoc), 0o600); err != nil {
		t.Fatalf("write toml: %v", err)
	}

	for _, p := range []string{yamlPath, tomlPath} {
		cfg, err := Load(p)
		if err != nil {
			t.Fatalf("Load(%s) err=%v", p, err)
		}
		if cfg.Serial.BaudRate != 921600 {
			t.Fatalf("%s: baud got=%d", p, cfg.Serial.BaudRate)
		}
		if len(cfg.Mirror.Targets) != 1 || cfg.Mirror.Targets[0].Variables["AB01"] != 100 {
			t.Fatalf("%s: targets=%+v", p, cfg.Mirror.Targets)
		}
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(yamlPath, []byte("serial:\n  baud: 9600\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(yamlPath); err == nil {
		t.Fatalf("expected unknown key error for yaml")
	}

	tomlPath := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(tomlPath, []byte("[serial]\nbaud = 9600\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(tomlPath); err == nil {
		t.Fatalf("expected unknown key error for toml")
	}
}
