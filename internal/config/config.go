// internal/config/config.go
package config

type Config struct {
	Serial    SerialConfig    `yaml:"serial" toml:"serial"`
	Ingest    IngestConfig    `yaml:"ingest" toml:"ingest"`
	HTTP      HTTPConfig      `yaml:"http" toml:"http"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Mirror    MirrorConfig    `yaml:"mirror" toml:"mirror"`
	Redis     RedisConfig     `yaml:"redis" toml:"redis"`
	Simulator SimulatorConfig `yaml:"simulator" toml:"simulator"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Port          string `yaml:"port" toml:"port"`
	BaudRate      int    `yaml:"baud_rate" toml:"baud_rate"`
	Driver        string `yaml:"driver" toml:"driver"` // bugst | goburrow | replay | sim
	ReadTimeoutMs int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
	FlowControl   string `yaml:"flow_control" toml:"flow_control"` // none | software

	// AutoOpen opens Port at startup instead of waiting for the API.
	AutoOpen bool `yaml:"auto_open" toml:"auto_open"`
}

// ---- INGEST ----

type IngestConfig struct {
	ChunkSize       int `yaml:"chunk_size" toml:"chunk_size"`
	PublishDelayUs  int `yaml:"publish_delay_us" toml:"publish_delay_us"`
	ErrorPauseMs    int `yaml:"error_pause_ms" toml:"error_pause_ms"`
	ChannelCapacity int `yaml:"channel_capacity" toml:"channel_capacity"`

	// AutoStart creates the gate and starts ingestion after AutoOpen.
	AutoStart bool `yaml:"auto_start" toml:"auto_start"`
	// AutoRun sets the gate to run after AutoStart.
	AutoRun bool `yaml:"auto_run" toml:"auto_run"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // console | json
}

// ---- MODBUS MIRROR ----

type MirrorConfig struct {
	TimeoutMs int            `yaml:"timeout_ms" toml:"timeout_ms"`
	Targets   []TargetConfig `yaml:"targets" toml:"targets"`

	// Link status block (optional, opt-in)
	Status *StatusConfig `yaml:"status" toml:"status"`
}

type TargetConfig struct {
	Name     string `yaml:"name" toml:"name"`
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	UnitID   uint8  `yaml:"unit_id" toml:"unit_id"`

	// Variables maps a variable id to its first holding register.
	// Each value takes two registers.
	Variables map[string]uint16 `yaml:"variables" toml:"variables"`
}

type StatusConfig struct {
	Endpoint     string `yaml:"endpoint" toml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id" toml:"unit_id"`
	Slot         uint16 `yaml:"slot" toml:"slot"`
	DeviceName   string `yaml:"device_name" toml:"device_name"`
	StaleAfterMs int    `yaml:"stale_after_ms" toml:"stale_after_ms"`
}

// ---- REDIS ----

type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"` // empty disables the publisher
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Channel  string `yaml:"channel" toml:"channel"`
}

// ---- SIMULATOR ----

type SimulatorConfig struct {
	Variables   []string `yaml:"variables" toml:"variables"`
	PeriodMs    int      `yaml:"period_ms" toml:"period_ms"`
	NoiseRate   float64  `yaml:"noise_rate" toml:"noise_rate"`
	CorruptRate float64  `yaml:"corrupt_rate" toml:"corrupt_rate"`
	Seed        int64    `yaml:"seed" toml:"seed"`
}
