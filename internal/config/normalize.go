// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultBaudRate        = 115200
	DefaultDriver          = "bugst"
	DefaultReadTimeoutMs   = 100
	DefaultFlowControl     = "software"
	DefaultChunkSize       = 8192
	DefaultPublishDelayUs  = 50
	DefaultErrorPauseMs    = 100
	DefaultChannelCapacity = 5500
	DefaultListen          = "127.0.0.1:8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultMirrorTimeoutMs = 1000
	DefaultStaleAfterMs    = 2000
	DefaultRedisChannel    = "ifsmurd:records"
	DefaultSimPeriodMs     = 10
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.Serial
	s.Port = strings.TrimSpace(s.Port)
	s.Driver = strings.ToLower(s.Driver)
	if s.Driver == "" {
		s.Driver = DefaultDriver
	}
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.ReadTimeoutMs == 0 {
		s.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	s.FlowControl = strings.ToLower(s.FlowControl)
	if s.FlowControl == "" {
		s.FlowControl = DefaultFlowControl
	}

	in := &cfg.Ingest
	if in.ChunkSize == 0 {
		in.ChunkSize = DefaultChunkSize
	}
	if in.PublishDelayUs == 0 {
		in.PublishDelayUs = DefaultPublishDelayUs
	}
	if in.ErrorPauseMs == 0 {
		in.ErrorPauseMs = DefaultErrorPauseMs
	}
	if in.ChannelCapacity == 0 {
		in.ChannelCapacity = DefaultChannelCapacity
	}

	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = DefaultListen
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Mirror.TimeoutMs == 0 {
		cfg.Mirror.TimeoutMs = DefaultMirrorTimeoutMs
	}
	if st := cfg.Mirror.Status; st != nil {
		// Truncate to max 16 characters
		if len(st.DeviceName) > 16 {
			st.DeviceName = st.DeviceName[:16]
		}
		if st.StaleAfterMs == 0 {
			st.StaleAfterMs = DefaultStaleAfterMs
		}
	}

	if cfg.Redis.Addr != "" && cfg.Redis.Channel == "" {
		cfg.Redis.Channel = DefaultRedisChannel
	}

	if cfg.Simulator.PeriodMs == 0 {
		cfg.Simulator.PeriodMs = DefaultSimPeriodMs
	}
}
