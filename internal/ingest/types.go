// internal/ingest/types.go
package ingest

import (
	"time"

	"github.com/k13114/ifsmurd/internal/frame"
)

// Device command payloads.
var (
	CommandLEDOn  = []byte{0x6C, 0x6C, 0x6C, 0x6C}
	CommandLEDOff = []byte{0x23, 0x23, 0x23, 0x23}
)

// Commands maps command names to payloads.
var Commands = map[string][]byte{
	"led-on":  CommandLEDOn,
	"led-off": CommandLEDOff,
}

// Config is the runtime config of one ingestion loop.
type Config struct {
	// ChunkSize is the read buffer size.
	ChunkSize int
	// PublishDelay is slept before every publish.
	PublishDelay time.Duration
	// ErrorPause is waited after a failed read.
	ErrorPause time.Duration
	// CommandQueue is the depth of the write request queue.
	CommandQueue int
}

// Defaults.
const (
	DefaultChunkSize    = 256 * 8 * frame.Unit
	DefaultPublishDelay = 50 * time.Microsecond
	DefaultErrorPause   = 100 * time.Millisecond
	DefaultCommandQueue = 16
)

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.PublishDelay < 0 {
		c.PublishDelay = 0
	}
	if c.ErrorPause <= 0 {
		c.ErrorPause = DefaultErrorPause
	}
	if c.CommandQueue <= 0 {
		c.CommandQueue = DefaultCommandQueue
	}
	return c
}

// Stats is a snapshot of loop counters.
type Stats struct {
	BytesRead  uint64 `json:"bytes_read"`
	ReadErrors uint64 `json:"read_errors"`

	Accepted       uint64 `json:"accepted"`
	TooShort       uint64 `json:"too_short"`
	Oversize       uint64 `json:"oversize"`
	LengthMismatch uint64 `json:"length_mismatch"`
	CRCMismatch    uint64 `json:"crc_mismatch"`

	SyncShort    uint64 `json:"sync_short"`
	SyncOverruns uint64 `json:"sync_overruns"`

	Published uint64 `json:"published"`
	Commands  uint64 `json:"commands"`

	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at"`
	LastFrameAt time.Time `json:"last_frame_at"`
}

// Rejected is every candidate that failed validation.
func (s Stats) Rejected() uint64 {
	return s.TooShort + s.Oversize + s.LengthMismatch + s.CRCMismatch
}

// writeRequest is an out-of-band write executed by the loop.
type writeRequest struct {
	payload []byte
	done    chan error
}
