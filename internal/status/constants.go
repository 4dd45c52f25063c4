// internal/status/constants.go
package status

// Link Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

const (
	SlotHealthCode     = 0
	SlotLastErrorCode  = 1
	SlotSecondsInError = 2
	SlotGateRunning    = 3

	// Counters are 32-bit, high word first.
	SlotFramesHi   = 4
	SlotFramesLo   = 5
	SlotRejectedHi = 6
	SlotRejectedLo = 7
)

// Slots 8–10 are reserved.
const (
	SlotReservedStart = 8
	SlotReservedEnd   = 10
)

// ---- DEVICE NAME ----

// Device name is always placed at the END of the status block.
const (
	SlotDeviceNameStart = 11
	SlotDeviceNameSlots = 8
	SlotDeviceNameEnd   = SlotDeviceNameStart + SlotDeviceNameSlots - 1
)

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

const (
	HealthUnknown  uint16 = 0 // boot, no port
	HealthOK       uint16 = 1 // frames arriving
	HealthError    uint16 = 2 // read or frame errors
	HealthStale    uint16 = 3 // running, no frames
	HealthDisabled uint16 = 4 // port open, ingestion off or paused
)

// ---- ERROR CODES ----

const (
	ErrCodeNone    uint16 = 0
	ErrCodeRead    uint16 = 1
	ErrCodeFrame   uint16 = 2
	ErrCodeOverrun uint16 = 3
)
