// internal/frame/frame.go

// Package frame recovers telemetry frames from the raw serial byte stream
// and checks their integrity.
//
// Wire layout (bytes, unit = 4):
//
//	[START 4][LENGTH 4][chunk 8]...[CRC 1 + reserved 3][STOP 4]
//
// A frame, as handled by this package, is what lies between the markers:
// LENGTH, the chunks and the checksum group.
package frame

import (
	"encoding/binary"

	"github.com/k13114/ifsmurd/internal/checksum"
)

// Unit is the width of every field group on the wire.
const Unit = 4

// Markers, compared as big-endian words in arrival order.
const (
	Start uint32 = 0x2F2F2F2F
	Stop  uint32 = 0x5C5C5C5C
)

// MaxSize is the largest frame (markers excluded) that can validate.
// It is also the clamp applied to the declared length.
const MaxSize = 256

// ChunkSize is one variable: 4-byte id + 4-byte Q16.15 value.
const ChunkSize = 2 * Unit

// Verdict classifies a finalized candidate.
type Verdict int

const (
	Accepted Verdict = iota
	TooShort
	Oversize
	LengthMismatch
	CRCMismatch
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case TooShort:
		return "too_short"
	case Oversize:
		return "oversize"
	case LengthMismatch:
		return "length_mismatch"
	case CRCMismatch:
		return "crc_mismatch"
	default:
		return "unknown"
	}
}

// DeclaredLength reads the LENGTH field: first 4 bytes, byte-reversed,
// clamped to MaxSize. Frames shorter than one unit declare 0.
func DeclaredLength(f []byte) uint32 {
	if len(f) < Unit {
		return 0
	}
	n := binary.LittleEndian.Uint32(f[:Unit])
	if n > MaxSize {
		return MaxSize
	}
	return n
}

// ExpectedSize is the frame size implied by a declared length.
func ExpectedSize(declared uint32) int {
	return (int(declared) + 3) * Unit
}

// Inner returns the variable chunks: everything between the LENGTH field
// and the checksum group. The CRC and the decoder both use these offsets.
func Inner(f []byte) []byte {
	if len(f) < 2*Unit {
		return nil
	}
	return f[Unit : len(f)-Unit]
}

// ChecksumByte is the first byte of the final group.
// ok is false when the frame is not longer than one unit.
func ChecksumByte(f []byte) (b byte, ok bool) {
	if len(f) <= Unit {
		return 0, false
	}
	return f[len(f)-Unit], true
}

// CheckCRC validates the frame checksum against table.
// Fails closed on frames not longer than one unit.
func CheckCRC(f []byte, table *checksum.Table) bool {
	expected, ok := ChecksumByte(f)
	if !ok {
		return false
	}
	return checksum.Check(Inner(f), expected, table)
}

// Inspect runs the length sanity check and then the CRC.
func Inspect(f []byte, table *checksum.Table) Verdict {
	if len(f) <= Unit {
		return TooShort
	}
	if len(f) > MaxSize {
		return Oversize
	}
	if len(f) != ExpectedSize(DeclaredLength(f)) {
		return LengthMismatch
	}
	if !CheckCRC(f, table) {
		return CRCMismatch
	}
	return Accepted
}

// Valid reports whether Inspect accepts f under the default table.
func Valid(f []byte) bool {
	return Inspect(f, checksum.Default) == Accepted
}
