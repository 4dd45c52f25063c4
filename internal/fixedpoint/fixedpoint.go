// internal/fixedpoint/fixedpoint.go

// Package fixedpoint converts between float64 and the Q16.15 words the FPGA
// places in telemetry frames.
//
// Layout: 17 integer bits (two's complement, sign included) followed by
// 15 fractional bits.
package fixedpoint

import "math"

const (
	// FracBits is the number of fractional bits in a word.
	FracBits = 15

	// Scale is 2^FracBits.
	Scale = 32768.0

	IntegerMask    uint32 = 0xFFFF_8000
	FractionalMask uint32 = 0x0000_7FFF
)

// Representable range.
const (
	Max = float64(math.MaxInt32) / Scale
	Min = float64(math.MinInt32) / Scale
)

// Decode interprets w as Q16.15.
// Total: every word has a value. No rounding beyond float64.
func Decode(w uint32) float64 {
	integer := float64(int32(w&IntegerMask) >> FracBits)
	fraction := float64(w&FractionalMask) / Scale
	return integer + fraction
}

// Encode packs v into Q16.15, rounding to the nearest 1/32768.
// Values outside [Min, Max] saturate; NaN encodes as 0.
func Encode(v float64) uint32 {
	if math.IsNaN(v) {
		return 0
	}
	scaled := math.Round(v * Scale)
	switch {
	case scaled >= math.MaxInt32:
		return uint32(math.MaxInt32)
	case scaled <= math.MinInt32:
		return uint32(1 << 31)
	}
	return uint32(int32(scaled))
}
