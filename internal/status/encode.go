// internal/status/encode.go
package status

// Encode converts a Snapshot into slots 0..SlotReservedEnd of a block.
// The device name slots are left zero; see EncodeDeviceName.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = s.SecondsInError
	if s.Running {
		regs[SlotGateRunning] = 1
	}
	regs[SlotFramesHi] = uint16(s.Frames >> 16)
	regs[SlotFramesLo] = uint16(s.Frames)
	regs[SlotRejectedHi] = uint16(s.Rejected >> 16)
	regs[SlotRejectedLo] = uint16(s.Rejected)

	return regs
}

// EncodeDeviceName packs up to 16 ASCII characters into 8 registers,
// two characters per register, first character in the high byte.
// Non-printable bytes become '?'.
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < len(b); i += 2 {
		hi := b[i]
		var lo byte
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
