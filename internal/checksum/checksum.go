// internal/checksum/checksum.go

// Package checksum implements the table-driven CRC-8 that guards the inner
// payload of every telemetry frame.
package checksum

// Polynomial is the CRC-8 generator (x^8 + x^2 + x + 1), MSB-first, init 0.
const Polynomial byte = 0x07

// Table is a 256-entry CRC-8 lookup table.
type Table [256]byte

// Default is the process-wide table for Polynomial. Read-only.
var Default = MakeTable(Polynomial)

// MakeTable builds the MSB-first lookup table for poly.
func MakeTable(poly byte) *Table {
	var t Table
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// Sum runs the accumulator over payload starting from 0.
func Sum(payload []byte, table *Table) byte {
	var acc byte
	for _, b := range payload {
		acc = table[acc^b]
	}
	return acc
}

// Check reports whether the CRC of payload equals expected.
// A nil table fails closed.
func Check(payload []byte, expected byte, table *Table) bool {
	if table == nil {
		return false
	}
	return Sum(payload, table) == expected
}
