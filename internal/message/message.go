// internal/message/message.go

// Package message decodes validated frames into variable records.
package message

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/k13114/ifsmurd/internal/fixedpoint"
	"github.com/k13114/ifsmurd/internal/frame"
)

// Variable is one decoded measurement.
type Variable struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// Record holds the variables of one frame in chunk order.
type Record []Variable

// Map returns the record keyed by id. Later duplicates overwrite earlier ones.
func (r Record) Map() map[string]float64 {
	m := make(map[string]float64, len(r))
	for _, v := range r {
		m[v.ID] = v.Value
	}
	return m
}

// Get returns the last value stored under id.
func (r Record) Get(id string) (float64, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].ID == id {
			return r[i].Value, true
		}
	}
	return 0, false
}

// MarshalJSON encodes the record as an object of id -> value.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// Decode turns a validated frame into a record.
// Only whole 8-byte chunks of the inner payload are decoded.
func Decode(f []byte) Record {
	inner := frame.Inner(f)
	n := len(inner) / frame.ChunkSize

	rec := make(Record, 0, n)
	for i := 0; i < n; i++ {
		chunk := inner[i*frame.ChunkSize : (i+1)*frame.ChunkSize]

		// The FPGA shifts out the least significant byte first.
		var id [frame.Unit]byte
		for j := 0; j < frame.Unit; j++ {
			id[j] = chunk[frame.Unit-1-j]
		}
		word := binary.LittleEndian.Uint32(chunk[frame.Unit:])

		rec = append(rec, Variable{
			ID:    RenderID(id[:]),
			Value: fixedpoint.Decode(word),
		})
	}
	return rec
}

// RenderID prints printable ASCII as is and every other byte as 0xHH.
// Trailing NUL padding is dropped, so ChunkID("AB") renders as "AB".
// An id made only of NULs renders as a single 0x00.
func RenderID(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	if len(b) == 0 {
		return "0x00"
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= 0x20 && c <= 0x7E {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "0x%02X", c)
	}
	return sb.String()
}
