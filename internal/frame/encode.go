// internal/frame/encode.go
package frame

import (
	"encoding/binary"
	"errors"

	"github.com/sigurn/crc8"
)

// MaxChunks is the most variables that fit in MaxSize.
const MaxChunks = (MaxSize - 2*Unit) / ChunkSize

var crcTable = crc8.MakeTable(crc8.CRC8)

// Chunk is one variable as the FPGA registers hold it: ID in display
// order, Value as a raw Q16.15 word.
type Chunk struct {
	ID    [Unit]byte
	Value uint32
}

// ChunkID builds an id from up to 4 characters of s, zero padded.
func ChunkID(s string) [Unit]byte {
	var id [Unit]byte
	copy(id[:], s)
	return id
}

// EncodeBody builds the frame between the markers: LENGTH, chunks and
// checksum group. Every field goes out least significant byte first.
func EncodeBody(chunks []Chunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, errors.New("frame: at least one chunk required")
	}
	if len(chunks) > MaxChunks {
		return nil, errors.New("frame: too many chunks")
	}

	size := 2*Unit + len(chunks)*ChunkSize
	out := make([]byte, size)

	// (declared + 3) * 4 == size
	binary.LittleEndian.PutUint32(out[0:Unit], uint32(size/Unit-3))

	off := Unit
	for _, c := range chunks {
		for i := 0; i < Unit; i++ {
			out[off+i] = c.ID[Unit-1-i]
		}
		binary.LittleEndian.PutUint32(out[off+Unit:off+ChunkSize], c.Value)
		off += ChunkSize
	}

	out[off] = crc8.Checksum(out[Unit:off], crcTable)
	return out, nil
}

// Encode builds a complete wire frame, markers included.
func Encode(chunks []Chunk) ([]byte, error) {
	body, err := EncodeBody(chunks)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+2*Unit)
	out = binary.BigEndian.AppendUint32(out, Start)
	out = append(out, body...)
	out = binary.BigEndian.AppendUint32(out, Stop)
	return out, nil
}
