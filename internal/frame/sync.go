// internal/frame/sync.go
package frame

import "encoding/binary"

// State of the synchronizer.
type State int

const (
	Scanning State = iota
	Capturing
)

func (s State) String() string {
	if s == Capturing {
		return "capturing"
	}
	return "scanning"
}

// startByte is one byte of the START marker.
const startByte = byte(Start & 0xFF)

// maxCapture is the residual START byte + the largest frame + STOP.
// Anything longer can never validate.
const maxCapture = 1 + MaxSize + Unit

// SyncStats counts what the synchronizer threw away on its own.
type SyncStats struct {
	Frames   uint64 // candidates emitted
	Short    uint64 // STOP seen with too little content
	Overruns uint64 // captures abandoned past maxCapture
}

// Synchronizer turns a byte stream into candidate frames.
//
// While scanning it slides a 4-byte window one byte at a time looking for
// START. Once START is seen every byte is captured and each group of 4
// captured bytes is compared against STOP. State survives across Feed
// calls, so a frame may span any number of reads.
//
// A run of START bytes longer than the marker leaves the true frame
// boundary ambiguous by up to 3 bytes. Up to that many leading 0x2F bytes
// of the capture are remembered as lead, and STOP is also accepted at
// the alignments they imply; the extra bytes are then dropped.
//
// Not safe for concurrent use.
type Synchronizer struct {
	state  State
	window uint32
	filled int
	lead   int  // leading 0x2F bytes after the residual byte, at most Unit-1
	inLead bool // still inside that run
	buf    []byte
	stats  SyncStats
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{buf: make([]byte, 0, maxCapture)}
}

// State returns the current state.
func (s *Synchronizer) State() State { return s.state }

// Buffered is the number of bytes captured for the open frame.
func (s *Synchronizer) Buffered() int { return len(s.buf) }

// Stats returns counters since creation.
func (s *Synchronizer) Stats() SyncStats { return s.stats }

// Reset drops any partial frame and returns to scanning.
func (s *Synchronizer) Reset() {
	s.state = Scanning
	s.window = 0
	s.filled = 0
	s.lead = 0
	s.inLead = false
	s.buf = s.buf[:0]
}

// Feed consumes p and returns the candidates finalized within it, in
// arrival order. Returned slices are owned by the caller.
func (s *Synchronizer) Feed(p []byte) [][]byte {
	var out [][]byte
	for _, b := range p {
		if f := s.push(b); f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (s *Synchronizer) push(b byte) []byte {
	if s.state == Scanning {
		s.window = s.window<<8 | uint32(b)
		if s.filled < Unit {
			s.filled++
		}
		if s.filled == Unit && s.window == Start {
			s.state = Capturing
			s.window = 0
			s.filled = 0
			s.lead = 0
			s.inLead = true
			// The last marker byte is kept; finalize trims it.
			s.buf = append(s.buf[:0], b)
		}
		return nil
	}

	s.buf = append(s.buf, b)
	n := len(s.buf) - 1 // bytes after the residual START byte

	if s.inLead {
		if b == startByte && n < Unit {
			s.lead = n
		} else {
			s.inLead = false
		}
	}

	if k := n % Unit; n >= Unit && k <= s.lead &&
		binary.BigEndian.Uint32(s.buf[len(s.buf)-Unit:]) == Stop {
		return s.finalize(k)
	}

	if len(s.buf) > maxCapture+s.lead {
		s.stats.Overruns++
		s.Reset()
	}
	return nil
}

// finalize trims the residual START byte, skip extra marker bytes and
// the STOP marker. Candidates with 8 bytes or less of content are noise.
func (s *Synchronizer) finalize(skip int) []byte {
	body := s.buf[1+skip:]

	var out []byte
	if len(body) > 2*Unit {
		out = make([]byte, len(body)-Unit)
		copy(out, body)
		s.stats.Frames++
	} else {
		s.stats.Short++
	}

	s.Reset()
	return out
}
