// internal/frame/sync_test.go
package frame

import (
	"bytes"
	"testing"
)

var (
	startMarker = []byte{0x2F, 0x2F, 0x2F, 0x2F}
	stopMarker  = []byte{0x5C, 0x5C, 0x5C, 0x5C}
)

func wire(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestSynchronizer_GarbageAroundOneFrame(t *testing.T) {
	body := ab01Body(t)

	for _, lead := range [][]byte{
		nil,
		{0x01},
		{0x01, 0x02, 0x03},
		{0xAA, 0x5C, 0x5C, 0x5C, 0x5C, 0x11, 0x22},
	} {
		stream := wire(lead, startMarker, body, stopMarker, []byte{0x00, 0x2F, 0x13})

		s := NewSynchronizer()
		got := s.Feed(stream)

		if len(got) != 1 {
			t.Fatalf("lead=% x: expected 1 candidate, got %d", lead, len(got))
		}
		if !bytes.Equal(got[0], body) {
			t.Fatalf("lead=% x: candidate mismatch\n got=% x\nwant=% x", lead, got[0], body)
		}
	}
}

func TestSynchronizer_FrameSpansChunks(t *testing.T) {
	body := ab01Body(t)
	stream := wire([]byte{0x09, 0x08}, startMarker, body, stopMarker)

	for _, step := range []int{1, 2, 3, 5, 7} {
		s := NewSynchronizer()
		var got [][]byte
		for i := 0; i < len(stream); i += step {
			end := i + step
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, s.Feed(stream[i:end])...)
		}
		if len(got) != 1 || !bytes.Equal(got[0], body) {
			t.Fatalf("step=%d: got %d candidates", step, len(got))
		}
	}
}

func TestSynchronizer_BackToBackFrames(t *testing.T) {
	a := ab01Body(t)
	b, err := EncodeBody([]Chunk{
		{ID: ChunkID("VEL1"), Value: 0xFFFF8000},
		{ID: ChunkID("CUR2"), Value: 0x00008000},
	})
	if err != nil {
		t.Fatalf("EncodeBody err=%v", err)
	}

	s := NewSynchronizer()
	got := s.Feed(wire(startMarker, a, stopMarker, startMarker, b, stopMarker))

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if !bytes.Equal(got[0], a) || !bytes.Equal(got[1], b) {
		t.Fatalf("candidates out of order or corrupted")
	}
	if s.Stats().Frames != 2 {
		t.Fatalf("stats frames: got=%d want=2", s.Stats().Frames)
	}
}

func TestSynchronizer_DoubleStartKeepsCapturing(t *testing.T) {
	s := NewSynchronizer()

	s.Feed(startMarker)
	if s.State() != Capturing {
		t.Fatalf("after START: state=%s", s.State())
	}
	before := s.Buffered()

	s.Feed(startMarker)
	if s.State() != Capturing {
		t.Fatalf("after second START: state=%s", s.State())
	}
	if s.Buffered() != before+len(startMarker) {
		t.Fatalf("buffer did not grow: before=%d after=%d", before, s.Buffered())
	}

	// The frame closes with the extra marker as content; validation drops it.
	got := s.Feed(wire(ab01Body(t), stopMarker))
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if Valid(got[0]) {
		t.Fatalf("candidate with embedded START must not validate")
	}
	if s.State() != Scanning {
		t.Fatalf("after STOP: state=%s", s.State())
	}
}

func TestSynchronizer_ShortFrameDiscarded(t *testing.T) {
	s := NewSynchronizer()

	got := s.Feed(wire(startMarker, []byte{1, 2, 3, 4}, stopMarker))
	if len(got) != 0 {
		t.Fatalf("short frame emitted")
	}
	if s.Stats().Short != 1 {
		t.Fatalf("short count: got=%d want=1", s.Stats().Short)
	}
	if s.State() != Scanning {
		t.Fatalf("short frame must return to scanning, state=%s", s.State())
	}

	body := ab01Body(t)
	got = s.Feed(wire(startMarker, body, stopMarker))
	if len(got) != 1 || !bytes.Equal(got[0], body) {
		t.Fatalf("frame after short frame not recovered")
	}
}

func TestSynchronizer_OverrunResyncs(t *testing.T) {
	s := NewSynchronizer()

	s.Feed(startMarker)
	s.Feed(make([]byte, maxCapture))
	if s.State() != Scanning {
		t.Fatalf("overrun must return to scanning, state=%s", s.State())
	}
	if s.Stats().Overruns != 1 {
		t.Fatalf("overruns: got=%d want=1", s.Stats().Overruns)
	}

	body := ab01Body(t)
	got := s.Feed(wire(startMarker, body, stopMarker))
	if len(got) != 1 || !bytes.Equal(got[0], body) {
		t.Fatalf("frame after overrun not recovered")
	}
}

func TestSynchronizer_CorruptFrameThenValidFrame(t *testing.T) {
	good := ab01Body(t)
	bad := append([]byte(nil), good...)
	bad[12] ^= 0x01

	s := NewSynchronizer()
	got := s.Feed(wire(startMarker, bad, stopMarker, []byte{0x77}, startMarker, good, stopMarker))

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if Valid(got[0]) {
		t.Fatalf("corrupted candidate accepted")
	}
	if !Valid(got[1]) {
		t.Fatalf("valid candidate rejected")
	}
}

func TestSynchronizer_StrayStartByteBeforeMarker(t *testing.T) {
	body := ab01Body(t)
	one := wire(startMarker, body, stopMarker)

	for _, extra := range []int{1, 2, 3} {
		stream := wire(bytes.Repeat([]byte{0x2F}, extra), one, one, one)

		s := NewSynchronizer()
		got := s.Feed(stream)

		if len(got) != 3 {
			t.Fatalf("extra=%d: candidates got=%d want=3", extra, len(got))
		}
		for i, c := range got {
			if !bytes.Equal(c, body) {
				t.Fatalf("extra=%d: candidate %d mismatch\n got=% x\nwant=% x", extra, i, c, body)
			}
			if !Valid(c) {
				t.Fatalf("extra=%d: candidate %d rejected", extra, i)
			}
		}
	}
}

func TestSynchronizer_LengthByteEqualToStartByte(t *testing.T) {
	chunks := make([]Chunk, 24)
	for i := range chunks {
		chunks[i] = Chunk{ID: ChunkID("V" + string(rune('A'+i))), Value: uint32(i) << 15}
	}
	body, err := EncodeBody(chunks)
	if err != nil {
		t.Fatalf("EncodeBody err=%v", err)
	}
	if body[0] != 0x2F {
		t.Fatalf("LENGTH low byte got=%#x want=0x2f", body[0])
	}

	s := NewSynchronizer()
	got := s.Feed(wire([]byte{0x2F}, startMarker, body, stopMarker))

	if len(got) != 1 {
		t.Fatalf("candidates got=%d want=1", len(got))
	}
	if !bytes.Equal(got[0], body) {
		t.Fatalf("candidate mismatch\n got=% x\nwant=% x", got[0], body)
	}
	if !Valid(got[0]) {
		t.Fatalf("candidate rejected")
	}
}
