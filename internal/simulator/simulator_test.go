// internal/simulator/simulator_test.go
package simulator

import (
	"testing"
	"time"

	"github.com/k13114/ifsmurd/internal/frame"
	"github.com/k13114/ifsmurd/internal/message"
)

func collect(t *testing.T, p *Port, reads int) [][]byte {
	t.Helper()
	s := frame.NewSynchronizer()
	buf := make([]byte, 64)

	var out [][]byte
	for i := 0; i < reads; i++ {
		n, err := p.Read(buf)
		if err != nil {
			t.Fatalf("Read err=%v", err)
		}
		out = append(out, s.Feed(buf[:n])...)
	}
	return out
}

func TestPort_ProducesValidFrames(t *testing.T) {
	p := New(Config{Variables: []string{"AB01", "CD02"}, Period: time.Millisecond, NoiseRate: 0.5, Seed: 1})
	defer p.Close()

	frames := collect(t, p, 50)
	if len(frames) == 0 {
		t.Fatalf("no frames produced")
	}

	// Noise may occasionally fake a marker; most frames must survive it.
	valid := 0
	for _, f := range frames {
		if !frame.Valid(f) {
			continue
		}
		valid++
		rec := message.Decode(f)
		if len(rec) != 2 || rec[0].ID != "AB01" || rec[1].ID != "CD02" {
			t.Fatalf("unexpected record %v", rec)
		}
	}
	if valid < len(frames)/2 {
		t.Fatalf("valid frames: got=%d of %d", valid, len(frames))
	}
}

func TestPort_CorruptRateBreaksChecksums(t *testing.T) {
	p := New(Config{Period: time.Millisecond, CorruptRate: 1, Seed: 2})
	defer p.Close()

	frames := collect(t, p, 20)
	if len(frames) == 0 {
		t.Fatalf("no frames produced")
	}
	for _, f := range frames {
		if frame.Valid(f) {
			t.Fatalf("corrupted frame validated")
		}
	}
}

func TestPort_LEDCommands(t *testing.T) {
	p := New(Config{})

	if _, err := p.Write([]byte{0x6C, 0x6C, 0x6C, 0x6C}); err != nil {
		t.Fatalf("Write err=%v", err)
	}
	if !p.LED() {
		t.Fatalf("LED should be on")
	}
	if _, err := p.Write([]byte{0x23, 0x23, 0x23, 0x23}); err != nil {
		t.Fatalf("Write err=%v", err)
	}
	if p.LED() {
		t.Fatalf("LED should be off")
	}

	_ = p.Close()
	if _, err := p.Read(make([]byte, 4)); err == nil {
		t.Fatalf("Read after Close should fail")
	}
}
