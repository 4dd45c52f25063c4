// internal/status/status_test.go
package status

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestEncode_Layout(t *testing.T) {
	regs := Encode(Snapshot{
		Health:         HealthError,
		LastErrorCode:  ErrCodeFrame,
		SecondsInError: 7,
		Running:        true,
		Frames:         0x00012345,
		Rejected:       3,
	})

	if len(regs) != SlotsPerDevice {
		t.Fatalf("len got=%d want=%d", len(regs), SlotsPerDevice)
	}

	want := []uint16{HealthError, ErrCodeFrame, 7, 1, 0x0001, 0x2345, 0, 3}
	if diff := cmp.Diff(want, regs[:len(want)]); diff != "" {
		t.Fatalf("live slots mismatch (-want +got):\n%s", diff)
	}
	for i := SlotReservedStart; i < SlotsPerDevice; i++ {
		if regs[i] != 0 {
			t.Fatalf("slot %d got=%d want=0", i, regs[i])
		}
	}
}

func TestEncodeDeviceName(t *testing.T) {
	got := EncodeDeviceName("FPGA\x01")
	want := []uint16{'F'<<8 | 'P', 'G'<<8 | 'A', '?' << 8, 0, 0, 0, 0, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("name mismatch (-want +got):\n%s", diff)
	}

	long := EncodeDeviceName("0123456789ABCDEFGHIJ")
	if long[7] != 'E'<<8|'F' {
		t.Fatalf("truncation: last reg got=%#04x", long[7])
	}
}

func TestTracker_Transitions(t *testing.T) {
	tr := NewTracker(2 * time.Second)
	t0 := time.Unix(1_700_000_000, 0)

	snap, _ := tr.Observe(Sample{}, t0)
	if snap.Health != HealthUnknown {
		t.Fatalf("no port: health=%s", HealthName(snap.Health))
	}

	snap, changed := tr.Observe(Sample{PortOpen: true, Ingesting: true}, t0.Add(time.Second))
	if snap.Health != HealthDisabled || !changed {
		t.Fatalf("paused: health=%s changed=%v", HealthName(snap.Health), changed)
	}

	running := Sample{PortOpen: true, Ingesting: true, Running: true, Accepted: 5, LastFrameAt: t0.Add(2 * time.Second)}
	snap, _ = tr.Observe(running, t0.Add(2*time.Second))
	if snap.Health != HealthOK || snap.Frames != 5 || !snap.Running {
		t.Fatalf("running: %+v", snap)
	}

	running.Rejected = 1
	snap, _ = tr.Observe(running, t0.Add(3*time.Second))
	if snap.Health != HealthError || snap.LastErrorCode != ErrCodeFrame || snap.SecondsInError != 1 {
		t.Fatalf("crc errors: %+v", snap)
	}

	running.ReadErrors = 1
	snap, _ = tr.Observe(running, t0.Add(4*time.Second))
	if snap.LastErrorCode != ErrCodeRead || snap.SecondsInError != 2 {
		t.Fatalf("read error: %+v", snap)
	}

	running.Accepted = 6
	running.LastFrameAt = t0.Add(5 * time.Second)
	snap, _ = tr.Observe(running, t0.Add(5*time.Second))
	if snap.Health != HealthOK || snap.LastErrorCode != ErrCodeNone || snap.SecondsInError != 0 {
		t.Fatalf("recovery: %+v", snap)
	}
}

func TestTracker_StaleAfterSilence(t *testing.T) {
	tr := NewTracker(2 * time.Second)
	t0 := time.Unix(1_700_000_000, 0)
	s := Sample{PortOpen: true, Ingesting: true, Running: true}

	snap, _ := tr.Observe(s, t0)
	if snap.Health == HealthStale {
		t.Fatalf("stale immediately after run")
	}

	snap, _ = tr.Observe(s, t0.Add(time.Second))
	if snap.Health == HealthStale {
		t.Fatalf("stale before threshold")
	}

	snap, _ = tr.Observe(s, t0.Add(2*time.Second))
	if snap.Health != HealthStale || snap.SecondsInError != 1 {
		t.Fatalf("expected stale: %+v", snap)
	}
}

func TestTracker_UnchangedReportsFalse(t *testing.T) {
	tr := NewTracker(time.Second)
	now := time.Unix(1_700_000_000, 0)

	tr.Observe(Sample{PortOpen: true}, now)
	if _, changed := tr.Observe(Sample{PortOpen: true}, now.Add(time.Second)); changed {
		t.Fatalf("expected no change")
	}
}
