// internal/status/tracker.go
package status

import "time"

// Sample is what the tracker observes about the link once per tick.
type Sample struct {
	PortOpen  bool
	Ingesting bool
	Running   bool

	Accepted   uint64
	Rejected   uint64
	ReadErrors uint64
	Overruns   uint64

	LastFrameAt time.Time
}

// Tracker derives a Snapshot from successive samples.
// Not safe for concurrent use; one goroutine owns it.
type Tracker struct {
	staleAfter time.Duration

	snap      Snapshot
	prev      Sample
	runningAt time.Time
}

func NewTracker(staleAfter time.Duration) *Tracker {
	return &Tracker{staleAfter: staleAfter}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	return t.snap
}

// Observe folds one sample taken at now into the snapshot and reports
// whether anything changed. Call it once per second: seconds_in_error
// counts calls made while Error or Stale.
func (t *Tracker) Observe(s Sample, now time.Time) (Snapshot, bool) {
	before := t.snap
	next := t.snap

	next.Running = s.Running
	next.Frames = uint32(s.Accepted)
	next.Rejected = uint32(s.Rejected)

	if s.Running && !t.prev.Running {
		t.runningAt = now
	}

	switch {
	case !s.PortOpen:
		next.Health = HealthUnknown
		next.LastErrorCode = ErrCodeNone
	case !s.Ingesting || !s.Running:
		next.Health = HealthDisabled
		next.LastErrorCode = ErrCodeNone
	case s.ReadErrors > t.prev.ReadErrors:
		next.Health = HealthError
		next.LastErrorCode = ErrCodeRead
	case s.Accepted > t.prev.Accepted:
		next.Health = HealthOK
		next.LastErrorCode = ErrCodeNone
	case s.Overruns > t.prev.Overruns:
		next.Health = HealthError
		next.LastErrorCode = ErrCodeOverrun
	case s.Rejected > t.prev.Rejected:
		next.Health = HealthError
		next.LastErrorCode = ErrCodeFrame
	case t.stale(s, now):
		next.Health = HealthStale
	}

	switch next.Health {
	case HealthError, HealthStale:
		// seconds_in_error MUST NOT wrap
		if next.SecondsInError < 0xFFFF {
			next.SecondsInError++
		}
	default:
		next.SecondsInError = 0
	}

	t.prev = s
	t.snap = next
	return next, next != before
}

func (t *Tracker) stale(s Sample, now time.Time) bool {
	last := s.LastFrameAt
	if last.Before(t.runningAt) {
		last = t.runningAt
	}
	return now.Sub(last) >= t.staleAfter
}
