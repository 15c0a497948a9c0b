package scheduler

import (
	"context"
	"time"
)

// rolloverOffset shifts the day boundary to 04:00 local time, so a late
// study session before bed still counts as the same day.
const rolloverOffset = 4 * time.Hour

// Clock abstracts wall-clock time so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock { return fixedClock{t: t} }

// CreationAnchor computes the collection creation timestamp for a new
// collection: the most recent 04:00 boundary at or before now, in local
// time. Anchoring creation at the rollover boundary keeps the day math a
// plain division afterwards.
func CreationAnchor(now time.Time) int64 {
	shifted := now.Add(-rolloverOffset)
	midnight := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, shifted.Location())
	return midnight.Add(rolloverOffset).Unix()
}

// updateCutoff recomputes today and the end-of-day boundary from the
// collection creation time. Per-deck day counters are not touched here;
// they are interpreted lazily against today and rewritten on the next
// answer.
func (s *Scheduler) updateCutoff() {
	now := s.clock.Now().Unix()
	s.today = int((now - s.crt) / 86400)
	if s.today < 0 {
		s.today = 0
	}
	s.dayCutoff = s.crt + int64(s.today+1)*86400
}

// checkDay triggers a full reset when the clock has rolled past the day
// cutoff since the queues were built.
func (s *Scheduler) checkDay(ctx context.Context) error {
	if s.clock.Now().Unix() >= s.dayCutoff {
		return s.Reset(ctx)
	}
	return nil
}
