package session

import "time"

// Scheduler runs f once after d. The returned stop function cancels the
// call if it has not started and reports whether it did so.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// realScheduler uses the runtime timer.
type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// revealTimer is the auto-advance token for the result currently shown.
// Each arm or cancel bumps the generation, so a callback that fires after
// being superseded sees a stale generation and does nothing.
type revealTimer struct {
	gen  uint64
	stop func() bool
}

// arm cancels any pending call and schedules fire with the new generation.
func (t *revealTimer) arm(s Scheduler, d time.Duration, fire func(gen uint64)) {
	t.cancel()
	gen := t.gen
	t.stop = s.AfterFunc(d, func() { fire(gen) })
}

func (t *revealTimer) cancel() {
	t.gen++
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

func (t *revealTimer) current(gen uint64) bool {
	return t.stop != nil && gen == t.gen
}
