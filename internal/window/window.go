// Package window models the registration window: a start time, a deadline,
// and a one-shot extension latch. [Window] is a plain value; callers that
// share one must guard it themselves.
package window

import "time"

// Window is a registration window. The zero value is already expired.
type Window struct {
	// Start is when the window opened.
	Start time.Time
	// End is the current deadline.
	End time.Time
	// Extended latches once [Window.Extend] has succeeded.
	Extended bool
}

// New returns a window opening at start and closing d later.
func New(start time.Time, d time.Duration) Window {
	return Window{Start: start, End: start.Add(d)}
}

// Expired reports whether now is at or past the deadline.
func (w Window) Expired(now time.Time) bool {
	return !now.Before(w.End)
}

// Remaining returns the time left before the deadline, never negative.
func (w Window) Remaining(now time.Time) time.Duration {
	if left := w.End.Sub(now); left > 0 {
		return left
	}
	return 0
}

// RemainingSeconds returns [Window.Remaining] truncated to whole seconds.
func (w Window) RemainingSeconds(now time.Time) int {
	return int(w.Remaining(now) / time.Second)
}

// Extend moves the deadline to now+d and sets the latch. A window that was
// already extended is returned unchanged with ok=false.
func (w Window) Extend(now time.Time, d time.Duration) (_ Window, ok bool) {
	if w.Extended {
		return w, false
	}
	w.End = now.Add(d)
	w.Extended = true
	return w, true
}
