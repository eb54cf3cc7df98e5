package lottery

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Announce prints the remaining registration time and the registry size every
// interval. It returns when ctx is done or when a wake finds the lottery no
// longer running. Call in a goroutine.
func (s *Session) Announce(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.safeAnnounce() {
				return
			}
		}
	}
}

// safeAnnounce keeps a panicking announcement from taking down registration.
func (s *Session) safeAnnounce() (more bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in announcer", "panic", fmt.Sprint(r))
			more = false
		}
	}()
	return s.announce()
}

// announce prints one status block under the lock and reports whether the
// lottery is still running.
func (s *Session) announce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}
	s.out.printf("\n[INFO] Time remaining for registration: %d second(s)\n", s.win.RemainingSeconds(s.now()))
	s.out.printf("[INFO] Registered users: %d\n\n", len(s.participants))
	return true
}
