package lottery

import (
	"log/slog"
	"os"
)

// HandleInterrupts waits for the first signal on sig, saves the registry and
// calls exit with 0, or with 1 when the save fails. It returns without exiting
// if sig is closed first. Later signals are not consumed. Call in a goroutine.
func (s *Session) HandleInterrupts(sig <-chan os.Signal, exit func(int)) {
	got, ok := <-sig
	if !ok {
		return
	}
	slog.Info("received signal", "signal", got.String())
	s.out.printf("\n")
	s.out.info("Program interrupted. Saving progress...")

	if err := s.Interrupt(); err != nil {
		slog.Error("backup on interrupt failed", "error", err)
		s.out.error("Backup failed: %v", err)
		exit(1)
		return
	}
	exit(0)
}

// Interrupt closes registration and saves the registry. It contends for the
// same lock as registration, so the saved snapshot holds every committed
// insert and no registration can commit afterwards. After a completed draw
// there is nothing left to recover and no backup is written.
func (s *Session) Interrupt() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interrupted = true
	s.running = false
	if s.drawn {
		slog.Info("interrupted after draw, skipping backup")
		return nil
	}
	if err := s.saveLocked(); err != nil {
		return err
	}
	s.events.Info("Program interrupted. Backup saved.")
	s.out.info("Backup saved. Exiting.")
	return nil
}
