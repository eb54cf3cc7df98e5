package lottery

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Winner is the result of a draw.
type Winner struct {
	ID           string
	Participants int
	DrawnAt      time.Time
}

// Draw picks one of ids uniformly using rng. It reports false when ids is
// empty.
func Draw(ids []string, rng *rand.Rand) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	return ids[rng.IntN(len(ids))], true
}

// DrawWinner selects the winner from a snapshot of the registry, announces
// it, records it in the event log and removes the backup. It fails with
// ErrNotRunning when the lottery was abandoned, interrupted or already drawn,
// and with ErrNoParticipants on an empty registry.
//
// The winner is returned even when removing the backup fails.
func (s *Session) DrawWinner() (Winner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return Winner{}, ErrNotRunning
	}

	s.out.printf("\n")
	s.out.info("Registration period ended.")

	ids := s.snapshotLocked()
	id, ok := Draw(ids, s.rng)
	if !ok {
		s.out.info("No participants. Exiting.")
		return Winner{}, ErrNoParticipants
	}

	w := Winner{ID: id, Participants: len(ids), DrawnAt: s.now()}
	s.drawn = true
	s.running = false

	s.out.printf("\n*** Lottery Winner ***\n")
	s.out.printf("Winner: %s\n", w.ID)
	s.out.printf("Total Participants: %d\n", w.Participants)
	s.out.printf("Thank you for participating!\n")

	s.events.Info("Winner declared: " + w.ID)
	s.events.Info(fmt.Sprintf("Total Participants: %d", w.Participants))
	slog.Info("winner drawn", "winner", w.ID, "participants", w.Participants)

	if err := s.store.Remove(); err != nil {
		return w, fmt.Errorf("remove backup: %w", err)
	}
	return w, nil
}
