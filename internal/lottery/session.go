// Package lottery runs a timed registration window and draws one winner.
//
// A [Session] is the single piece of shared state. The registration loop
// ([Session.Run]), the periodic announcer ([Session.Announce]) and the
// interrupt handler ([Session.HandleInterrupts]) all operate on the same
// Session and serialize on one mutex that guards the participant set, the
// registration window, the running flag and the backup schedule.
package lottery

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"tools.zach/dev/lottery/internal/participant"
	"tools.zach/dev/lottery/internal/random"
	"tools.zach/dev/lottery/internal/window"
)

var (
	// ErrClosed is returned for registration attempts after an interrupt.
	ErrClosed = errors.New("registration closed")
	// ErrDuplicate is returned when the identifier is already registered.
	ErrDuplicate = errors.New("participant already registered")
	// ErrNoParticipants is returned by [Session.DrawWinner] on an empty registry.
	ErrNoParticipants = errors.New("no participants")
	// ErrNotRunning is returned by [Session.DrawWinner] once the lottery has
	// been abandoned, interrupted, or already drawn.
	ErrNotRunning = errors.New("lottery is not running")
	// ErrBackup wraps every failure to save the registry.
	ErrBackup = errors.New("persist registry")
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Store persists registry snapshots. [backup.Store] is the production
// implementation.
type Store interface {
	Save(ids []string) error
	Load() ([]string, error)
	Remove() error
}

// Result is the outcome of a single registration attempt.
type Result int

const (
	// Accepted means the identifier was added to the registry.
	Accepted Result = iota
	// Duplicate means the identifier was already registered.
	Duplicate
	// Invalid means the identifier failed validation.
	Invalid
	// Closed means the session was interrupted and takes no more entries.
	Closed
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	case Invalid:
		return "invalid"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Config holds session settings and collaborators.
type Config struct {
	// Duration is the initial registration window.
	Duration time.Duration
	// Extension is the one-time extension applied at first expiry when fewer
	// than MinParticipants have registered.
	Extension time.Duration
	// MinParticipants is the extension threshold.
	MinParticipants int
	// BackupInterval is the minimum time between opportunistic backups.
	BackupInterval time.Duration
	// Policy validates identifiers before they reach the registry.
	Policy participant.Policy

	// Store receives backups. Required.
	Store Store
	// Events is the event log. Nil discards events.
	Events *slog.Logger
	// Out receives console output. Nil discards it.
	Out io.Writer
	// Now is the clock. Nil means [time.Now].
	Now func() time.Time
	// Rand is the draw source. Nil means a crypto-seeded generator.
	Rand *rand.Rand
}

// Session is the shared lottery state.
type Session struct {
	cfg    Config
	store  Store
	events *slog.Logger
	out    *console
	now    func() time.Time
	rng    *rand.Rand

	// mu guards every field below.
	mu           sync.Mutex
	participants map[string]struct{}
	win          window.Window
	running      bool
	interrupted  bool
	drawn        bool
	lastBackup   time.Time
}

// NewSession opens the registration window at the current time.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.New("lottery: nil store")
	}
	if cfg.MinParticipants < 1 {
		return nil, fmt.Errorf("lottery: min participants must be >= 1, got %d", cfg.MinParticipants)
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("lottery: %w", err)
	}

	s := &Session{
		cfg:          cfg,
		store:        cfg.Store,
		events:       cfg.Events,
		out:          newConsole(cfg.Out),
		now:          cfg.Now,
		rng:          cfg.Rand,
		participants: make(map[string]struct{}),
		running:      true,
	}
	if s.events == nil {
		s.events = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		rng, err := random.NewSeeded()
		if err != nil {
			return nil, fmt.Errorf("lottery: %w", err)
		}
		s.rng = rng
	}

	start := s.now()
	s.win = window.New(start, cfg.Duration)
	s.lastBackup = start
	return s, nil
}

// ///////////////////////////////////////////////
// Registry
// ///////////////////////////////////////////////

// Restore seeds the registry from the backup store and returns the registry
// size afterwards. Lines that are not valid identifiers are skipped.
func (s *Session) Restore() (int, error) {
	ids, err := s.store.Load()
	if err != nil {
		return 0, fmt.Errorf("restore participants: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if err := participant.Validate(id); err != nil {
			slog.Warn("skipping malformed backup entry", "entry", id, "error", err)
			continue
		}
		s.participants[id] = struct{}{}
	}
	return len(s.participants), nil
}

// TryRegister validates id and adds it to the registry. It returns the
// attempt's result and the registry size after the attempt. Validation runs
// before the lock is taken; the duplicate check, the insert and the event log
// entry happen together under the lock.
func (s *Session) TryRegister(id string) (Result, int, error) {
	if err := s.cfg.Policy.Check(id); err != nil {
		return Invalid, s.Count(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interrupted {
		return Closed, len(s.participants), ErrClosed
	}
	if _, ok := s.participants[id]; ok {
		return Duplicate, len(s.participants), ErrDuplicate
	}
	s.participants[id] = struct{}{}
	s.events.Info("User registered: " + id)
	return Accepted, len(s.participants), nil
}

// Count returns the registry size.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// IsEmpty reports whether nobody has registered.
func (s *Session) IsEmpty() bool {
	return s.Count() == 0
}

// Snapshot returns the registered identifiers in sorted order.
func (s *Session) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() []string {
	ids := make([]string, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Running reports whether the lottery is still heading for a draw.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Window returns a copy of the registration window.
func (s *Session) Window() window.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win
}

// Stop clears the running flag so the announcer exits on its next wake.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// ///////////////////////////////////////////////
// Backup
// ///////////////////////////////////////////////

// MaybeBackup saves the registry when more than the backup interval has
// passed since the previous save. It reports whether a save happened.
func (s *Session) MaybeBackup() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.now().Sub(s.lastBackup) <= s.cfg.BackupInterval {
		return false, nil
	}
	if err := s.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// Flush saves the registry unconditionally.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	ids := s.snapshotLocked()
	if err := s.store.Save(ids); err != nil {
		return fmt.Errorf("%w: %w", ErrBackup, err)
	}
	s.lastBackup = s.now()
	slog.Debug("backup saved", "participants", len(ids))
	return nil
}
