package lottery

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"tools.zach/dev/lottery/internal/logger"
	"tools.zach/dev/lottery/internal/random"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)

// ///////////////////////////////////////////////
// Fakes
// ///////////////////////////////////////////////

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: t0} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore records every save.
type memStore struct {
	mu      sync.Mutex
	initial []string
	saves   [][]string
	removed int
	saveErr error
	loadErr error
	rmErr   error
}

func (m *memStore) Save(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, slices.Clone(ids))
	return nil
}

func (m *memStore) Load() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.initial), m.loadErr
}

func (m *memStore) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rmErr != nil {
		return m.rmErr
	}
	m.removed++
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *memStore) lastSave() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

// step is one scripted input line. The clock advances by after once the line
// has been handed to the loop.
type step struct {
	line  string
	after time.Duration
}

type scriptReader struct {
	clock *fakeClock
	steps []step
	err   error
}

func (r *scriptReader) ReadLine() (string, error) {
	if len(r.steps) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	st := r.steps[0]
	r.steps = r.steps[1:]
	r.clock.Advance(st.after)
	return st.line, nil
}

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// ///////////////////////////////////////////////
// Harness
// ///////////////////////////////////////////////

type harness struct {
	s      *Session
	clock  *fakeClock
	store  *memStore
	out    *syncBuffer
	events *syncBuffer
}

func testConfig() Config {
	return Config{
		Duration:        2 * time.Second,
		Extension:       10 * time.Second,
		MinParticipants: 5,
		BackupInterval:  30 * time.Second,
	}
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		clock:  newFakeClock(),
		store:  &memStore{},
		out:    &syncBuffer{},
		events: &syncBuffer{},
	}
	if cfg.Store == nil {
		cfg.Store = h.store
	}
	cfg.Events = slog.New(logger.NewEventHandler(h.events))
	cfg.Out = h.out
	cfg.Now = h.clock.Now
	if cfg.Rand == nil {
		cfg.Rand = random.New(7)
	}
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	h.s = s
	return h
}

func (h *harness) run(t *testing.T, steps ...step) Outcome {
	t.Helper()
	outcome, err := h.s.Run(t.Context(), &scriptReader{clock: h.clock, steps: steps})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return outcome
}

// eventMessages strips timestamps from the event log.
func (h *harness) eventMessages() []string {
	var msgs []string
	for line := range strings.Lines(h.events.String()) {
		_, msg, ok := strings.Cut(strings.TrimSuffix(line, "\n"), " - ")
		if ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func register(t *testing.T, s *Session, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if res, _, err := s.TryRegister(id); res != Accepted {
			t.Fatalf("TryRegister(%q) = %v, %v; want accepted", id, res, err)
		}
	}
}

var errDisk = errors.New("disk full")
