package lottery

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"tools.zach/dev/lottery/internal/participant"
)

// ///////////////////////////////////////////////
// Construction
// ///////////////////////////////////////////////

func TestNewSession_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"nil store", Config{MinParticipants: 5}},
		{"zero min participants", Config{Store: &memStore{}}},
		{"bad deny pattern", Config{Store: &memStore{}, MinParticipants: 5, Policy: participant.Policy{Deny: []string{"[a-"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSession(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewSession_OpensWindow(t *testing.T) {
	h := newHarness(t, testConfig())

	w := h.s.Window()
	if !w.Start.Equal(t0) || !w.End.Equal(t0.Add(2*time.Second)) || w.Extended {
		t.Errorf("Window = %+v", w)
	}
	if !h.s.Running() {
		t.Error("new session should be running")
	}
	if !h.s.IsEmpty() {
		t.Error("new session should be empty")
	}
}

// ///////////////////////////////////////////////
// TryRegister
// ///////////////////////////////////////////////

func TestTryRegister(t *testing.T) {
	cfg := testConfig()
	cfg.Policy = participant.Policy{Deny: []string{"admin*"}}
	h := newHarness(t, cfg)

	tests := []struct {
		id      string
		want    Result
		size    int
		wantErr error
	}{
		{"alice", Accepted, 1, nil},
		{"alice", Duplicate, 1, ErrDuplicate},
		{"", Invalid, 1, participant.ErrEmpty},
		{"bad name", Invalid, 1, participant.ErrInvalid},
		{"abc-123", Invalid, 1, participant.ErrInvalid},
		{"admin_1", Invalid, 1, participant.ErrInvalid},
		{"abc_123", Accepted, 2, nil},
		{"Alice", Accepted, 3, nil},
	}
	for _, tt := range tests {
		res, size, err := h.s.TryRegister(tt.id)
		if res != tt.want || size != tt.size {
			t.Errorf("TryRegister(%q) = %v, %d; want %v, %d", tt.id, res, size, tt.want, tt.size)
		}
		if tt.wantErr == nil && err != nil {
			t.Errorf("TryRegister(%q) error = %v", tt.id, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("TryRegister(%q) error = %v, want %v", tt.id, err, tt.wantErr)
		}
	}

	if got := h.s.Snapshot(); !slices.Equal(got, []string{"Alice", "abc_123", "alice"}) {
		t.Errorf("Snapshot = %v", got)
	}
}

func TestTryRegister_LogsOnlyCommittedInserts(t *testing.T) {
	h := newHarness(t, testConfig())

	for _, id := range []string{"alice", "alice", "bad name", "", "bob"} {
		h.s.TryRegister(id)
	}

	want := []string{"User registered: alice", "User registered: bob"}
	if got := h.eventMessages(); !slices.Equal(got, want) {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestTryRegister_Concurrent(t *testing.T) {
	h := newHarness(t, testConfig())

	const workers = 16
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("user_%02d", i)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				if res, _, _ := h.s.TryRegister(id); res == Accepted {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
				h.s.Count()
			}
		}()
	}
	wg.Wait()

	if accepted != len(ids) {
		t.Errorf("accepted %d times, want %d", accepted, len(ids))
	}
	if got := h.s.Snapshot(); !slices.Equal(got, ids) {
		t.Errorf("Snapshot = %v, want %v", got, ids)
	}
	if n := strings.Count(h.events.String(), "User registered:"); n != len(ids) {
		t.Errorf("logged %d registrations, want %d", n, len(ids))
	}
}

// ///////////////////////////////////////////////
// Restore
// ///////////////////////////////////////////////

func TestRestore(t *testing.T) {
	cfg := testConfig()
	store := &memStore{initial: []string{"bob", "alice", "bad name", "", "alice"}}
	cfg.Store = store
	h := newHarness(t, cfg)

	n, err := h.s.Restore()
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 2 {
		t.Errorf("Restore = %d, want 2", n)
	}
	if got := h.s.Snapshot(); !slices.Equal(got, []string{"alice", "bob"}) {
		t.Errorf("Snapshot = %v", got)
	}
	if res, _, _ := h.s.TryRegister("alice"); res != Duplicate {
		t.Errorf("restored id should be a duplicate, got %v", res)
	}
	if h.events.String() != "" {
		t.Errorf("restore should not log registrations, got %q", h.events.String())
	}
}

func TestRestore_Error(t *testing.T) {
	cfg := testConfig()
	cfg.Store = &memStore{loadErr: errDisk}
	h := newHarness(t, cfg)

	if _, err := h.s.Restore(); !errors.Is(err, errDisk) {
		t.Errorf("Restore error = %v, want %v", err, errDisk)
	}
}

// ///////////////////////////////////////////////
// Backup
// ///////////////////////////////////////////////

func TestMaybeBackup(t *testing.T) {
	h := newHarness(t, testConfig())
	register(t, h.s, "alice")

	steps := []struct {
		advance time.Duration
		want    bool
	}{
		{10 * time.Second, false},
		{20 * time.Second, false}, // exactly 30s is not past the interval
		{1 * time.Second, true},
		{29 * time.Second, false},
		{2 * time.Second, true},
	}
	for i, st := range steps {
		h.clock.Advance(st.advance)
		saved, err := h.s.MaybeBackup()
		if err != nil {
			t.Fatalf("step %d: MaybeBackup: %v", i, err)
		}
		if saved != st.want {
			t.Errorf("step %d: saved = %v, want %v", i, saved, st.want)
		}
	}
	if n := h.store.saveCount(); n != 2 {
		t.Errorf("saves = %d, want 2", n)
	}
}

func TestMaybeBackup_Error(t *testing.T) {
	cfg := testConfig()
	store := &memStore{saveErr: errDisk}
	cfg.Store = store
	h := newHarness(t, cfg)

	h.clock.Advance(time.Minute)
	if _, err := h.s.MaybeBackup(); !errors.Is(err, errDisk) {
		t.Fatalf("MaybeBackup error = %v, want %v", err, errDisk)
	}

	// a failed save does not reset the schedule
	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()
	if saved, err := h.s.MaybeBackup(); err != nil || !saved {
		t.Errorf("MaybeBackup after recovery = %v, %v; want true, nil", saved, err)
	}
}

func TestFlush(t *testing.T) {
	h := newHarness(t, testConfig())
	register(t, h.s, "bob", "alice")

	if err := h.s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := h.store.lastSave(); !slices.Equal(got, []string{"alice", "bob"}) {
		t.Errorf("saved %v, want [alice bob]", got)
	}

	// Flush resets the schedule.
	h.clock.Advance(30 * time.Second)
	if saved, _ := h.s.MaybeBackup(); saved {
		t.Error("MaybeBackup saved within the interval after Flush")
	}
}
