package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

// eventLineRe matches "YYYY-MM-DD HH:MM:SS - message".
var eventLineRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - (.*)$`)

// ///////////////////////////////////////////////
// EventHandler Format
// ///////////////////////////////////////////////

func TestEventHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewEventHandler(&buf))

	log.Info("User registered: alice")

	out := buf.String()
	if !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\r\n") {
		t.Fatalf("expected a single LF-terminated line, got %q", out)
	}
	m := eventLineRe.FindStringSubmatch(strings.TrimSuffix(out, "\n"))
	if m == nil {
		t.Fatalf("line %q does not match event format", out)
	}
	if m[1] != "User registered: alice" {
		t.Errorf("message = %q, want %q", m[1], "User registered: alice")
	}
}

func TestEventHandler_Timestamp(t *testing.T) {
	var buf bytes.Buffer
	h := NewEventHandler(&buf)

	when := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	r := slog.NewRecord(when, slog.LevelInfo, "Winner declared: bob", 0)
	if err := h.Handle(t.Context(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := "2026-03-04 05:06:07 - Winner declared: bob\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestEventHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewEventHandler(&buf)).With("run", "r1")

	log.Info("Program interrupted. Backup saved.", "participants", 3)

	line := strings.TrimSuffix(buf.String(), "\n")
	if !strings.HasSuffix(line, "Program interrupted. Backup saved. (run=r1, participants=3)") {
		t.Errorf("unexpected attr rendering: %q", line)
	}
}

func TestEventHandler_GroupedAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewEventHandler(&buf).WithGroup("draw"))

	log.Info("drawn", "size", 5)

	if !strings.Contains(buf.String(), "(draw.size=5)") {
		t.Errorf("expected grouped attr, got %q", buf.String())
	}
}

func TestEventHandler_DropsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewEventHandler(&buf))

	log.Debug("noise")
	Trace(log, "more noise")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "noise") {
		t.Errorf("debug/trace records must not reach the event log, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing, got %q", out)
	}
}

// ///////////////////////////////////////////////
// NewEventLog
// ///////////////////////////////////////////////

func TestNewEventLogAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lottery_log.txt")
	if err := os.WriteFile(path, []byte("2020-01-01 00:00:00 - earlier run\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	log, closer := NewEventLog(path, 10)
	log.Info("User registered: carol")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if lines[0] != "2020-01-01 00:00:00 - earlier run" {
		t.Errorf("existing content not preserved: %q", lines[0])
	}
	if m := eventLineRe.FindStringSubmatch(lines[1]); m == nil || m[1] != "User registered: carol" {
		t.Errorf("appended line = %q", lines[1])
	}
}
