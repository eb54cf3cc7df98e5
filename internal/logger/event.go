package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ///////////////////////////////////////////////
// Event Log
// ///////////////////////////////////////////////

// EventTimeFormat is the timestamp layout of event log lines.
const EventTimeFormat = "2006-01-02 15:04:05"

// EventHandler is a slog.Handler for the lottery event log. Every record at or
// above LevelInfo becomes exactly one line:
//
//	2006-01-02 15:04:05 - message
//
// Timestamps use local time. Attributes, when present, are appended in
// parentheses: "message (key=value)". Lines always end in "\n" so the file
// stays readable by line-oriented tools on every platform.
type EventHandler struct {
	// w is the destination writer, typically a lumberjack file.
	w io.Writer
	// mu serializes writes to w.
	mu *sync.Mutex
	// attrs holds pre-applied attributes added via [EventHandler.WithAttrs].
	attrs []slog.Attr
	// group is the dot-separated key prefix set via [EventHandler.WithGroup].
	group string
}

// NewEventHandler creates an EventHandler writing to w.
func NewEventHandler(w io.Writer) *EventHandler {
	return &EventHandler{w: w, mu: &sync.Mutex{}}
}

// Enabled drops debug and trace records; the event log is not a debug stream.
func (h *EventHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= LevelInfo
}

// Handle formats and writes a single event line.
func (h *EventHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ts.Local().Format(EventTimeFormat))
	buf.WriteString(" - ")
	buf.WriteString(r.Message)

	allAttrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	allAttrs = append(allAttrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		allAttrs = append(allAttrs, a)
		return true
	})
	if len(allAttrs) > 0 {
		buf.WriteString(" (")
		writeAttrs(&buf, h.group, allAttrs)
		buf.WriteString(")")
	}
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

// WithAttrs returns a new EventHandler with the given attributes pre-applied.
func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &EventHandler{w: h.w, mu: h.mu, attrs: newAttrs, group: h.group}
}

// WithGroup returns a new EventHandler whose attribute keys carry name as prefix.
func (h *EventHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &EventHandler{w: h.w, mu: h.mu, attrs: h.attrs, group: newGroup}
}

// NewEventLog creates the event logger appending to path. Existing content is
// preserved across runs; the file rotates once it exceeds maxSizeMB. The
// returned io.Closer must be closed on shutdown.
func NewEventLog(path string, maxSizeMB int) (*slog.Logger, io.Closer) {
	lj := rotatingFile(path, maxSizeMB)
	return slog.New(NewEventHandler(lj)), lj
}
