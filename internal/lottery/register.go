package lottery

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"tools.zach/dev/lottery/internal/logger"
	"tools.zach/dev/lottery/internal/participant"
)

// Prompt is printed before every read from the terminal.
const Prompt = "Enter a unique username to register: "

// ///////////////////////////////////////////////
// Input
// ///////////////////////////////////////////////

// LineReader yields one line of input per call and io.EOF when input ends.
type LineReader interface {
	ReadLine() (string, error)
}

type promptReader struct {
	r      *bufio.Reader
	prompt io.Writer
}

// NewLineReader reads lines from r, printing [Prompt] to prompt before each
// read. Lines have no length limit; the trailing "\n" or "\r\n" is stripped.
// A final line without a newline is returned before io.EOF. A nil prompt
// writer disables the prompt.
func NewLineReader(r io.Reader, prompt io.Writer) LineReader {
	if prompt == nil {
		prompt = io.Discard
	}
	return &promptReader{r: bufio.NewReader(r), prompt: prompt}
}

func (p *promptReader) ReadLine() (string, error) {
	fmt.Fprint(p.prompt, Prompt)
	line, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

// ///////////////////////////////////////////////
// Registration Loop
// ///////////////////////////////////////////////

// Outcome is how the registration phase ended.
type Outcome int

const (
	// WindowClosed means the window closed with participants; a draw follows.
	WindowClosed Outcome = iota
	// NoParticipants means the window closed empty and the lottery stopped.
	NoParticipants
)

func (o Outcome) String() string {
	switch o {
	case WindowClosed:
		return "window closed"
	case NoParticipants:
		return "no participants"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// phase is the deadline decision taken at the top of each loop iteration.
type phase int

const (
	phaseOpen phase = iota
	phaseExtended
	phaseClosed
	phaseAbandoned
)

// Run reads identifiers until the registration window closes. The deadline is
// checked before every read; the first expiry with fewer than MinParticipants
// registered extends the window once and the loop continues. End of input
// closes the window immediately without an extension.
//
// Persistence failures end the loop with an error. ctx is checked between
// reads.
func (s *Session) Run(ctx context.Context, in LineReader) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return WindowClosed, err
		}

		switch s.checkDeadline() {
		case phaseExtended:
			s.out.printf("\n")
			s.out.info("Less than %d users registered. Extending registration by %s...",
				s.cfg.MinParticipants, formatDuration(s.cfg.Extension))
			continue
		case phaseClosed:
			return WindowClosed, nil
		case phaseAbandoned:
			s.out.info("No users registered. Exiting.")
			return NoParticipants, nil
		}

		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			if s.closeEarly() == phaseAbandoned {
				s.out.info("No users registered. Exiting.")
				return NoParticipants, nil
			}
			return WindowClosed, nil
		}
		if err != nil {
			return WindowClosed, fmt.Errorf("read input: %w", err)
		}

		if err := s.attempt(strings.TrimSpace(line)); err != nil {
			return WindowClosed, err
		}
		if _, err := s.MaybeBackup(); err != nil {
			return WindowClosed, err
		}
	}
}

// attempt registers one identifier and reports the result on the console.
// Only ErrClosed escapes; validation and duplicate errors are recovered here.
func (s *Session) attempt(id string) error {
	res, size, err := s.TryRegister(id)
	logger.Trace(slog.Default(), "registration attempt", "id", id, "result", res.String(), "size", size)
	switch res {
	case Accepted:
		s.out.info("%s registered successfully. Total users: %d", id, size)
	case Duplicate:
		s.out.error("Username already registered.")
	case Invalid:
		var denied *participant.DeniedError
		if errors.As(err, &denied) {
			s.out.error("Username '%s' is not allowed.", id)
		} else {
			s.out.error("Invalid username. Use letters, digits, and underscores only.")
		}
	case Closed:
		return err
	}
	return nil
}

// checkDeadline applies the expiry state machine under the lock.
func (s *Session) checkDeadline() phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.win.Expired(now) {
		return phaseOpen
	}
	if len(s.participants) < s.cfg.MinParticipants {
		if w, ok := s.win.Extend(now, s.cfg.Extension); ok {
			s.win = w
			return phaseExtended
		}
	}
	return s.finishLocked()
}

// closeEarly ends registration without an extension.
func (s *Session) closeEarly() phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishLocked()
}

func (s *Session) finishLocked() phase {
	if len(s.participants) == 0 {
		s.running = false
		s.events.Info("No users registered. Lottery ended with no participants.")
		return phaseAbandoned
	}
	return phaseClosed
}

func formatDuration(d time.Duration) string {
	if d%time.Second == 0 {
		secs := int(d / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	return d.String()
}
