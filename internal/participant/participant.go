// Package participant validates participant identifiers.
//
// An identifier is a non-empty string of ASCII letters, digits and
// underscores. A [Policy] may additionally refuse identifiers matching
// configured glob patterns; refused identifiers are reported as invalid.
package participant

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid participant identifier")
	// ErrEmpty is returned for the empty identifier.
	ErrEmpty = fmt.Errorf("%w: empty", ErrInvalid)
)

// InvalidCharError reports the first byte outside [A-Za-z0-9_].
type InvalidCharError struct {
	ID  string
	Pos int
}

func (e *InvalidCharError) Error() string {
	return fmt.Sprintf("invalid participant identifier %q: character %q at position %d", e.ID, e.ID[e.Pos], e.Pos)
}

func (e *InvalidCharError) Unwrap() error { return ErrInvalid }

// DeniedError reports an identifier refused by a deny pattern.
type DeniedError struct {
	ID      string
	Pattern string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("participant identifier %q is not allowed (matches %q)", e.ID, e.Pattern)
}

func (e *DeniedError) Unwrap() error { return ErrInvalid }

// Validate reports whether id is a well-formed identifier.
func Validate(id string) error {
	if id == "" {
		return ErrEmpty
	}
	for i := 0; i < len(id); i++ {
		if !allowed(id[i]) {
			return &InvalidCharError{ID: id, Pos: i}
		}
	}
	return nil
}

// IsValid is the boolean form of [Validate].
func IsValid(id string) bool {
	return Validate(id) == nil
}

func allowed(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// ///////////////////////////////////////////////
// Policy
// ///////////////////////////////////////////////

// Policy combines format validation with an optional deny list.
// The zero value accepts every well-formed identifier.
type Policy struct {
	// Deny holds doublestar glob patterns matched against the whole identifier.
	Deny []string
}

// Validate reports malformed deny patterns.
func (p Policy) Validate() error {
	for _, pattern := range p.Deny {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid deny pattern %q", pattern)
		}
	}
	return nil
}

// Check validates id and then tests it against the deny list.
func (p Policy) Check(id string) error {
	if err := Validate(id); err != nil {
		return err
	}
	for _, pattern := range p.Deny {
		matched, err := doublestar.Match(pattern, id)
		if err != nil {
			return fmt.Errorf("match deny pattern %q: %w", pattern, err)
		}
		if matched {
			return &DeniedError{ID: id, Pattern: pattern}
		}
	}
	return nil
}
