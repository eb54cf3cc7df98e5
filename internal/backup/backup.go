// Package backup persists the participant registry as a flat text file, one
// identifier per line. Every save replaces the whole file atomically, so a
// concurrent reader or a crash mid-save leaves either the previous snapshot or
// the new one on disk.
package backup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"tools.zach/dev/lottery/internal/atomicfile"
)

// Store reads and writes the backup file at a fixed path.
type Store struct {
	path string
}

// New returns a Store for path. The file need not exist.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backup file location.
func (s *Store) Path() string { return s.path }

// Save replaces the backup with ids, one per line. Order is not significant.
func (s *Store) Save(ids []string) error {
	err := atomicfile.WriteFunc(s.path, 0o644, func(w io.Writer) error {
		for _, id := range ids {
			if _, err := io.WriteString(w, id+"\n"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save backup %s: %w", s.path, err)
	}
	return nil
}

// Load returns the identifiers stored in the backup. Lines are trimmed of
// surrounding whitespace and blank lines are skipped. A missing file yields
// nil and no error.
func (s *Store) Load() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open backup %s: %w", s.path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read backup %s: %w", s.path, err)
	}
	return ids, nil
}

// Remove deletes the backup file. A missing file is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove backup %s: %w", s.path, err)
	}
	return nil
}
