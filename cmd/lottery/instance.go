package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// errAlreadyRunning is returned by acquireInstance when another process holds
// the PID lock for the same data directory.
var errAlreadyRunning = errors.New("lottery already running")

// ///////////////////////////////////////////////
// Single Instance
// ///////////////////////////////////////////////

// instance owns the PID file for the lifetime of the process. The file holds
// "PID:TOKEN"; the token proves ownership so release never removes a file a
// newer process wrote.
type instance struct {
	path  string
	token string
	f     *os.File
}

// pidToken returns a random 16-character hex token.
func pidToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// acquireInstance locks the PID file in the data directory and records this
// process in it. A leftover file from a dead process is simply taken over
// since its lock died with it.
func acquireInstance(p DataPaths) (*instance, error) {
	f, err := os.OpenFile(p.PID(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		pid := readPID(f)
		f.Close()
		return nil, fmt.Errorf("%w (pid %d)", errAlreadyRunning, pid)
	}

	token := pidToken()
	content := fmt.Sprintf("%d:%s", os.Getpid(), token)
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	if _, err := f.WriteAt([]byte(content), 0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return &instance{path: p.PID(), token: token, f: f}, nil
}

// readPID parses the PID prefix of an open PID file, or returns 0.
func readPID(f *os.File) int {
	data, err := io.ReadAll(io.NewSectionReader(f, 0, 64))
	if err != nil {
		return 0
	}
	head, _, _ := strings.Cut(string(data), ":")
	pid, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return pid
}

// release unlocks and closes the PID file, then removes it if it still
// carries this instance's token. Safe on a nil instance.
func (i *instance) release() {
	if i == nil {
		return
	}
	if i.f != nil {
		_ = unlockFile(i.f)
		i.f.Close()
		i.f = nil
	}
	data, err := os.ReadFile(i.path)
	if err != nil {
		return
	}
	if _, token, ok := strings.Cut(string(data), ":"); ok && token == i.token {
		os.Remove(i.path)
	}
}
