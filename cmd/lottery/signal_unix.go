// Unix/Darwin signal handling for the interrupt-and-save path.
//
// This file is compiled on all non-Windows platforms. Ctrl+C delivers SIGINT;
// SIGTERM is what process managers and container runtimes send, and both
// should leave a backup behind.

//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel returns a buffered channel that receives SIGINT and SIGTERM.
// The buffer keeps a signal that arrives while the handler goroutine is
// still starting.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
