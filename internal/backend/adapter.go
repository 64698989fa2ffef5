// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend owns the GDB subprocess that stands in for the JVM.
// It exposes the three MI streams (command-in, result-out, log-out), runs the
// session setup commands before anything else talks to GDB, and reports when
// the process goes away.
package backend

import (
	"bufio"
	"context"
	"io"
)

// Channel is what the rest of the bridge needs from a running backend.
// Implementations may wrap a real GDB process or scripted pipes in tests.
type Channel interface {
	// Stdin receives tokenized MI commands.
	Stdin() io.Writer
	// Stdout yields MI output lines. It has a single reader.
	Stdout() *bufio.Reader
	// Done is closed once the backend has exited.
	Done() <-chan struct{}
	// Err returns the exit error after Done is closed.
	Err() error
	// Interrupt asks the inferior to stop without going through MI.
	Interrupt() error
	// Close asks GDB to exit and kills it if it does not within ctx.
	Close(ctx context.Context) error
}
