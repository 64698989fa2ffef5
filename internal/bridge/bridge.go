// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge runs JDWP debugger sessions against a GDB backend. Each
// accepted connection gets its own GDB process, command correlator and event
// request registry; JDWP commands are answered by translating them to MI
// commands, and GDB's async notifications are reported back as JDWP events.
//
// The package exposes a small surface to the CLI: a Bridge starts sessions on
// inbound connections and shuts them all down.
package bridge

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"jdwpgdb/cli/internal/backend"
	"jdwpgdb/cli/internal/correlator"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"
	"jdwpgdb/cli/internal/logging"
	"jdwpgdb/cli/internal/trace"

	"github.com/pterm/pterm"
)

// ErrShutdown is returned by StartSession once Shutdown has been called.
var ErrShutdown = errors.New("bridge: shut down")

// Bridge serves debugger connections.
type Bridge interface {
	// StartSession runs one debugger session on conn until it is disposed.
	// It owns conn and closes it before returning.
	StartSession(ctx context.Context, conn net.Conn, provider introspect.Provider) error
	// Shutdown disposes every active session and waits for them to end.
	Shutdown(ctx context.Context) error
}

// BackendFactory starts the GDB backend for one session.
type BackendFactory func(ctx context.Context) (backend.Channel, error)

// SessionObserver is told when sessions begin and end.
type SessionObserver interface {
	SessionStarted(id string)
	SessionEnded(id string)
}

// Options configures a Server.
type Options struct {
	// Backend starts GDB. Required.
	Backend BackendFactory
	// IDSizes are reported to clients and used by the codec.
	IDSizes jdwp.IDSizes
	// Timeout bounds every MI round trip.
	Timeout time.Duration
	// Started is true when the backend setup already runs the inferior or
	// opened a core file, so the first resume continues instead of running.
	Started bool
	// VMStartPolicy is the suspend policy of the VM_START event.
	VMStartPolicy jdwp.SuspendPolicy
	// BaseDir is reported by VirtualMachine.ClassPaths.
	BaseDir string
	// GDBVersion is reported inside VirtualMachine.Version.
	GDBVersion string

	Logger   *pterm.Logger
	Recorder trace.Recorder
	Observer SessionObserver
}

// Server implements Bridge.
type Server struct {
	opts Options
	log  atomic.Pointer[pterm.Logger]

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	quit     chan struct{}
	wg       sync.WaitGroup
}

var _ Bridge = (*Server)(nil)

// New returns a Server. Zero option fields take their defaults.
func New(opts Options) *Server {
	if opts.IDSizes == (jdwp.IDSizes{}) {
		opts.IDSizes = jdwp.DefaultIDSizes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = correlator.DefaultTimeout
	}
	if opts.Recorder == nil {
		opts.Recorder = trace.Nop{}
	}
	s := &Server{
		opts:     opts,
		sessions: make(map[string]*Session),
		quit:     make(chan struct{}),
	}
	s.SetLogger(opts.Logger)
	return s
}

// SetLogger replaces the logger used by sessions started from now on.
func (s *Server) SetLogger(l *pterm.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	s.log.Store(l)
}

// Active returns the number of running sessions.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) StartSession(ctx context.Context, conn net.Conn, provider introspect.Provider) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return ErrShutdown
	}
	sess := newSession(s.opts, s.log.Load(), conn, provider)
	s.sessions[sess.ID] = sess
	s.wg.Add(1)
	s.mu.Unlock()

	if s.opts.Observer != nil {
		s.opts.Observer.SessionStarted(sess.ID)
	}
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		if s.opts.Observer != nil {
			s.opts.Observer.SessionEnded(sess.ID)
		}
		s.wg.Done()
	}()
	return sess.Run(ctx, s.quit)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.quit)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
