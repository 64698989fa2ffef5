// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"jdwpgdb/cli/internal/backend"
	"jdwpgdb/cli/internal/correlator"
	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/events"
	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"
	"jdwpgdb/cli/internal/registry"
	"jdwpgdb/cli/internal/trace"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
)

const (
	handshakeTimeout = 10 * time.Second
	closeTimeout     = 5 * time.Second
)

// Session is one debugger connection and the GDB process behind it. Packet
// handling, event delivery and every write to the client happen on the
// goroutine running Run.
type Session struct {
	ID string

	opts     Options
	conn     net.Conn
	sizes    jdwp.IDSizes
	provider introspect.Provider
	log      *pterm.Logger
	rec      trace.Recorder

	backend backend.Channel
	mi      *correlator.Correlator
	reg     *registry.Registry
	events  *events.Translator

	state          stateBox
	started        bool
	vmSuspends     int
	threadSuspends map[jdwp.ThreadID]int
	held           bool
	heldQueue      []*jdwp.Composite
	nextEventID    uint32
	expiring       map[jdwp.RequestID]bool
	vmDeathSent    bool
	closeAfter     bool
	fatal          error

	stopReader  chan struct{}
	disposeOnce sync.Once
}

func newSession(opts Options, log *pterm.Logger, conn net.Conn, provider introspect.Provider) *Session {
	if provider == nil {
		provider = introspect.Empty()
	}
	reg := registry.New()
	return &Session{
		ID:             uuid.NewString(),
		opts:           opts,
		conn:           conn,
		sizes:          opts.IDSizes,
		provider:       provider,
		log:            log,
		rec:            opts.Recorder,
		reg:            reg,
		events:         events.New(reg, provider, log),
		started:        opts.Started,
		threadSuspends: make(map[jdwp.ThreadID]int),
		expiring:       make(map[jdwp.RequestID]bool),
		stopReader:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state.Load() }

// Run performs the handshake, starts the backend and serves packets until
// the session is disposed. A client that disconnects or disposes the VM ends
// the session without error.
func (s *Session) Run(ctx context.Context, quit <-chan struct{}) (err error) {
	defer func() { s.dispose(err) }()

	s.log.Info("debugger connected", s.log.Args("session", s.ID, "remote", remoteAddr(s.conn)))
	_ = s.conn.SetDeadline(time.Now().Add(handshakeTimeout))
	if err := jdwp.AcceptHandshake(s.conn); err != nil {
		return apperrors.Wrap(apperrors.HandshakeFailed, "debugger handshake", err)
	}
	_ = s.conn.SetDeadline(time.Time{})

	ch, err := s.opts.Backend(ctx)
	if err != nil {
		return err
	}
	s.backend = ch
	s.mi = correlator.New(ch.Stdin(), ch.Stdout(), correlator.Options{
		Timeout:  s.opts.Timeout,
		Logger:   s.log,
		Observer: s.observeMI,
	})

	packets := make(chan *jdwp.Packet)
	readErr := make(chan error, 1)
	go s.readPackets(packets, readErr)

	if s.started {
		s.state.Store(StateRunning)
	}
	s.writeEvent(events.VMStart(s.opts.VMStartPolicy, 1))
	return s.loop(ctx, quit, packets, readErr)
}

func (s *Session) loop(ctx context.Context, quit <-chan struct{}, packets <-chan *jdwp.Packet, readErr <-chan error) error {
	for {
		if s.State() == StateDisposed {
			return nil
		}
		select {
		case p := <-packets:
			s.handlePacket(ctx, p)
			if s.fatal != nil {
				s.sendVMDeath()
				return s.fatal
			}
			if s.closeAfter {
				return nil
			}
			s.flushAsync(ctx)

		case <-s.mi.AsyncReady():
			s.flushAsync(ctx)

		case err := <-readErr:
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				s.log.Info("debugger disconnected", s.log.Args("session", s.ID))
				return nil
			}
			if errors.Is(err, jdwp.ErrMalformedPacket) || errors.Is(err, io.ErrUnexpectedEOF) {
				return apperrors.Wrap(apperrors.MalformedPacket, "reading debugger packet", err)
			}
			return apperrors.Wrap(apperrors.ClientDisconnected, "reading debugger packet", err)

		case <-s.mi.Done():
			s.flushAsync(ctx)
			s.sendVMDeath()
			return apperrors.Wrap(apperrors.BackendExited, "gdb exited", s.mi.Err())

		case <-quit:
			s.sendVMDeath()
			return nil

		case <-ctx.Done():
			s.sendVMDeath()
			return ctx.Err()
		}
	}
}

func (s *Session) readPackets(out chan<- *jdwp.Packet, errc chan<- error) {
	for {
		p, err := jdwp.ReadPacket(s.conn)
		if err != nil {
			errc <- err
			return
		}
		select {
		case out <- p:
		case <-s.stopReader:
			return
		}
	}
}

// handlePacket answers one command packet. No reply is written once the
// backend has gone away.
func (s *Session) handlePacket(ctx context.Context, p *jdwp.Packet) {
	s.record(trace.ClientIn, p)
	if p.IsReply() {
		s.log.Debug("unexpected reply from debugger", s.log.Args("id", p.ID))
		return
	}
	cmd := p.Cmd()
	rep := newReply(s.sizes)
	h, ok := handlers[cmd]
	if !ok {
		s.log.Debug("command not implemented", s.log.Args("command", cmd.String()))
		rep.Fail(jdwp.ErrNotImplemented)
	} else {
		s.invoke(ctx, cmd, h, rep, jdwp.NewReader(p.Data, s.sizes))
	}
	if s.fatal != nil {
		return
	}
	s.write(jdwp.NewReply(p.ID, rep.Code, rep.Bytes()))
}

// invoke runs h and turns a panic into an INTERNAL reply carrying the panic
// text.
func (s *Session) invoke(ctx context.Context, cmd jdwp.Cmd, h Handler, rep *Reply, r *jdwp.Reader) {
	defer func() {
		if v := recover(); v != nil {
			s.log.Error("command handler panicked", s.log.Args("command", cmd.String(), "panic", fmt.Sprint(v)))
			rep.Code = jdwp.ErrInternal
			rep.Str(fmt.Sprintf("%s: %v", cmd, v))
		}
	}()
	h(ctx, s, rep, r)
}

// flushAsync delivers events released since the last call, then drains
// every queued backend record in arrival order.
func (s *Session) flushAsync(ctx context.Context) {
	if !s.held && len(s.heldQueue) > 0 {
		queued := s.heldQueue
		s.heldQueue = nil
		for _, c := range queued {
			s.writeEvent(c)
		}
	}
	for _, rec := range s.mi.DrainAsync() {
		n, ok := gdbmi.Classify(rec)
		if !ok {
			if rec.Type.IsStream() {
				s.log.Trace("gdb output", s.log.Args("stream", string(rec.Type), "text", rec.Stream))
			}
			continue
		}
		s.observe(n)
		c, ok := s.events.Translate(n)
		if !ok {
			continue
		}
		if _, exited := n.(gdbmi.Exited); exited {
			s.writeEvent(c)
			s.vmDeathSent = true
			s.closeAfter = true
			s.state.Store(StateDisposed)
			return
		}
		s.sendEvent(c)
		s.afterEvent(ctx, c)
	}
}

// observe applies the state change a notification implies.
func (s *Session) observe(n gdbmi.Notification) {
	switch n.(type) {
	case gdbmi.BreakpointHit, gdbmi.SteppingDone, gdbmi.Stopped:
		s.state.Store(StateSuspended)
	case gdbmi.Running:
		s.state.Store(StateRunning)
	}
}

// afterEvent expires requests carrying a Count modifier and resumes the
// inferior when nothing asked for it to stay suspended.
func (s *Session) afterEvent(ctx context.Context, c *jdwp.Composite) {
	for _, e := range c.Events {
		if !s.expiring[e.Request()] {
			continue
		}
		delete(s.expiring, e.Request())
		if rec, ok := s.reg.Unregister(e.Request()); ok && rec.Breakpoint != nil {
			s.exec(ctx, newReply(s.sizes), deleteBreakpoints([]int{rec.Breakpoint.Number}))
		}
	}
	if c.Policy == jdwp.SuspendNone && s.State() == StateSuspended {
		// Pending steps wait for the client's next resume.
		if _, ok := s.exec(ctx, newReply(s.sizes), "-exec-continue"); ok {
			s.state.Store(StateRunning)
		}
	}
}

func (s *Session) sendEvent(c *jdwp.Composite) {
	if s.held {
		s.heldQueue = append(s.heldQueue, c)
		return
	}
	s.writeEvent(c)
}

func (s *Session) writeEvent(c *jdwp.Composite) {
	s.nextEventID++
	s.write(jdwp.NewCommand(s.nextEventID, jdwp.CmdEventComposite, c.Encode(s.sizes)))
}

func (s *Session) sendVMDeath() {
	if s.vmDeathSent || s.mi == nil {
		return
	}
	s.vmDeathSent = true
	s.writeEvent(events.VMDeath(s.reg))
}

func (s *Session) write(p *jdwp.Packet) {
	if err := jdwp.WritePacket(s.conn, p); err != nil {
		s.log.Debug("write to debugger failed", s.log.Args("session", s.ID, "error", err.Error()))
		s.state.Store(StateDisposed)
		return
	}
	s.record(trace.ClientOut, p)
}

func (s *Session) record(dir trace.Direction, p *jdwp.Packet) {
	s.rec.Record(trace.Entry{
		Session:   s.ID,
		At:        time.Now(),
		Direction: dir,
		Summary:   p.String(),
		Payload:   p.Data,
	})
}

func (s *Session) observeMI(out bool, line string) {
	dir := trace.BackendIn
	if out {
		dir = trace.BackendOut
	}
	s.rec.Record(trace.Entry{Session: s.ID, At: time.Now(), Direction: dir, Summary: line})
}

// exec runs an MI command. On failure the reply carries the closest JDWP
// error and false is returned; a dead backend also ends the session.
func (s *Session) exec(ctx context.Context, rep *Reply, cmd string) (*gdbmi.Record, bool) {
	rec, err := s.mi.Exec(ctx, cmd)
	if err == nil {
		return rec, true
	}
	s.log.Debug("gdb command failed", s.log.Args("command", cmd, "error", err.Error()))
	if errors.Is(err, correlator.ErrBackendExited) || apperrors.IsKind(err, apperrors.BackendExited) {
		s.fatal = err
	}
	rep.Fail(errorCode(err))
	return rec, false
}

// dispose tears the session down once: registry, backend and connection.
func (s *Session) dispose(cause error) {
	s.disposeOnce.Do(func() {
		s.state.v.Store(int32(StateDisposed))
		close(s.stopReader)
		s.reg.Reset()
		if s.backend != nil {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			if err := s.backend.Close(ctx); err != nil {
				s.log.Debug("closing gdb", s.log.Args("error", err.Error()))
			}
			cancel()
		}
		_ = s.conn.Close()
		if cause != nil {
			s.log.Warn("session ended", s.log.Args("session", s.ID, "error", cause.Error()))
		} else {
			s.log.Info("session ended", s.log.Args("session", s.ID))
		}
	})
}

func remoteAddr(c net.Conn) string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
