// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package correlator matches GDB/MI result records to the commands that caused
// them. Every command is written with a fresh numeric token; a single reader
// goroutine consumes all backend output, wakes the waiter whose token a result
// carries and queues every out of band record for the session loop.
package correlator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/logging"

	"github.com/pterm/pterm"
)

// DefaultTimeout bounds every backend round trip unless configured otherwise.
const DefaultTimeout = 300_000 * time.Millisecond

var (
	// ErrTimedOut is returned by Await when no result arrived in time.
	ErrTimedOut = errors.New("correlator: timed out waiting for gdb")
	// ErrBackendExited is returned once the backend output stream has ended.
	ErrBackendExited = errors.New("correlator: gdb output closed")
	// ErrUnknownToken is returned by Await for a token with no pending slot.
	ErrUnknownToken = errors.New("correlator: unknown token")
)

// Observer sees every line written to or read from the backend. out is true
// for commands.
type Observer func(out bool, line string)

// Options configures a Correlator.
type Options struct {
	Timeout  time.Duration
	Logger   *pterm.Logger
	Observer Observer
}

type slot struct {
	cmd string
	ch  chan *gdbmi.Record
}

// Correlator is safe for concurrent use, but results are only meaningful to
// the caller that submitted the command.
type Correlator struct {
	w        io.Writer
	log      *pterm.Logger
	timeout  time.Duration
	observer Observer

	mu      sync.Mutex
	next    uint32
	pending map[uint32]*slot

	asyncMu sync.Mutex
	async   []*gdbmi.Record
	ready   chan struct{}

	done chan struct{}
	err  error
}

// New starts the reader goroutine over r and returns a Correlator writing
// commands to w.
func New(w io.Writer, r *bufio.Reader, opts Options) *Correlator {
	c := &Correlator{
		w:        w,
		log:      opts.Logger,
		timeout:  opts.Timeout,
		observer: opts.Observer,
		pending:  make(map[uint32]*slot),
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	go c.readLoop(r)
	return c
}

// Timeout returns the per command timeout used by Exec.
func (c *Correlator) Timeout() time.Duration { return c.timeout }

// Submit writes cmd with a fresh token and returns the token without waiting.
// The pending slot exists before the command is written, so a fast reply is
// never lost. Every submitted token must be passed to Await.
func (c *Correlator) Submit(cmd string) (uint32, error) {
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return 0, c.exitError()
	default:
	}
	token := c.allocLocked()
	c.pending[token] = &slot{cmd: cmd, ch: make(chan *gdbmi.Record, 1)}
	c.mu.Unlock()

	line := gdbmi.Format(token, cmd)
	c.log.Trace("mi >", c.log.Args("token", token, "command", cmd))
	if c.observer != nil {
		c.observer(true, strings.TrimSuffix(line, "\n"))
	}
	if _, err := io.WriteString(c.w, line); err != nil {
		c.drop(token)
		return 0, apperrors.Wrap(apperrors.BackendExited, "writing "+cmd, err)
	}
	return token, nil
}

// allocLocked returns the next token that is not zero and not outstanding.
func (c *Correlator) allocLocked() uint32 {
	for {
		c.next++
		if c.next == 0 {
			c.next = 1
		}
		if _, busy := c.pending[c.next]; !busy {
			return c.next
		}
	}
}

func (c *Correlator) drop(token uint32) {
	c.mu.Lock()
	delete(c.pending, token)
	c.mu.Unlock()
}

// Await blocks until the result for token arrives, timeout elapses, ctx is
// cancelled or the backend exits. The slot is removed before Await returns, so
// a result arriving later is discarded by the reader.
func (c *Correlator) Await(ctx context.Context, token uint32, timeout time.Duration) (*gdbmi.Record, error) {
	c.mu.Lock()
	s, ok := c.pending[token]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownToken, token)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case rec := <-s.ch:
		c.drop(token)
		return rec, nil
	case <-timer.C:
		c.drop(token)
		c.log.Warn("gdb command timed out", c.log.Args("token", token, "command", s.cmd, "timeout", timeout.String()))
		return nil, apperrors.Wrap(apperrors.TimedOut, fmt.Sprintf("%s (token %d)", s.cmd, token), ErrTimedOut)
	case <-ctx.Done():
		c.drop(token)
		return nil, ctx.Err()
	case <-c.done:
		select {
		case rec := <-s.ch:
			c.drop(token)
			return rec, nil
		default:
		}
		c.drop(token)
		return nil, c.exitError()
	}
}

// Exec submits cmd and waits for its result with the configured timeout. An
// ^error result is returned as a *gdbmi.Error together with the record.
func (c *Correlator) Exec(ctx context.Context, cmd string) (*gdbmi.Record, error) {
	token, err := c.Submit(cmd)
	if err != nil {
		return nil, err
	}
	rec, err := c.Await(ctx, token, c.timeout)
	if err != nil {
		return nil, err
	}
	if err := gdbmi.AsError(cmd, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// AsyncReady receives a value whenever records were queued since the last
// drain.
func (c *Correlator) AsyncReady() <-chan struct{} { return c.ready }

// DrainAsync returns every queued out of band record in arrival order.
func (c *Correlator) DrainAsync() []*gdbmi.Record {
	c.asyncMu.Lock()
	defer c.asyncMu.Unlock()
	out := c.async
	c.async = nil
	return out
}

// Done is closed when the backend output stream ends.
func (c *Correlator) Done() <-chan struct{} { return c.done }

// Err returns why the reader stopped, after Done is closed.
func (c *Correlator) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Pending returns the number of outstanding slots.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Correlator) exitError() error {
	return apperrors.Wrap(apperrors.BackendExited, "gdb output closed", fmt.Errorf("%w: %v", ErrBackendExited, c.err))
}

func (c *Correlator) readLoop(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			c.dispatch(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			c.finish(err)
			return
		}
	}
}

func (c *Correlator) dispatch(line string) {
	if line == "" || gdbmi.IsPrompt(line) {
		return
	}
	if c.observer != nil {
		c.observer(false, line)
	}
	rec, err := gdbmi.ParseLine(line)
	if err != nil {
		// Inferior output shares the stream when no tty is configured.
		c.log.Trace("non-MI output", c.log.Args("line", line))
		return
	}
	if rec.Type != gdbmi.TypeResult {
		c.asyncMu.Lock()
		c.async = append(c.async, rec)
		c.asyncMu.Unlock()
		select {
		case c.ready <- struct{}{}:
		default:
		}
		return
	}
	if !rec.HasToken {
		c.log.Debug("untokened result discarded", c.log.Args("line", line))
		return
	}
	c.mu.Lock()
	s, ok := c.pending[rec.Token]
	c.mu.Unlock()
	if !ok {
		c.log.Debug("late or unknown result discarded", c.log.Args("token", rec.Token))
		return
	}
	c.log.Trace("mi <", c.log.Args("token", rec.Token, "class", rec.Class))
	select {
	case s.ch <- rec:
	default:
		c.log.Debug("duplicate result discarded", c.log.Args("token", rec.Token))
	}
}

func (c *Correlator) finish(err error) {
	c.mu.Lock()
	c.err = err
	close(c.done)
	c.mu.Unlock()
	c.log.Debug("gdb output closed", c.log.Args("error", err.Error()))
}
