// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"jdwpgdb/cli/internal/backend"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"

	"github.com/stretchr/testify/require"
)

const testWait = 5 * time.Second

// responder returns the output lines for one MI command. Lines starting with
// '^' get the command's token prepended.
type responder func(cmd string) []string

// fakeGDB is a scripted backend.Channel.
type fakeGDB struct {
	cmdR *io.PipeReader
	cmdW *io.PipeWriter
	outR *io.PipeReader
	outW *io.PipeWriter
	out  *bufio.Reader

	respond responder

	mu   sync.Mutex
	cmds []string

	done      chan struct{}
	closeOnce sync.Once
}

var _ backend.Channel = (*fakeGDB)(nil)

func newFakeGDB(respond responder) *fakeGDB {
	cmdR, cmdW := io.Pipe()
	outR, outW := io.Pipe()
	g := &fakeGDB{
		cmdR:    cmdR,
		cmdW:    cmdW,
		outR:    outR,
		outW:    outW,
		out:     bufio.NewReader(outR),
		respond: respond,
		done:    make(chan struct{}),
	}
	go g.serve()
	return g
}

func (g *fakeGDB) serve() {
	sc := bufio.NewScanner(g.cmdR)
	for sc.Scan() {
		line := sc.Text()
		i := 0
		for i < len(line) && line[i] >= '0' && line[i] <= '9' {
			i++
		}
		token, cmd := line[:i], line[i:]
		g.mu.Lock()
		g.cmds = append(g.cmds, cmd)
		g.mu.Unlock()

		var lines []string
		if g.respond != nil {
			lines = g.respond(cmd)
		}
		if lines == nil {
			lines = []string{"^done"}
		}
		for _, l := range lines {
			if strings.HasPrefix(l, "^") {
				l = token + l
			}
			if _, err := io.WriteString(g.outW, l+"\n"); err != nil {
				return
			}
		}
	}
}

// emit writes async output as if GDB produced it unprompted.
func (g *fakeGDB) emit(t *testing.T, lines ...string) {
	t.Helper()
	for _, l := range lines {
		_, err := io.WriteString(g.outW, l+"\n")
		require.NoError(t, err)
	}
}

// exit ends the output stream the way a crashed GDB would.
func (g *fakeGDB) exit() { _ = g.outW.Close() }

func (g *fakeGDB) commands() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.cmds...)
}

func (g *fakeGDB) Stdin() io.Writer        { return g.cmdW }
func (g *fakeGDB) Stdout() *bufio.Reader   { return g.out }
func (g *fakeGDB) Done() <-chan struct{}   { return g.done }
func (g *fakeGDB) Err() error              { return nil }
func (g *fakeGDB) Interrupt() error        { return nil }
func (g *fakeGDB) Close(context.Context) error {
	g.closeOnce.Do(func() {
		_ = g.outW.Close()
		_ = g.cmdR.Close()
		close(g.done)
	})
	return nil
}

// client is the debugger end of a session.
type client struct {
	t      *testing.T
	conn   net.Conn
	sizes  jdwp.IDSizes
	nextID uint32
	events []*jdwp.Composite
}

// call sends a command and returns its reply. Events read while waiting are
// queued for event.
func (c *client) call(cmd jdwp.Cmd, build func(w *jdwp.Writer)) *jdwp.Packet {
	c.t.Helper()
	w := jdwp.NewWriter(c.sizes)
	if build != nil {
		build(w)
	}
	c.nextID++
	id := c.nextID
	require.NoError(c.t, jdwp.WritePacket(c.conn, jdwp.NewCommand(id, cmd, w.Bytes())))
	for {
		p := c.read()
		if !p.IsReply() {
			c.queue(p)
			continue
		}
		require.Equal(c.t, id, p.ID, "reply id")
		return p
	}
}

// event returns the next composite event.
func (c *client) event() *jdwp.Composite {
	c.t.Helper()
	if len(c.events) > 0 {
		e := c.events[0]
		c.events = c.events[1:]
		return e
	}
	p := c.read()
	require.False(c.t, p.IsReply(), "unexpected reply %v", p)
	c.queue(p)
	return c.event()
}

func (c *client) read() *jdwp.Packet {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(testWait)))
	p, err := jdwp.ReadPacket(c.conn)
	require.NoError(c.t, err)
	return p
}

func (c *client) queue(p *jdwp.Packet) {
	c.t.Helper()
	require.Equal(c.t, jdwp.CmdEventComposite, p.Cmd())
	comp, err := jdwp.ReadComposite(jdwp.NewReader(p.Data, c.sizes))
	require.NoError(c.t, err)
	c.events = append(c.events, comp)
}

func (c *client) reader(p *jdwp.Packet) *jdwp.Reader {
	return jdwp.NewReader(p.Data, c.sizes)
}

type harness struct {
	client *client
	gdb    *fakeGDB
	server *Server
	errc   chan error
}

// wait returns the error the session ended with.
func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errc:
		h.errc <- err
		return err
	case <-time.After(testWait):
		t.Fatal("session did not end")
		return nil
	}
}

// session returns the one live session.
func (h *harness) session(t *testing.T) *Session {
	t.Helper()
	h.server.mu.Lock()
	defer h.server.mu.Unlock()
	require.Len(t, h.server.sessions, 1)
	for _, s := range h.server.sessions {
		return s
	}
	return nil
}

func testProvider(t *testing.T) introspect.Provider {
	t.Helper()
	p, err := introspect.Load("../introspect/testdata/symbols.json")
	require.NoError(t, err)
	return p
}

// startSession connects a client to a fresh session and consumes VM_START.
func startSession(t *testing.T, respond responder, mutate func(*Options)) *harness {
	t.Helper()
	gdb := newFakeGDB(respond)
	opts := Options{
		Backend: func(context.Context) (backend.Channel, error) { return gdb, nil },
		Timeout: 2 * time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := New(opts)
	serverConn, clientConn := net.Pipe()

	h := &harness{
		client: &client{t: t, conn: clientConn, sizes: jdwp.DefaultIDSizes},
		gdb:    gdb,
		server: srv,
		errc:   make(chan error, 1),
	}
	provider := testProvider(t)
	go func() { h.errc <- srv.StartSession(context.Background(), serverConn, provider) }()

	require.NoError(t, clientConn.SetDeadline(time.Now().Add(testWait)))
	require.NoError(t, jdwp.Handshake(clientConn))
	require.NoError(t, clientConn.SetDeadline(time.Time{}))

	start := h.client.event()
	require.Len(t, start.Events, 1)
	require.Equal(t, jdwp.KindVMStart, start.Events[0].Kind())

	t.Cleanup(func() {
		_ = clientConn.Close()
		select {
		case <-h.errc:
		case <-time.After(testWait):
			t.Error("session did not end after client closed")
		}
	})
	return h
}
