// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/jdwp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mainLine8 is com.example.Main.main at code index 9, source line 8.
var mainLine8 = jdwp.Location{Type: jdwp.TypeClass, Class: 1, Method: 10, Index: 9}

func breakpointRequest(loc jdwp.Location, policy jdwp.SuspendPolicy, extra ...jdwp.Modifier) func(w *jdwp.Writer) {
	return func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindBreakpoint))
		w.Byte(byte(policy))
		w.Int(int32(1 + len(extra)))
		w.Modifier(jdwp.Modifier{Kind: jdwp.ModLocationOnly, Location: loc})
		for _, m := range extra {
			w.Modifier(m)
		}
	}
}

// script answers commands by prefix. Unmatched commands get ^done.
func script(answers map[string][]string) responder {
	return func(cmd string) []string {
		for prefix, lines := range answers {
			if strings.HasPrefix(cmd, prefix) {
				return lines
			}
		}
		return nil
	}
}

func TestIDSizesReply(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	assert.Equal(t, uint32(1), p.ID)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)

	r := h.client.reader(p)
	for i := 0; i < 5; i++ {
		assert.Equal(t, int32(8), r.Int())
	}
	require.NoError(t, r.Err())
	assert.Zero(t, r.Len())
}

func TestBreakpointHitReportsRequest(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-break-insert": {`^done,bkpt={number="3",type="breakpoint",file="Main.java",line="8"}`},
	}), nil)

	p := h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	id := jdwp.RequestID(h.client.reader(p).Int())
	assert.Contains(t, h.gdb.commands(), "-break-insert Main.java:8")

	h.gdb.emit(t, `*stopped,reason="breakpoint-hit",disp="keep",bkptno="3",frame={addr="0x4005d0",func="Java_com_example_Main_main",file="Main.java",line="8"},thread-id="7",stopped-threads="all"`)

	ev := h.client.event()
	assert.Equal(t, jdwp.SuspendAll, ev.Policy)
	require.Len(t, ev.Events, 1)
	assert.Equal(t, jdwp.EventBreakpoint{RequestID: id, Thread: 7, Location: mainLine8}, ev.Events[0])
}

func TestBreakpointsShareALocation(t *testing.T) {
	next := 3
	h := startSession(t, func(cmd string) []string {
		if !strings.HasPrefix(cmd, "-break-insert") {
			return nil
		}
		n := strconv.Itoa(next)
		next++
		return []string{`^done,bkpt={number="` + n + `",file="Main.java",line="8"}`}
	}, nil)

	p := h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	user := jdwp.RequestID(h.client.reader(p).Int())

	p = h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendNone,
		jdwp.Modifier{Kind: jdwp.ModCount, Count: 1},
	))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	cursor := jdwp.RequestID(h.client.reader(p).Int())
	assert.NotEqual(t, user, cursor)

	var inserts int
	for _, c := range h.gdb.commands() {
		if c == "-break-insert Main.java:8" {
			inserts++
		}
	}
	assert.Equal(t, 2, inserts)

	h.gdb.emit(t, `*stopped,reason="breakpoint-hit",bkptno="4",thread-id="7"`)
	ev := h.client.event()
	assert.Equal(t, jdwp.SuspendNone, ev.Policy)
	assert.Equal(t, []jdwp.Event{jdwp.EventBreakpoint{RequestID: cursor, Thread: 7, Location: mainLine8}}, ev.Events)

	h.gdb.emit(t, `*stopped,reason="breakpoint-hit",bkptno="3",thread-id="7"`)
	ev = h.client.event()
	assert.Equal(t, jdwp.SuspendAll, ev.Policy)
	assert.Equal(t, []jdwp.Event{jdwp.EventBreakpoint{RequestID: user, Thread: 7, Location: mainLine8}}, ev.Events)

	p = h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-break-delete 4")
	assert.NotContains(t, h.gdb.commands(), "-break-delete 3")
}

func TestBreakpointLineMismatch(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-break-insert": {`^done,bkpt={number="4",type="breakpoint",file="Main.java",line="9"}`},
	}), nil)

	p := h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll))
	assert.Equal(t, jdwp.ErrInvalidLocation, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-break-delete 4")

	// Nothing was registered, so a hit on 4 is dropped and the next
	// command still gets its reply first.
	h.gdb.emit(t, `*stopped,reason="breakpoint-hit",bkptno="4",thread-id="1"`)
	p = h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Empty(t, h.client.events)
}

func TestBreakpointRequestErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *jdwp.Writer)
		want  jdwp.ErrorCode
	}{
		{
			name: "no location",
			build: func(w *jdwp.Writer) {
				w.Byte(byte(jdwp.KindBreakpoint))
				w.Byte(byte(jdwp.SuspendAll))
				w.Int(0)
			},
			want: jdwp.ErrIllegalArgument,
		},
		{
			name:  "unknown method",
			build: breakpointRequest(jdwp.Location{Type: jdwp.TypeClass, Class: 1, Method: 99}, jdwp.SuspendAll),
			want:  jdwp.ErrInvalidLocation,
		},
		{
			name: "bad policy",
			build: func(w *jdwp.Writer) {
				w.Byte(byte(jdwp.KindThreadStart))
				w.Byte(7)
				w.Int(0)
			},
			want: jdwp.ErrIllegalArgument,
		},
		{
			name: "unsupported kind",
			build: func(w *jdwp.Writer) {
				w.Byte(byte(jdwp.KindFieldAccess))
				w.Byte(byte(jdwp.SuspendNone))
				w.Int(0)
			},
			want: jdwp.ErrInvalidEventType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := startSession(t, nil, nil)
			p := h.client.call(jdwp.CmdEventRequestSet, tt.build)
			assert.Equal(t, tt.want, p.ErrorCode)
			assert.Empty(t, p.Data)
		})
	}
}

func TestBreakpointGDBError(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-break-insert": {`^error,msg="No source file named Main.java."`},
	}), nil)

	p := h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll))
	assert.Equal(t, jdwp.ErrInvalidLocation, p.ErrorCode)
}

func TestClearUnknownRequest(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.CmdEventRequestClear, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindBreakpoint))
		w.Int(42)
	})
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Empty(t, h.gdb.commands())
}

func TestClearBreakpointDeletesIt(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-break-insert": {`^done,bkpt={number="5",file="Main.java",line="8"}`},
	}), nil)

	p := h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	id := h.client.reader(p).Int()

	// Wrong kind is ignored.
	p = h.client.call(jdwp.CmdEventRequestClear, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindSingleStep))
		w.Int(id)
	})
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.NotContains(t, h.gdb.commands(), "-break-delete 5")

	p = h.client.call(jdwp.CmdEventRequestClear, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindBreakpoint))
		w.Int(id)
	})
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-break-delete 5")
}

func TestClearAllBreakpointsSingleDelete(t *testing.T) {
	next := 0
	h := startSession(t, func(cmd string) []string {
		if strings.HasPrefix(cmd, "-break-insert") {
			next++
			line := "8"
			if next == 2 {
				line = "10"
			}
			return []string{`^done,bkpt={number="` + string(rune('0'+next)) + `",file="Main.java",line="` + line + `"}`}
		}
		return nil
	}, nil)

	p := h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	line10 := jdwp.Location{Type: jdwp.TypeClass, Class: 1, Method: 10, Index: 20}
	p = h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(line10, jdwp.SuspendAll))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)

	p = h.client.call(jdwp.CmdEventRequestClearAllBreakpoints, nil)
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-break-delete 1 2")
}

func TestBreakpointCountModifier(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-break-insert": {`^done,bkpt={number="2",file="Main.java",line="8"}`},
	}), nil)

	p := h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll,
		jdwp.Modifier{Kind: jdwp.ModCount, Count: 3},
		jdwp.Modifier{Kind: jdwp.ModThreadOnly, Thread: 7},
	))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-break-insert -p 7 Main.java:8")
	assert.Contains(t, h.gdb.commands(), "-break-after 2 2")

	h.gdb.emit(t, `*stopped,reason="breakpoint-hit",bkptno="2",thread-id="7"`)
	ev := h.client.event()
	require.Len(t, ev.Events, 1)

	// The request expired with its first report.
	p = h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-break-delete 2")
}

func TestUnknownCommandKeepsSession(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.Cmd{Set: 99, ID: 1}, nil)
	assert.Equal(t, jdwp.ErrNotImplemented, p.ErrorCode)

	p = h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
}

func TestHandlerPanicBecomesInternal(t *testing.T) {
	boom := jdwp.Cmd{Set: 120, ID: 1}
	handlers[boom] = func(context.Context, *Session, *Reply, *jdwp.Reader) { panic("boom") }
	t.Cleanup(func() { delete(handlers, boom) })

	h := startSession(t, nil, nil)
	p := h.client.call(boom, nil)
	assert.Equal(t, jdwp.ErrInternal, p.ErrorCode)
	assert.Contains(t, h.client.reader(p).Str(), "boom")

	p = h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
}

func TestTruncatedArgumentsAreInternal(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.CmdReferenceTypeSignature, func(w *jdwp.Writer) { w.Int(1) })
	assert.Equal(t, jdwp.ErrInternal, p.ErrorCode)
}

func TestGDBTimeoutFailsOnlyThatCommand(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-thread-info":  {},
		"-break-insert": {`^done,bkpt={number="1",file="Main.java",line="8"}`},
	}), func(o *Options) { o.Timeout = 200 * time.Millisecond })

	p := h.client.call(jdwp.CmdThreadReferenceName, func(w *jdwp.Writer) { w.ThreadID(1) })
	assert.Equal(t, jdwp.ErrInternal, p.ErrorCode)
	assert.Empty(t, p.Data)
	assert.Zero(t, h.session(t).mi.Pending())

	p = h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendAll))
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
}

func TestNonSuspendingEventContinuesWithoutStepping(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-break-insert":  {`^done,bkpt={number="5",file="Main.java",line="8"}`},
		"-exec-continue": {"^running", `*running,thread-id="all"`},
	}), func(o *Options) { o.Started = true })

	p := h.client.call(jdwp.CmdEventRequestSet, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindSingleStep))
		w.Byte(byte(jdwp.SuspendEventThread))
		w.Int(1)
		w.Modifier(jdwp.Modifier{Kind: jdwp.ModStep, Thread: 1, StepSize: jdwp.StepLine, StepDepth: jdwp.StepOver})
	})
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	p = h.client.call(jdwp.CmdEventRequestSet, breakpointRequest(mainLine8, jdwp.SuspendNone))
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)

	h.gdb.emit(t, `*stopped,reason="breakpoint-hit",bkptno="5",thread-id="7"`)
	ev := h.client.event()
	assert.Equal(t, jdwp.SuspendNone, ev.Policy)
	require.Len(t, ev.Events, 1)

	p = h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-exec-continue")
	assert.NotContains(t, h.gdb.commands(), "-exec-next --thread 1")
}

func TestBackendExitSendsVMDeath(t *testing.T) {
	h := startSession(t, nil, nil)

	h.gdb.exit()
	ev := h.client.event()
	require.Len(t, ev.Events, 1)
	assert.Equal(t, jdwp.KindVMDeath, ev.Events[0].Kind())

	err := h.wait(t)
	assert.True(t, apperrors.IsKind(err, apperrors.BackendExited), "got %v", err)
}

func TestInferiorExitEndsSession(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.CmdEventRequestSet, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindVMDeath))
		w.Byte(byte(jdwp.SuspendNone))
		w.Int(0)
	})
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	id := jdwp.RequestID(h.client.reader(p).Int())

	h.gdb.emit(t, `*stopped,reason="exited-normally"`)
	ev := h.client.event()
	require.Len(t, ev.Events, 1)
	assert.Equal(t, jdwp.EventVMDeath{RequestID: id}, ev.Events[0])
	assert.NoError(t, h.wait(t))
}

func TestThreadStartEvent(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.CmdEventRequestSet, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindThreadStart))
		w.Byte(byte(jdwp.SuspendNone))
		w.Int(0)
	})
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	id := jdwp.RequestID(h.client.reader(p).Int())

	h.gdb.emit(t, `=thread-created,id="2",group-id="i1"`)
	ev := h.client.event()
	assert.Equal(t, jdwp.SuspendNone, ev.Policy)
	assert.Equal(t, []jdwp.Event{jdwp.EventThreadStart{RequestID: id, Thread: 2}}, ev.Events)
}

func TestStepDrivesNextResume(t *testing.T) {
	h := startSession(t, script(map[string][]string{
		"-exec-next": {"^running", `*running,thread-id="all"`},
	}), func(o *Options) { o.Started = true })

	p := h.client.call(jdwp.CmdEventRequestSet, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindSingleStep))
		w.Byte(byte(jdwp.SuspendEventThread))
		w.Int(1)
		w.Modifier(jdwp.Modifier{Kind: jdwp.ModStep, Thread: 1, StepSize: jdwp.StepLine, StepDepth: jdwp.StepOver})
	})
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	id := jdwp.RequestID(h.client.reader(p).Int())

	p = h.client.call(jdwp.CmdVirtualMachineSuspend, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-exec-interrupt")

	p = h.client.call(jdwp.CmdVirtualMachineResume, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Contains(t, h.gdb.commands(), "-exec-next --thread 1")

	h.gdb.emit(t, `*stopped,reason="end-stepping-range",frame={func="Java_com_example_Main_main",file="Main.java",line="10"},thread-id="1"`)
	ev := h.client.event()
	require.Len(t, ev.Events, 1)
	assert.Equal(t, jdwp.EventSingleStep{
		RequestID: id,
		Thread:    1,
		Location:  jdwp.Location{Type: jdwp.TypeClass, Class: 1, Method: 10, Index: 20},
	}, ev.Events[0])
}

func TestHeldEventsWaitForRelease(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.CmdEventRequestSet, func(w *jdwp.Writer) {
		w.Byte(byte(jdwp.KindThreadDeath))
		w.Byte(byte(jdwp.SuspendNone))
		w.Int(0)
	})
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)

	p = h.client.call(jdwp.CmdVirtualMachineHoldEvents, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)

	h.gdb.emit(t, `=thread-exited,id="3",group-id="i1"`)
	p = h.client.call(jdwp.CmdVirtualMachineIDSizes, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.Empty(t, h.client.events)

	p = h.client.call(jdwp.CmdVirtualMachineReleaseEvents, nil)
	require.Equal(t, jdwp.ErrNone, p.ErrorCode)
	ev := h.client.event()
	require.Len(t, ev.Events, 1)
	assert.Equal(t, jdwp.KindThreadDeath, ev.Events[0].Kind())
}

func TestDisposeEndsSession(t *testing.T) {
	h := startSession(t, nil, nil)

	p := h.client.call(jdwp.CmdVirtualMachineDispose, nil)
	assert.Equal(t, jdwp.ErrNone, p.ErrorCode)
	assert.NoError(t, h.wait(t))
	assert.Equal(t, 0, h.server.Active())
}
