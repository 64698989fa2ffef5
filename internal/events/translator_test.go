// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package events

import (
	"testing"

	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"
	"jdwpgdb/cli/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func provider(t *testing.T) introspect.Provider {
	t.Helper()
	p, err := introspect.Parse([]byte(`{"classes":[{"id":1,"signature":"LMain;","sourceFile":"Main.java",
		"methods":[{"id":2,"name":"main","symbol":"Java_Main_main","lines":[{"index":0,"line":3},{"index":5,"line":4}]}]}]}`))
	require.NoError(t, err)
	return p
}

var mainLoc = jdwp.Location{Type: jdwp.TypeClass, Class: 1, Method: 2, Index: 5}

func TestBreakpointHitOnThread7(t *testing.T) {
	reg := registry.New()
	id := reg.NewRequestID()
	_, err := reg.RegisterBreakpoint(id, 3, mainLoc, jdwp.SuspendEventThread)
	require.NoError(t, err)

	c, ok := New(reg, provider(t), nil).Translate(gdbmi.BreakpointHit{Number: 3, Thread: 7})
	require.True(t, ok)
	assert.Equal(t, jdwp.SuspendEventThread, c.Policy)
	require.Len(t, c.Events, 1)
	assert.Equal(t, jdwp.EventBreakpoint{RequestID: id, Thread: 7, Location: mainLoc}, c.Events[0])
}

func TestBreakpointHitCarriesPendingStep(t *testing.T) {
	reg := registry.New()
	bp, step := reg.NewRequestID(), reg.NewRequestID()
	_, err := reg.RegisterBreakpoint(bp, 3, mainLoc, jdwp.SuspendNone)
	require.NoError(t, err)
	_, err = reg.RegisterStep(7, step, jdwp.SuspendEventThread, jdwp.StepLine, jdwp.StepOver)
	require.NoError(t, err)
	_, err = reg.RegisterStep(8, reg.NewRequestID(), jdwp.SuspendAll, jdwp.StepLine, jdwp.StepOver)
	require.NoError(t, err)

	c, ok := New(reg, provider(t), nil).Translate(gdbmi.BreakpointHit{Number: 3, Thread: 7})
	require.True(t, ok)
	assert.Equal(t, jdwp.SuspendEventThread, c.Policy)
	assert.Equal(t, []jdwp.Event{
		jdwp.EventBreakpoint{RequestID: bp, Thread: 7, Location: mainLoc},
		jdwp.EventSingleStep{RequestID: step, Thread: 7, Location: mainLoc},
	}, c.Events)
}

func TestUnrequestedNotificationsAreDropped(t *testing.T) {
	reg := registry.New()
	_, err := reg.RegisterBreakpoint(reg.NewRequestID(), 1, mainLoc, jdwp.SuspendAll)
	require.NoError(t, err)
	tr := New(reg, provider(t), nil)

	tests := []struct {
		name string
		n    gdbmi.Notification
	}{
		{"internal breakpoint", gdbmi.BreakpointHit{Number: 99, Thread: 1}},
		{"step without request", gdbmi.SteppingDone{Reason: gdbmi.ReasonEndSteppingRange, Thread: 1}},
		{"thread start without request", gdbmi.ThreadCreated{ID: 2}},
		{"thread death without request", gdbmi.ThreadExited{ID: 2}},
		{"plain stop", gdbmi.Stopped{Reason: gdbmi.ReasonSignalReceived, Thread: 1}},
		{"running", gdbmi.Running{Thread: "all"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := tr.Translate(tt.n)
			assert.False(t, ok)
			assert.Nil(t, c)
		})
	}
}

func TestSteppingDoneResolvesFrame(t *testing.T) {
	reg := registry.New()
	id := reg.NewRequestID()
	_, err := reg.RegisterStep(4, id, jdwp.SuspendAll, jdwp.StepLine, jdwp.StepOver)
	require.NoError(t, err)
	tr := New(reg, provider(t), nil)

	c, ok := tr.Translate(gdbmi.SteppingDone{
		Reason: gdbmi.ReasonEndSteppingRange,
		Thread: 4,
		Frame:  gdbmi.Frame{Func: "Java_Main_main", Line: 4},
	})
	require.True(t, ok)
	assert.Equal(t, jdwp.EventSingleStep{RequestID: id, Thread: 4, Location: mainLoc}, c.Events[0])

	// Outside known code the event still goes out with an empty location.
	c, ok = tr.Translate(gdbmi.SteppingDone{Reason: gdbmi.ReasonFunctionFinished, Thread: 4, Frame: gdbmi.Frame{Func: "memcpy"}})
	require.True(t, ok)
	assert.True(t, c.Events[0].(jdwp.EventSingleStep).Location.IsZero())
}

func TestThreadEventsHonourThreadOnly(t *testing.T) {
	reg := registry.New()
	all := reg.Register(reg.NewRequestID(), jdwp.KindThreadStart, jdwp.SuspendNone, nil)
	only5 := reg.Register(reg.NewRequestID(), jdwp.KindThreadStart, jdwp.SuspendAll,
		[]jdwp.Modifier{{Kind: jdwp.ModThreadOnly, Thread: 5}})
	tr := New(reg, nil, nil)

	c, ok := tr.Translate(gdbmi.ThreadCreated{ID: 2})
	require.True(t, ok)
	assert.Equal(t, jdwp.SuspendNone, c.Policy)
	assert.Equal(t, []jdwp.Event{jdwp.EventThreadStart{RequestID: all.RequestID, Thread: 2}}, c.Events)

	c, ok = tr.Translate(gdbmi.ThreadCreated{ID: 5})
	require.True(t, ok)
	assert.Equal(t, jdwp.SuspendAll, c.Policy)
	assert.Len(t, c.Events, 2)
	assert.Equal(t, only5.RequestID, c.Events[1].Request())
}

func TestExitAlwaysReportsVMDeath(t *testing.T) {
	reg := registry.New()
	c, ok := New(reg, nil, nil).Translate(gdbmi.Exited{Code: 0})
	require.True(t, ok)
	assert.Equal(t, []jdwp.Event{jdwp.EventVMDeath{}}, c.Events)

	id := reg.NewRequestID()
	reg.Register(id, jdwp.KindVMDeath, jdwp.SuspendAll, nil)
	c = VMDeath(reg)
	assert.Equal(t, jdwp.SuspendAll, c.Policy)
	assert.Equal(t, []jdwp.Event{jdwp.EventVMDeath{RequestID: id}}, c.Events)
}

func TestVMStart(t *testing.T) {
	c := VMStart(jdwp.SuspendAll, 1)
	assert.Equal(t, jdwp.KindVMStart, c.Events[0].Kind())
	assert.Equal(t, jdwp.RequestID(0), c.Events[0].Request())
}
