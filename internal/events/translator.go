// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package events turns GDB async notifications into JDWP composite events.
//
// Only notifications the client asked for are reported: a breakpoint hit is
// looked up by breakpoint number, a finished step by thread, thread start and
// death by their handle-less requests. Anything without a matching request is
// dropped. VM_DEATH is the one exception and is always delivered.
package events

import (
	"fmt"

	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"
	"jdwpgdb/cli/internal/logging"
	"jdwpgdb/cli/internal/registry"

	"github.com/pterm/pterm"
)

// Translator maps notifications to events for one session.
type Translator struct {
	reg      *registry.Registry
	provider introspect.Provider
	log      *pterm.Logger
}

// New returns a Translator consulting reg and provider. A nil logger discards.
func New(reg *registry.Registry, provider introspect.Provider, log *pterm.Logger) *Translator {
	if log == nil {
		log = logging.Discard()
	}
	if provider == nil {
		provider = introspect.Empty()
	}
	return &Translator{reg: reg, provider: provider, log: log}
}

// Translate returns the composite event for n, or false when n is not
// reported to the client.
func (t *Translator) Translate(n gdbmi.Notification) (*jdwp.Composite, bool) {
	switch n := n.(type) {
	case gdbmi.BreakpointHit:
		return t.breakpointHit(n)
	case gdbmi.SteppingDone:
		return t.steppingDone(n)
	case gdbmi.ThreadCreated:
		return t.threadEvent(jdwp.KindThreadStart, jdwp.ThreadID(n.ID))
	case gdbmi.ThreadExited:
		return t.threadEvent(jdwp.KindThreadDeath, jdwp.ThreadID(n.ID))
	case gdbmi.Exited:
		return t.vmDeath(), true
	case gdbmi.Stopped, gdbmi.Running:
		// State changes only.
		return nil, false
	default:
		t.log.Debug("unhandled notification", t.log.Args("type", fmt.Sprintf("%T", n)))
		return nil, false
	}
}

func (t *Translator) breakpointHit(n gdbmi.BreakpointHit) (*jdwp.Composite, bool) {
	rec, ok := t.reg.LookupByBreakpointNumber(n.Number)
	if !ok {
		t.log.Debug("breakpoint hit without request dropped", t.log.Args("number", n.Number, "thread", n.Thread))
		return nil, false
	}
	thread := jdwp.ThreadID(n.Thread)
	c := &jdwp.Composite{
		Policy: rec.Policy,
		Events: []jdwp.Event{jdwp.EventBreakpoint{
			RequestID: rec.RequestID,
			Thread:    thread,
			Location:  rec.Breakpoint.Location,
		}},
	}
	// A step pending on the same thread ends at the breakpoint too.
	if step, ok := t.reg.LookupByThread(thread); ok {
		if step.Policy > c.Policy {
			c.Policy = step.Policy
		}
		c.Events = append(c.Events, jdwp.EventSingleStep{
			RequestID: step.RequestID,
			Thread:    thread,
			Location:  rec.Breakpoint.Location,
		})
	}
	return c, true
}

func (t *Translator) steppingDone(n gdbmi.SteppingDone) (*jdwp.Composite, bool) {
	rec, ok := t.reg.LookupByThread(jdwp.ThreadID(n.Thread))
	if !ok {
		t.log.Debug("step completion without request dropped", t.log.Args("thread", n.Thread, "reason", n.Reason))
		return nil, false
	}
	loc, ok := t.provider.ResolveLocation(n.Frame.Func, n.Frame.Line)
	if !ok {
		// The client still gets the event; it sees the location as unknown.
		t.log.Debug("step ended outside known code", t.log.Args("func", n.Frame.Func, "line", n.Frame.Line))
	}
	return &jdwp.Composite{
		Policy: rec.Policy,
		Events: []jdwp.Event{jdwp.EventSingleStep{
			RequestID: rec.RequestID,
			Thread:    jdwp.ThreadID(n.Thread),
			Location:  loc,
		}},
	}, true
}

// threadEvent reports one event per matching request. The composite uses the
// most restrictive policy among them.
func (t *Translator) threadEvent(kind jdwp.EventKind, thread jdwp.ThreadID) (*jdwp.Composite, bool) {
	var c jdwp.Composite
	for _, rec := range t.reg.LookupByKind(kind) {
		if !matchesThread(rec.Modifiers, thread) {
			continue
		}
		if rec.Policy > c.Policy {
			c.Policy = rec.Policy
		}
		switch kind {
		case jdwp.KindThreadStart:
			c.Events = append(c.Events, jdwp.EventThreadStart{RequestID: rec.RequestID, Thread: thread})
		case jdwp.KindThreadDeath:
			c.Events = append(c.Events, jdwp.EventThreadDeath{RequestID: rec.RequestID, Thread: thread})
		}
	}
	if len(c.Events) == 0 {
		return nil, false
	}
	return &c, true
}

func (t *Translator) vmDeath() *jdwp.Composite {
	c := &jdwp.Composite{Policy: jdwp.SuspendNone}
	for _, rec := range t.reg.LookupByKind(jdwp.KindVMDeath) {
		if rec.Policy > c.Policy {
			c.Policy = rec.Policy
		}
		c.Events = append(c.Events, jdwp.EventVMDeath{RequestID: rec.RequestID})
	}
	if len(c.Events) == 0 {
		c.Events = []jdwp.Event{jdwp.EventVMDeath{}}
	}
	return c
}

// VMStart returns the event sent once a client has connected.
func VMStart(policy jdwp.SuspendPolicy, thread jdwp.ThreadID) *jdwp.Composite {
	return &jdwp.Composite{Policy: policy, Events: []jdwp.Event{jdwp.EventVMStart{Thread: thread}}}
}

// VMDeath returns the event sent when the backend goes away, addressed to any
// VM_DEATH requests in reg.
func VMDeath(reg *registry.Registry) *jdwp.Composite {
	return (&Translator{reg: reg}).vmDeath()
}

func matchesThread(mods []jdwp.Modifier, thread jdwp.ThreadID) bool {
	for _, m := range mods {
		if m.Kind == jdwp.ModThreadOnly && m.Thread != thread {
			return false
		}
	}
	return true
}
