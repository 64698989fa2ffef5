// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import "fmt"

// RequestID identifies an event request created by EventRequest.Set. Zero is
// used for events the VM reports without a request, such as VM_START.
type RequestID int32

// Composite is the body of an Event.Composite command: one or more events
// sharing a suspend policy.
type Composite struct {
	Policy SuspendPolicy
	Events []Event
}

// Event is implemented by every event the bridge reports.
type Event interface {
	Kind() EventKind
	Request() RequestID
	encode(w *Writer)
}

// EventVMStart is sent once after the handshake.
type EventVMStart struct {
	RequestID RequestID
	Thread    ThreadID
}

// EventVMDeath is sent when the backend goes away.
type EventVMDeath struct {
	RequestID RequestID
}

// EventSingleStep reports a completed step.
type EventSingleStep struct {
	RequestID RequestID
	Thread    ThreadID
	Location  Location
}

// EventBreakpoint reports a breakpoint hit.
type EventBreakpoint struct {
	RequestID RequestID
	Thread    ThreadID
	Location  Location
}

// EventThreadStart reports a new thread.
type EventThreadStart struct {
	RequestID RequestID
	Thread    ThreadID
}

// EventThreadDeath reports a finished thread.
type EventThreadDeath struct {
	RequestID RequestID
	Thread    ThreadID
}

func (EventVMStart) Kind() EventKind     { return KindVMStart }
func (EventVMDeath) Kind() EventKind     { return KindVMDeath }
func (EventSingleStep) Kind() EventKind  { return KindSingleStep }
func (EventBreakpoint) Kind() EventKind  { return KindBreakpoint }
func (EventThreadStart) Kind() EventKind { return KindThreadStart }
func (EventThreadDeath) Kind() EventKind { return KindThreadDeath }

func (e EventVMStart) Request() RequestID     { return e.RequestID }
func (e EventVMDeath) Request() RequestID     { return e.RequestID }
func (e EventSingleStep) Request() RequestID  { return e.RequestID }
func (e EventBreakpoint) Request() RequestID  { return e.RequestID }
func (e EventThreadStart) Request() RequestID { return e.RequestID }
func (e EventThreadDeath) Request() RequestID { return e.RequestID }

func (e EventVMStart) encode(w *Writer)     { w.ThreadID(e.Thread) }
func (e EventVMDeath) encode(w *Writer)     {}
func (e EventThreadStart) encode(w *Writer) { w.ThreadID(e.Thread) }
func (e EventThreadDeath) encode(w *Writer) { w.ThreadID(e.Thread) }

func (e EventSingleStep) encode(w *Writer) {
	w.ThreadID(e.Thread)
	w.Location(e.Location)
}

func (e EventBreakpoint) encode(w *Writer) {
	w.ThreadID(e.Thread)
	w.Location(e.Location)
}

// Encode returns the composite body: policy, event count, then each event as
// kind, request id and kind specific fields.
func (c *Composite) Encode(sizes IDSizes) []byte {
	w := NewWriter(sizes)
	w.Byte(byte(c.Policy))
	w.Int(int32(len(c.Events)))
	for _, e := range c.Events {
		w.Byte(byte(e.Kind()))
		w.Int(int32(e.Request()))
		e.encode(w)
	}
	return w.Bytes()
}

// ReadComposite decodes a composite body. Only the event kinds above are
// understood; anything else is reported as malformed.
func ReadComposite(r *Reader) (*Composite, error) {
	c := &Composite{Policy: SuspendPolicy(r.Byte())}
	n := r.Int()
	if n < 0 || int(n) > r.Len() {
		return nil, fmt.Errorf("%w: event count %d", ErrMalformedPacket, n)
	}
	for i := int32(0); i < n && r.Err() == nil; i++ {
		kind := EventKind(r.Byte())
		req := RequestID(r.Int())
		var e Event
		switch kind {
		case KindVMStart:
			e = EventVMStart{RequestID: req, Thread: r.ThreadID()}
		case KindVMDeath:
			e = EventVMDeath{RequestID: req}
		case KindSingleStep:
			e = EventSingleStep{RequestID: req, Thread: r.ThreadID(), Location: r.Location()}
		case KindBreakpoint:
			e = EventBreakpoint{RequestID: req, Thread: r.ThreadID(), Location: r.Location()}
		case KindThreadStart:
			e = EventThreadStart{RequestID: req, Thread: r.ThreadID()}
		case KindThreadDeath:
			e = EventThreadDeath{RequestID: req, Thread: r.ThreadID()}
		default:
			return nil, fmt.Errorf("%w: event kind %v", ErrMalformedPacket, kind)
		}
		c.Events = append(c.Events, e)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return c, nil
}
