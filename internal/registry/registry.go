// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package registry maps JDWP event requests to the GDB handles that implement
// them, so a notification identified by a breakpoint number or a thread can be
// reported under the request id the client chose to listen for.
//
// A Registry belongs to one session. Breakpoints, steps and handle-less
// requests sit behind separate locks so lookups from the session loop never
// wait on unrelated bookkeeping.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"jdwpgdb/cli/internal/jdwp"
)

// ErrDuplicate is returned when a live record already owns the same
// (event kind, backend handle) pair.
var ErrDuplicate = errors.New("registry: duplicate event request")

// Breakpoint is the backend handle of a BREAKPOINT request.
type Breakpoint struct {
	Number   int
	Location jdwp.Location
}

// Step is the backend handle of a SINGLE_STEP request.
type Step struct {
	Thread jdwp.ThreadID
	Size   jdwp.StepSize
	Depth  jdwp.StepDepth
}

// Record is one active event request.
type Record struct {
	RequestID jdwp.RequestID
	Kind      jdwp.EventKind
	Policy    jdwp.SuspendPolicy

	Breakpoint *Breakpoint // KindBreakpoint
	Step       *Step       // KindSingleStep

	// Modifiers are kept verbatim for kinds the bridge filters itself.
	Modifiers []jdwp.Modifier
}

// Registry is safe for concurrent use.
type Registry struct {
	lastID atomic.Int32

	bpMu         sync.RWMutex
	bpByRequest  map[jdwp.RequestID]*Record
	bpByNumber   map[int]*Record
	bpByLocation map[jdwp.Location][]*Record

	stepMu        sync.RWMutex
	stepByRequest map[jdwp.RequestID]*Record
	stepByThread  map[jdwp.ThreadID]*Record

	otherMu sync.RWMutex
	other   map[jdwp.RequestID]*Record
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	r.init()
	return r
}

func (r *Registry) init() {
	r.bpByRequest = make(map[jdwp.RequestID]*Record)
	r.bpByNumber = make(map[int]*Record)
	r.bpByLocation = make(map[jdwp.Location][]*Record)
	r.stepByRequest = make(map[jdwp.RequestID]*Record)
	r.stepByThread = make(map[jdwp.ThreadID]*Record)
	r.other = make(map[jdwp.RequestID]*Record)
}

// NewRequestID returns the next request id. Ids start at 1 and are never
// reused within a session.
func (r *Registry) NewRequestID() jdwp.RequestID {
	return jdwp.RequestID(r.lastID.Add(1))
}

// RegisterBreakpoint indexes a breakpoint by request id, breakpoint number and
// location. Several requests may share a location; each has its own GDB
// breakpoint number.
func (r *Registry) RegisterBreakpoint(id jdwp.RequestID, number int, loc jdwp.Location, policy jdwp.SuspendPolicy) (*Record, error) {
	r.bpMu.Lock()
	defer r.bpMu.Unlock()
	if _, ok := r.bpByNumber[number]; ok {
		return nil, fmt.Errorf("%w: breakpoint %d", ErrDuplicate, number)
	}
	if _, ok := r.bpByRequest[id]; ok {
		return nil, fmt.Errorf("%w: request %d", ErrDuplicate, id)
	}
	rec := &Record{
		RequestID:  id,
		Kind:       jdwp.KindBreakpoint,
		Policy:     policy,
		Breakpoint: &Breakpoint{Number: number, Location: loc},
	}
	r.bpByRequest[id] = rec
	r.bpByNumber[number] = rec
	r.bpByLocation[loc] = append(r.bpByLocation[loc], rec)
	return rec, nil
}

// LookupByBreakpointNumber finds the request behind a GDB breakpoint.
func (r *Registry) LookupByBreakpointNumber(number int) (*Record, bool) {
	r.bpMu.RLock()
	defer r.bpMu.RUnlock()
	rec, ok := r.bpByNumber[number]
	return rec, ok
}

// LookupByLocation returns the breakpoint requests set at loc in request
// order.
func (r *Registry) LookupByLocation(loc jdwp.Location) []*Record {
	r.bpMu.RLock()
	defer r.bpMu.RUnlock()
	out := append([]*Record(nil), r.bpByLocation[loc]...)
	sortByID(out)
	return out
}

// RegisterStep records a pending step for thread. A thread has at most one.
func (r *Registry) RegisterStep(thread jdwp.ThreadID, id jdwp.RequestID, policy jdwp.SuspendPolicy, size jdwp.StepSize, depth jdwp.StepDepth) (*Record, error) {
	r.stepMu.Lock()
	defer r.stepMu.Unlock()
	if _, ok := r.stepByThread[thread]; ok {
		return nil, fmt.Errorf("%w: step on thread %d", ErrDuplicate, uint64(thread))
	}
	rec := &Record{
		RequestID: id,
		Kind:      jdwp.KindSingleStep,
		Policy:    policy,
		Step:      &Step{Thread: thread, Size: size, Depth: depth},
	}
	r.stepByRequest[id] = rec
	r.stepByThread[thread] = rec
	return rec, nil
}

// LookupByThread finds the step request pending on thread.
func (r *Registry) LookupByThread(thread jdwp.ThreadID) (*Record, bool) {
	r.stepMu.RLock()
	defer r.stepMu.RUnlock()
	rec, ok := r.stepByThread[thread]
	return rec, ok
}

// Steps returns every pending step.
func (r *Registry) Steps() []*Record {
	r.stepMu.RLock()
	defer r.stepMu.RUnlock()
	out := make([]*Record, 0, len(r.stepByRequest))
	for _, rec := range r.stepByRequest {
		out = append(out, rec)
	}
	sortByID(out)
	return out
}

// Register records a request whose kind has no backend handle, such as
// THREAD_START or VM_DEATH.
func (r *Registry) Register(id jdwp.RequestID, kind jdwp.EventKind, policy jdwp.SuspendPolicy, mods []jdwp.Modifier) *Record {
	rec := &Record{RequestID: id, Kind: kind, Policy: policy, Modifiers: mods}
	r.otherMu.Lock()
	r.other[id] = rec
	r.otherMu.Unlock()
	return rec
}

// LookupByKind returns the handle-less requests of kind in request order.
func (r *Registry) LookupByKind(kind jdwp.EventKind) []*Record {
	r.otherMu.RLock()
	defer r.otherMu.RUnlock()
	var out []*Record
	for _, rec := range r.other {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	sortByID(out)
	return out
}

// Unregister removes the record of request id from every index it is in and
// returns it. Unknown ids report false.
func (r *Registry) Unregister(id jdwp.RequestID) (*Record, bool) {
	r.bpMu.Lock()
	if rec, ok := r.bpByRequest[id]; ok {
		delete(r.bpByRequest, id)
		delete(r.bpByNumber, rec.Breakpoint.Number)
		r.dropLocationLocked(rec)
		r.bpMu.Unlock()
		return rec, true
	}
	r.bpMu.Unlock()

	r.stepMu.Lock()
	if rec, ok := r.stepByRequest[id]; ok {
		delete(r.stepByRequest, id)
		delete(r.stepByThread, rec.Step.Thread)
		r.stepMu.Unlock()
		return rec, true
	}
	r.stepMu.Unlock()

	r.otherMu.Lock()
	defer r.otherMu.Unlock()
	if rec, ok := r.other[id]; ok {
		delete(r.other, id)
		return rec, true
	}
	return nil, false
}

func (r *Registry) dropLocationLocked(rec *Record) {
	at := rec.Breakpoint.Location
	recs := r.bpByLocation[at]
	for i, other := range recs {
		if other == rec {
			recs = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	if len(recs) == 0 {
		delete(r.bpByLocation, at)
		return
	}
	r.bpByLocation[at] = recs
}

// Lookup finds any record by request id.
func (r *Registry) Lookup(id jdwp.RequestID) (*Record, bool) {
	r.bpMu.RLock()
	rec, ok := r.bpByRequest[id]
	r.bpMu.RUnlock()
	if ok {
		return rec, true
	}
	r.stepMu.RLock()
	rec, ok = r.stepByRequest[id]
	r.stepMu.RUnlock()
	if ok {
		return rec, true
	}
	r.otherMu.RLock()
	defer r.otherMu.RUnlock()
	rec, ok = r.other[id]
	return rec, ok
}

// BreakpointNumbers returns the tracked GDB breakpoint numbers in ascending
// order.
func (r *Registry) BreakpointNumbers() []int {
	r.bpMu.RLock()
	defer r.bpMu.RUnlock()
	return r.numbersLocked()
}

func (r *Registry) numbersLocked() []int {
	out := make([]int, 0, len(r.bpByNumber))
	for n := range r.bpByNumber {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ClearBreakpoints flushes every breakpoint record and returns the numbers that
// were tracked, so the caller can delete them from GDB in one command.
func (r *Registry) ClearBreakpoints() []int {
	r.bpMu.Lock()
	defer r.bpMu.Unlock()
	nums := r.numbersLocked()
	r.bpByRequest = make(map[jdwp.RequestID]*Record)
	r.bpByNumber = make(map[int]*Record)
	r.bpByLocation = make(map[jdwp.Location][]*Record)
	return nums
}

// Len returns the number of live records of every kind.
func (r *Registry) Len() int {
	r.bpMu.RLock()
	n := len(r.bpByRequest)
	r.bpMu.RUnlock()
	r.stepMu.RLock()
	n += len(r.stepByRequest)
	r.stepMu.RUnlock()
	r.otherMu.RLock()
	n += len(r.other)
	r.otherMu.RUnlock()
	return n
}

// Reset drops every record. Request ids keep counting.
func (r *Registry) Reset() {
	r.bpMu.Lock()
	r.stepMu.Lock()
	r.otherMu.Lock()
	r.init()
	r.otherMu.Unlock()
	r.stepMu.Unlock()
	r.bpMu.Unlock()
}

func sortByID(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].RequestID < recs[j].RequestID })
}
