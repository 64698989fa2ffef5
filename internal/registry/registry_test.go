// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package registry

import (
	"sync"
	"testing"

	"jdwpgdb/cli/internal/jdwp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc(method, index uint64) jdwp.Location {
	return jdwp.Location{Type: jdwp.TypeClass, Class: 1, Method: jdwp.MethodID(method), Index: index}
}

func TestBreakpointIndexes(t *testing.T) {
	r := New()
	id := r.NewRequestID()
	rec, err := r.RegisterBreakpoint(id, 4, loc(2, 10), jdwp.SuspendAll)
	require.NoError(t, err)

	byNum, ok := r.LookupByBreakpointNumber(4)
	require.True(t, ok)
	assert.Same(t, rec, byNum)

	byLoc := r.LookupByLocation(loc(2, 10))
	require.Len(t, byLoc, 1)
	assert.Same(t, rec, byLoc[0])

	byID, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Same(t, rec, byID)
	assert.Equal(t, jdwp.KindBreakpoint, rec.Kind)
}

func TestRegisterBreakpointRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name   string
		id     jdwp.RequestID
		number int
		at     jdwp.Location
	}{
		{"same number", 2, 1, loc(9, 9)},
		{"same request", 1, 7, loc(9, 9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			_, err := r.RegisterBreakpoint(1, 1, loc(1, 1), jdwp.SuspendAll)
			require.NoError(t, err)
			_, err = r.RegisterBreakpoint(tt.id, tt.number, tt.at, jdwp.SuspendAll)
			assert.ErrorIs(t, err, ErrDuplicate)
			assert.Equal(t, 1, r.Len())
		})
	}
}

func TestBreakpointsShareALocation(t *testing.T) {
	r := New()
	a, b := r.NewRequestID(), r.NewRequestID()
	first, err := r.RegisterBreakpoint(a, 1, loc(1, 1), jdwp.SuspendAll)
	require.NoError(t, err)
	second, err := r.RegisterBreakpoint(b, 2, loc(1, 1), jdwp.SuspendNone)
	require.NoError(t, err)

	at := r.LookupByLocation(loc(1, 1))
	require.Len(t, at, 2)
	assert.Same(t, first, at[0])
	assert.Same(t, second, at[1])

	_, ok := r.Unregister(a)
	require.True(t, ok)
	at = r.LookupByLocation(loc(1, 1))
	require.Len(t, at, 1)
	assert.Same(t, second, at[0])

	got, ok := r.LookupByBreakpointNumber(2)
	require.True(t, ok)
	assert.Equal(t, b, got.RequestID)
}

func TestUnregisterRemovesOnlyItsOwnEntries(t *testing.T) {
	r := New()
	a, b := r.NewRequestID(), r.NewRequestID()
	_, err := r.RegisterBreakpoint(a, 1, loc(1, 1), jdwp.SuspendAll)
	require.NoError(t, err)
	_, err = r.RegisterBreakpoint(b, 2, loc(1, 2), jdwp.SuspendEventThread)
	require.NoError(t, err)

	rec, ok := r.Unregister(a)
	require.True(t, ok)
	assert.Equal(t, 1, rec.Breakpoint.Number)

	_, ok = r.LookupByBreakpointNumber(1)
	assert.False(t, ok)
	assert.Empty(t, r.LookupByLocation(loc(1, 1)))
	_, ok = r.LookupByBreakpointNumber(2)
	assert.True(t, ok)
	assert.Equal(t, []int{2}, r.BreakpointNumbers())

	_, ok = r.Unregister(a)
	assert.False(t, ok)
	_, ok = r.Unregister(999)
	assert.False(t, ok)
}

func TestSteps(t *testing.T) {
	r := New()
	id := r.NewRequestID()
	rec, err := r.RegisterStep(7, id, jdwp.SuspendEventThread, jdwp.StepLine, jdwp.StepOver)
	require.NoError(t, err)
	assert.Equal(t, jdwp.KindSingleStep, rec.Kind)

	got, ok := r.LookupByThread(7)
	require.True(t, ok)
	assert.Same(t, rec, got)
	assert.Equal(t, jdwp.StepOver, got.Step.Depth)

	_, err = r.RegisterStep(7, r.NewRequestID(), jdwp.SuspendAll, jdwp.StepLine, jdwp.StepInto)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, r.Steps(), 1)

	_, ok = r.Unregister(id)
	require.True(t, ok)
	_, ok = r.LookupByThread(7)
	assert.False(t, ok)
}

func TestHandlelessKinds(t *testing.T) {
	r := New()
	r.Register(3, jdwp.KindThreadStart, jdwp.SuspendNone, nil)
	r.Register(1, jdwp.KindThreadStart, jdwp.SuspendAll, nil)
	r.Register(2, jdwp.KindVMDeath, jdwp.SuspendNone, nil)

	starts := r.LookupByKind(jdwp.KindThreadStart)
	require.Len(t, starts, 2)
	assert.Equal(t, jdwp.RequestID(1), starts[0].RequestID)
	assert.Equal(t, jdwp.RequestID(3), starts[1].RequestID)
	assert.Empty(t, r.LookupByKind(jdwp.KindThreadDeath))
}

func TestClearBreakpointsAndReset(t *testing.T) {
	r := New()
	for i, n := range []int{5, 3, 9} {
		_, err := r.RegisterBreakpoint(r.NewRequestID(), n, loc(1, uint64(i)), jdwp.SuspendAll)
		require.NoError(t, err)
	}
	_, err := r.RegisterStep(1, r.NewRequestID(), jdwp.SuspendAll, jdwp.StepLine, jdwp.StepInto)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 5, 9}, r.ClearBreakpoints())
	assert.Empty(t, r.BreakpointNumbers())
	assert.Equal(t, 1, r.Len(), "steps survive a breakpoint flush")

	last := r.NewRequestID()
	r.Reset()
	assert.Zero(t, r.Len())
	assert.Greater(t, r.NewRequestID(), last)
}

func TestRequestIDsAreUniqueUnderConcurrency(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	ids := make(chan jdwp.RequestID, 800)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ids <- r.NewRequestID()
			}
		}()
	}
	wg.Wait()
	close(ids)
	seen := make(map[jdwp.RequestID]bool)
	for id := range ids {
		assert.False(t, seen[id])
		assert.NotZero(t, id)
		seen[id] = true
	}
	assert.Len(t, seen, 800)
}
