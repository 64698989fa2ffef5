// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import "sync/atomic"

// State is the lifecycle of a session.
type State int32

const (
	// StateConnected is the state after the handshake, before the first
	// resume or stop.
	StateConnected State = iota
	// StateRunning means GDB reported the inferior running.
	StateRunning
	// StateSuspended means GDB reported a stop or the client suspended.
	StateSuspended
	// StateDisposed is terminal.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

// stateBox holds a State written by the session loop and read elsewhere.
type stateBox struct{ v atomic.Int32 }

func (b *stateBox) Load() State { return State(b.v.Load()) }

// Store moves to next unless the session is already disposed. It reports
// whether the state changed.
func (b *stateBox) Store(next State) bool {
	for {
		cur := b.v.Load()
		if State(cur) == StateDisposed || State(cur) == next {
			return false
		}
		if b.v.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}
