// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package trace journals the traffic of a bridge session: every JDWP packet
// exchanged with the client and every MI line exchanged with GDB. Recording
// never blocks the session; a recorder that cannot keep up drops entries.
package trace

import (
	"context"
	"time"
)

// Direction says which way an entry travelled.
type Direction string

const (
	// ClientIn is a JDWP packet read from the debugger.
	ClientIn Direction = "jdwp-in"
	// ClientOut is a JDWP packet written to the debugger.
	ClientOut Direction = "jdwp-out"
	// BackendOut is an MI command written to GDB.
	BackendOut Direction = "mi-out"
	// BackendIn is an MI line read from GDB.
	BackendIn Direction = "mi-in"
)

// Entry is one journaled message.
type Entry struct {
	Session   string
	At        time.Time
	Direction Direction
	Summary   string
	Payload   []byte
}

// Recorder accepts entries without blocking.
type Recorder interface {
	Record(e Entry)
	Close(ctx context.Context) error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(Entry)                {}
func (Nop) Close(context.Context) error { return nil }
