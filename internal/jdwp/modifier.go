// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import "fmt"

// ModKind identifies an event request modifier.
type ModKind uint8

const (
	ModCount           ModKind = 1
	ModConditional     ModKind = 2
	ModThreadOnly      ModKind = 3
	ModClassOnly       ModKind = 4
	ModClassMatch      ModKind = 5
	ModClassExclude    ModKind = 6
	ModLocationOnly    ModKind = 7
	ModExceptionOnly   ModKind = 8
	ModFieldOnly       ModKind = 9
	ModStep            ModKind = 10
	ModInstanceOnly    ModKind = 11
	ModSourceNameMatch ModKind = 12
)

// Modifier is one filter attached to an EventRequest.Set command. Only the
// fields belonging to Kind are meaningful.
type Modifier struct {
	Kind ModKind

	Count     int32           // ModCount
	ExprID    int32           // ModConditional
	Thread    ThreadID        // ModThreadOnly, ModStep
	Class     ReferenceTypeID // ModClassOnly, ModExceptionOnly, ModFieldOnly
	Pattern   string          // ModClassMatch, ModClassExclude, ModSourceNameMatch
	Location  Location        // ModLocationOnly
	Caught    bool            // ModExceptionOnly
	Uncaught  bool            // ModExceptionOnly
	Field     FieldID         // ModFieldOnly
	StepSize  StepSize        // ModStep
	StepDepth StepDepth       // ModStep
	Instance  ObjectID        // ModInstanceOnly
}

func (m Modifier) String() string {
	switch m.Kind {
	case ModCount:
		return fmt.Sprintf("Count(%d)", m.Count)
	case ModThreadOnly:
		return fmt.Sprintf("ThreadOnly(%d)", uint64(m.Thread))
	case ModLocationOnly:
		return fmt.Sprintf("LocationOnly(%v)", m.Location)
	case ModStep:
		return fmt.Sprintf("Step(%d, %d, %v)", uint64(m.Thread), m.StepSize, m.StepDepth)
	}
	return fmt.Sprintf("Modifier(%d)", m.Kind)
}

// Modifier reads one modifier including its kind byte. An unknown kind marks
// the reader as malformed.
func (r *Reader) Modifier() Modifier {
	m := Modifier{Kind: ModKind(r.Byte())}
	switch m.Kind {
	case ModCount:
		m.Count = r.Int()
	case ModConditional:
		m.ExprID = r.Int()
	case ModThreadOnly:
		m.Thread = r.ThreadID()
	case ModClassOnly:
		m.Class = r.ReferenceTypeID()
	case ModClassMatch, ModClassExclude, ModSourceNameMatch:
		m.Pattern = r.Str()
	case ModLocationOnly:
		m.Location = r.Location()
	case ModExceptionOnly:
		m.Class = r.ReferenceTypeID()
		m.Caught = r.Bool()
		m.Uncaught = r.Bool()
	case ModFieldOnly:
		m.Class = r.ReferenceTypeID()
		m.Field = r.FieldID()
	case ModStep:
		m.Thread = r.ThreadID()
		m.StepSize = StepSize(r.Int())
		m.StepDepth = StepDepth(r.Int())
	case ModInstanceOnly:
		m.Instance = r.ObjectID()
	default:
		if r.err == nil {
			r.err = fmt.Errorf("%w: modifier kind %d", ErrMalformedPacket, m.Kind)
		}
	}
	return m
}

// Modifier writes m including its kind byte.
func (w *Writer) Modifier(m Modifier) {
	w.Byte(byte(m.Kind))
	switch m.Kind {
	case ModCount:
		w.Int(m.Count)
	case ModConditional:
		w.Int(m.ExprID)
	case ModThreadOnly:
		w.ThreadID(m.Thread)
	case ModClassOnly:
		w.ReferenceTypeID(m.Class)
	case ModClassMatch, ModClassExclude, ModSourceNameMatch:
		w.Str(m.Pattern)
	case ModLocationOnly:
		w.Location(m.Location)
	case ModExceptionOnly:
		w.ReferenceTypeID(m.Class)
		w.Bool(m.Caught)
		w.Bool(m.Uncaught)
	case ModFieldOnly:
		w.ReferenceTypeID(m.Class)
		w.FieldID(m.Field)
	case ModStep:
		w.ThreadID(m.Thread)
		w.Int(int32(m.StepSize))
		w.Int(int32(m.StepDepth))
	case ModInstanceOnly:
		w.ObjectID(m.Instance)
	}
}
