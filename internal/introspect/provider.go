// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package introspect answers questions about the Java program under debug
// that GDB cannot: which classes and methods exist, which native function and
// source line a JDWP location stands for, and the reverse.
//
// All queries are synchronous and side-effect free.
package introspect

import (
	"strings"

	"jdwpgdb/cli/internal/jdwp"
)

// Provider is the read-only view of the debuggee's object model consumed by
// the bridge.
type Provider interface {
	// ResolveLocation maps a function reported by GDB and a source line to a
	// JDWP location. The exact line wins; otherwise the nearest preceding
	// line-table entry is used.
	ResolveLocation(function string, line int) (jdwp.Location, bool)
	// LineForLocation maps a JDWP location back to a source position.
	LineForLocation(loc jdwp.Location) (Position, bool)

	MethodByID(class jdwp.ReferenceTypeID, method jdwp.MethodID) (*Method, bool)
	FieldByID(class jdwp.ReferenceTypeID, field jdwp.FieldID) (*Field, bool)
	ClassStatus(class jdwp.ReferenceTypeID) (jdwp.ClassStatus, bool)

	Classes() []*Class
	ClassesBySignature(signature string) []*Class
	ClassByID(id jdwp.ReferenceTypeID) (*Class, bool)

	AllThreads() []Thread
	ThreadGroups() []ThreadGroup
}

// Position is a source position as GDB understands it.
type Position struct {
	File     string
	Function string
	Line     int
}

// Class is a loaded reference type.
type Class struct {
	ID         jdwp.ReferenceTypeID   `json:"id"`
	Tag        jdwp.TypeTag           `json:"tag"`
	Signature  string                 `json:"signature"`
	Generic    string                 `json:"generic,omitempty"`
	SourceFile string                 `json:"sourceFile"`
	Status     jdwp.ClassStatus       `json:"status"`
	Modifiers  int32                  `json:"modifiers"`
	Interfaces []jdwp.ReferenceTypeID `json:"interfaces,omitempty"`
	Methods    []*Method              `json:"methods"`
	Fields     []*Field               `json:"fields,omitempty"`
}

// Name returns the dotted class name, e.g. com.example.Main.
func (c *Class) Name() string { return ClassName(c.Signature) }

// Method is a method of a class together with its line table.
type Method struct {
	ID        jdwp.MethodID `json:"id"`
	Name      string        `json:"name"`
	Signature string        `json:"signature"`
	Generic   string        `json:"generic,omitempty"`
	Modifiers int32         `json:"modifiers"`
	// Symbol is the native function GDB reports for this method.
	Symbol string      `json:"symbol"`
	Lines  []LineEntry `json:"lines"`
}

// LineEntry maps a code index to a source line.
type LineEntry struct {
	Index uint64 `json:"index"`
	Line  int    `json:"line"`
}

// CodeRange returns the first and last code index of the line table.
func (m *Method) CodeRange() (start, end uint64) {
	for i, e := range m.Lines {
		if i == 0 || e.Index < start {
			start = e.Index
		}
		if e.Index > end {
			end = e.Index
		}
	}
	return start, end
}

// Field is a field of a class.
type Field struct {
	ID        jdwp.FieldID `json:"id"`
	Name      string       `json:"name"`
	Signature string       `json:"signature"`
	Generic   string       `json:"generic,omitempty"`
	Modifiers int32        `json:"modifiers"`
}

// Thread names a debuggee thread. ID is the GDB thread number.
type Thread struct {
	ID    jdwp.ThreadID      `json:"id"`
	Name  string             `json:"name"`
	Group jdwp.ThreadGroupID `json:"group"`
}

// ThreadGroup is a node of the thread group tree. Parent is zero for a top
// level group.
type ThreadGroup struct {
	ID     jdwp.ThreadGroupID `json:"id"`
	Name   string             `json:"name"`
	Parent jdwp.ThreadGroupID `json:"parent,omitempty"`
}

// ClassName converts a type signature such as Lcom/example/Main; to
// com.example.Main. Other signatures are returned unchanged.
func ClassName(signature string) string {
	if len(signature) < 2 || signature[0] != 'L' || signature[len(signature)-1] != ';' {
		return signature
	}
	return strings.ReplaceAll(signature[1:len(signature)-1], "/", ".")
}
