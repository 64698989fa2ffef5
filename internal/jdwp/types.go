// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package jdwp implements the wire format of the Java Debug Wire Protocol as seen
// from the virtual machine side of a connection. It provides packet framing, the
// connection handshake, a cursor based decoder and an appending encoder for every
// JDWP primitive, and the command, error and event constants the bridge speaks.
//
// Reference identifiers (objects, reference types, methods, fields, frames) are
// variable width. Their widths are negotiated once per session through IDSizes and
// every Reader and Writer of that session is created with the same value.
package jdwp

import "fmt"

// ObjectID identifies an object instance. Thread, thread group, string, class
// loader, class object and array identifiers share its width.
type ObjectID uint64

// ThreadID identifies a thread. It is encoded with the object ID width.
type ThreadID uint64

// ThreadGroupID identifies a thread group. It is encoded with the object ID width.
type ThreadGroupID uint64

// ReferenceTypeID identifies a class, interface or array type.
type ReferenceTypeID uint64

// MethodID identifies a method within its declaring reference type.
type MethodID uint64

// FieldID identifies a field within its declaring reference type.
type FieldID uint64

// FrameID identifies a stack frame of a suspended thread.
type FrameID uint64

// Location is an executable position: a code index inside a method of a type.
type Location struct {
	Type   TypeTag
	Class  ReferenceTypeID
	Method MethodID
	Index  uint64
}

// IsZero reports whether l is the empty location.
func (l Location) IsZero() bool { return l == Location{} }

func (l Location) String() string {
	return fmt.Sprintf("%v:%d/%d@%d", l.Type, uint64(l.Class), uint64(l.Method), l.Index)
}

// TaggedObjectID is an object identifier prefixed with its value tag.
type TaggedObjectID struct {
	Tag    Tag
	Object ObjectID
}

func (i ObjectID) String() string        { return fmt.Sprintf("ObjectID<%d>", uint64(i)) }
func (i ThreadID) String() string        { return fmt.Sprintf("ThreadID<%d>", uint64(i)) }
func (i ThreadGroupID) String() string   { return fmt.Sprintf("ThreadGroupID<%d>", uint64(i)) }
func (i ReferenceTypeID) String() string { return fmt.Sprintf("ReferenceTypeID<%d>", uint64(i)) }
func (i MethodID) String() string        { return fmt.Sprintf("MethodID<%d>", uint64(i)) }
func (i FieldID) String() string         { return fmt.Sprintf("FieldID<%d>", uint64(i)) }
func (i FrameID) String() string         { return fmt.Sprintf("FrameID<%d>", uint64(i)) }
