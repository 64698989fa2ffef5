// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"

	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/jdwp"
)

// class reads a reference type id and resolves it. Unknown ids fail with
// INVALID_CLASS.
func class(s *Session, rep *Reply, r *jdwp.Reader) (*introspect.Class, bool) {
	id := r.ReferenceTypeID()
	if !rep.args(r) {
		return nil, false
	}
	c, ok := s.provider.ClassByID(id)
	if !ok {
		rep.Fail(jdwp.ErrInvalidClass)
		return nil, false
	}
	return c, true
}

func rtSignature(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	if c, ok := class(s, rep, r); ok {
		rep.Str(c.Signature)
	}
}

func rtSignatureWithGeneric(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	if c, ok := class(s, rep, r); ok {
		rep.Str(c.Signature)
		rep.Str(c.Generic)
	}
}

func rtModifiers(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	if c, ok := class(s, rep, r); ok {
		rep.Int(c.Modifiers)
	}
}

func rtFields(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	writeFields(s, rep, r, false)
}

func rtFieldsWithGeneric(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	writeFields(s, rep, r, true)
}

func writeFields(s *Session, rep *Reply, r *jdwp.Reader, generic bool) {
	c, ok := class(s, rep, r)
	if !ok {
		return
	}
	rep.Int(int32(len(c.Fields)))
	for _, f := range c.Fields {
		rep.FieldID(f.ID)
		rep.Str(f.Name)
		rep.Str(f.Signature)
		if generic {
			rep.Str(f.Generic)
		}
		rep.Int(f.Modifiers)
	}
}

func rtMethods(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	writeMethods(s, rep, r, false)
}

func rtMethodsWithGeneric(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	writeMethods(s, rep, r, true)
}

func writeMethods(s *Session, rep *Reply, r *jdwp.Reader, generic bool) {
	c, ok := class(s, rep, r)
	if !ok {
		return
	}
	rep.Int(int32(len(c.Methods)))
	for _, m := range c.Methods {
		rep.MethodID(m.ID)
		rep.Str(m.Name)
		rep.Str(m.Signature)
		if generic {
			rep.Str(m.Generic)
		}
		rep.Int(m.Modifiers)
	}
}

func rtSourceFile(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	c, ok := class(s, rep, r)
	if !ok {
		return
	}
	if c.SourceFile == "" {
		rep.Fail(jdwp.ErrAbsentInformation)
		return
	}
	rep.Str(c.SourceFile)
}

func rtStatus(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	id := r.ReferenceTypeID()
	if !rep.args(r) {
		return
	}
	st, ok := s.provider.ClassStatus(id)
	if !ok {
		rep.Fail(jdwp.ErrInvalidClass)
		return
	}
	rep.Int(int32(st))
}

func rtInterfaces(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	c, ok := class(s, rep, r)
	if !ok {
		return
	}
	rep.Int(int32(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		rep.ReferenceTypeID(i)
	}
}

// methodLineTable reports the code range of a method and its line entries.
func methodLineTable(_ context.Context, s *Session, rep *Reply, r *jdwp.Reader) {
	cid := r.ReferenceTypeID()
	mid := r.MethodID()
	if !rep.args(r) {
		return
	}
	if _, ok := s.provider.ClassByID(cid); !ok {
		rep.Fail(jdwp.ErrInvalidClass)
		return
	}
	m, ok := s.provider.MethodByID(cid, mid)
	if !ok {
		rep.Fail(jdwp.ErrInvalidMethodID)
		return
	}
	if len(m.Lines) == 0 {
		rep.Fail(jdwp.ErrAbsentInformation)
		return
	}
	start, end := m.CodeRange()
	rep.Long(int64(start))
	rep.Long(int64(end))
	rep.Int(int32(len(m.Lines)))
	for _, e := range m.Lines {
		rep.Long(int64(e.Index))
		rep.Int(int32(e.Line))
	}
}
