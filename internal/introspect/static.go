// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package introspect

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/jdwp"
)

// SymbolMap is the on-disk form of a Static provider.
type SymbolMap struct {
	Version      int           `json:"version"`
	Classes      []*Class      `json:"classes"`
	Threads      []Thread      `json:"threads,omitempty"`
	ThreadGroups []ThreadGroup `json:"threadGroups,omitempty"`
}

// MainGroup is the thread group used when a symbol map declares none.
var MainGroup = ThreadGroup{ID: 1, Name: "main"}

type methodKey struct {
	class  jdwp.ReferenceTypeID
	method jdwp.MethodID
}

type fieldKey struct {
	class jdwp.ReferenceTypeID
	field jdwp.FieldID
}

type methodRef struct {
	class  *Class
	method *Method
}

// Static is a Provider backed by a symbol map. It is immutable once built and
// safe for concurrent use.
type Static struct {
	classes     []*Class
	byID        map[jdwp.ReferenceTypeID]*Class
	bySignature map[string][]*Class
	methods     map[methodKey]*Method
	fields      map[fieldKey]*Field
	functions   map[string]methodRef
	threads     []Thread
	groups      []ThreadGroup
}

var _ Provider = (*Static)(nil)

// Load reads a JSON symbol map from path.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ConfigInvalid, "reading symbol map", err)
	}
	return Parse(data)
}

// Parse decodes a JSON symbol map.
func Parse(data []byte) (*Static, error) {
	var m SymbolMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(apperrors.ConfigInvalid, "decoding symbol map", err)
	}
	return NewStatic(m)
}

// Empty returns a provider that knows no classes. The bridge still works
// against it for thread and stepping commands.
func Empty() *Static {
	s, _ := NewStatic(SymbolMap{})
	return s
}

// NewStatic indexes m. Class ids must be unique and non-zero, and method and
// field ids unique within their class.
func NewStatic(m SymbolMap) (*Static, error) {
	s := &Static{
		byID:        make(map[jdwp.ReferenceTypeID]*Class),
		bySignature: make(map[string][]*Class),
		methods:     make(map[methodKey]*Method),
		fields:      make(map[fieldKey]*Field),
		functions:   make(map[string]methodRef),
		threads:     append([]Thread(nil), m.Threads...),
		groups:      append([]ThreadGroup(nil), m.ThreadGroups...),
	}
	if len(s.groups) == 0 {
		s.groups = []ThreadGroup{MainGroup}
	}
	for _, c := range m.Classes {
		if c == nil || c.ID == 0 {
			return nil, apperrors.New(apperrors.ConfigInvalid, "symbol map: class without id")
		}
		if _, dup := s.byID[c.ID]; dup {
			return nil, apperrors.New(apperrors.ConfigInvalid, fmt.Sprintf("symbol map: duplicate class id %d", uint64(c.ID)))
		}
		if c.Tag == 0 {
			c.Tag = jdwp.TypeClass
		}
		s.classes = append(s.classes, c)
		s.byID[c.ID] = c
		s.bySignature[c.Signature] = append(s.bySignature[c.Signature], c)

		for _, meth := range c.Methods {
			k := methodKey{c.ID, meth.ID}
			if _, dup := s.methods[k]; dup {
				return nil, apperrors.New(apperrors.ConfigInvalid, fmt.Sprintf("symbol map: duplicate method id %d in %s", uint64(meth.ID), c.Signature))
			}
			sort.Slice(meth.Lines, func(i, j int) bool { return meth.Lines[i].Index < meth.Lines[j].Index })
			s.methods[k] = meth
			ref := methodRef{class: c, method: meth}
			s.functions[c.Name()+"."+meth.Name] = ref
			if meth.Symbol != "" {
				s.functions[meth.Symbol] = ref
			}
		}
		for _, f := range c.Fields {
			k := fieldKey{c.ID, f.ID}
			if _, dup := s.fields[k]; dup {
				return nil, apperrors.New(apperrors.ConfigInvalid, fmt.Sprintf("symbol map: duplicate field id %d in %s", uint64(f.ID), c.Signature))
			}
			s.fields[k] = f
		}
	}
	return s, nil
}

func (s *Static) ResolveLocation(function string, line int) (jdwp.Location, bool) {
	ref, ok := s.functions[function]
	if !ok || len(ref.method.Lines) == 0 {
		return jdwp.Location{}, false
	}
	best := -1
	for i, e := range ref.method.Lines {
		if e.Line > line {
			continue
		}
		// Prefer the highest line, then the lowest code index for it.
		if best < 0 || e.Line > ref.method.Lines[best].Line {
			best = i
		}
	}
	if best < 0 {
		return jdwp.Location{}, false
	}
	return jdwp.Location{
		Type:   ref.class.Tag,
		Class:  ref.class.ID,
		Method: ref.method.ID,
		Index:  ref.method.Lines[best].Index,
	}, true
}

func (s *Static) LineForLocation(loc jdwp.Location) (Position, bool) {
	c, ok := s.byID[loc.Class]
	if !ok {
		return Position{}, false
	}
	m, ok := s.methods[methodKey{loc.Class, loc.Method}]
	if !ok || len(m.Lines) == 0 {
		return Position{}, false
	}
	// Lines are sorted by index: take the last entry at or before loc.
	i := sort.Search(len(m.Lines), func(i int) bool { return m.Lines[i].Index > loc.Index })
	if i == 0 {
		return Position{}, false
	}
	fn := m.Symbol
	if fn == "" {
		fn = c.Name() + "." + m.Name
	}
	return Position{File: c.SourceFile, Function: fn, Line: m.Lines[i-1].Line}, true
}

func (s *Static) MethodByID(class jdwp.ReferenceTypeID, method jdwp.MethodID) (*Method, bool) {
	m, ok := s.methods[methodKey{class, method}]
	return m, ok
}

func (s *Static) FieldByID(class jdwp.ReferenceTypeID, field jdwp.FieldID) (*Field, bool) {
	f, ok := s.fields[fieldKey{class, field}]
	return f, ok
}

func (s *Static) ClassStatus(class jdwp.ReferenceTypeID) (jdwp.ClassStatus, bool) {
	c, ok := s.byID[class]
	if !ok {
		return 0, false
	}
	return c.Status, true
}

func (s *Static) Classes() []*Class { return s.classes }

func (s *Static) ClassesBySignature(signature string) []*Class { return s.bySignature[signature] }

func (s *Static) ClassByID(id jdwp.ReferenceTypeID) (*Class, bool) {
	c, ok := s.byID[id]
	return c, ok
}

func (s *Static) AllThreads() []Thread { return s.threads }

func (s *Static) ThreadGroups() []ThreadGroup { return s.groups }
