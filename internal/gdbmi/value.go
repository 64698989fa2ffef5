// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gdbmi

import (
	"strconv"
	"strings"
)

// Value is a Const, a Tuple or a List.
type Value interface {
	format(b *strings.Builder)
}

// Const is a decoded C string value.
type Const string

// Result is a name=value pair. Inside a List the name is empty when the list
// holds bare values.
type Result struct {
	Name  string
	Value Value
}

// Tuple is an ordered set of results, written {a=..,b=..}.
type Tuple []Result

// List is an ordered sequence written [..]. Items are either all named
// results or all bare values.
type List []Result

func (c Const) format(b *strings.Builder) { b.WriteString(Quote(string(c))) }

func (r Result) format(b *strings.Builder) {
	if r.Name != "" {
		b.WriteString(r.Name)
		b.WriteByte('=')
	}
	r.Value.format(b)
}

func (t Tuple) format(b *strings.Builder) {
	b.WriteByte('{')
	for i, r := range t {
		if i > 0 {
			b.WriteByte(',')
		}
		r.format(b)
	}
	b.WriteByte('}')
}

func (l List) format(b *strings.Builder) {
	b.WriteByte('[')
	for i, r := range l {
		if i > 0 {
			b.WriteByte(',')
		}
		r.format(b)
	}
	b.WriteByte(']')
}

// Get returns the first value named name.
func (t Tuple) Get(name string) (Value, bool) {
	for _, r := range t {
		if r.Name == name {
			return r.Value, true
		}
	}
	return nil, false
}

// Str returns the named const, or "" when absent or not a const.
func (t Tuple) Str(name string) string {
	v, _ := t.Get(name)
	c, _ := v.(Const)
	return string(c)
}

// Int returns the named const parsed as a decimal integer.
func (t Tuple) Int(name string) (int, bool) {
	s := t.Str(name)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Tuple returns the named tuple, or nil.
func (t Tuple) Tuple(name string) Tuple {
	v, _ := t.Get(name)
	tt, _ := v.(Tuple)
	return tt
}

// List returns the named list, or nil.
func (t Tuple) List(name string) List {
	v, _ := t.Get(name)
	l, _ := v.(List)
	return l
}

// Tuples returns every tuple item of l, ignoring item names.
func (l List) Tuples() []Tuple {
	var out []Tuple
	for _, r := range l {
		if t, ok := r.Value.(Tuple); ok {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns every const item of l.
func (l List) Strings() []string {
	var out []string
	for _, r := range l {
		if c, ok := r.Value.(Const); ok {
			out = append(out, string(c))
		}
	}
	return out
}

// Quote encodes s as an MI C string including the surrounding quotes.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c == 0x7f {
				b.WriteByte('\\')
				b.WriteString(strconv.FormatInt(int64(c)|0o1000, 8)[1:])
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
