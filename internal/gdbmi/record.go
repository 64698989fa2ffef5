// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package gdbmi parses and formats the GDB Machine Interface line grammar.
//
// A line of MI output is one of: a result record ("^"), an exec, status or
// notify async record ("*", "+", "="), a console, target or log stream record
// ("~", "@", "&"), or the "(gdb)" prompt that ends a turn. Result and async
// records may carry a numeric token that echoes the command that caused them.
package gdbmi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("gdbmi: syntax error")

// RecordType is the leading character of an output record.
type RecordType byte

const (
	TypeResult  RecordType = '^'
	TypeExec    RecordType = '*'
	TypeStatus  RecordType = '+'
	TypeNotify  RecordType = '='
	TypeConsole RecordType = '~'
	TypeTarget  RecordType = '@'
	TypeLog     RecordType = '&'
)

// IsStream reports whether t is one of the stream record types.
func (t RecordType) IsStream() bool {
	return t == TypeConsole || t == TypeTarget || t == TypeLog
}

// IsAsync reports whether t is an out of band record (async or stream).
func (t RecordType) IsAsync() bool { return t != TypeResult }

// Record is one parsed line of MI output.
type Record struct {
	Token    uint32
	HasToken bool
	Type     RecordType

	// Class is the result or async class, e.g. "done", "error", "stopped".
	Class   string
	Results Tuple

	// Stream holds the decoded text of a stream record.
	Stream string
}

func (r *Record) String() string {
	var b strings.Builder
	if r.HasToken {
		b.WriteString(strconv.FormatUint(uint64(r.Token), 10))
	}
	b.WriteByte(byte(r.Type))
	if r.Type.IsStream() {
		b.WriteString(Quote(r.Stream))
		return b.String()
	}
	b.WriteString(r.Class)
	for _, res := range r.Results {
		b.WriteByte(',')
		res.format(&b)
	}
	return b.String()
}

// Prompt is the line GDB prints at the end of every turn.
const Prompt = "(gdb)"

// IsPrompt reports whether line is the end-of-turn terminator.
func IsPrompt(line string) bool {
	return strings.TrimSpace(line) == Prompt
}

// ParseLine parses one line of MI output without its trailing newline.
func ParseLine(line string) (*Record, error) {
	line = strings.TrimRight(line, "\r\n")
	p := &parser{s: line}
	rec := &Record{}

	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos > start {
		tok, err := strconv.ParseUint(p.s[start:p.pos], 10, 32)
		if err != nil {
			return nil, p.errorf("bad token %q", p.s[start:p.pos])
		}
		rec.Token = uint32(tok)
		rec.HasToken = true
	}

	if p.eof() {
		return nil, p.errorf("missing record type")
	}
	rec.Type = RecordType(p.next())
	switch rec.Type {
	case TypeConsole, TypeTarget, TypeLog:
		s, err := p.cstring()
		if err != nil {
			return nil, err
		}
		rec.Stream = s
		return rec, nil
	case TypeResult, TypeExec, TypeStatus, TypeNotify:
	default:
		return nil, p.errorf("unknown record type %q", byte(rec.Type))
	}

	rec.Class = p.ident()
	if rec.Class == "" {
		return nil, p.errorf("missing class")
	}
	for !p.eof() {
		if !p.accept(',') {
			return nil, p.errorf("expected ','")
		}
		res, err := p.result()
		if err != nil {
			return nil, err
		}
		rec.Results = append(rec.Results, res)
	}
	return rec, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) next() byte {
	c := p.s[p.pos]
	p.pos++
	return c
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) accept(c byte) bool {
	if p.peek() == c && !p.eof() {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.s[p.pos]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *parser) result() (Result, error) {
	name := p.ident()
	if name == "" || !p.accept('=') {
		return Result{}, p.errorf("expected name=value")
	}
	v, err := p.value()
	if err != nil {
		return Result{}, err
	}
	return Result{Name: name, Value: v}, nil
}

func (p *parser) value() (Value, error) {
	switch p.peek() {
	case '"':
		s, err := p.cstring()
		return Const(s), err
	case '{':
		p.pos++
		var t Tuple
		if p.accept('}') {
			return t, nil
		}
		for {
			res, err := p.result()
			if err != nil {
				return nil, err
			}
			t = append(t, res)
			if p.accept('}') {
				return t, nil
			}
			if !p.accept(',') {
				return nil, p.errorf("expected ',' or '}'")
			}
		}
	case '[':
		p.pos++
		var l List
		if p.accept(']') {
			return l, nil
		}
		for {
			var item Result
			if c := p.peek(); c == '"' || c == '{' || c == '[' {
				v, err := p.value()
				if err != nil {
					return nil, err
				}
				item.Value = v
			} else {
				res, err := p.result()
				if err != nil {
					return nil, err
				}
				item = res
			}
			l = append(l, item)
			if p.accept(']') {
				return l, nil
			}
			if !p.accept(',') {
				return nil, p.errorf("expected ',' or ']'")
			}
		}
	}
	return nil, p.errorf("expected value")
}

// cstring decodes a double quoted C string.
func (p *parser) cstring() (string, error) {
	if !p.accept('"') {
		return "", p.errorf("expected '\"'")
	}
	var b strings.Builder
	for !p.eof() {
		c := p.next()
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", p.errorf("dangling escape")
			}
			e := p.next()
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'a':
				b.WriteByte('\a')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'v':
				b.WriteByte('\v')
			case 'e':
				b.WriteByte(0x1b)
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for i := 0; i < 2 && p.peek() >= '0' && p.peek() <= '7' && !p.eof(); i++ {
					v = v*8 + int(p.next()-'0')
				}
				b.WriteByte(byte(v))
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", p.errorf("unterminated string")
}
