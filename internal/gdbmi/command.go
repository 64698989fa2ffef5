// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gdbmi

import (
	"fmt"
	"strconv"
	"strings"
)

// Result classes.
const (
	ClassDone      = "done"
	ClassRunning   = "running"
	ClassConnected = "connected"
	ClassError     = "error"
	ClassExit      = "exit"
)

// Cmd builds an MI command from an operation and its arguments. Arguments that
// would not survive MI tokenization are quoted.
func Cmd(op string, args ...string) string {
	var b strings.Builder
	b.WriteString(op)
	for _, a := range args {
		b.WriteByte(' ')
		if needsQuote(a) {
			b.WriteString(Quote(a))
		} else {
			b.WriteString(a)
		}
	}
	return b.String()
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, " \t\"\\\n")
}

// Format returns the wire form of cmd tagged with token, newline included.
func Format(token uint32, cmd string) string {
	return strconv.FormatUint(uint64(token), 10) + cmd + "\n"
}

// Error is an ^error result record.
type Error struct {
	Command string
	Msg     string
	Code    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gdb: %s: %s (%s)", e.Command, e.Msg, e.Code)
	}
	return fmt.Sprintf("gdb: %s: %s", e.Command, e.Msg)
}

// AsError returns an *Error when rec is an ^error result, and nil otherwise.
func AsError(cmd string, rec *Record) error {
	if rec == nil || rec.Type != TypeResult || rec.Class != ClassError {
		return nil
	}
	return &Error{Command: cmd, Msg: rec.Results.Str("msg"), Code: rec.Results.Str("code")}
}
