// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gdbmi

import "strconv"

// Notification is the closed set of async records the bridge understands.
// Consumers handle it with a type switch.
type Notification interface {
	notification()
}

// Frame is the frame tuple carried by stop records and stack listings.
type Frame struct {
	Level    int
	Addr     string
	Func     string
	File     string
	FullName string
	Line     int
}

// BreakpointHit is *stopped,reason="breakpoint-hit".
type BreakpointHit struct {
	Number int
	Thread int
	Frame  Frame
}

// SteppingDone is *stopped with reason end-stepping-range or function-finished.
type SteppingDone struct {
	Reason string
	Thread int
	Frame  Frame
}

// Stopped is any other *stopped record, e.g. signal-received after an interrupt.
type Stopped struct {
	Reason string
	Thread int
	Frame  Frame
}

// Exited is *stopped with an exited reason, or =thread-group-exited.
type Exited struct {
	Code int
}

// Running is *running. Thread is "all" or a thread number.
type Running struct {
	Thread string
}

// ThreadCreated is =thread-created.
type ThreadCreated struct {
	ID    int
	Group string
}

// ThreadExited is =thread-exited.
type ThreadExited struct {
	ID    int
	Group string
}

func (BreakpointHit) notification() {}
func (SteppingDone) notification()  {}
func (Stopped) notification()       {}
func (Exited) notification()        {}
func (Running) notification()       {}
func (ThreadCreated) notification() {}
func (ThreadExited) notification()  {}

// Stop reasons.
const (
	ReasonBreakpointHit    = "breakpoint-hit"
	ReasonEndSteppingRange = "end-stepping-range"
	ReasonFunctionFinished = "function-finished"
	ReasonSignalReceived   = "signal-received"
	ReasonExited           = "exited"
	ReasonExitedNormally   = "exited-normally"
	ReasonExitedSignalled  = "exited-signalled"
)

// Classify maps an async record to a Notification. Stream records, result
// records and unknown classes report false.
func Classify(rec *Record) (Notification, bool) {
	if rec == nil {
		return nil, false
	}
	switch rec.Type {
	case TypeExec:
		switch rec.Class {
		case "stopped":
			return classifyStop(rec.Results), true
		case "running":
			return Running{Thread: rec.Results.Str("thread-id")}, true
		}
	case TypeNotify:
		switch rec.Class {
		case "thread-created":
			id, _ := rec.Results.Int("id")
			return ThreadCreated{ID: id, Group: rec.Results.Str("group-id")}, true
		case "thread-exited":
			id, _ := rec.Results.Int("id")
			return ThreadExited{ID: id, Group: rec.Results.Str("group-id")}, true
		case "thread-group-exited":
			code, _ := parseExitCode(rec.Results.Str("exit-code"))
			return Exited{Code: code}, true
		}
	}
	return nil, false
}

func classifyStop(t Tuple) Notification {
	reason := t.Str("reason")
	thread, _ := t.Int("thread-id")
	frame := ParseFrame(t.Tuple("frame"))
	switch reason {
	case ReasonBreakpointHit:
		n, _ := t.Int("bkptno")
		return BreakpointHit{Number: n, Thread: thread, Frame: frame}
	case ReasonEndSteppingRange, ReasonFunctionFinished:
		return SteppingDone{Reason: reason, Thread: thread, Frame: frame}
	case ReasonExited, ReasonExitedNormally, ReasonExitedSignalled:
		code, _ := parseExitCode(t.Str("exit-code"))
		return Exited{Code: code}
	}
	return Stopped{Reason: reason, Thread: thread, Frame: frame}
}

// ParseFrame decodes a frame tuple. Missing fields stay zero.
func ParseFrame(t Tuple) Frame {
	f := Frame{
		Addr:     t.Str("addr"),
		Func:     t.Str("func"),
		File:     t.Str("file"),
		FullName: t.Str("fullname"),
	}
	f.Level, _ = t.Int("level")
	f.Line, _ = t.Int("line")
	return f
}

// GDB reports exit codes in octal.
func parseExitCode(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 8, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
