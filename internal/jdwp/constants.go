// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import "fmt"

// ErrorCode is the status carried in the header of a reply packet.
type ErrorCode uint16

const (
	ErrNone               ErrorCode = 0
	ErrInvalidThread      ErrorCode = 10
	ErrInvalidThreadGroup ErrorCode = 11
	ErrThreadNotSuspended ErrorCode = 13
	ErrInvalidObject      ErrorCode = 20
	ErrInvalidClass       ErrorCode = 21
	ErrInvalidMethodID    ErrorCode = 23
	ErrInvalidLocation    ErrorCode = 24
	ErrInvalidFieldID     ErrorCode = 25
	ErrInvalidFrameID     ErrorCode = 30
	ErrNotImplemented     ErrorCode = 99
	ErrNullPointer        ErrorCode = 100
	ErrAbsentInformation  ErrorCode = 101
	ErrInvalidEventType   ErrorCode = 102
	ErrIllegalArgument    ErrorCode = 103
	ErrVMDead             ErrorCode = 112
	ErrInternal           ErrorCode = 113
	ErrInvalidIndex       ErrorCode = 503
	ErrInvalidLength      ErrorCode = 504
	ErrInvalidString      ErrorCode = 506
	ErrInvalidCount       ErrorCode = 512
)

var errorCodeNames = map[ErrorCode]string{
	ErrNone:               "NONE",
	ErrInvalidThread:      "INVALID_THREAD",
	ErrInvalidThreadGroup: "INVALID_THREAD_GROUP",
	ErrThreadNotSuspended: "THREAD_NOT_SUSPENDED",
	ErrInvalidObject:      "INVALID_OBJECT",
	ErrInvalidClass:       "INVALID_CLASS",
	ErrInvalidMethodID:    "INVALID_METHODID",
	ErrInvalidLocation:    "INVALID_LOCATION",
	ErrInvalidFieldID:     "INVALID_FIELDID",
	ErrInvalidFrameID:     "INVALID_FRAMEID",
	ErrNotImplemented:     "NOT_IMPLEMENTED",
	ErrNullPointer:        "NULL_POINTER",
	ErrAbsentInformation:  "ABSENT_INFORMATION",
	ErrInvalidEventType:   "INVALID_EVENT_TYPE",
	ErrIllegalArgument:    "ILLEGAL_ARGUMENT",
	ErrVMDead:             "VM_DEAD",
	ErrInternal:           "INTERNAL",
	ErrInvalidIndex:       "INVALID_INDEX",
	ErrInvalidLength:      "INVALID_LENGTH",
	ErrInvalidString:      "INVALID_STRING",
	ErrInvalidCount:       "INVALID_COUNT",
}

func (e ErrorCode) String() string {
	if n, ok := errorCodeNames[e]; ok {
		return n
	}
	return fmt.Sprintf("ERROR(%d)", uint16(e))
}

// EventKind identifies the kind of an event request and of a reported event.
type EventKind uint8

const (
	KindSingleStep        EventKind = 1
	KindBreakpoint        EventKind = 2
	KindFramePop          EventKind = 3
	KindException         EventKind = 4
	KindUserDefined       EventKind = 5
	KindThreadStart       EventKind = 6
	KindThreadDeath       EventKind = 7
	KindClassPrepare      EventKind = 8
	KindClassUnload       EventKind = 9
	KindClassLoad         EventKind = 10
	KindFieldAccess       EventKind = 20
	KindFieldModification EventKind = 21
	KindExceptionCatch    EventKind = 30
	KindMethodEntry       EventKind = 40
	KindMethodExit        EventKind = 41
	KindMethodExitReturn  EventKind = 42
	KindMonitorContended  EventKind = 43
	KindMonitorEntered    EventKind = 44
	KindMonitorWait       EventKind = 45
	KindMonitorWaited     EventKind = 46
	KindVMStart           EventKind = 90
	KindVMDeath           EventKind = 99
)

var eventKindNames = map[EventKind]string{
	KindSingleStep:        "SINGLE_STEP",
	KindBreakpoint:        "BREAKPOINT",
	KindFramePop:          "FRAME_POP",
	KindException:         "EXCEPTION",
	KindUserDefined:       "USER_DEFINED",
	KindThreadStart:       "THREAD_START",
	KindThreadDeath:       "THREAD_DEATH",
	KindClassPrepare:      "CLASS_PREPARE",
	KindClassUnload:       "CLASS_UNLOAD",
	KindClassLoad:         "CLASS_LOAD",
	KindFieldAccess:       "FIELD_ACCESS",
	KindFieldModification: "FIELD_MODIFICATION",
	KindExceptionCatch:    "EXCEPTION_CATCH",
	KindMethodEntry:       "METHOD_ENTRY",
	KindMethodExit:        "METHOD_EXIT",
	KindMethodExitReturn:  "METHOD_EXIT_WITH_RETURN_VALUE",
	KindMonitorContended:  "MONITOR_CONTENDED_ENTER",
	KindMonitorEntered:    "MONITOR_CONTENDED_ENTERED",
	KindMonitorWait:       "MONITOR_WAIT",
	KindMonitorWaited:     "MONITOR_WAITED",
	KindVMStart:           "VM_START",
	KindVMDeath:           "VM_DEATH",
}

func (k EventKind) String() string {
	if n, ok := eventKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("EVENT(%d)", uint8(k))
}

// SuspendPolicy says which threads the VM suspends when an event fires.
type SuspendPolicy uint8

const (
	SuspendNone        SuspendPolicy = 0
	SuspendEventThread SuspendPolicy = 1
	SuspendAll         SuspendPolicy = 2
)

func (p SuspendPolicy) String() string {
	switch p {
	case SuspendNone:
		return "NONE"
	case SuspendEventThread:
		return "EVENT_THREAD"
	case SuspendAll:
		return "ALL"
	}
	return fmt.Sprintf("SUSPEND(%d)", uint8(p))
}

// TypeTag is the kind of a reference type.
type TypeTag uint8

const (
	TypeClass     TypeTag = 1
	TypeInterface TypeTag = 2
	TypeArray     TypeTag = 3
)

func (t TypeTag) String() string {
	switch t {
	case TypeClass:
		return "class"
	case TypeInterface:
		return "interface"
	case TypeArray:
		return "array"
	}
	return fmt.Sprintf("typetag(%d)", uint8(t))
}

// Tag is the one byte type prefix of a tagged value.
type Tag uint8

const (
	TagArray       Tag = '['
	TagByte        Tag = 'B'
	TagChar        Tag = 'C'
	TagObject      Tag = 'L'
	TagFloat       Tag = 'F'
	TagDouble      Tag = 'D'
	TagInt         Tag = 'I'
	TagLong        Tag = 'J'
	TagShort       Tag = 'S'
	TagVoid        Tag = 'V'
	TagBoolean     Tag = 'Z'
	TagString      Tag = 's'
	TagThread      Tag = 't'
	TagThreadGroup Tag = 'g'
	TagClassLoader Tag = 'l'
	TagClassObject Tag = 'c'
)

// ThreadStatus is the execution state reported by ThreadReference.Status.
type ThreadStatus int32

const (
	ThreadZombie   ThreadStatus = 0
	ThreadRunning  ThreadStatus = 1
	ThreadSleeping ThreadStatus = 2
	ThreadMonitor  ThreadStatus = 3
	ThreadWait     ThreadStatus = 4
)

// SuspendStatus is the suspension flag set reported by ThreadReference.Status.
type SuspendStatus int32

const SuspendStatusSuspended SuspendStatus = 0x1

// ClassStatus is the bit set describing the preparation state of a type.
type ClassStatus int32

const (
	ClassStatusVerified    ClassStatus = 1
	ClassStatusPrepared    ClassStatus = 2
	ClassStatusInitialized ClassStatus = 4
	ClassStatusError       ClassStatus = 8
)

// StepSize is the granularity of a single step request.
type StepSize int32

const (
	StepMin  StepSize = 0
	StepLine StepSize = 1
)

// StepDepth says whether a step enters, skips or leaves calls.
type StepDepth int32

const (
	StepInto StepDepth = 0
	StepOver StepDepth = 1
	StepOut  StepDepth = 2
)

func (d StepDepth) String() string {
	switch d {
	case StepInto:
		return "INTO"
	case StepOver:
		return "OVER"
	case StepOut:
		return "OUT"
	}
	return fmt.Sprintf("DEPTH(%d)", int32(d))
}
