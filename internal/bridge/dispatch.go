// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"errors"
	"strings"

	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/jdwp"
)

// Handler answers one JDWP command. It reads its arguments from r, writes the
// reply body to rep and reports failures through rep.Fail rather than by
// returning an error.
type Handler func(ctx context.Context, s *Session, rep *Reply, r *jdwp.Reader)

// Reply is the body and error code of a reply packet under construction.
type Reply struct {
	*jdwp.Writer
	Code jdwp.ErrorCode
}

func newReply(sizes jdwp.IDSizes) *Reply {
	return &Reply{Writer: jdwp.NewWriter(sizes)}
}

// Fail discards anything written so far and sets the error code.
func (r *Reply) Fail(code jdwp.ErrorCode) {
	r.Reset()
	r.Code = code
}

// Failed reports whether an error code is set.
func (r *Reply) Failed() bool { return r.Code != jdwp.ErrNone }

// args checks that the command arguments decoded cleanly.
func (r *Reply) args(rd *jdwp.Reader) bool {
	if rd.Err() != nil {
		r.Fail(jdwp.ErrInternal)
		return false
	}
	return true
}

// handlers is the dispatch table. Commands missing here are answered with
// NOT_IMPLEMENTED.
var handlers = map[jdwp.Cmd]Handler{
	jdwp.CmdVirtualMachineVersion:               vmVersion,
	jdwp.CmdVirtualMachineClassesBySignature:    vmClassesBySignature,
	jdwp.CmdVirtualMachineAllClasses:            vmAllClasses,
	jdwp.CmdVirtualMachineAllThreads:            vmAllThreads,
	jdwp.CmdVirtualMachineTopLevelThreadGroups:  vmTopLevelThreadGroups,
	jdwp.CmdVirtualMachineDispose:               vmDispose,
	jdwp.CmdVirtualMachineIDSizes:               vmIDSizes,
	jdwp.CmdVirtualMachineSuspend:               vmSuspend,
	jdwp.CmdVirtualMachineResume:                vmResume,
	jdwp.CmdVirtualMachineExit:                  vmExit,
	jdwp.CmdVirtualMachineCapabilities:          vmCapabilities,
	jdwp.CmdVirtualMachineClassPaths:            vmClassPaths,
	jdwp.CmdVirtualMachineDisposeObjects:        vmDisposeObjects,
	jdwp.CmdVirtualMachineHoldEvents:            vmHoldEvents,
	jdwp.CmdVirtualMachineReleaseEvents:         vmReleaseEvents,
	jdwp.CmdVirtualMachineCapabilitiesNew:       vmCapabilitiesNew,
	jdwp.CmdVirtualMachineAllClassesWithGeneric: vmAllClassesWithGeneric,

	jdwp.CmdReferenceTypeSignature:            rtSignature,
	jdwp.CmdReferenceTypeModifiers:            rtModifiers,
	jdwp.CmdReferenceTypeFields:               rtFields,
	jdwp.CmdReferenceTypeMethods:              rtMethods,
	jdwp.CmdReferenceTypeSourceFile:           rtSourceFile,
	jdwp.CmdReferenceTypeStatus:               rtStatus,
	jdwp.CmdReferenceTypeInterfaces:           rtInterfaces,
	jdwp.CmdReferenceTypeSignatureWithGeneric: rtSignatureWithGeneric,
	jdwp.CmdReferenceTypeFieldsWithGeneric:    rtFieldsWithGeneric,
	jdwp.CmdReferenceTypeMethodsWithGeneric:   rtMethodsWithGeneric,

	jdwp.CmdMethodLineTable: methodLineTable,

	jdwp.CmdThreadReferenceName:         threadName,
	jdwp.CmdThreadReferenceSuspend:      threadSuspend,
	jdwp.CmdThreadReferenceResume:       threadResume,
	jdwp.CmdThreadReferenceStatus:       threadStatus,
	jdwp.CmdThreadReferenceThreadGroup:  threadThreadGroup,
	jdwp.CmdThreadReferenceFrames:       threadFrames,
	jdwp.CmdThreadReferenceFrameCount:   threadFrameCount,
	jdwp.CmdThreadReferenceSuspendCount: threadSuspendCount,

	jdwp.CmdThreadGroupReferenceName:     groupName,
	jdwp.CmdThreadGroupReferenceParent:   groupParent,
	jdwp.CmdThreadGroupReferenceChildren: groupChildren,

	jdwp.CmdEventRequestSet:                 eventRequestSet,
	jdwp.CmdEventRequestClear:               eventRequestClear,
	jdwp.CmdEventRequestClearAllBreakpoints: eventRequestClearAllBreakpoints,
}

// Supported reports whether cmd has a handler.
func Supported(cmd jdwp.Cmd) bool {
	_, ok := handlers[cmd]
	return ok
}

// errorCode maps a backend failure to the closest JDWP error.
func errorCode(err error) jdwp.ErrorCode {
	var mie *gdbmi.Error
	if errors.As(err, &mie) {
		switch {
		case strings.Contains(mie.Msg, "No line"), strings.Contains(mie.Msg, "No source file"):
			return jdwp.ErrInvalidLocation
		case strings.Contains(mie.Msg, "Invalid thread id"):
			return jdwp.ErrInvalidThread
		case strings.Contains(mie.Msg, "Not enough frames"):
			return jdwp.ErrInvalidIndex
		}
	}
	return jdwp.ErrInternal
}
