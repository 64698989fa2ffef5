// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import "fmt"

// CommandSet is the namespace of a command.
type CommandSet uint8

// Command is a command within a command set.
type Command uint8

// Cmd is the (command set, command) pair carried by every command packet.
type Cmd struct {
	Set CommandSet
	ID  Command
}

func (c Cmd) String() string {
	if n, ok := cmdNames[c]; ok {
		return fmt.Sprintf("%v.%s", c.Set, n)
	}
	return fmt.Sprintf("%v.%d", c.Set, c.ID)
}

const (
	CommandSetVirtualMachine       CommandSet = 1
	CommandSetReferenceType        CommandSet = 2
	CommandSetClassType            CommandSet = 3
	CommandSetArrayType            CommandSet = 4
	CommandSetInterfaceType        CommandSet = 5
	CommandSetMethod               CommandSet = 6
	CommandSetField                CommandSet = 8
	CommandSetObjectReference      CommandSet = 9
	CommandSetStringReference      CommandSet = 10
	CommandSetThreadReference      CommandSet = 11
	CommandSetThreadGroupReference CommandSet = 12
	CommandSetArrayReference       CommandSet = 13
	CommandSetClassLoaderReference CommandSet = 14
	CommandSetEventRequest         CommandSet = 15
	CommandSetStackFrame           CommandSet = 16
	CommandSetClassObjectReference CommandSet = 17
	CommandSetEvent                CommandSet = 64
)

var commandSetNames = map[CommandSet]string{
	CommandSetVirtualMachine:       "VirtualMachine",
	CommandSetReferenceType:        "ReferenceType",
	CommandSetClassType:            "ClassType",
	CommandSetArrayType:            "ArrayType",
	CommandSetInterfaceType:        "InterfaceType",
	CommandSetMethod:               "Method",
	CommandSetField:                "Field",
	CommandSetObjectReference:      "ObjectReference",
	CommandSetStringReference:      "StringReference",
	CommandSetThreadReference:      "ThreadReference",
	CommandSetThreadGroupReference: "ThreadGroupReference",
	CommandSetArrayReference:       "ArrayReference",
	CommandSetClassLoaderReference: "ClassLoaderReference",
	CommandSetEventRequest:         "EventRequest",
	CommandSetStackFrame:           "StackFrame",
	CommandSetClassObjectReference: "ClassObjectReference",
	CommandSetEvent:                "Event",
}

func (s CommandSet) String() string {
	if n, ok := commandSetNames[s]; ok {
		return n
	}
	return fmt.Sprint(int(s))
}

var (
	CmdVirtualMachineVersion               = Cmd{CommandSetVirtualMachine, 1}
	CmdVirtualMachineClassesBySignature    = Cmd{CommandSetVirtualMachine, 2}
	CmdVirtualMachineAllClasses            = Cmd{CommandSetVirtualMachine, 3}
	CmdVirtualMachineAllThreads            = Cmd{CommandSetVirtualMachine, 4}
	CmdVirtualMachineTopLevelThreadGroups  = Cmd{CommandSetVirtualMachine, 5}
	CmdVirtualMachineDispose               = Cmd{CommandSetVirtualMachine, 6}
	CmdVirtualMachineIDSizes               = Cmd{CommandSetVirtualMachine, 7}
	CmdVirtualMachineSuspend               = Cmd{CommandSetVirtualMachine, 8}
	CmdVirtualMachineResume                = Cmd{CommandSetVirtualMachine, 9}
	CmdVirtualMachineExit                  = Cmd{CommandSetVirtualMachine, 10}
	CmdVirtualMachineCreateString          = Cmd{CommandSetVirtualMachine, 11}
	CmdVirtualMachineCapabilities          = Cmd{CommandSetVirtualMachine, 12}
	CmdVirtualMachineClassPaths            = Cmd{CommandSetVirtualMachine, 13}
	CmdVirtualMachineDisposeObjects        = Cmd{CommandSetVirtualMachine, 14}
	CmdVirtualMachineHoldEvents            = Cmd{CommandSetVirtualMachine, 15}
	CmdVirtualMachineReleaseEvents         = Cmd{CommandSetVirtualMachine, 16}
	CmdVirtualMachineCapabilitiesNew       = Cmd{CommandSetVirtualMachine, 17}
	CmdVirtualMachineAllClassesWithGeneric = Cmd{CommandSetVirtualMachine, 20}

	CmdReferenceTypeSignature            = Cmd{CommandSetReferenceType, 1}
	CmdReferenceTypeModifiers            = Cmd{CommandSetReferenceType, 3}
	CmdReferenceTypeFields               = Cmd{CommandSetReferenceType, 4}
	CmdReferenceTypeMethods              = Cmd{CommandSetReferenceType, 5}
	CmdReferenceTypeSourceFile           = Cmd{CommandSetReferenceType, 7}
	CmdReferenceTypeStatus               = Cmd{CommandSetReferenceType, 9}
	CmdReferenceTypeInterfaces           = Cmd{CommandSetReferenceType, 10}
	CmdReferenceTypeSignatureWithGeneric = Cmd{CommandSetReferenceType, 13}
	CmdReferenceTypeFieldsWithGeneric    = Cmd{CommandSetReferenceType, 14}
	CmdReferenceTypeMethodsWithGeneric   = Cmd{CommandSetReferenceType, 15}

	CmdMethodLineTable = Cmd{CommandSetMethod, 1}

	CmdThreadReferenceName         = Cmd{CommandSetThreadReference, 1}
	CmdThreadReferenceSuspend      = Cmd{CommandSetThreadReference, 2}
	CmdThreadReferenceResume       = Cmd{CommandSetThreadReference, 3}
	CmdThreadReferenceStatus       = Cmd{CommandSetThreadReference, 4}
	CmdThreadReferenceThreadGroup  = Cmd{CommandSetThreadReference, 5}
	CmdThreadReferenceFrames       = Cmd{CommandSetThreadReference, 6}
	CmdThreadReferenceFrameCount   = Cmd{CommandSetThreadReference, 7}
	CmdThreadReferenceSuspendCount = Cmd{CommandSetThreadReference, 12}

	CmdThreadGroupReferenceName     = Cmd{CommandSetThreadGroupReference, 1}
	CmdThreadGroupReferenceParent   = Cmd{CommandSetThreadGroupReference, 2}
	CmdThreadGroupReferenceChildren = Cmd{CommandSetThreadGroupReference, 3}

	CmdEventRequestSet                 = Cmd{CommandSetEventRequest, 1}
	CmdEventRequestClear               = Cmd{CommandSetEventRequest, 2}
	CmdEventRequestClearAllBreakpoints = Cmd{CommandSetEventRequest, 3}

	CmdEventComposite = Cmd{CommandSetEvent, 100}
)

var cmdNames = map[Cmd]string{}

func init() {
	register := func(c Cmd, n string) {
		if _, e := cmdNames[c]; e {
			panic("command already registered: " + n)
		}
		cmdNames[c] = n
	}
	register(CmdVirtualMachineVersion, "Version")
	register(CmdVirtualMachineClassesBySignature, "ClassesBySignature")
	register(CmdVirtualMachineAllClasses, "AllClasses")
	register(CmdVirtualMachineAllThreads, "AllThreads")
	register(CmdVirtualMachineTopLevelThreadGroups, "TopLevelThreadGroups")
	register(CmdVirtualMachineDispose, "Dispose")
	register(CmdVirtualMachineIDSizes, "IDSizes")
	register(CmdVirtualMachineSuspend, "Suspend")
	register(CmdVirtualMachineResume, "Resume")
	register(CmdVirtualMachineExit, "Exit")
	register(CmdVirtualMachineCreateString, "CreateString")
	register(CmdVirtualMachineCapabilities, "Capabilities")
	register(CmdVirtualMachineClassPaths, "ClassPaths")
	register(CmdVirtualMachineDisposeObjects, "DisposeObjects")
	register(CmdVirtualMachineHoldEvents, "HoldEvents")
	register(CmdVirtualMachineReleaseEvents, "ReleaseEvents")
	register(CmdVirtualMachineCapabilitiesNew, "CapabilitiesNew")
	register(CmdVirtualMachineAllClassesWithGeneric, "AllClassesWithGeneric")

	register(CmdReferenceTypeSignature, "Signature")
	register(CmdReferenceTypeModifiers, "Modifiers")
	register(CmdReferenceTypeFields, "Fields")
	register(CmdReferenceTypeMethods, "Methods")
	register(CmdReferenceTypeSourceFile, "SourceFile")
	register(CmdReferenceTypeStatus, "Status")
	register(CmdReferenceTypeInterfaces, "Interfaces")
	register(CmdReferenceTypeSignatureWithGeneric, "SignatureWithGeneric")
	register(CmdReferenceTypeFieldsWithGeneric, "FieldsWithGeneric")
	register(CmdReferenceTypeMethodsWithGeneric, "MethodsWithGeneric")

	register(CmdMethodLineTable, "LineTable")

	register(CmdThreadReferenceName, "Name")
	register(CmdThreadReferenceSuspend, "Suspend")
	register(CmdThreadReferenceResume, "Resume")
	register(CmdThreadReferenceStatus, "Status")
	register(CmdThreadReferenceThreadGroup, "ThreadGroup")
	register(CmdThreadReferenceFrames, "Frames")
	register(CmdThreadReferenceFrameCount, "FrameCount")
	register(CmdThreadReferenceSuspendCount, "SuspendCount")

	register(CmdThreadGroupReferenceName, "Name")
	register(CmdThreadGroupReferenceParent, "Parent")
	register(CmdThreadGroupReferenceChildren, "Children")

	register(CmdEventRequestSet, "Set")
	register(CmdEventRequestClear, "Clear")
	register(CmdEventRequestClearAllBreakpoints, "ClearAllBreakpoints")

	register(CmdEventComposite, "Composite")
}
