// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	apperrors "jdwpgdb/cli/internal/errors"

	"github.com/pterm/pterm"
)

// PresentError prefixes a masked err with what was being attempted, for a
// single status line.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatSessionError renders why a debugging session ended, keyed on the
// error kind.
func FormatSessionError(err error) string {
	if err == nil {
		return ""
	}
	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Session Ended"))
	builder.WriteString("\n\n")

	switch apperrors.KindOf(err) {
	case apperrors.HandshakeFailed:
		builder.WriteString("The client did not send a JDWP handshake.\n")
		builder.WriteString("Make sure the debugger is attaching with a socket transport, not a\n")
		builder.WriteString("plain TCP or HTTP client.\n")

	case apperrors.BackendStartFailed:
		builder.WriteString("GDB could not be started for this session.\n")
		builder.WriteString("Check that the gdb binary exists, supports the MI interpreter and can\n")
		builder.WriteString("load the program or core file given on the command line.\n")

	case apperrors.BackendExited:
		builder.WriteString("GDB exited while the session was active.\n")
		builder.WriteString("The client was sent a VM_DEATH event before disconnecting.\n")

	case apperrors.TimedOut:
		builder.WriteString("GDB did not answer within the configured timeout.\n")
		builder.WriteString("Raise --timeout if the program is large or the machine is slow.\n")

	case apperrors.MalformedPacket:
		builder.WriteString("The client sent a packet that could not be framed.\n")

	default:
		builder.WriteString("The debugging session was interrupted.\n")
	}

	builder.WriteString("\n")
	builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	return builder.String()
}
