// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. The CLI picks its presentation from the kind while the
// session code keeps the underlying cause for logs.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// so errors.Is and errors.As from the standard library still see the wrapped cause.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// HandshakeFailed indicates the JDWP client did not complete the handshake.
	HandshakeFailed Kind = "handshake_failed"
	// MalformedPacket indicates a JDWP packet that could not be framed.
	MalformedPacket Kind = "malformed_packet"
	// BackendStartFailed indicates the GDB process could not be started or set up.
	BackendStartFailed Kind = "backend_start_failed"
	// BackendExited indicates the GDB process went away during a session.
	BackendExited Kind = "backend_exited"
	// ClientDisconnected indicates the debugger closed its connection.
	ClientDisconnected Kind = "client_disconnected"
	// TimedOut indicates a backend round trip exceeded the configured timeout.
	TimedOut Kind = "timed_out"
	// ConfigInvalid indicates an unreadable or inconsistent configuration.
	ConfigInvalid Kind = "config_invalid"
	// TraceFailed indicates the trace journal could not be opened or written.
	TraceFailed Kind = "trace_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the outermost *E in err's chain, or "".
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any *E in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
