// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"io"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(BackendExited, "gdb went away", io.EOF)

	if !stderrors.Is(err, io.EOF) {
		t.Fatalf("expected wrapped io.EOF to be visible")
	}
	if got := err.Error(); got != "backend_exited: gdb went away: EOF" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsKind(t *testing.T) {
	inner := Wrap(TimedOut, "await", nil)
	outer := Wrap(BackendExited, "session", inner)

	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"outer kind", outer, BackendExited, true},
		{"inner kind", outer, TimedOut, true},
		{"absent kind", outer, ConfigInvalid, false},
		{"plain error", io.EOF, TimedOut, false},
		{"nil", nil, TimedOut, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.want {
				t.Errorf("IsKind() = %v, want %v", got, tt.want)
			}
		})
	}

	if KindOf(outer) != BackendExited {
		t.Errorf("KindOf() = %q", KindOf(outer))
	}
	if KindOf(io.EOF) != "" {
		t.Errorf("KindOf(plain) should be empty")
	}
}
