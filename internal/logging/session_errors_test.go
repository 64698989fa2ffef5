// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"strings"
	"testing"

	apperrors "jdwpgdb/cli/internal/errors"
)

func TestFormatSessionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "handshake",
			err:  apperrors.Wrap(apperrors.HandshakeFailed, "accept", errors.New("bad handshake")),
			want: "did not send a JDWP handshake",
		},
		{
			name: "backend exited",
			err:  apperrors.New(apperrors.BackendExited, "gdb exited"),
			want: "GDB exited while the session was active",
		},
		{
			name: "unknown kind",
			err:  errors.New("boom"),
			want: "was interrupted",
		},
		{
			name: "secrets are masked",
			err:  apperrors.Wrap(apperrors.TraceFailed, "open", errors.New("postgres://u:p@db/x")),
			want: "postgres://*:*@db/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSessionError(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("FormatSessionError() = %q, want substring %q", got, tt.want)
			}
		})
	}

	if FormatSessionError(nil) != "" {
		t.Errorf("nil error should format to empty string")
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"trace", "debug", "INFO", " warn ", "error", "disabled"} {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q) error: %v", name, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Errorf("ParseLevel(verbose) should fail")
	}
}

func TestPresentError(t *testing.T) {
	if got := PresentError("GDB could not be started", nil); got != "" {
		t.Fatalf("nil error rendered as %q", got)
	}
	got := PresentError("opening journal", errors.New("dial postgres://u:p@db/x"))
	if got != "opening journal: dial postgres://*:*@db/x" {
		t.Fatalf("got %q", got)
	}
}
