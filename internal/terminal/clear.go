// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides small terminal helpers for the CLI: wiping a
// prompt that echoed a secret, and telling whether stdout is interactive.
package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// IsInteractive reports whether stdout is a terminal. Spinners and cursor
// control are skipped otherwise.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width, or 80 when it cannot be determined.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// ClearPreviousLines erases a prompt and the input typed after it.
// textLength is the prompt length plus the input length.
func ClearPreviousLines(textLength int) {
	clearLines(os.Stdout, linesToClear(textLength, Width()))
}

// linesToClear counts the wrapped lines of the text plus the empty line the
// cursor sits on after Enter.
func linesToClear(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	n := (textLength + width - 1) / width
	if n < 1 {
		n = 1
	}
	return n + 1
}

func clearLines(w io.Writer, n int) {
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
