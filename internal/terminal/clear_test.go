// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinesToClear(t *testing.T) {
	tests := []struct {
		name   string
		length int
		width  int
		want   int
	}{
		{"empty", 0, 80, 2},
		{"one line", 40, 80, 2},
		{"exact width", 80, 80, 2},
		{"wraps once", 81, 80, 3},
		{"unknown width", 100, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linesToClear(tt.length, tt.width))
		})
	}
}

func TestClearLines(t *testing.T) {
	var buf bytes.Buffer
	clearLines(&buf, 3)
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\x1b[2K"))
	assert.Equal(t, 2, strings.Count(out, "\x1b[1A"))
	assert.True(t, strings.HasSuffix(out, "\r\x1b[2K"))
}
