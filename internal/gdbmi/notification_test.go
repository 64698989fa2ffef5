// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gdbmi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Notification
		wantOK bool
	}{
		{
			name: "breakpoint hit",
			line: `*stopped,reason="breakpoint-hit",disp="keep",bkptno="3",frame={addr="0x0000000000401136",func="Java_Main_run",file="Main.java",fullname="/src/Main.java",line="10"},thread-id="7",stopped-threads="all"`,
			want: BreakpointHit{Number: 3, Thread: 7, Frame: Frame{
				Addr: "0x0000000000401136", Func: "Java_Main_run", File: "Main.java", FullName: "/src/Main.java", Line: 10,
			}},
			wantOK: true,
		},
		{
			name:   "end stepping range",
			line:   `*stopped,reason="end-stepping-range",frame={func="main",line="6"},thread-id="1"`,
			want:   SteppingDone{Reason: ReasonEndSteppingRange, Thread: 1, Frame: Frame{Func: "main", Line: 6}},
			wantOK: true,
		},
		{
			name:   "function finished",
			line:   `*stopped,reason="function-finished",frame={func="caller",line="20"},thread-id="2"`,
			want:   SteppingDone{Reason: ReasonFunctionFinished, Thread: 2, Frame: Frame{Func: "caller", Line: 20}},
			wantOK: true,
		},
		{
			name:   "signal after interrupt",
			line:   `*stopped,reason="signal-received",signal-name="SIGINT",thread-id="1",frame={func="poll"}`,
			want:   Stopped{Reason: ReasonSignalReceived, Thread: 1, Frame: Frame{Func: "poll"}},
			wantOK: true,
		},
		{
			name:   "exited with octal code",
			line:   `*stopped,reason="exited",exit-code="011"`,
			want:   Exited{Code: 9},
			wantOK: true,
		},
		{
			name:   "exited normally",
			line:   `*stopped,reason="exited-normally"`,
			want:   Exited{},
			wantOK: true,
		},
		{
			name:   "running",
			line:   `*running,thread-id="all"`,
			want:   Running{Thread: "all"},
			wantOK: true,
		},
		{
			name:   "thread created",
			line:   `=thread-created,id="7",group-id="i1"`,
			want:   ThreadCreated{ID: 7, Group: "i1"},
			wantOK: true,
		},
		{
			name:   "thread exited",
			line:   `=thread-exited,id="7",group-id="i1"`,
			want:   ThreadExited{ID: 7, Group: "i1"},
			wantOK: true,
		},
		{
			name:   "library loaded is ignored",
			line:   `=library-loaded,id="/lib/libc.so.6"`,
			wantOK: false,
		},
		{
			name:   "console stream is ignored",
			line:   `~"hello\n"`,
			wantOK: false,
		},
		{
			name:   "result record is ignored",
			line:   `1^done`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseLine(tt.line)
			require.NoError(t, err)
			got, ok := Classify(rec)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
