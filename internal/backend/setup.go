// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bufio"
	"context"
	"io"

	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/gdbmi"

	"github.com/pterm/pterm"
)

// SetupCommands returns the MI commands that prepare a fresh GDB for a session,
// in the order they must run.
func SetupCommands(opts Options) []string {
	cmds := []string{
		gdbmi.Cmd("-gdb-set", "mi-async", "on"),
		gdbmi.Cmd("-gdb-set", "pagination", "off"),
		gdbmi.Cmd("-gdb-set", "confirm", "off"),
	}
	if opts.Dir != "" {
		cmds = append(cmds, gdbmi.Cmd("-environment-cd", opts.Dir))
	}
	if opts.Program != "" {
		cmds = append(cmds, gdbmi.Cmd("-file-exec-and-symbols", opts.Program))
	}
	switch {
	case opts.Core != "":
		cmds = append(cmds, gdbmi.Cmd("-target-select", "core", opts.Core))
	case opts.Run && opts.Program != "":
		cmds = append(cmds, gdbmi.Cmd("-exec-run"))
	}
	return cmds
}

// Setup waits for the startup prompt, then runs each command in turn, waiting
// for its result record and the prompt that follows. Everything else GDB
// prints meanwhile is discarded. An ^error result aborts the sequence.
func Setup(ctx context.Context, w io.Writer, r *bufio.Reader, cmds []string, log *pterm.Logger) error {
	errc := make(chan error, 1)
	go func() { errc <- runSetup(w, r, cmds, log) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return apperrors.Wrap(apperrors.BackendStartFailed, "gdb setup did not finish", ctx.Err())
	}
}

func runSetup(w io.Writer, r *bufio.Reader, cmds []string, log *pterm.Logger) error {
	if _, err := readTurn(r, log); err != nil {
		return apperrors.Wrap(apperrors.BackendStartFailed, "waiting for gdb prompt", err)
	}
	for _, c := range cmds {
		log.Debug("gdb setup", log.Args("command", c))
		if _, err := io.WriteString(w, c+"\n"); err != nil {
			return apperrors.Wrap(apperrors.BackendStartFailed, "writing "+c, err)
		}
		rec, err := readTurn(r, log)
		if err != nil {
			return apperrors.Wrap(apperrors.BackendStartFailed, "reading result of "+c, err)
		}
		if err := gdbmi.AsError(c, rec); err != nil {
			return apperrors.Wrap(apperrors.BackendStartFailed, "gdb rejected setup", err)
		}
	}
	return nil
}

// readTurn consumes lines up to and including the next prompt and returns the
// last result record seen in that turn, if any.
func readTurn(r *bufio.Reader, log *pterm.Logger) (*gdbmi.Record, error) {
	var result *gdbmi.Record
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if gdbmi.IsPrompt(line) {
				return result, nil
			}
			rec, perr := gdbmi.ParseLine(line)
			switch {
			case perr != nil:
				log.Trace("gdb setup output", log.Args("line", line))
			case rec.Type == gdbmi.TypeResult:
				result = rec
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}
