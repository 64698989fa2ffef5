// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jdwpgdb/cli/internal/backend"
	"jdwpgdb/cli/internal/config"
	"jdwpgdb/cli/internal/correlator"
	"jdwpgdb/cli/internal/gdbmi"
	"jdwpgdb/cli/internal/logging"
	"jdwpgdb/cli/internal/xdg"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	miProgram string
	miCore    string
	miVerbose bool
)

// miCmd is a raw MI console. It talks to GDB through the same backend setup
// and correlator as a debugging session, which makes it the quickest way to
// see what a session would see.
var miCmd = &cobra.Command{
	Use:   "mi",
	Short: "Interactive GDB/MI console",
	Long: `The mi command starts GDB the way a debugging session would and reads MI
commands from the terminal. Each command is sent with a fresh token and its result
record is printed; async and stream records are printed as they arrive. Lines that
do not start with '-' are run as GDB console commands.

Type 'quit' or press Ctrl-D to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("program") {
			c.GDB.Program = miProgram
		}
		if cmd.Flags().Changed("core") {
			c.GDB.Core = miCore
		}
		if miVerbose {
			c.LogLevel = "debug"
		}
		if err := c.Validate(); err != nil {
			return err
		}
		return runMI(cmd.Context(), c)
	},
}

func init() {
	rootCmd.AddCommand(miCmd)
	miCmd.Flags().StringVar(&miProgram, "program", "", "Program to load")
	miCmd.Flags().StringVar(&miCore, "core", "", "Core file to open")
	miCmd.Flags().BoolVarP(&miVerbose, "verbose", "v", false, "Log every MI line")
}

func runMI(ctx context.Context, c config.Config) error {
	log, err := logging.New(logging.Options{Level: c.LogLevel})
	if err != nil {
		return err
	}

	stopSpinner := startInlineSpinner(os.Stdout, "starting gdb", spinnerFrames, 100*time.Millisecond)
	ch, err := backend.New(ctx, backend.Options{
		Path:         c.GDB.Path,
		Program:      c.GDB.Program,
		Core:         c.GDB.Core,
		Dir:          c.GDB.Cwd,
		SetupTimeout: c.Timeout(),
		Logger:       log,
	})
	stopSpinner()
	if err != nil {
		pterm.Error.Println(logging.PresentError("GDB could not be started", err))
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = ch.Close(cctx)
	}()

	mi := correlator.New(ch.Stdin(), ch.Stdout(), correlator.Options{
		Timeout: c.Timeout(),
		Logger:  log,
	})

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "(mi) ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	done := make(chan struct{})
	defer close(done)
	go printAsync(rl.Stdout(), mi, done)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				_ = ch.Interrupt()
			}
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		command := miCommand(line)
		switch command {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		rec, err := mi.Exec(ctx, command)
		if err != nil {
			if errors.Is(err, correlator.ErrBackendExited) {
				pterm.Warning.Println("GDB exited")
				return nil
			}
			pterm.Error.Println(err.Error())
			continue
		}
		fmt.Fprintln(rl.Stdout(), renderRecord(rec))
	}
}

// miCommand normalizes a console line: MI commands pass through, anything
// else runs through the console interpreter.
func miCommand(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case line == "", line == "quit", line == "exit":
		return line
	case strings.HasPrefix(line, "-"):
		return line
	default:
		return gdbmi.Cmd("-interpreter-exec", "console", line)
	}
}

// printAsync writes out of band records until the correlator ends or done
// is closed.
func printAsync(w io.Writer, mi *correlator.Correlator, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-mi.Done():
			for _, rec := range mi.DrainAsync() {
				fmt.Fprintln(w, renderRecord(rec))
			}
			return
		case <-mi.AsyncReady():
			for _, rec := range mi.DrainAsync() {
				fmt.Fprintln(w, renderRecord(rec))
			}
		}
	}
}

// renderRecord shows stream records as their text and everything else in
// MI syntax.
func renderRecord(rec *gdbmi.Record) string {
	if rec.Type.IsStream() {
		return strings.TrimRight(rec.Stream, "\n")
	}
	if rec.Type == gdbmi.TypeResult && rec.Class == gdbmi.ClassError {
		return pterm.Red(rec.String())
	}
	return rec.String()
}

func historyFile() string {
	dir, err := xdg.StateDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mi_history")
}
