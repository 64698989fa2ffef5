// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for jdwpgdb. It implements
// the serve command that bridges JDWP clients to GDB, an interactive MI
// console, and helpers for the config file and the trace journal, using the
// Cobra CLI framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"jdwpgdb/cli/internal/backend"
	"jdwpgdb/cli/internal/config"

	"github.com/spf13/cobra"
)

// Version is the jdwpgdb release, set at build time with
// -ldflags "-X jdwpgdb/cli/cmd.Version=...".
var Version = "0.0.0-dev"

var showVersion bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "jdwpgdb",
	Short: "Debug native programs from a JDWP debugger through GDB",
	Long: `jdwpgdb listens for a JDWP debugger (jdb, IntelliJ, Eclipse) and answers it by
driving GDB over its machine interface. Breakpoints, stepping and thread control
requested by the debugger are carried out by GDB against the native program.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersions(cmd.Context())
			return nil
		}
		return cmd.Help()
	},
}

// printVersions reports the CLI version and the GDB the config points at.
func printVersions(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	path := config.DefaultGDB
	if c, err := config.Load(); err == nil && c.GDB.Path != "" {
		path = c.GDB.Path
	}

	fmt.Printf("jdwpgdb %s\n", Version)

	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	v, err := backend.DetectVersion(vctx, path)
	if err != nil {
		fmt.Printf("gdb     unknown (%s)\n", path)
		return
	}
	fmt.Printf("gdb     %s\n", v)
	if err := backend.CheckVersion(v); err != nil {
		fmt.Println()
		fmt.Printf("⚠️  %s\n", err)
	}
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and GDB version information")
}
