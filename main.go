// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for jdwpgdb, a bridge that lets JDWP
// debuggers drive native programs through GDB's machine interface.
package main

import (
	"jdwpgdb/cli/cmd"
)

func main() {
	cmd.Execute()
}
