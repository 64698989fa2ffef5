// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build unix

package backend

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// GDB gets its own process group so terminal signals aimed at the CLI do not
// reach it and the inferior, and so it can be killed as a group.
func backgroundSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func interruptProcess(p *os.Process) error {
	return unix.Kill(p.Pid, unix.SIGINT)
}

func killProcessGroup(p *os.Process) error {
	err := unix.Kill(-p.Pid, unix.SIGKILL)
	if err == unix.ESRCH {
		return nil
	}
	return err
}
