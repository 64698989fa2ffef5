// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !unix

package backend

import (
	"errors"
	"os"
	"syscall"
)

func backgroundSysProcAttr() *syscall.SysProcAttr { return nil }

func interruptProcess(p *os.Process) error {
	return errors.New("interrupting gdb is not supported on this platform; use -exec-interrupt")
}

func killProcessGroup(p *os.Process) error {
	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
