// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/logging"

	"github.com/pterm/pterm"
)

// Process is a running GDB started with the MI interpreter.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	log    *pterm.Logger

	done     chan struct{}
	err      error
	stdinMu  sync.Mutex
	closeOne sync.Once
}

// Start launches GDB. Setup commands are not run; use New for that.
func Start(ctx context.Context, opts Options) (*Process, error) {
	path := opts.Path
	if path == "" {
		path = "gdb"
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	cmd := exec.Command(path, "--interpreter=mi2", "--quiet", "--nx")
	cmd.SysProcAttr = backgroundSysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.BackendStartFailed, "stdin pipe", err)
	}
	// Plain os pipes so reads are not cut short when Wait closes its own copies.
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.BackendStartFailed, "stdout pipe", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, apperrors.Wrap(apperrors.BackendStartFailed, "stderr pipe", err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return nil, apperrors.Wrap(apperrors.BackendStartFailed, fmt.Sprintf("starting %s", path), err)
	}
	outW.Close()
	errW.Close()

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReaderSize(outR, 64*1024),
		log:    log,
		done:   make(chan struct{}),
	}
	log.Debug("gdb started", log.Args("path", path, "pid", cmd.Process.Pid))

	go p.drainStderr(errR)
	go func() {
		err := cmd.Wait()
		outR.Close()
		p.err = err
		log.Debug("gdb exited", log.Args("pid", cmd.Process.Pid, "error", fmt.Sprint(err)))
		close(p.done)
	}()
	return p, nil
}

func (p *Process) drainStderr(r io.ReadCloser) {
	defer r.Close()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.log.Warn("gdb stderr", p.log.Args("line", sc.Text()))
	}
}

// Stdin returns the command stream. Writes are serialized.
func (p *Process) Stdin() io.Writer { return lockedWriter{p} }

func (p *Process) Stdout() *bufio.Reader { return p.stdout }

func (p *Process) Done() <-chan struct{} { return p.done }

// Err returns the result of waiting for the process. It is only meaningful
// after Done is closed.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Pid returns the process id of GDB.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Interrupt sends SIGINT to GDB, which forwards it to the inferior.
func (p *Process) Interrupt() error { return interruptProcess(p.cmd.Process) }

// Close sends -gdb-exit and waits for the process until ctx is done, then
// kills the whole process group.
func (p *Process) Close(ctx context.Context) error {
	p.closeOne.Do(func() {
		p.stdinMu.Lock()
		_, _ = io.WriteString(p.stdin, "-gdb-exit\n")
		_ = p.stdin.Close()
		p.stdinMu.Unlock()
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
	}
	p.log.Warn("gdb did not exit, killing it", p.log.Args("pid", p.cmd.Process.Pid))
	if err := killProcessGroup(p.cmd.Process); err != nil {
		return err
	}
	<-p.done
	return nil
}

type lockedWriter struct{ p *Process }

func (w lockedWriter) Write(b []byte) (int, error) {
	w.p.stdinMu.Lock()
	defer w.p.stdinMu.Unlock()
	return w.p.stdin.Write(b)
}
