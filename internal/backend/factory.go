// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"time"

	"github.com/pterm/pterm"
)

// Options configures one GDB process.
type Options struct {
	// Path is the gdb binary.
	Path string
	// Program is loaded with -file-exec-and-symbols when set.
	Program string
	// Core is opened with -target-select core when set.
	Core string
	// Dir is the working directory passed to -environment-cd.
	Dir string
	// Run starts the inferior once setup is complete.
	Run bool
	// SetupTimeout bounds the whole setup sequence.
	SetupTimeout time.Duration
	Logger       *pterm.Logger
}

// New starts GDB and runs the setup commands. The returned channel is ready
// for the correlator.
func New(ctx context.Context, opts Options) (Channel, error) {
	p, err := Start(ctx, opts)
	if err != nil {
		return nil, err
	}
	timeout := opts.SetupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := Setup(sctx, p.Stdin(), p.Stdout(), SetupCommands(opts), p.log); err != nil {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelClose()
		_ = p.Close(closeCtx)
		return nil, err
	}
	return p, nil
}
