// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"jdwpgdb/cli/internal/backend"
	"jdwpgdb/cli/internal/bridge"
	"jdwpgdb/cli/internal/config"
	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/health"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/keychain"
	"jdwpgdb/cli/internal/logging"
	"jdwpgdb/cli/internal/terminal"
	"jdwpgdb/cli/internal/trace"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// serveFlags holds the serve command line. Only flags the user set override
// the config file.
type serveFlags struct {
	listen     string
	gdb        string
	program    string
	core       string
	cwd        string
	run        bool
	symbols    string
	timeoutMS  int
	healthAddr string
	trace      bool
	verbose    bool
}

var serveOpts serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept JDWP debuggers and bridge them to GDB",
	Long: `The serve command listens for JDWP debugger connections. Every connection gets
its own GDB process started with the configured program or core file, and the
debugger's requests are carried out through GDB's machine interface.

Attach with, for example:
  jdb -connect com.sun.jdi.SocketAttach:hostname=127.0.0.1,port=8700`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		serveOpts.apply(&c, cmd.Flags().Changed)
		if err := c.Validate(); err != nil {
			return err
		}
		return runServe(cmd.Context(), c, serveOpts.verbose)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.listen, "listen", config.DefaultListen, "JDWP listen address (host:port)")
	f.StringVar(&serveOpts.gdb, "gdb", config.DefaultGDB, "Path to the gdb binary")
	f.StringVar(&serveOpts.program, "program", "", "Program to debug")
	f.StringVar(&serveOpts.core, "core", "", "Core file to open instead of running the program")
	f.StringVar(&serveOpts.cwd, "cwd", "", "Working directory of the debugged program")
	f.BoolVar(&serveOpts.run, "run", false, "Start the program as soon as GDB is ready")
	f.StringVar(&serveOpts.symbols, "symbols", "", "JSON symbol map describing classes, methods and threads")
	f.IntVar(&serveOpts.timeoutMS, "timeout", config.DefaultTimeoutMS, "GDB response timeout in milliseconds")
	f.StringVar(&serveOpts.healthAddr, "health-addr", "", "Serve gRPC health checks on this address")
	f.BoolVar(&serveOpts.trace, "trace", false, "Journal JDWP packets to the trace database")
	f.BoolVarP(&serveOpts.verbose, "verbose", "v", false, "Enable debug logging")
}

// apply copies every flag reported by changed onto c.
func (f serveFlags) apply(c *config.Config, changed func(string) bool) {
	if changed("listen") {
		c.Listen = f.listen
	}
	if changed("gdb") {
		c.GDB.Path = f.gdb
	}
	if changed("program") {
		c.GDB.Program = f.program
	}
	if changed("core") {
		c.GDB.Core = f.core
	}
	if changed("cwd") {
		c.GDB.Cwd = f.cwd
	}
	if changed("run") {
		c.GDB.Run = f.run
	}
	if changed("symbols") {
		c.Symbols = f.symbols
	}
	if changed("timeout") {
		c.TimeoutMS = f.timeoutMS
	}
	if changed("health-addr") {
		c.HealthAddr = f.healthAddr
	}
	if changed("trace") {
		c.Trace.Enabled = f.trace
	}
	if f.verbose {
		c.LogLevel = "debug"
	}
}

func runServe(parent context.Context, c config.Config, verbose bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logging.New(logging.Options{Level: c.LogLevel})
	if err != nil {
		return apperrors.Wrap(apperrors.ConfigInvalid, "log_level", err)
	}
	var current atomic.Pointer[pterm.Logger]
	current.Store(log)

	version, err := backend.DetectVersion(ctx, c.GDB.Path)
	if err != nil {
		return apperrors.Wrap(apperrors.BackendStartFailed, "checking gdb", err)
	}
	if err := backend.CheckVersion(version); err != nil {
		return apperrors.Wrap(apperrors.BackendStartFailed, "checking gdb", err)
	}

	provider, err := loadProvider(c.Symbols)
	if err != nil {
		return err
	}

	recorder := openRecorder(ctx, c, log)

	hs := health.New(log)
	gdbOpts := backend.Options{
		Path:         c.GDB.Path,
		Program:      c.GDB.Program,
		Core:         c.GDB.Core,
		Dir:          c.GDB.Cwd,
		Run:          c.GDB.Run,
		SetupTimeout: c.Timeout(),
	}
	srv := bridge.New(bridge.Options{
		Backend: func(ctx context.Context) (backend.Channel, error) {
			opts := gdbOpts
			opts.Logger = current.Load()
			return backend.New(ctx, opts)
		},
		IDSizes:       c.IDSizes(),
		Timeout:       c.Timeout(),
		Started:       c.GDB.Run || c.GDB.Core != "",
		VMStartPolicy: c.VMStartPolicy(),
		BaseDir:       baseDir(c),
		GDBVersion:    version.String(),
		Logger:        log,
		Recorder:      recorder,
		Observer:      hs,
	})

	lis, err := net.Listen("tcp", c.Listen)
	if err != nil {
		_ = recorder.Close(context.Background())
		return fmt.Errorf("listening on %s: %w", c.Listen, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if c.HealthAddr != "" {
		hl, err := net.Listen("tcp", c.HealthAddr)
		if err != nil {
			_ = lis.Close()
			_ = recorder.Close(context.Background())
			return fmt.Errorf("listening on %s: %w", c.HealthAddr, err)
		}
		g.Go(func() error { return hs.Serve(hl) })
	}

	if p, err := config.Path(); err == nil && !verbose {
		onChange := func(next config.Config) {
			l, err := logging.New(logging.Options{Level: next.LogLevel})
			if err != nil {
				return
			}
			current.Store(l)
			srv.SetLogger(l)
			l.Info("configuration reloaded", l.Args("log_level", next.LogLevel))
		}
		onError := func(err error) {
			current.Load().Warn("ignoring config change", current.Load().Args("error", err.Error()))
		}
		if err := config.Watch(gctx, p, onChange, onError); err != nil {
			log.Debug("config watch unavailable", log.Args("error", err.Error()))
		}
	}

	hs.SetAccepting(true)
	log.Info("waiting for debugger", log.Args("listen", lis.Addr().String(), "gdb", version.String()))

	g.Go(func() error {
		for {
			conn, err := lis.Accept()
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
			g.Go(func() error {
				reportSession(current.Load(), srv.StartSession(gctx, conn, provider))
				return nil
			})
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		hs.SetAccepting(false)
		hs.Stop()
		_ = lis.Close()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			current.Load().Warn("sessions still running at shutdown", current.Load().Args("error", err.Error()))
		}
		if err := recorder.Close(sctx); err != nil {
			current.Load().Warn("closing trace journal", current.Load().Args("error", logging.Mask(err.Error())))
		}
		return nil
	})

	err = g.Wait()
	log.Info("bridge stopped")
	return err
}

// loadProvider reads the symbol map, or returns a provider that only knows
// the main thread group.
func loadProvider(path string) (introspect.Provider, error) {
	if path == "" {
		return introspect.Empty(), nil
	}
	p, err := introspect.Load(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ConfigInvalid, "symbols", err)
	}
	return p, nil
}

// openRecorder connects the trace journal. Journal problems are logged and
// the bridge runs without it.
func openRecorder(ctx context.Context, c config.Config, log *pterm.Logger) trace.Recorder {
	if !c.Trace.Enabled {
		return trace.Nop{}
	}
	km, err := keychain.GetManager()
	if err != nil {
		log.Warn("trace disabled: keychain unavailable", log.Args("error", err.Error()))
		return trace.Nop{}
	}
	dsn, err := km.LoadTraceDSN()
	if err != nil {
		log.Warn("trace disabled: no database configured, run 'jdwpgdb trace connect'")
		return trace.Nop{}
	}
	p, err := trace.Open(ctx, dsn, trace.Options{Buffer: c.Trace.Buffer, Logger: log})
	if err != nil {
		log.Warn("trace disabled", log.Args("error", logging.Mask(err.Error())))
		return trace.Nop{}
	}
	log.Info("journaling packets to trace database")
	return p
}

func baseDir(c config.Config) string {
	if c.GDB.Cwd != "" {
		return c.GDB.Cwd
	}
	if c.GDB.Program != "" {
		if abs, err := filepath.Abs(c.GDB.Program); err == nil {
			return filepath.Dir(abs)
		}
	}
	wd, _ := os.Getwd()
	return wd
}

// reportSession logs how a session ended and, on a terminal, explains
// failures the user can act on.
func reportSession(log *pterm.Logger, err error) {
	switch {
	case err == nil, errors.Is(err, bridge.ErrShutdown):
		return
	case apperrors.IsKind(err, apperrors.ClientDisconnected):
		log.Info("debugger disconnected")
		return
	}
	log.Error(logging.PresentError("session failed", err))
	if terminal.IsInteractive() {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, logging.FormatSessionError(err))
		fmt.Fprintln(os.Stderr)
	}
}
