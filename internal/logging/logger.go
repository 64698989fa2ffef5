// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

var levels = map[string]pterm.LogLevel{
	"trace":    pterm.LogLevelTrace,
	"debug":    pterm.LogLevelDebug,
	"info":     pterm.LogLevelInfo,
	"warn":     pterm.LogLevelWarn,
	"error":    pterm.LogLevelError,
	"disabled": pterm.LogLevelDisabled,
}

// ParseLevel maps a level name from the config file or the command line.
func ParseLevel(name string) (pterm.LogLevel, error) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return pterm.LogLevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return l, nil
}

// Options selects how the logger renders.
type Options struct {
	Level  string
	JSON   bool
	Writer io.Writer
}

// New returns a logger writing to stderr unless opts.Writer is set.
func New(opts Options) (*pterm.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	l := pterm.DefaultLogger.WithLevel(level).WithWriter(w).WithTime(true)
	if opts.JSON {
		l = l.WithFormatter(pterm.LogFormatterJSON)
	}
	return l, nil
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}
