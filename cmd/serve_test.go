// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"jdwpgdb/cli/internal/config"
	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/introspect"
	"jdwpgdb/cli/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeFlagsOverrideOnlyChanged(t *testing.T) {
	f := serveFlags{
		listen:     "0.0.0.0:5005",
		gdb:        "/opt/gdb",
		program:    "./app",
		timeoutMS:  1000,
		healthAddr: "127.0.0.1:8701",
		trace:      true,
	}
	changed := map[string]bool{"listen": true, "program": true, "trace": true}

	c := config.Default()
	c.GDB.Path = "gdb-multiarch"
	f.apply(&c, func(name string) bool { return changed[name] })

	assert.Equal(t, "0.0.0.0:5005", c.Listen)
	assert.Equal(t, "./app", c.GDB.Program)
	assert.True(t, c.Trace.Enabled)
	assert.Equal(t, "gdb-multiarch", c.GDB.Path)
	assert.Equal(t, config.DefaultTimeoutMS, c.TimeoutMS)
	assert.Empty(t, c.HealthAddr)
	assert.Equal(t, config.DefaultLogLevel, c.LogLevel)
}

func TestServeVerboseRaisesLogLevel(t *testing.T) {
	c := config.Default()
	serveFlags{verbose: true}.apply(&c, func(string) bool { return false })
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoadProvider(t *testing.T) {
	p, err := loadProvider("")
	require.NoError(t, err)
	assert.Equal(t, []introspect.ThreadGroup{introspect.MainGroup}, p.ThreadGroups())

	p, err = loadProvider(filepath.Join("..", "internal", "introspect", "testdata", "symbols.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.Classes())

	_, err = loadProvider(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.ConfigInvalid))
}

func TestBaseDir(t *testing.T) {
	c := config.Default()
	c.GDB.Cwd = "/srv/app"
	assert.Equal(t, "/srv/app", baseDir(c))

	c.GDB.Cwd = ""
	c.GDB.Program = "/opt/bin/app"
	assert.Equal(t, "/opt/bin", baseDir(c))
}

func TestReportSessionIgnoresOrdinaryEnds(t *testing.T) {
	log := logging.Discard()
	assert.NotPanics(t, func() {
		reportSession(log, nil)
		reportSession(log, apperrors.New(apperrors.ClientDisconnected, "eof"))
		reportSession(log, apperrors.Wrap(apperrors.BackendExited, "gdb", errors.New("exit 1")))
	})
}
