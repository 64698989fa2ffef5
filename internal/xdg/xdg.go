// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg resolves XDG Base Directory paths for jdwpgdb: the config
// directory holding config.json and the state directory holding symbol maps
// and command history.
//
// Missing environment variables fall back to the traditional locations under
// the home directory. Directories are created private (0700).
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "jdwpgdb"

// ConfigDir returns the XDG config directory for jdwpgdb, creating it if
// missing. It falls back to ~/.config/jdwpgdb when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for jdwpgdb, creating it if
// missing. It falls back to ~/.local/state/jdwpgdb when XDG_STATE_HOME is
// unset.
func StateDir() (string, error) {
	return dir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func dir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	d := filepath.Join(base, appDir)
	if err := os.MkdirAll(d, 0o700); err != nil { // private dir
		return "", err
	}
	return d, nil
}
