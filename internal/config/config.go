// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the trace database DSN goes to the
// OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/jdwp"
	"jdwpgdb/cli/internal/logging"
	"jdwpgdb/cli/internal/xdg"
)

// Defaults used when the file is missing or leaves a field empty.
const (
	DefaultListen    = "127.0.0.1:8700"
	DefaultGDB       = "gdb"
	DefaultTimeoutMS = 300000
	DefaultLogLevel  = "info"
	DefaultVMStart   = "all"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel   string      `json:"log_level"`
	Listen     string      `json:"listen"`
	TimeoutMS  int         `json:"timeout_ms"`
	IDSize     int         `json:"id_size"`
	VMStart    string      `json:"vm_start_policy"`
	Symbols    string      `json:"symbols,omitempty"`
	HealthAddr string      `json:"health_addr,omitempty"`
	GDB        GDBConfig   `json:"gdb"`
	Trace      TraceConfig `json:"trace"`
}

// GDBConfig says how each session starts its GDB.
type GDBConfig struct {
	Path    string `json:"path"`
	Program string `json:"program,omitempty"`
	Core    string `json:"core,omitempty"`
	Cwd     string `json:"cwd,omitempty"`
	Run     bool   `json:"run,omitempty"`
}

// TraceConfig enables the packet journal. The DSN is read from the keychain.
type TraceConfig struct {
	Enabled bool `json:"enabled"`
	Buffer  int  `json:"buffer,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel:  DefaultLogLevel,
		Listen:    DefaultListen,
		TimeoutMS: DefaultTimeoutMS,
		IDSize:    8,
		VMStart:   DefaultVMStart,
		GDB:       GDBConfig{Path: DefaultGDB},
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFile(p)
}

// LoadFile reads the configuration at p. Fields the file leaves empty keep
// their defaults.
func LoadFile(p string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, apperrors.Wrap(apperrors.ConfigInvalid, "parsing "+p, err)
	}
	c.fill()
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(p, c)
}

// SaveFile writes c to p with 0600 permissions.
func SaveFile(p string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, append(b, '\n'), 0o600)
}

func (c *Config) fill() {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = d.TimeoutMS
	}
	if c.IDSize == 0 {
		c.IDSize = d.IDSize
	}
	if c.VMStart == "" {
		c.VMStart = d.VMStart
	}
	if c.GDB.Path == "" {
		c.GDB.Path = d.GDB.Path
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.Wrap(apperrors.ConfigInvalid, "log_level", err)
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return apperrors.Wrap(apperrors.ConfigInvalid, "listen", err)
	}
	if c.HealthAddr != "" {
		if _, _, err := net.SplitHostPort(c.HealthAddr); err != nil {
			return apperrors.Wrap(apperrors.ConfigInvalid, "health_addr", err)
		}
	}
	if c.TimeoutMS <= 0 {
		return apperrors.New(apperrors.ConfigInvalid, fmt.Sprintf("timeout_ms must be positive, got %d", c.TimeoutMS))
	}
	if err := c.IDSizes().Validate(); err != nil {
		return apperrors.Wrap(apperrors.ConfigInvalid, "id_size", err)
	}
	if _, err := ParsePolicy(c.VMStart); err != nil {
		return apperrors.Wrap(apperrors.ConfigInvalid, "vm_start_policy", err)
	}
	if c.GDB.Program != "" && c.GDB.Core != "" && c.GDB.Run {
		return apperrors.New(apperrors.ConfigInvalid, "gdb.run cannot be combined with a core file")
	}
	if c.Trace.Buffer < 0 {
		return apperrors.New(apperrors.ConfigInvalid, "trace.buffer must not be negative")
	}
	return nil
}

// Timeout returns the MI round trip timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// IDSizes uses the configured width for every identifier kind.
func (c Config) IDSizes() jdwp.IDSizes {
	return jdwp.IDSizes{
		FieldIDSize:         c.IDSize,
		MethodIDSize:        c.IDSize,
		ObjectIDSize:        c.IDSize,
		ReferenceTypeIDSize: c.IDSize,
		FrameIDSize:         c.IDSize,
	}
}

// VMStartPolicy returns the parsed VM_START suspend policy.
func (c Config) VMStartPolicy() jdwp.SuspendPolicy {
	p, _ := ParsePolicy(c.VMStart)
	return p
}

var policies = map[string]jdwp.SuspendPolicy{
	"none":         jdwp.SuspendNone,
	"event_thread": jdwp.SuspendEventThread,
	"all":          jdwp.SuspendAll,
}

// ParsePolicy maps none, event_thread or all to a suspend policy.
func ParsePolicy(name string) (jdwp.SuspendPolicy, error) {
	p, ok := policies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return jdwp.SuspendAll, fmt.Errorf("unknown suspend policy %q", name)
	}
	return p, nil
}
