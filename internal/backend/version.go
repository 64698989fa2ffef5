// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MinVersion is the oldest GDB that understands "-gdb-set mi-async".
const MinVersion = ">= 7.8"

var reVersion = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// ParseVersion extracts the version from the first line of "gdb --version".
// Distributions put their own version strings in parentheses before the real
// one, so the last match wins.
func ParseVersion(banner string) (*semver.Version, error) {
	first, _, _ := strings.Cut(banner, "\n")
	matches := reVersion.FindAllString(first, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no version in %q", first)
	}
	return semver.NewVersion(matches[len(matches)-1])
}

// CheckVersion returns an error when v is older than MinVersion.
func CheckVersion(v *semver.Version) error {
	c, err := semver.NewConstraint(MinVersion)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("gdb %s is too old, need %s", v, MinVersion)
	}
	return nil
}

// DetectVersion runs path --version and parses the result.
func DetectVersion(ctx context.Context, path string) (*semver.Version, error) {
	if path == "" {
		path = "gdb"
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w", path, err)
	}
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	if !sc.Scan() {
		return nil, fmt.Errorf("%s --version printed nothing", path)
	}
	return ParseVersion(sc.Text())
}
