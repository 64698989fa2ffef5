// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"jdwpgdb/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Path()
		if err != nil {
			return err
		}
		c, err := config.LoadFile(p)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			pterm.Info.Printfln("%s does not exist, showing defaults", p)
		} else {
			pterm.Info.Printfln("Loaded from %s", p)
		}
		fmt.Println(string(b))
		if err := c.Validate(); err != nil {
			pterm.Warning.Println(err.Error())
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Path()
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); err == nil && !forceInit {
			return fmt.Errorf("%s already exists, use --force to overwrite", p)
		}
		if err := config.SaveFile(p, config.Default()); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %s", p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
}
