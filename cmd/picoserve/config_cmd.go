// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/z5labs/picoserve/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root, nil)
			if err != nil {
				return err
			}
			return config.Write(cmd.OutOrStdout(), cfg)
		},
	}
}

func loadConfig(root *rootFlags, cmd *cobra.Command) (config.Config, error) {
	if len(root.envFiles) > 0 {
		err := config.LoadEnvFile(root.envFiles...)
		if err != nil {
			return config.Config{}, err
		}
	}
	if cmd == nil {
		return config.Load(root.configPath, nil)
	}
	return config.Load(root.configPath, cmd.Flags())
}
