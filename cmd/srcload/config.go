// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/srcload/srcload/internal/config"
	"github.com/srcload/srcload/pkg/types"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `srcload config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect srcload configuration",
		Long: `Inspect srcload configuration.

Configuration is read from:
  - Linux: ~/.config/srcload/config.cue
  - macOS: ~/Library/Application Support/srcload/config.cue
  - Windows: %APPDATA%\srcload\config.cue

SRCLOAD_* environment variables override file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(app.stdout, config.GenerateCUE(app.Loaded()))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Locate(config.LoadOptions{
				ConfigFilePath: types.FilesystemPath(app.configPath),
			})
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(app.stdout, "(defaults)")
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}
