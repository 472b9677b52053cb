// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newCacheCommand creates the `srcload cache` command tree.
func newCacheCommand(app *App) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the transform cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.openStore(true)
			if err != nil {
				return err
			}
			if store.Dir() == "" {
				fmt.Fprintln(app.stdout, "(memory only)")
				return nil
			}
			fmt.Fprintln(app.stdout, store.Dir())
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show cache location and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.openStore(true)
			if err != nil {
				return err
			}
			c := app.Loaded().Cache
			dir := store.Dir()
			if dir == "" {
				dir = "(memory only)"
			}
			stats := store.Stats()
			fmt.Fprintln(app.stdout, labelStyle.Render("directory")+PathStyle.Render(dir))
			fmt.Fprintln(app.stdout, labelStyle.Render("entries")+strconv.Itoa(stats.DiskEntries))
			fmt.Fprintln(app.stdout, labelStyle.Render("memory limit")+strconv.Itoa(c.MemoryEntries))
			fmt.Fprintln(app.stdout, labelStyle.Render("retention")+fmt.Sprintf("%d units", c.Retention))
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.openStore(true)
			if err != nil {
				return err
			}
			n := store.Stats().DiskEntries
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+fmt.Sprintf(" removed %d entries", n))
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.openStore(true)
			if err != nil {
				return err
			}
			before := store.Stats().DiskEntries
			if err := store.Prune(); err != nil {
				return err
			}
			removed := before - store.Stats().DiskEntries
			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+fmt.Sprintf(" pruned %d entries", removed))
			return nil
		},
	})

	return cacheCmd
}
