// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/srcload/srcload/internal/host"
	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/pkg/modspec"
	"github.com/srcload/srcload/pkg/types"

	"github.com/spf13/cobra"
)

type resolveFlags struct {
	from      string
	flavor    string
	namespace string
	long      bool
}

// newResolveCommand creates the `srcload resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	flags := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve <specifier>",
		Short: "Resolve a specifier through the loader pipeline",
		Long: `Resolve a specifier the way a registered loader hook does.

Without --from the specifier is resolved as an entry point relative to the
working directory. The resolved location is printed on stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, app, flags, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.from, "from", "", "importing file")
	cmd.Flags().StringVar(&flags.flavor, "flavor", "esm", "host flavor: cjs or esm")
	cmd.Flags().StringVar(&flags.namespace, "namespace", "", "registration namespace")
	cmd.Flags().BoolVarP(&flags.long, "long", "l", false, "print the format and tracked dependencies as well")
	return cmd
}

func runResolve(cmd *cobra.Command, app *App, flags *resolveFlags, spec string) error {
	flavor, err := host.ParseFlavor(flags.flavor)
	if err != nil {
		return &ExitError{Code: types.ExitUsage, Err: err}
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	rctx := modspec.Context{IsEntryPoint: true, Namespace: flags.namespace}
	projectDir := wd
	if flags.from != "" {
		parent, err := filepath.Abs(flags.from)
		if err != nil {
			return err
		}
		rctx = modspec.Context{Parent: parent, Namespace: flags.namespace}
		projectDir = filepath.Dir(parent)
	}

	s, err := app.openSession(sessionOptions{
		flavor:     flavor,
		namespace:  flags.namespace,
		workDir:    projectDir,
		deferPrune: true,
	})
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.chain.Resolve(cmd.Context(), modspec.Specifier(spec), rctx)
	if err != nil {
		return resolveExitError(err)
	}

	out := app.stdout
	if !flags.long {
		fmt.Fprintln(out, res.URL())
		return nil
	}
	fmt.Fprintln(out, labelStyle.Render("location")+PathStyle.Render(res.URL()))
	fmt.Fprintln(out, labelStyle.Render("format")+formatName(res.Format))
	if tsc := s.handle.Tsconfig(); tsc != nil {
		fmt.Fprintln(out, labelStyle.Render("tsconfig")+tsc.Path)
	}
	for _, p := range s.handle.Tracker().Paths() {
		fmt.Fprintln(out, labelStyle.Render("dependency")+p)
	}
	return nil
}

func resolveExitError(err error) error {
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		return &ExitError{Code: types.ExitNotFound, Err: err}
	case errors.Is(err, resolve.ErrUnsupported):
		return &ExitError{Code: types.ExitUsage, Err: err}
	default:
		return &ExitError{Code: types.ExitFailure, Err: err}
	}
}

func formatName(f modspec.Format) string {
	if f == modspec.FormatUnknown {
		return "unknown"
	}
	return f.String()
}
