// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/srcload/srcload/internal/host"
	"github.com/srcload/srcload/internal/issue"
	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/internal/transform"
	"github.com/srcload/srcload/pkg/modspec"
	"github.com/srcload/srcload/pkg/types"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type (
	transformFlags struct {
		format    string
		inlineMap bool
		outDir    string
	}

	// compiled is one finished file of a transform run.
	compiled struct {
		source string
		rel    string
		code   string
		res    *transform.Result
	}
)

// newTransformCommand creates the `srcload transform` command.
func newTransformCommand(app *App) *cobra.Command {
	flags := &transformFlags{}
	cmd := &cobra.Command{
		Use:   "transform <file>...",
		Short: "Compile TypeScript and JSX files to JavaScript",
		Long: `Compile files ahead of time with the same transformer, cache, and project
settings a registered loader uses.

The output format follows the file extension and the nearest package.json
unless --format is given. Without --out the code is written to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd.Context(), app, flags, args)
		},
	}
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: commonjs or module")
	cmd.Flags().BoolVar(&flags.inlineMap, "inline-map", false, "append the source map as a data URL")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "", "write compiled files to this directory")
	return cmd
}

func runTransform(ctx context.Context, app *App, flags *transformFlags, files []string) error {
	var forced modspec.Format
	if flags.format != "" {
		f, err := modspec.ParseFormat(flags.format)
		if err != nil {
			return &ExitError{Code: types.ExitUsage, Err: err}
		}
		if f != modspec.FormatCommonJS && f != modspec.FormatModule {
			return &ExitError{Code: types.ExitUsage, Err: fmt.Errorf("cannot compile to %s", f)}
		}
		forced = f
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	s, err := app.openSession(sessionOptions{flavor: host.Module, workDir: wd})
	if err != nil {
		return err
	}
	defer s.close()

	manifests := resolve.NewManifestCache()
	results := make([]compiled, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			path, err := filepath.Abs(file)
			if err != nil {
				return err
			}
			if !modspec.IsTransformable(path) {
				return &ExitError{Code: types.ExitUsage, Err: fmt.Errorf("%s: not a script or TypeScript source", file)}
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("read source").
					WithResource(file).
					Wrap(err).
					BuildError()
			}

			format := forced
			if format == modspec.FormatUnknown {
				format = modspec.FormatForExtension(path)
			}
			if format == modspec.FormatUnknown {
				format = manifests.FormatFor(path)
			}
			res, err := s.handle.Transformer().Transform(gctx, string(src), s.handle.Options(path, format))
			if err != nil {
				return transformExitError(file, err)
			}
			for _, w := range res.Warnings {
				slog.Warn("transform warning", "file", file, "warning", w)
			}

			code := res.Code
			if flags.inlineMap {
				if code, err = res.CodeWithInlineMap(); err != nil {
					return err
				}
			}
			results[i] = compiled{source: path, rel: relativeTo(wd, path), code: code, res: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if flags.outDir == "" {
		return printCompiled(app, results)
	}
	return writeCompiled(app, flags, results)
}

func printCompiled(app *App, results []compiled) error {
	for _, c := range results {
		if len(results) > 1 {
			fmt.Fprintf(app.stdout, "// %s\n", filepath.ToSlash(c.rel))
		}
		fmt.Fprint(app.stdout, c.code)
	}
	return nil
}

func writeCompiled(app *App, flags *transformFlags, results []compiled) error {
	for _, c := range results {
		dest := filepath.Join(flags.outDir, outputName(c.rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		code := c.code
		if !flags.inlineMap && c.res.Map != nil {
			data, err := c.res.Map.Marshal()
			if err != nil {
				return err
			}
			if err := os.WriteFile(dest+".map", data, 0o644); err != nil {
				return err
			}
			if !strings.HasSuffix(code, "\n") {
				code += "\n"
			}
			code += "//# sourceMappingURL=" + filepath.Base(dest) + ".map\n"
		}
		if err := os.WriteFile(dest, []byte(code), 0o644); err != nil {
			return err
		}
		slog.Info("compiled", "source", c.rel, "output", dest, "cached", c.res.Cached)
		fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" "+dest)
	}
	return nil
}

func transformExitError(file string, err error) error {
	if errors.Is(err, transform.ErrTransform) {
		return &ExitError{Code: types.ExitTransform, Err: fmt.Errorf("%s: %w", file, err)}
	}
	return err
}

// relativeTo returns path relative to dir, or its base name when it lies
// outside dir.
func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return rel
}

// outputName swaps a source extension for the JavaScript extension of the
// same module kind.
func outputName(rel string) string {
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	switch ext {
	case ".mts", ".mjs":
		return stem + ".mjs"
	case ".cts", ".cjs":
		return stem + ".cjs"
	default:
		return stem + ".js"
	}
}
