// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"

	"github.com/srcload/srcload/internal/config"
	"github.com/srcload/srcload/internal/issue"
	"github.com/srcload/srcload/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	rootFlags struct {
		configPath string
		envFiles   []string
		logLevel   string
		verbose    bool
	}

	// displayError renders its cause with formatErrorForDisplay while
	// keeping the chain intact for errors.Is and errors.As.
	displayError struct {
		err     error
		verbose bool
	}
)

// NewRootCommand builds the srcload command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "srcload",
		Short: "Load TypeScript and JSX sources through a module loader pipeline",
		Long: TitleStyle.Render("srcload") + SubtitleStyle.Render(" - TypeScript and JSX loader pipeline") + `

srcload resolves module specifiers the way a registered loader hook does,
compiles TypeScript and JSX to JavaScript with inline source maps, and caches
the results on disk between runs.

` + SubtitleStyle.Render("Examples:") + `
  srcload resolve ./util --from src/index.ts    Resolve a specifier
  srcload transform src/app.tsx --out dist     Compile files ahead of time
  srcload cache info                           Show transform cache statistics
  srcload config show                          Show current configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd.Context(), flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is <user config dir>/srcload/config.cue)")
	pf.StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files to load before reading configuration (default .env)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(
		newResolveCommand(app),
		newTransformCommand(app),
		newCacheCommand(app),
		newConfigCommand(app),
		newDepsCommand(app),
		newVersionCommand(app),
	)
	return rootCmd
}

// Execute runs the CLI and exits the process with the command's exit code.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFailure))
	}
}

// setup loads dotenv files and configuration, then installs the logger.
func (a *App) setup(ctx context.Context, flags *rootFlags) error {
	if err := loadEnvFiles(flags.envFiles); err != nil {
		return &ExitError{Code: types.ExitUsage, Err: err}
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(flags.configPath),
		Getenv:         a.getenv,
	})
	if err != nil {
		return &ExitError{Code: types.ExitUsage, Err: &displayError{err: err, verbose: flags.verbose}}
	}

	if flags.logLevel != "" {
		level := config.LogLevel(flags.logLevel)
		if ok, errs := level.IsValid(); !ok {
			return &ExitError{Code: types.ExitUsage, Err: errors.Join(errs...)}
		}
		cfg.Log.Level = level
	}
	if flags.verbose {
		cfg.Log.Level = config.LogLevelDebug
	}
	a.loaded = cfg
	a.configPath = flags.configPath
	installLogger(a.stderr, cfg.Log.Level)
	return nil
}

// loadEnvFiles loads explicit dotenv files, or .env in the working
// directory when present. Variables already set are left alone.
func loadEnvFiles(files []string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("loading env files: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their context and suggestions; verbose mode adds the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

func (e *displayError) Error() string { return formatErrorForDisplay(e.err, e.verbose) }

func (e *displayError) Unwrap() error { return e.err }
