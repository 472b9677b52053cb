// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/srcload/srcload/internal/config"
	"github.com/srcload/srcload/internal/tsconfig"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every command handler receives an App.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		getenv func(string) string

		// loaded is the configuration resolved by the root command's
		// pre-run hook; configPath is the --config value it used.
		loaded     *config.Config
		configPath string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		Getenv func(string) string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		getenv: deps.Getenv,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.getenv == nil {
		app.getenv = os.Getenv
	}
	return app
}

// Loaded returns the configuration in effect, or the defaults before the
// root command has run.
func (a *App) Loaded() *config.Config {
	if a.loaded == nil {
		return config.DefaultConfig()
	}
	return a.loaded
}

// projectEnv is the environment seen by the tsconfig.json search. The
// configured path takes precedence; the config layer already folds
// SRCLOAD_TSCONFIG_PATH into it.
func (a *App) projectEnv(key string) string {
	if key == tsconfig.EnvPath {
		if p := a.Loaded().Resolve.TsconfigPath; p != "" {
			return string(p)
		}
	}
	return a.getenv(key)
}
