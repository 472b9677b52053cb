// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/srcload/srcload/internal/config"

	"github.com/charmbracelet/log"
)

// newLogger returns a slog logger rendered by charmbracelet/log.
func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Prefix: "srcload",
		Level:  charmLevel(level),
	})
	return slog.New(handler)
}

// installLogger makes the CLI logger the process default so library
// packages logging through slog share it.
func installLogger(w io.Writer, level config.LogLevel) {
	slog.SetDefault(newLogger(w, level))
}

func charmLevel(level config.LogLevel) log.Level {
	switch level {
	case config.LogLevelDebug:
		return log.DebugLevel
	case config.LogLevelInfo:
		return log.InfoLevel
	case config.LogLevelError:
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}
