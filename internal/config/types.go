// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/srcload/srcload/internal/cache"
	"github.com/srcload/srcload/pkg/types"
)

const (
	// LogLevelDebug logs every resolution fallback and cache event.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs progress messages.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable problems only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of messages the CLI prints.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sections.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Cache configures the transform cache.
		Cache CacheConfig `json:"cache" mapstructure:"cache"`
		// Resolve configures specifier resolution.
		Resolve ResolveConfig `json:"resolve" mapstructure:"resolve"`
		// IPC configures the dependency channel.
		IPC IPCConfig `json:"ipc" mapstructure:"ipc"`
		// Log configures diagnostics output.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// CacheConfig configures the transform cache.
	CacheConfig struct {
		// Disabled keeps transforms in memory only.
		Disabled bool `json:"disabled" mapstructure:"disabled"`
		// Dir is the cache root. Empty means the per-user runtime directory.
		Dir types.FilesystemPath `json:"dir,omitempty" mapstructure:"dir"`
		// MemoryEntries bounds the in-memory tier.
		MemoryEntries int `json:"memory_entries" mapstructure:"memory_entries"`
		// Retention is how many coarse time units disk entries are kept.
		Retention int `json:"retention" mapstructure:"retention"`
	}

	// ResolveConfig configures specifier resolution.
	ResolveConfig struct {
		// ImplicitExtensions probes TypeScript extensions for every importer.
		ImplicitExtensions bool `json:"implicit_extensions" mapstructure:"implicit_extensions"`
		// TsconfigPath overrides the tsconfig.json search.
		TsconfigPath types.FilesystemPath `json:"tsconfig_path,omitempty" mapstructure:"tsconfig_path"`
	}

	// IPCConfig configures the dependency channel.
	IPCConfig struct {
		// Socket overrides the default socket path.
		Socket types.FilesystemPath `json:"socket,omitempty" mapstructure:"socket"`
	}

	// LogConfig configures diagnostics output.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			MemoryEntries: cache.DefaultMemoryEntries,
			Retention:     cache.DefaultRetention,
		},
		Log: LogConfig{Level: LogLevelWarn},
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the known levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level maps the LogLevel to a slog level. Unknown values map to warn.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is()
// compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether every field of the Config is valid. Range
// constraints that the CUE schema enforces for files are checked again
// here because environment variables bypass the schema.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Cache.MemoryEntries < 1 {
		errs = append(errs, fmt.Errorf("cache.memory_entries must be positive (got %d)", c.Cache.MemoryEntries))
	}
	if c.Cache.Retention < 1 {
		errs = append(errs, fmt.Errorf("cache.retention must be positive (got %d)", c.Cache.Retention))
	}
	for _, p := range []types.FilesystemPath{c.Cache.Dir, c.Resolve.TsconfigPath, c.IPC.Socket} {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}
