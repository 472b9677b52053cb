// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"log/slog"
	"testing"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level LogLevel
		want  bool
		slog  slog.Level
	}{
		{LogLevelDebug, true, slog.LevelDebug},
		{LogLevelInfo, true, slog.LevelInfo},
		{LogLevelWarn, true, slog.LevelWarn},
		{LogLevelError, true, slog.LevelError},
		{"", false, slog.LevelWarn},
		{"DEBUG", false, slog.LevelWarn},
		{"trace", false, slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.level.IsValid()
			if isValid != tt.want {
				t.Errorf("LogLevel(%q).IsValid() = %v, want %v", tt.level, isValid, tt.want)
			}
			if !tt.want {
				if len(errs) == 0 || !errors.Is(errs[0], ErrInvalidLogLevel) {
					t.Errorf("expected ErrInvalidLogLevel, got %v", errs)
				}
			}
			if got := tt.level.Level(); got != tt.slog {
				t.Errorf("LogLevel(%q).Level() = %v, want %v", tt.level, got, tt.slog)
			}
		})
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := *DefaultConfig()
	cfg.Cache.MemoryEntries = 0
	cfg.Cache.Retention = -1
	cfg.IPC.Socket = " "
	cfg.Log.Level = "noisy"

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("expected the config to be invalid")
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("expected *InvalidConfigError, got %T", errs[0])
	}
	if len(cfgErr.FieldErrors) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	if !errors.Is(errs[0], ErrInvalidConfig) || !errors.Is(errs[0], ErrInvalidLogLevel) {
		t.Errorf("error chain should reach both sentinels: %v", errs[0])
	}
}
