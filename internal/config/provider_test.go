// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/srcload/srcload/pkg/types"
)

func dirPath(s string) types.FilesystemPath { return types.FilesystemPath(s) }

func TestLoadOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    LoadOptions
		wantErr int
	}{
		{"all empty", LoadOptions{}, 0},
		{"all valid", LoadOptions{ConfigFilePath: "/tmp/config.cue", ConfigDirPath: "/tmp/config"}, 0},
		{"blank file path", LoadOptions{ConfigFilePath: "   "}, 1},
		{"blank dir path", LoadOptions{ConfigDirPath: "\t"}, 1},
		{"both blank", LoadOptions{ConfigFilePath: " ", ConfigDirPath: " "}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.Validate()
			if tt.wantErr == 0 {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidLoadOptions) {
				t.Fatalf("error should wrap ErrInvalidLoadOptions, got: %v", err)
			}
			var loadErr *InvalidLoadOptionsError
			if !errors.As(err, &loadErr) {
				t.Fatalf("error should be *InvalidLoadOptionsError, got: %T", err)
			}
			if len(loadErr.FieldErrors) != tt.wantErr {
				t.Errorf("expected %d field error(s), got %d", tt.wantErr, len(loadErr.FieldErrors))
			}
		})
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := Locate(LoadOptions{ConfigDirPath: dirPath(dir)})
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Locate() = %q for an empty dir", got)
	}

	want := writeConfig(t, dir, `log: level: "info"`)
	got, err = Locate(LoadOptions{ConfigDirPath: dirPath(dir)})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Locate() = %q, want %q", got, want)
	}

	got, err = Locate(LoadOptions{ConfigFilePath: "/explicit.cue", ConfigDirPath: dirPath(dir)})
	if err != nil {
		t.Fatal(err)
	}
	if got != "/explicit.cue" {
		t.Errorf("Locate() = %q, want the explicit path", got)
	}
}
