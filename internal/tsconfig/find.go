// SPDX-License-Identifier: MPL-2.0

package tsconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvPath names the environment variable that overrides project file lookup.
const EnvPath = "SRCLOAD_TSCONFIG_PATH"

// Find returns the project file for startDir: the EnvPath override when
// set (relative to startDir), else the first tsconfig.json found walking
// from startDir up to the filesystem root.
func Find(startDir string) (string, error) {
	return FindWith(startDir, os.Getenv)
}

// FindWith is Find with an injectable environment lookup.
func FindWith(startDir string, getenv func(string) string) (string, error) {
	if override := strings.TrimSpace(getenv(EnvPath)); override != "" {
		if !filepath.IsAbs(override) {
			override = filepath.Join(startDir, override)
		}
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvPath, override, err)
		}
		return override, nil
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// LoadNearest finds and loads the project file for startDir. It returns a
// nil config and no error when there is none.
func LoadNearest(startDir string, getenv func(string) string) (*Config, error) {
	path, err := FindWith(startDir, getenv)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}
