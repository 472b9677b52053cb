// SPDX-License-Identifier: MPL-2.0

package tsconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveExtends locates the file named by an extends entry declared in
// dir. Relative and absolute entries are files (".json" is implied);
// anything else is looked up in node_modules directories from dir upward.
func resolveExtends(ext, dir string) (string, error) {
	if ext == "" {
		return "", fmt.Errorf("empty extends entry")
	}
	if strings.HasPrefix(ext, ".") || filepath.IsAbs(ext) {
		path := ext
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, ext)
		}
		if found, ok := firstFile(path, path+".json"); ok {
			return found, nil
		}
		return "", fmt.Errorf("extends %q: %w", ext, os.ErrNotExist)
	}

	for cur := dir; ; {
		base := filepath.Join(cur, "node_modules", filepath.FromSlash(ext))
		if found, ok := firstFile(base, base+".json", filepath.Join(base, FileName)); ok {
			return found, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", fmt.Errorf("extends %q: package not found: %w", ext, os.ErrNotExist)
}

func firstFile(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
