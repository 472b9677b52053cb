// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/srcload/srcload/pkg/modspec"
)

// ManifestFileName is the package manifest looked up for module formats.
const ManifestFileName = "package.json"

type (
	// Manifest holds the package.json fields the pipeline reads.
	Manifest struct {
		Name    string          `json:"name"`
		Type    string          `json:"type"`
		Main    string          `json:"main"`
		Exports json.RawMessage `json:"exports"`
	}

	// ManifestCache memoizes package.json reads by absolute path. Entries
	// are never invalidated; manifests are assumed not to change while the
	// process runs. It is safe for concurrent use.
	ManifestCache struct {
		entries sync.Map // string -> manifestEntry
		read    func(string) ([]byte, error)
	}

	// manifestEntry is a parsed manifest, an absent marker (nil manifest,
	// nil err), or a deferred parse error.
	manifestEntry struct {
		manifest *Manifest
		err      error
	}
)

// NewManifestCache creates an empty cache reading from the filesystem.
func NewManifestCache() *ManifestCache {
	return &ManifestCache{read: os.ReadFile}
}

// Format returns the module format the manifest declares for .js files.
func (m *Manifest) Format() modspec.Format {
	if m != nil && m.Type == "module" {
		return modspec.FormatModule
	}
	return modspec.FormatCommonJS
}

// Read returns the manifest at path. A missing file yields nil and no
// error; a malformed one yields a *ManifestError.
func (c *ManifestCache) Read(path string) (*Manifest, error) {
	if v, ok := c.entries.Load(path); ok {
		e := v.(manifestEntry)
		return e.manifest, e.err
	}
	e := c.load(path)
	actual, _ := c.entries.LoadOrStore(path, e)
	stored := actual.(manifestEntry)
	return stored.manifest, stored.err
}

func (c *ManifestCache) load(path string) manifestEntry {
	data, err := c.read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return manifestEntry{}
		}
		return manifestEntry{err: &ManifestError{Path: path, Err: err}}
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifestEntry{err: &ManifestError{Path: path, Err: err}}
	}
	return manifestEntry{manifest: &m}
}

// Nearest walks from dir towards the root and returns the first manifest
// found with its path. The walk stops at a node_modules directory, so a
// file inside an installed package never sees manifests outside it.
func (c *ManifestCache) Nearest(dir string) (*Manifest, string, error) {
	for {
		if filepath.Base(dir) == "node_modules" {
			return nil, "", nil
		}
		path := filepath.Join(dir, ManifestFileName)
		m, err := c.Read(path)
		if err != nil {
			return nil, path, err
		}
		if m != nil {
			return m, path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// FormatFor returns the format of the file at filePath as declared by the
// nearest manifest, or FormatCommonJS when there is none. A malformed
// manifest is logged and treated as absent.
func (c *ManifestCache) FormatFor(filePath string) modspec.Format {
	m, path, err := c.Nearest(filepath.Dir(filePath))
	if err != nil {
		slog.Warn("ignoring unreadable package manifest", "path", path, "error", err)
		return modspec.FormatCommonJS
	}
	return m.Format()
}
