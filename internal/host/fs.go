// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/pkg/modspec"
)

const (
	// CommonJS resolves like require().
	CommonJS Flavor = iota
	// Module resolves like an ESM import.
	Module
)

// NativeExtensions are the extensions a CommonJS host probes on its own.
var NativeExtensions = []string{".js", ".json", ".node"}

type (
	// Flavor selects the module subsystem a FS host imitates.
	Flavor int

	// FS is a host adapter resolving against the local filesystem.
	FS struct {
		flavor     Flavor
		extensions []string
		conditions []string
		manifests  *resolve.ManifestCache
		workDir    string
	}

	// Option configures an FS host.
	Option func(*FS)
)

// WithExtensions replaces the CommonJS native extension list.
func WithExtensions(exts ...string) Option {
	return func(h *FS) {
		h.extensions = append([]string(nil), exts...)
	}
}

// WithWorkDir sets the directory relative entry points resolve against.
func WithWorkDir(dir string) Option {
	return func(h *FS) {
		h.workDir = dir
	}
}

// WithManifests shares a manifest cache with the host.
func WithManifests(c *resolve.ManifestCache) Option {
	return func(h *FS) {
		h.manifests = c
	}
}

// New creates a filesystem host of the given flavor.
func New(flavor Flavor, opts ...Option) *FS {
	h := &FS{flavor: flavor, extensions: NativeExtensions}
	if flavor == Module {
		h.conditions = []string{"import", "node", "default"}
	} else {
		h.conditions = []string{"require", "node", "default"}
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.manifests == nil {
		h.manifests = resolve.NewManifestCache()
	}
	if h.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			h.workDir = wd
		}
	}
	return h
}

// String returns "cjs" or "esm".
func (f Flavor) String() string {
	if f == Module {
		return "esm"
	}
	return "cjs"
}

// ParseFlavor parses "cjs" or "esm".
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(s) {
	case "cjs", "commonjs", "require":
		return CommonJS, nil
	case "esm", "module", "import":
		return Module, nil
	default:
		return CommonJS, fmt.Errorf("unknown host flavor %q (valid: cjs, esm)", s)
	}
}

// Capabilities implements resolve.Host.
func (h *FS) Capabilities() resolve.Capabilities {
	if h.flavor == Module {
		return resolve.Capabilities{AcceptsQuery: true, DistinguishesDirectories: true}
	}
	return resolve.Capabilities{Sync: true, CommonJS: true}
}

// Flavor returns the host flavor.
func (h *FS) Flavor() Flavor { return h.flavor }

// Resolve implements resolve.Host.
func (h *FS) Resolve(_ context.Context, spec modspec.Specifier, rctx modspec.Context) (modspec.Resolved, error) {
	if spec.IsData() {
		return modspec.Resolved{Path: string(spec), Format: modspec.FormatModule}, nil
	}
	path, query := spec.Split()
	if name, ok := builtinName(path); ok && spec.Kind() != modspec.KindRelative && spec.Kind() != modspec.KindAbsolute {
		return modspec.Resolved{Path: name, Format: modspec.FormatBuiltin}, nil
	}
	if spec.Kind() == modspec.KindURL {
		return modspec.Resolved{}, &resolve.UnsupportedError{Specifier: string(spec), Reason: "unsupported URL scheme"}
	}

	parentDir := h.workDir
	if p := modspec.ToPath(rctx.Parent); p != "" {
		parentDir = filepath.Dir(p)
	}

	var (
		target string
		err    error
	)
	switch spec.Kind() {
	case modspec.KindRelative:
		target, err = h.resolveTarget(filepath.Join(parentDir, filepath.FromSlash(path)), spec.HasTrailingSlash())
	case modspec.KindAbsolute:
		target, err = h.resolveTarget(filepath.Clean(modspec.ToPath(path)), spec.HasTrailingSlash())
	default:
		target, err = h.resolvePackage(path, parentDir)
	}
	if err != nil {
		return modspec.Resolved{}, h.wrap(err, spec, rctx)
	}

	res := modspec.Resolved{Path: target, Format: h.formatOf(target)}
	if h.flavor == Module {
		res.Query = query
	}
	return res, nil
}

// Load implements resolve.Host.
func (h *FS) Load(_ context.Context, loc modspec.Resolved) (*resolve.LoadResult, error) {
	if loc.IsBuiltin() {
		return &resolve.LoadResult{Format: modspec.FormatBuiltin}, nil
	}
	if loc.IsData() {
		src, err := decodeDataURL(loc.Path)
		if err != nil {
			return nil, err
		}
		return &resolve.LoadResult{Format: modspec.FormatModule, Source: src}, nil
	}
	src, err := os.ReadFile(loc.Path)
	if err != nil {
		return nil, err
	}
	format := loc.Format
	if format == modspec.FormatUnknown {
		format = h.formatOf(loc.Path)
	}
	return &resolve.LoadResult{Format: format, Source: src}, nil
}

// errNotFound marks an internal miss; wrap turns it into a NotFoundError
// naming the caller's specifier.
var errNotFound = errors.New("not found")

func (h *FS) wrap(err error, spec modspec.Specifier, rctx modspec.Context) error {
	if errors.Is(err, errNotFound) {
		return &resolve.NotFoundError{Specifier: string(spec), Parent: rctx.Parent}
	}
	var ue *resolve.UnsupportedError
	if errors.As(err, &ue) {
		ue.Specifier = string(spec)
		return ue
	}
	return err
}

// resolveTarget applies the flavor's file rules to an absolute path.
func (h *FS) resolveTarget(target string, trailingSlash bool) (string, error) {
	if h.flavor == Module {
		info, err := os.Stat(target)
		switch {
		case errors.Is(err, os.ErrPermission):
			return "", err
		case err != nil:
			return "", errNotFound
		case info.IsDir():
			return "", &resolve.UnsupportedError{Reason: "directory import is not supported", Directory: true}
		case trailingSlash:
			return "", errNotFound
		default:
			return target, nil
		}
	}

	if !trailingSlash {
		if found, ok := h.loadAsFile(target); ok {
			return found, nil
		}
	}
	if found, ok := h.loadAsDirectory(target); ok {
		return found, nil
	}
	return "", errNotFound
}

func (h *FS) loadAsFile(path string) (string, bool) {
	if isFile(path) {
		return path, true
	}
	for _, ext := range h.extensions {
		if isFile(path + ext) {
			return path + ext, true
		}
	}
	return "", false
}

func (h *FS) loadAsDirectory(dir string) (string, bool) {
	if m, err := h.manifests.Read(filepath.Join(dir, resolve.ManifestFileName)); err == nil && m != nil && m.Main != "" {
		main := filepath.Join(dir, filepath.FromSlash(m.Main))
		if found, ok := h.loadAsFile(main); ok {
			return found, true
		}
		if found, ok := h.loadIndex(main); ok {
			return found, true
		}
	}
	return h.loadIndex(dir)
}

func (h *FS) loadIndex(dir string) (string, bool) {
	for _, ext := range h.extensions {
		if p := filepath.Join(dir, "index"+ext); isFile(p) {
			return p, true
		}
	}
	return "", false
}

// resolvePackage finds a bare specifier in node_modules directories from
// dir towards the root.
func (h *FS) resolvePackage(spec, dir string) (string, error) {
	name, subpath := splitPackage(spec)
	for cur := dir; ; {
		if filepath.Base(cur) != "node_modules" {
			pkgDir := filepath.Join(cur, "node_modules", filepath.FromSlash(name))
			if isDir(pkgDir) {
				return h.resolveInPackage(pkgDir, subpath)
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", errNotFound
		}
		cur = parent
	}
}

func (h *FS) resolveInPackage(pkgDir, subpath string) (string, error) {
	m, err := h.manifests.Read(filepath.Join(pkgDir, resolve.ManifestFileName))
	if err != nil {
		return "", err
	}
	if m != nil && len(m.Exports) > 0 {
		target, ok := exportTarget(m.Exports, subpath, h.conditions)
		if !ok {
			return "", errNotFound
		}
		full := filepath.Join(pkgDir, filepath.FromSlash(target))
		if !isFile(full) {
			return "", errNotFound
		}
		return full, nil
	}
	if subpath == "." {
		if h.flavor == Module {
			if m != nil && m.Main != "" {
				if full := filepath.Join(pkgDir, filepath.FromSlash(m.Main)); isFile(full) {
					return full, nil
				}
			}
			if full := filepath.Join(pkgDir, "index.js"); isFile(full) {
				return full, nil
			}
			return "", errNotFound
		}
		return h.resolveTarget(pkgDir, true)
	}
	return h.resolveTarget(filepath.Join(pkgDir, filepath.FromSlash(subpath)), strings.HasSuffix(subpath, "/"))
}

// splitPackage splits "@scope/name/sub/path" into "@scope/name" and
// "./sub/path". The subpath is "." for the package root.
func splitPackage(spec string) (name, subpath string) {
	parts := strings.Split(spec, "/")
	n := 1
	if strings.HasPrefix(spec, "@") && len(parts) > 1 {
		n = 2
	}
	name = strings.Join(parts[:n], "/")
	if rest := strings.Join(parts[n:], "/"); rest != "" {
		return name, "./" + rest
	}
	return name, "."
}

// exportTarget evaluates a package "exports" value for subpath. Only
// string targets, condition objects, and exact subpath keys are supported.
func exportTarget(raw json.RawMessage, subpath string, conditions []string) (string, bool) {
	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		return asString, subpath == "."
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return "", false
	}
	isSubpathMap := false
	for k := range obj {
		if strings.HasPrefix(k, ".") {
			isSubpathMap = true
			break
		}
	}
	if !isSubpathMap {
		if subpath != "." {
			return "", false
		}
		return conditionTarget(obj, conditions)
	}
	entry, ok := obj[subpath]
	if !ok {
		return "", false
	}
	return exportTarget(entry, ".", conditions)
}

func conditionTarget(obj map[string]json.RawMessage, conditions []string) (string, bool) {
	for _, cond := range conditions {
		v, ok := obj[cond]
		if !ok {
			continue
		}
		if target, ok := exportTarget(v, ".", conditions); ok {
			return target, true
		}
	}
	return "", false
}

// formatOf returns the format the host itself assigns to a file.
func (h *FS) formatOf(path string) modspec.Format {
	switch filepath.Ext(path) {
	case ".mjs":
		return modspec.FormatModule
	case ".cjs", ".node":
		return modspec.FormatCommonJS
	case ".json":
		return modspec.FormatJSON
	case ".js":
		return h.manifests.FormatFor(path)
	default:
		return modspec.FormatUnknown
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
