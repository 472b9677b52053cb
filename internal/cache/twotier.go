// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srcload/srcload/pkg/platform"

	lru "github.com/hashicorp/golang-lru/v2"
)

type (
	// Options configure a TwoTier store.
	Options struct {
		// Root holds the generation directories. Defaults to the platform
		// runtime directory.
		Root string
		// MemoryEntries bounds the memory tier. Defaults to DefaultMemoryEntries.
		MemoryEntries int
		// Retention is the disk lifetime in Units. Defaults to DefaultRetention.
		Retention int
		// Now supplies the current time. Defaults to time.Now.
		Now func() time.Time
		// DeferPrune skips the background prune started by NewTwoTier; the
		// caller runs Prune itself (or never).
		DeferPrune bool
	}

	// TwoTier is a Store backed by an LRU and a directory of entry files.
	TwoTier struct {
		root      string
		dir       string
		retention int64
		now       func() time.Time
		mem       *lru.Cache[string, *Entry]

		mu    sync.Mutex
		index map[string]string // key -> file name

		pending   sync.WaitGroup
		pruneOnce sync.Once
		pruneErr  error

		hits        atomic.Int64
		misses      atomic.Int64
		diskReads   atomic.Int64
		diskWrites  atomic.Int64
		writeErrors atomic.Int64
	}
)

// Open returns a TwoTier store, or a Memory store when disabled is set.
func Open(disabled bool, opts Options) (Store, error) {
	if disabled {
		return NewMemory(), nil
	}
	return NewTwoTier(opts)
}

// NewTwoTier creates the generation directory if needed and indexes its
// entries by name without reading them. Unless opts.DeferPrune is set,
// expired entries are pruned in the background.
func NewTwoTier(opts Options) (*TwoTier, error) {
	if opts.Root == "" {
		opts.Root = platform.RuntimeDir()
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = DefaultMemoryEntries
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mem, err := lru.New[string, *Entry](opts.MemoryEntries)
	if err != nil {
		return nil, fmt.Errorf("creating memory tier: %w", err)
	}

	t := &TwoTier{
		root:      opts.Root,
		dir:       GenerationDir(opts.Root, Generation),
		retention: int64(opts.Retention),
		now:       opts.Now,
		mem:       mem,
		index:     make(map[string]string),
	}
	if err := os.MkdirAll(t.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if err := t.scan(); err != nil {
		return nil, err
	}

	if !opts.DeferPrune {
		t.pending.Go(func() {
			if err := t.Prune(); err != nil {
				slog.Debug("cache prune failed", "dir", t.dir, "error", err)
			}
		})
	}
	return t, nil
}

// GenerationDir returns the directory of layout generation gen under root.
func GenerationDir(root string, gen int) string {
	return filepath.Join(root, fmt.Sprintf("v%d", gen))
}

func (t *TwoTier) scan() error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return fmt.Errorf("listing cache directory: %w", err)
	}
	stamps := make(map[string]int64, len(entries))
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ts, key, ok := parseFileName(de.Name())
		if !ok {
			continue
		}
		if prev, seen := stamps[key]; seen && prev >= ts {
			continue
		}
		stamps[key] = ts
		t.index[key] = de.Name()
	}
	return nil
}

// Dir implements Store.
func (t *TwoTier) Dir() string { return t.dir }

// Get implements Cache. A memory miss falls back to the disk index; a file
// that cannot be read or parsed is deleted and reported as a miss.
func (t *TwoTier) Get(key string) (*Entry, bool) {
	if e, ok := t.mem.Get(key); ok {
		t.hits.Add(1)
		return e, true
	}

	t.mu.Lock()
	name, ok := t.index[key]
	t.mu.Unlock()
	if !ok {
		t.misses.Add(1)
		return nil, false
	}

	e, err := t.read(name)
	if err != nil {
		slog.Debug("dropping unreadable cache entry", "file", name, "error", err)
		t.forget(key, name)
		t.misses.Add(1)
		return nil, false
	}
	t.diskReads.Add(1)
	t.hits.Add(1)
	t.mem.Add(key, e)
	return e, true
}

func (t *TwoTier) read(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(t.dir, name))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if ts, _, ok := parseFileName(name); ok {
		e.WrittenAt = time.UnixMilli(ts * Unit.Milliseconds())
	}
	return &e, nil
}

// forget removes name from the index (if still current for key) and disk.
func (t *TwoTier) forget(key, name string) {
	t.mu.Lock()
	if t.index[key] == name {
		delete(t.index, key)
	}
	t.mu.Unlock()
	if err := os.Remove(filepath.Join(t.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("removing cache entry", "file", name, "error", err)
	}
}

// Set implements Cache. The memory tier is updated immediately; the disk
// write happens in the background, and the index only names files that
// exist.
func (t *TwoTier) Set(key string, e *Entry) {
	t.mem.Add(key, e)

	ts := Coarse(t.now())
	name := fileName(ts, key)
	t.pending.Go(func() {
		if err := t.write(name, e); err != nil {
			t.writeErrors.Add(1)
			slog.Debug("writing cache entry", "file", name, "error", err)
			return
		}
		t.diskWrites.Add(1)

		t.mu.Lock()
		old := t.index[key]
		if oldTS, _, ok := parseFileName(old); ok && oldTS > ts {
			// A newer entry landed first.
			t.mu.Unlock()
			_ = os.Remove(filepath.Join(t.dir, name))
			return
		}
		t.index[key] = name
		t.mu.Unlock()
		if old != "" && old != name {
			_ = os.Remove(filepath.Join(t.dir, old))
		}
	})
}

// write stores e atomically: a temp file in the same directory is renamed
// over the final name.
func (t *TwoTier) write(name string, e *Entry) (err error) {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(t.dir, ".tmp-*")
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(t.dir, name)); err != nil {
		return err
	}
	renamed = true
	return nil
}

// Flush implements Store.
func (t *TwoTier) Flush() {
	t.pending.Wait()
}

// Prune implements Store. Entries older than the retention window are
// deleted, as is the previous generation's directory.
func (t *TwoTier) Prune() error {
	t.pruneOnce.Do(func() {
		t.pruneErr = t.prune()
	})
	return t.pruneErr
}

func (t *TwoTier) prune() error {
	cutoff := Coarse(t.now()) - t.retention

	t.mu.Lock()
	var expired []string
	for key, name := range t.index {
		if ts, _, ok := parseFileName(name); ok && ts < cutoff {
			expired = append(expired, name)
			delete(t.index, key)
		}
	}
	t.mu.Unlock()

	var errs []error
	for _, name := range expired {
		if err := os.Remove(filepath.Join(t.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if Generation > 1 {
		if err := os.RemoveAll(GenerationDir(t.root, Generation-1)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(expired) > 0 {
		slog.Debug("pruned cache entries", "dir", t.dir, "count", len(expired))
	}
	return errors.Join(errs...)
}

// Clear implements Store. Pending writes finish first so that none land
// after the directory is emptied.
func (t *TwoTier) Clear() error {
	t.Flush()
	t.mem.Purge()

	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.index)
	if err := os.RemoveAll(t.dir); err != nil {
		return fmt.Errorf("clearing cache directory: %w", err)
	}
	if err := os.MkdirAll(t.dir, 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}

// Stats implements Store.
func (t *TwoTier) Stats() Stats {
	t.mu.Lock()
	disk := len(t.index)
	t.mu.Unlock()
	return Stats{
		Hits:            t.hits.Load(),
		Misses:          t.misses.Load(),
		DiskReads:       t.diskReads.Load(),
		DiskWrites:      t.diskWrites.Load(),
		DiskWriteErrors: t.writeErrors.Load(),
		MemoryEntries:   t.mem.Len(),
		DiskEntries:     disk,
	}
}
