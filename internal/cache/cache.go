// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	// Generation names the on-disk layout directory ("v2"). Bumping it
	// orphans every persisted entry; the previous generation is removed by
	// Prune.
	Generation = 2

	// Unit is the granularity of the timestamp in entry file names.
	Unit = 100_000_000 * time.Millisecond

	// DefaultRetention is the number of units an entry survives on disk.
	DefaultRetention = 7

	// DefaultMemoryEntries bounds the memory tier.
	DefaultMemoryEntries = 4096

	// EnvDisable disables the disk tier when truthy.
	EnvDisable = "SRCLOAD_DISABLE_CACHE"
)

type (
	// Cache is the lookup surface used by the transformer.
	Cache interface {
		// Get returns the entry stored under key. The entry is shared and
		// must not be modified.
		Get(key string) (*Entry, bool)
		// Set stores e under key.
		Set(key string, e *Entry)
	}

	// Store is a Cache with maintenance operations.
	Store interface {
		Cache
		// Flush waits for background writes to finish.
		Flush()
		// Prune removes expired entries. It runs at most once per Store.
		Prune() error
		// Clear removes every entry.
		Clear() error
		// Stats returns counters since construction.
		Stats() Stats
		// Dir is the persisted directory, or "" for memory-only stores.
		Dir() string
	}

	// Entry is one cached transform result.
	Entry struct {
		Code     string          `json:"code"`
		Map      json.RawMessage `json:"map,omitempty"`
		Warnings []string        `json:"warnings,omitempty"`
		// WrittenAt is the coarse write time recovered from the file name.
		// It is zero for entries that never touched disk.
		WrittenAt time.Time `json:"-"`
	}

	// Stats are cache counters.
	Stats struct {
		Hits            int64
		Misses          int64
		DiskReads       int64
		DiskWrites      int64
		DiskWriteErrors int64
		MemoryEntries   int
		DiskEntries     int
	}
)

// Key hashes fields into a cache key. Each field is prefixed by its length
// so that no two field lists share an encoding.
func Key(fields ...[]byte) string {
	h := sha256.New()
	var prefix [8]byte
	for _, f := range fields {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(f)))
		_, _ = h.Write(prefix[:])
		_, _ = h.Write(f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Coarse returns t in Units since the epoch.
func Coarse(t time.Time) int64 {
	return t.UnixMilli() / Unit.Milliseconds()
}

// Truthy reports whether an environment value enables a flag.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// fileName is the on-disk name of key written at coarse time ts.
func fileName(ts int64, key string) string {
	return strconv.FormatInt(ts, 10) + "-" + key
}

// parseFileName splits an entry file name. Temporary files and foreign
// names report false.
func parseFileName(name string) (ts int64, key string, ok bool) {
	tsPart, key, found := strings.Cut(name, "-")
	if !found || key == "" || strings.HasPrefix(name, ".") {
		return 0, "", false
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil || ts < 0 {
		return 0, "", false
	}
	return ts, key, true
}
