// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"sync"
	"sync/atomic"
)

// Memory is an unbounded, non-persisted Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

// Get implements Cache.
func (m *Memory) Get(key string) (*Entry, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return e, ok
}

// Set implements Cache.
func (m *Memory) Set(key string, e *Entry) {
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Flush implements Store.
func (m *Memory) Flush() {}

// Prune implements Store. Memory entries never expire.
func (m *Memory) Prune() error { return nil }

// Clear implements Store.
func (m *Memory) Clear() error {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}

// Stats implements Store.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	n := len(m.entries)
	m.mu.RUnlock()
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load(), MemoryEntries: n}
}

// Dir implements Store.
func (m *Memory) Dir() string { return "" }
