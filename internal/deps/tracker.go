// SPDX-License-Identifier: MPL-2.0

package deps

import (
	"context"
	"log/slog"
	"sync"

	"github.com/srcload/srcload/internal/ipc"
	"github.com/srcload/srcload/pkg/modspec"
)

type (
	// Sender delivers one message on the dependency channel.
	Sender interface {
		Send(ctx context.Context, msg ipc.Message) error
	}

	// Tracker dedupes dependency paths and forwards first sightings.
	Tracker struct {
		sender Sender
		seen   sync.Map

		mu    sync.Mutex
		order []string
	}
)

// New creates a tracker forwarding to sender. A nil sender only records.
func New(sender Sender) *Tracker {
	return &Tracker{sender: sender}
}

// Track records the file behind a resolved location. Built-ins and data:
// URLs have no file and are ignored.
func (t *Tracker) Track(ctx context.Context, res modspec.Resolved) {
	if res.IsBuiltin() || res.IsData() || res.Path == "" {
		return
	}
	t.TrackPath(ctx, modspec.ToPath(res.Path))
}

// TrackPath records path and forwards it when it was not seen before.
// It reports whether the path was new.
func (t *Tracker) TrackPath(ctx context.Context, path string) bool {
	if _, loaded := t.seen.LoadOrStore(path, struct{}{}); loaded {
		return false
	}
	t.mu.Lock()
	t.order = append(t.order, path)
	t.mu.Unlock()

	if t.sender == nil {
		return true
	}
	if err := t.sender.Send(ctx, ipc.Message{Type: ipc.TypeDependency, Path: path}); err != nil {
		slog.Debug("dependency notification dropped", "path", path, "error", err)
	}
	return true
}

// Paths returns the tracked paths in first-seen order.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}
