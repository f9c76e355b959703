// Package dedupe tracks which input claimed each output id within a batch,
// so two inputs that map to the same output file are caught instead of the
// second silently overwriting the first.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records claimed ids together with the owner that claimed them.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was already claimed and
	// records owner as its claimant if not. When id was claimed before it
	// returns the earlier owner and true.
	SeenAndRecord(ctx context.Context, id, owner string) (string, bool)

	Size() int64
}

// inMemoryDeduper implements Deduper with a mutex-guarded map.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]string // id -> owner
	hint int
	size atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]string, d.hint)
	return d
}

// SeenAndRecord atomically checks if id was claimed and records owner if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id, owner string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, exists := d.seen[id]; exists {
		return prev, true
	}
	d.seen[id] = owner
	d.size.Add(1)
	return "", false
}

// Size returns the current number of claimed ids.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
