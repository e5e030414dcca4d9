// Package cache implements the policy-agnostic cache manager:
// admission, eviction, and coalescing of concurrent fetches and
// writes, wrapping a pluggable membership Algorithm.
package cache

import "github.com/tiersim/blocksim/internal/model"

// Algorithm is a pure membership structure: it decides what is
// resident and what to evict, but never performs I/O.
type Algorithm interface {
	// Get reports whether b is resident, updating recency order as a
	// side effect (e.g. LRU's move-to-front).
	Get(b model.Block) bool
	// Put marks b resident. Callers must have already verified there
	// is room (the cache manager, not the algorithm, owns admission
	// control).
	Put(b model.Block)
	// Evict selects and removes a victim, or reports false if nothing
	// is resident to evict.
	Evict() (model.Block, bool)
	Len() int
	Capacity() int
	// Clear removes every resident block, returning them in the order
	// they should be written back.
	Clear() []model.Block
}
