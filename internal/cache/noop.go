package cache

import "github.com/tiersim/blocksim/internal/model"

// Noop is a zero-capacity algorithm: every access misses, nothing is
// ever resident, and every access bypasses straight to storage.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) Get(model.Block) bool       { return false }
func (Noop) Put(model.Block)            {}
func (Noop) Evict() (model.Block, bool) { return 0, false }
func (Noop) Len() int                   { return 0 }
func (Noop) Capacity() int              { return 0 }
func (Noop) Clear() []model.Block       { return nil }
