// Package device implements the latency model that drives all timing
// in the simulator: a lookup table keyed by (block size, queue depth,
// r/w mix, op) mapping to a closed-form inverse-CDF, plus a handful of
// built-in fixed-throughput models for idealized tiers.
package device

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/tiersim/blocksim/internal/model"
)

// BlockSizeMB is the block size fixed system-wide for the simulator
// path.
const BlockSizeMB = 4

// Params selects a latency-table entry. A fixed-throughput model
// ignores Params entirely and always uses the package BlockSizeMB.
type Params struct {
	BlockSizeMB int
	Op          model.AccessKind
	RW          float64 // fraction of the workload's accesses that are writes
	QueueDepth  int
}

// Key returns the table lookup key for p, rounding RW to two decimal
// places so nearby-but-not-identical float ratios computed from the
// same configured rw fraction still collide onto the same table row.
func (p Params) Key() tableKey {
	return tableKey{
		BlockSize:  p.BlockSizeMB,
		Op:         p.Op,
		RW:         math.Round(p.RW*100) / 100,
		QueueDepth: p.QueueDepth,
	}
}

// LatencyModel maps (operation, blocksize, queue depth, r/w mix,
// access pattern) to a sampled I/O duration.
type LatencyModel interface {
	// Sample draws a latency for the given parameters. Implementations
	// may consume rng to draw the uniform sample used by the
	// inverse-CDF formula. A missing table entry panics with a
	// diagnostic message; by construction every Params the simulator
	// ever asks for was validated against the loaded table at startup
	// (see Validate).
	Sample(p Params, rng *rand.Rand) time.Duration
	// Name is a human label used in result reporting.
	Name() string
}

type tableKey struct {
	BlockSize  int
	Op         model.AccessKind
	RW         float64
	QueueDepth int
}

// tableEntry holds the four inverse-CDF parameters for one table row.
type tableEntry struct {
	Gap, A, B, C float64
}

// sample evaluates the fitted inverse CDF at p:
//
//	lat(p) = exp(c) * (a / (p*gap - 1))^(1/b)   nanoseconds
func (e tableEntry) sample(p float64) time.Duration {
	base := e.A / (p*e.Gap - 1)
	lat := math.Exp(e.C) * math.Pow(base, 1/e.B)
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < 0 {
		lat = 0
	}
	return time.Duration(lat) * time.Nanosecond
}

// SampledModel is a device latency model loaded from a per-device CSV
// table.
type SampledModel struct {
	name  string
	table map[tableKey]tableEntry
}

// NewSampledModel wraps rows (as parsed by LoadTable) into a model
// named name.
func NewSampledModel(name string, rows map[tableKey]tableEntry) *SampledModel {
	return &SampledModel{name: name, table: rows}
}

func (m *SampledModel) Name() string { return m.name }

func (m *SampledModel) Sample(p Params, rng *rand.Rand) time.Duration {
	entry, ok := m.table[p.Key()]
	if !ok {
		panic(fmt.Sprintf("device %q: no latency table entry for blocksize=%d op=%s rw=%.2f queue_depth=%d",
			m.name, p.BlockSizeMB, p.Op, p.RW, p.QueueDepth))
	}
	u := rng.Float64()
	// p must lie in (0,1); redraw the degenerate endpoint. A draw that
	// lands on the formula's pole at p = 1/gap yields Inf, which
	// tableEntry.sample clamps to 0.
	for u <= 0 || u >= 1 {
		u = rng.Float64()
	}
	return entry.sample(u)
}

// HasEntry reports whether the table contains a row for p, without
// sampling. Used by Validate to surface missing combinations eagerly.
func (m *SampledModel) HasEntry(p Params) bool {
	_, ok := m.table[p.Key()]
	return ok
}

// Validate checks that the table has an entry for every (op, rw,
// queueDepth) combination the simulator is configured to use at the
// fixed system block size, returning a single aggregated error
// listing every missing combination so a bad table surfaces all its
// gaps at once.
func (m *SampledModel) Validate(rw float64, queueDepth int) error {
	var missing []string
	for _, op := range []model.AccessKind{model.Read, model.Write} {
		p := Params{BlockSizeMB: BlockSizeMB, Op: op, RW: rw, QueueDepth: queueDepth}
		if !m.HasEntry(p) {
			missing = append(missing, fmt.Sprintf("blocksize=%d op=%s rw=%.2f queue_depth=%d",
				BlockSizeMB, op, rw, queueDepth))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("device %q: missing latency table rows: %v", m.name, missing)
	}
	return nil
}
