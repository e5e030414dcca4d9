package device

import (
	"math/rand"
	"time"
)

// FixedThroughputModel is a deterministic device latency model driven
// by a single peak-throughput number: every sample returns
// BlockSizeMB / throughput, regardless of op, rw mix, or queue depth.
// Used for the built-in idealized tiers below.
type FixedThroughputModel struct {
	name          string
	peakMiBPerSec float64
}

func NewFixedThroughputModel(name string, peakMiBPerSec float64) *FixedThroughputModel {
	return &FixedThroughputModel{name: name, peakMiBPerSec: peakMiBPerSec}
}

func (m *FixedThroughputModel) Name() string { return m.name }

// Sample ignores rng: a fixed-throughput model always returns the
// same duration.
func (m *FixedThroughputModel) Sample(p Params, rng *rand.Rand) time.Duration {
	seconds := float64(BlockSizeMB) / m.peakMiBPerSec
	return time.Duration(seconds * float64(time.Second))
}

// Built-in reference tier names.
const (
	DRAM          = "dram"
	OptanePMem    = "optane-pmem"
	OptaneSSD     = "optane-ssd"
	Samsung983ZET = "samsung-983-zet"
	Micron9100Max = "micron-9100-max"
	WDHDD         = "wd-hdd"
	KioxiaCM7     = "kioxia-cm7"
)

// builtinThroughputsMiBPerSec are representative peak sequential
// throughput figures for each built-in tier, expressed in MiB/s. These
// are simulator reference constants, not a specific datasheet's
// figures; callers needing measured behavior should supply a CSV
// table (LoadTable) instead.
var builtinThroughputsMiBPerSec = map[string]float64{
	DRAM:          20000,
	OptanePMem:    6000,
	OptaneSSD:     2400,
	Samsung983ZET: 3200,
	Micron9100Max: 3500,
	WDHDD:         220,
	KioxiaCM7:     6500,
}

// Builtins returns a fresh set of the built-in fixed-throughput
// models, keyed by name.
func Builtins() map[string]*FixedThroughputModel {
	out := make(map[string]*FixedThroughputModel, len(builtinThroughputsMiBPerSec))
	for name, mibs := range builtinThroughputsMiBPerSec {
		out[name] = NewFixedThroughputModel(name, mibs)
	}
	return out
}

// BuiltinNames returns the sorted-by-declaration list of built-in
// model names, for CLI listing (`devices` subcommand).
func BuiltinNames() []string {
	return []string{DRAM, OptanePMem, OptaneSSD, Samsung983ZET, Micron9100Max, WDHDD, KioxiaCM7}
}
