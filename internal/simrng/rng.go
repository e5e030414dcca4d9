// Package simrng provides per-subsystem deterministic RNG derivation:
// one master seed, with each subsystem getting its own isolated
// *rand.Rand so that, e.g., adding a workload block or changing the
// placement policy's sampling cadence does not perturb device latency
// sampling in a way that would make two otherwise-identical runs
// diverge for unrelated reasons.
package simrng

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names, one per independent RNG consumer in the simulator.
const (
	// SubsystemWorkload drives block-id generation (Zipf/Uniform) and
	// the read/write coin flip. Uses the master seed directly, so the
	// access stream for a given seed stays stable as subsystems are
	// added.
	SubsystemWorkload = "workload"
	// SubsystemPlacement drives initial block distribution (prepare's
	// seeded shuffle) and per-disk-pair cost sampling in the placement
	// policy.
	SubsystemPlacement = "placement"
	// SubsystemDevice drives the device latency model's inverse-CDF
	// uniform sampling.
	SubsystemDevice = "device"
)

// PartitionedRNG hands out one cached, deterministically-derived
// *rand.Rand per subsystem name from a single master seed.
//
// Derivation: the workload subsystem uses the master seed directly;
// every other subsystem uses masterSeed XOR fnv1a64(name), isolating
// it from the others while remaining fully reproducible.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// New creates a PartitionedRNG from seed.
func New(seed int64) *PartitionedRNG {
	return &PartitionedRNG{seed: seed, subsystems: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the (cached) RNG for name, creating it on first
// use. Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	derivedSeed := p.seed
	if name != SubsystemWorkload {
		derivedSeed = p.seed ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
