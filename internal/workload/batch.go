// Package workload implements the Application contract the simulator
// core drives: the batch-oriented driver that distributes an initial
// block set, issues waves of concurrent accesses, and tracks their
// completion, plus the block-id generators the driver draws from.
package workload

import (
	"math/rand"

	"github.com/tiersim/blocksim/internal/model"
)

// Application is the workload contract the simulator core drives.
type Application interface {
	// Init returns the set of blocks to be distributed at startup.
	Init() []model.Block
	// Start emits the next batch as Cache Get/Put events.
	Start(now int64) []model.Event
	// Done is called when an access finishes; it closes the batch once
	// every in-flight access has completed, emitting a result record
	// and either the next batch or Terminate.
	Done(access model.Access, now int64, results Results) []model.Event
}

// inflight tracks one outstanding access: its issue time and how many
// duplicate accesses to the same block are in flight together.
type inflight struct {
	issuedAt int64
	count    int
}

// BatchApplication is the reference Application: a fixed pool of
// `Size` blocks, `Iterations` waves of `BatchSize` concurrent accesses
// each drawn from `Pattern`, a fraction `RW` of which are writes.
type BatchApplication struct {
	Size       int
	RW         float64
	Iterations int
	BatchSize  int
	Interval   int64
	Pattern    Generator

	rng *rand.Rand

	iteration int
	remaining int
	inFlight  map[model.Block]*inflight

	batch batchStats
}

func NewBatchApplication(size int, rw float64, iterations, batchSize int, interval int64, pattern Generator, rng *rand.Rand) *BatchApplication {
	return &BatchApplication{
		Size:       size,
		RW:         rw,
		Iterations: iterations,
		BatchSize:  batchSize,
		Interval:   interval,
		Pattern:    pattern,
		rng:        rng,
		inFlight:   make(map[model.Block]*inflight),
	}
}

func (a *BatchApplication) Init() []model.Block {
	blocks := make([]model.Block, a.Size)
	for i := 0; i < a.Size; i++ {
		blocks[i] = model.Block(i + 1)
	}
	return blocks
}

func (a *BatchApplication) Start(now int64) []model.Event {
	a.batch = batchStats{Now: now, Interval: a.Interval}
	a.remaining = a.BatchSize

	events := make([]model.Event, 0, a.BatchSize)
	for i := 0; i < a.BatchSize; i++ {
		b := a.Pattern.Next()
		write := a.rng.Float64() < a.RW

		if fl, ok := a.inFlight[b]; ok {
			fl.count++
		} else {
			a.inFlight[b] = &inflight{issuedAt: now, count: 1}
		}

		if write {
			events = append(events, model.CacheEvent(now, model.PutMsg(b)))
		} else {
			events = append(events, model.CacheEvent(now, model.GetMsg(b)))
		}
	}
	return events
}

func (a *BatchApplication) Done(access model.Access, now int64, results Results) []model.Event {
	fl, ok := a.inFlight[access.Block]
	if !ok {
		return nil
	}

	latency := now - fl.issuedAt
	a.batch.record(access.Kind, latency)

	fl.count--
	if fl.count == 0 {
		delete(a.inFlight, access.Block)
	}

	a.remaining--
	if a.remaining > 0 {
		return nil
	}

	report(results, a.batch)

	a.iteration++
	if a.iteration >= a.Iterations {
		return []model.Event{model.TerminateEvent(now)}
	}
	return a.Start(now + a.Interval)
}
