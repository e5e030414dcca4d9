// Package placement implements the block-migration policies:
// components that observe cache fetch/write traffic and, on their own
// schedule, decide to relocate blocks between devices to balance load.
package placement

import (
	"github.com/tiersim/blocksim/internal/model"
	"github.com/tiersim/blocksim/internal/storage"
)

// MigrationRecord is one row of the policy movement log (policy.csv:
// now, from, to, size).
type MigrationRecord struct {
	Now      int64
	From, To model.DiskId
	Size     int
}

// Results is the sink migration records are reported to. A nil value
// is valid: records are simply dropped, which NoopPolicy and tests
// rely on.
type Results chan<- MigrationRecord

func report(results Results, rec MigrationRecord) {
	if results == nil {
		return
	}
	results <- rec
}

// Policy is the pluggable migration strategy interface. A Policy may
// read devices.Blocks but must only mutate block placement
// indirectly, by emitting MoveInit steps for the storage stack to
// execute.
type Policy interface {
	// Init runs once after the initial block distribution.
	Init(devices *storage.Stack, now int64) []model.Event
	// Update handles a Fetched/Written/Migrate notification.
	Update(msg model.PlacementMsg, devices *storage.Stack, now int64, results Results) []model.Event
}

// NoopPolicy never migrates: no initial tick, every update is a no-op.
type NoopPolicy struct{}

func (NoopPolicy) Init(*storage.Stack, int64) []model.Event { return nil }

func (NoopPolicy) Update(model.PlacementMsg, *storage.Stack, int64, Results) []model.Event {
	return nil
}
