package placement

import (
	"math/rand"
	"sort"

	"github.com/tiersim/blocksim/internal/device"
	"github.com/tiersim/blocksim/internal/model"
	"github.com/tiersim/blocksim/internal/storage"
)

// FrequencyPolicy tracks per-disk access frequency and, on a fixed
// interval, moves hot blocks toward idler disks whenever the
// estimated latency saved exceeds the estimated cost of the move.
type FrequencyPolicy struct {
	Interval     int64
	Reactiveness int
	Decay        float64

	rng *rand.Rand

	queues   map[model.DiskId]*freqQueue
	lastIdle map[model.DiskId]int64

	// pending maps blocks with an issued MoveInit to their destination,
	// until the policy observes the move committed. BlocksOnHold alone
	// is not enough: storage defers a MoveInit on a full queue without
	// putting the block on hold, and issuing a second MoveInit for a
	// block in that window violates the no-overlapping-moves contract.
	pending map[model.Block]model.DiskId
}

func NewFrequencyPolicy(interval int64, reactiveness int, decay float64, rng *rand.Rand) *FrequencyPolicy {
	return &FrequencyPolicy{
		Interval:     interval,
		Reactiveness: reactiveness,
		Decay:        decay,
		rng:          rng,
		queues:       make(map[model.DiskId]*freqQueue),
		lastIdle:     make(map[model.DiskId]int64),
		pending:      make(map[model.Block]model.DiskId),
	}
}

func (p *FrequencyPolicy) queueFor(id model.DiskId) *freqQueue {
	q, ok := p.queues[id]
	if !ok {
		q = newFreqQueue()
		p.queues[id] = q
	}
	return q
}

// Init schedules the first Migrate tick.
func (p *FrequencyPolicy) Init(devices *storage.Stack, now int64) []model.Event {
	return []model.Event{model.PlacementEvent(now+p.Interval, model.MigrateMsg())}
}

func (p *FrequencyPolicy) Update(msg model.PlacementMsg, devices *storage.Stack, now int64, results Results) []model.Event {
	switch msg.Kind {
	case model.PlacementFetched, model.PlacementWritten:
		disk, ok := devices.Blocks[msg.Block]
		if !ok {
			return nil
		}
		p.queueFor(disk).increment(msg.Block, 1)
		return nil
	case model.PlacementMigrate:
		events := p.migrate(devices, now, results)
		events = append(events, model.PlacementEvent(now+p.Interval, model.MigrateMsg()))
		return events
	default:
		return nil
	}
}

// costNs estimates the latency cost of one leg of a move through disk
// id: a read to drain a block from the source, a write to land it on
// the destination.
func (p *FrequencyPolicy) costNs(devices *storage.Stack, id model.DiskId, op model.AccessKind) float64 {
	dev := devices.Devices[id]
	d := dev.Kind.Sample(device.Params{
		BlockSizeMB: device.BlockSizeMB,
		Op:          op,
		RW:          devices.RW,
		QueueDepth:  dev.MaxQueueLen,
	}, p.rng)
	return float64(d.Nanoseconds())
}

func (p *FrequencyPolicy) migrate(devices *storage.Stack, now int64, results Results) []model.Event {
	// Retire pending moves that have committed: the block is homed on
	// its destination and no longer on hold.
	for b, dest := range p.pending {
		if _, onHold := devices.BlocksOnHold[b]; !onHold && devices.Blocks[b] == dest {
			delete(p.pending, b)
		}
	}

	ids := make([]model.DiskId, 0, len(devices.Devices))
	idleDelta := make(map[model.DiskId]int64, len(devices.Devices))
	for id, dev := range devices.Devices {
		// IdleTimeAt, not IdleTime: the raw counter accrues lazily at
		// submissions, so an untouched disk would read as zero idle and
		// sort as the busiest.
		idle := dev.IdleTimeAt(now)
		idleDelta[id] = idle - p.lastIdle[id]
		p.lastIdle[id] = idle
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if idleDelta[ids[i]] != idleDelta[ids[j]] {
			return idleDelta[ids[i]] < idleDelta[ids[j]]
		}
		return ids[i] < ids[j]
	})

	var events []model.Event
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			events = append(events, p.migratePair(devices, a, b, now, results)...)
		}
	}

	for _, q := range p.queues {
		q.decayAll(p.Decay)
	}

	return events
}

// migratePair runs up to Reactiveness promotion/swap iterations between
// the busier disk a and the idler disk b.
func (p *FrequencyPolicy) migratePair(devices *storage.Stack, a, b model.DiskId, now int64, results Results) []model.Event {
	qa, qb := p.queueFor(a), p.queueFor(b)
	costA := p.costNs(devices, a, model.Read)
	costB := p.costNs(devices, b, model.Write)

	var events []model.Event
	for iter := 0; iter < p.Reactiveness; iter++ {
		blockA, fA, okA := qa.peekMax()
		blockB, fB, okB := qb.peekMin()
		if !okA {
			break
		}
		if _, isPending := p.pending[blockA]; isPending {
			break
		}
		// An access that completed after its block was migrated away
		// re-registers the block under its old disk; drop such stale
		// entries instead of moving a block this disk no longer homes.
		if home, homed := devices.Blocks[blockA]; !homed || home != a {
			qa.remove(blockA)
			continue
		}
		if okB {
			if home, homed := devices.Blocks[blockB]; !homed || home != b {
				qb.remove(blockB)
				continue
			}
		}
		if _, onHold := devices.BlocksOnHold[blockA]; onHold {
			break
		}

		devB := devices.Devices[b]
		if devB.Free > 0 && fA*(costA-costB) > costA+costB {
			qa.remove(blockA)
			qb.push(blockA, fA)
			devices.Devices[a].Free++
			devB.Free--
			p.pending[blockA] = b
			events = append(events, model.StorageEvent(now, model.ProcessMsg(model.Step{
				Kind: model.MoveInit, Block: blockA, Disk: b,
			})))
			report(results, MigrationRecord{Now: now, From: a, To: b, Size: device.BlockSizeMB})
			continue
		}

		if okB && blockA != blockB {
			if _, onHold := devices.BlocksOnHold[blockB]; onHold {
				break
			}
			if _, isPending := p.pending[blockB]; isPending {
				break
			}
			if fA*(costA-costB)-fB*(costB-costA) > 2*(costA+costB) {
				qa.remove(blockA)
				qb.remove(blockB)
				qb.push(blockA, fA)
				qa.push(blockB, fB)
				p.pending[blockA] = b
				p.pending[blockB] = a
				events = append(events,
					model.StorageEvent(now, model.ProcessMsg(model.Step{Kind: model.MoveInit, Block: blockA, Disk: b})),
					model.StorageEvent(now, model.ProcessMsg(model.Step{Kind: model.MoveInit, Block: blockB, Disk: a})),
				)
				report(results, MigrationRecord{Now: now, From: a, To: b, Size: device.BlockSizeMB})
				report(results, MigrationRecord{Now: now, From: b, To: a, Size: device.BlockSizeMB})
				continue
			}
		}

		break
	}
	return events
}
