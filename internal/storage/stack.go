// Package storage implements the per-device queues, placement lookup,
// and block-migration state machine: every block is homed on exactly
// one device, accesses are admitted into per-device queues respecting
// each device's queue-depth limit, and migrations move a block's home
// under mutual exclusion with new I/O on that block.
package storage

import (
	"math/rand"
	"sort"

	"github.com/tiersim/blocksim/internal/device"
	"github.com/tiersim/blocksim/internal/model"
)

// Stack owns every device, the block→disk homing table, and the set
// of blocks currently on hold for migration.
type Stack struct {
	Devices      map[model.DiskId]*DeviceState
	Blocks       map[model.Block]model.DiskId
	BlocksOnHold map[model.Block]int64

	// RW is the workload's configured write fraction, used (alongside
	// op and queue depth) as part of every latency-table lookup; the
	// r/w mix is a table dimension, not derived per access.
	RW float64

	rng *rand.Rand
}

// NewStack creates an empty stack. rw is the workload's configured
// write fraction; rng drives the latency model's uniform sampling.
func NewStack(rw float64, rng *rand.Rand) *Stack {
	return &Stack{
		Devices:      make(map[model.DiskId]*DeviceState),
		Blocks:       make(map[model.Block]model.DiskId),
		BlocksOnHold: make(map[model.Block]int64),
		RW:           rw,
		rng:          rng,
	}
}

// AddDevice registers a new device under id.
func (s *Stack) AddDevice(id model.DiskId, name string, kind device.LatencyModel, capacity, maxQueueLen int) {
	s.Devices[id] = NewDeviceState(id, name, kind, capacity, maxQueueLen)
}

// DiskIDsSortedByName returns every configured disk id, ordered by
// device name. Used by the simulator's prepare() to get a
// deterministic base ordering before the seeded per-block shuffle.
func (s *Stack) DiskIDsSortedByName() []model.DiskId {
	ids := make([]model.DiskId, 0, len(s.Devices))
	for id := range s.Devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.Devices[ids[i]].Name < s.Devices[ids[j]].Name })
	return ids
}

// Insert places block on disk if it has free capacity, decrementing
// Free and recording the home assignment. It reports whether the
// block was placed; false signals the caller should try a different
// device.
func (s *Stack) Insert(b model.Block, disk model.DiskId) bool {
	dev, ok := s.Devices[disk]
	if !ok {
		return false
	}
	if dev.Free <= 0 {
		return false
	}
	dev.Free--
	s.Blocks[b] = disk
	return true
}

// admit performs the shared per-device queue bookkeeping: sample a
// latency, update idle/reservation/metrics, and return the completion
// timestamp. ok is false when dev's queue already holds MaxQueueLen
// in-flight accesses; in that case nothing is mutated and the caller
// must defer the whole request to dev.CanRequeueAt rather than admit
// it anyway. The invariant CurrentQueueLen <= MaxQueueLen holds only
// because admission gates here first.
func (s *Stack) admit(dev *DeviceState, now int64, op model.AccessKind) (until int64, ok bool) {
	if dev.CurrentQueueLen >= dev.MaxQueueLen {
		return 0, false
	}

	lat := dev.Kind.Sample(device.Params{
		BlockSizeMB: device.BlockSizeMB,
		Op:          op,
		RW:          s.RW,
		QueueDepth:  dev.MaxQueueLen,
	}, s.rng)
	until = now + lat.Nanoseconds()

	if dev.ReservedUntil < now {
		dev.IdleTime += now - dev.ReservedUntil
	}
	if until > dev.ReservedUntil {
		dev.ReservedUntil = until
	}

	dev.CurrentQueueLen++
	if dev.CurrentQueueLen >= dev.MaxQueueLen {
		dev.CanRequeueAt = until
	}

	dev.TotalReq++
	wait := until - now
	dev.TotalQ += wait
	if wait > dev.MaxQ {
		dev.MaxQ = wait
	}

	return until, true
}

// Process advances the storage stack in response to msg, returning
// the events it produces.
func (s *Stack) Process(msg model.StorageMsg, now int64) ([]model.Event, error) {
	switch msg.Kind {
	case model.StorageInit:
		return s.processInit(msg.Access, now)
	case model.StorageFinish:
		return s.processFinish(msg.Access, now)
	case model.StorageProcess:
		return s.processStep(msg.Step, now)
	default:
		return nil, nil
	}
}

func (s *Stack) processInit(access model.Access, now int64) ([]model.Event, error) {
	// A block under migration defers new I/O until the migration
	// completes.
	if until, onHold := s.BlocksOnHold[access.Block]; onHold {
		return []model.Event{model.StorageEvent(until, model.InitMsg(access))}, nil
	}

	disk, ok := s.Blocks[access.Block]
	if !ok {
		return nil, &InvalidBlockError{Block: access.Block}
	}
	dev, ok := s.Devices[disk]
	if !ok {
		return nil, &InvalidDeviceError{Disk: disk}
	}

	until, ok := s.admit(dev, now, access.Kind)
	if !ok {
		// Queue is full: re-enqueue the original access at the
		// device's CanRequeueAt rather than admitting it anyway.
		return []model.Event{model.StorageEvent(dev.CanRequeueAt, model.InitMsg(access))}, nil
	}

	var cacheMsg model.CacheMsg
	if access.Kind == model.Read {
		cacheMsg = model.ReadFinishedMsg(access.Block)
	} else {
		cacheMsg = model.WriteFinishedMsg(access.Block)
	}
	return []model.Event{
		model.StorageEvent(until, model.FinishMsg(access)),
		model.CacheEvent(until, cacheMsg),
	}, nil
}

func (s *Stack) processFinish(access model.Access, now int64) ([]model.Event, error) {
	disk, ok := s.Blocks[access.Block]
	if !ok {
		return nil, &InvalidBlockError{Block: access.Block}
	}
	dev, ok := s.Devices[disk]
	if !ok {
		return nil, &InvalidDeviceError{Disk: disk}
	}
	dev.CurrentQueueLen--

	var pmsg model.PlacementMsg
	if access.Kind == model.Read {
		pmsg = model.FetchedMsg(access.Block)
	} else {
		pmsg = model.WrittenMsg(access.Block)
	}
	return []model.Event{model.PlacementEvent(now, pmsg)}, nil
}

func (s *Stack) processStep(step model.Step, now int64) ([]model.Event, error) {
	switch step.Kind {
	case model.MoveInit:
		return s.processMoveInit(step.Block, step.Disk, now)
	case model.MoveReadFinished:
		return s.processMoveReadFinished(step.Block, step.Disk, now)
	case model.MoveWriteFinished:
		return s.processMoveWriteFinished(step.Block, now)
	default:
		return nil, nil
	}
}

func (s *Stack) processMoveInit(b model.Block, to model.DiskId, now int64) ([]model.Event, error) {
	if _, onHold := s.BlocksOnHold[b]; onHold {
		return nil, &BlockIsBusyError{Block: b}
	}
	from, ok := s.Blocks[b]
	if !ok {
		return nil, &InvalidBlockError{Block: b}
	}
	dev, ok := s.Devices[from]
	if !ok {
		return nil, &InvalidDeviceError{Disk: from}
	}

	until, ok := s.admit(dev, now, model.Read)
	if !ok {
		return []model.Event{
			model.StorageEvent(dev.CanRequeueAt, model.ProcessMsg(model.Step{Kind: model.MoveInit, Block: b, Disk: to})),
		}, nil
	}
	s.BlocksOnHold[b] = until

	return []model.Event{
		model.StorageEvent(until, model.ProcessMsg(model.Step{Kind: model.MoveReadFinished, Block: b, Disk: to})),
	}, nil
}

// processMoveReadFinished reassigns b's home to to and admits the
// write-back that completes the migration. from != to guards the
// reassignment and source-queue decrement so that a redelivery of this
// same step (because the write-back had to be deferred for a full
// destination queue) does not double-apply them.
func (s *Stack) processMoveReadFinished(b model.Block, to model.DiskId, now int64) ([]model.Event, error) {
	from, ok := s.Blocks[b]
	if !ok {
		return nil, &InvalidBlockError{Block: b}
	}
	if from != to {
		srcDev, ok := s.Devices[from]
		if !ok {
			return nil, &InvalidDeviceError{Disk: from}
		}
		srcDev.CurrentQueueLen--
		s.Blocks[b] = to
	}

	destDev, ok := s.Devices[to]
	if !ok {
		return nil, &InvalidDeviceError{Disk: to}
	}

	until, ok := s.admit(destDev, now, model.Write)
	if !ok {
		return []model.Event{
			model.StorageEvent(destDev.CanRequeueAt, model.ProcessMsg(model.Step{Kind: model.MoveReadFinished, Block: b, Disk: to})),
		}, nil
	}
	s.BlocksOnHold[b] = until

	return []model.Event{
		model.StorageEvent(until, model.ProcessMsg(model.Step{Kind: model.MoveWriteFinished, Block: b})),
	}, nil
}

func (s *Stack) processMoveWriteFinished(b model.Block, now int64) ([]model.Event, error) {
	to, ok := s.Blocks[b]
	if !ok {
		return nil, &InvalidBlockError{Block: b}
	}
	destDev, ok := s.Devices[to]
	if !ok {
		return nil, &InvalidDeviceError{Disk: to}
	}
	destDev.CurrentQueueLen--
	delete(s.BlocksOnHold, b)
	return nil, nil
}
