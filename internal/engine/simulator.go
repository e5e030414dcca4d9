// Package engine wires the cache manager, storage stack, placement
// policy, and workload application into the single-threaded event
// loop, and owns the result-writer handoff at the end of a run.
package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tiersim/blocksim/internal/cache"
	"github.com/tiersim/blocksim/internal/model"
	"github.com/tiersim/blocksim/internal/placement"
	"github.com/tiersim/blocksim/internal/result"
	"github.com/tiersim/blocksim/internal/storage"
	"github.com/tiersim/blocksim/internal/workload"
)

// Simulator is the event-loop core: exactly one consumer of the event
// queue, dispatching synchronously to the component each event names.
// No component blocks or observes wall-clock time during dispatch;
// every wait is a future-dated event.
type Simulator struct {
	now int64

	queue *model.EventQueue

	Stack  *storage.Stack
	Cache  *cache.Cache
	Policy placement.Policy
	App    workload.Application
	Writer *result.Writer

	rng *rand.Rand
}

// New wires the given components into a Simulator. cacheMgr may be
// nil, in which case a zero-capacity Noop cache is used and every
// access goes straight to storage (a bare-bones config without a
// cache section).
func New(stack *storage.Stack, cacheMgr *cache.Cache, policy placement.Policy, app workload.Application, writer *result.Writer, rng *rand.Rand) *Simulator {
	if cacheMgr == nil {
		cacheMgr = cache.New(cache.NewNoop(), 0)
	}
	return &Simulator{
		queue:  model.NewEventQueue(),
		Stack:  stack,
		Cache:  cacheMgr,
		Policy: policy,
		App:    app,
		Writer: writer,
		rng:    rng,
	}
}

// prepare distributes the application's initial block set across
// devices: per block, sort the known disks by name (map iteration
// order is unspecified), shuffle with the seeded RNG, and insert into
// the first one with free capacity. Sort-then-shuffle keeps the
// distribution reproducible from the seed alone.
func (s *Simulator) prepare() {
	disks := s.Stack.DiskIDsSortedByName()

	for _, b := range s.App.Init() {
		order := make([]model.DiskId, len(disks))
		copy(order, disks)
		s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		placed := false
		for _, d := range order {
			if s.Stack.Insert(b, d) {
				placed = true
				break
			}
		}
		if !placed {
			panic(fmt.Sprintf("engine: no device has capacity for block %d", b))
		}
	}
}

func (s *Simulator) insertAll(events []model.Event) {
	for _, ev := range events {
		s.queue.Insert(ev)
	}
}

// Run executes prepare() and then the main event loop until Terminate
// or event-queue exhaustion, followed by the cache flush and result
// emission. A storage contract violation (InvalidBlock, InvalidDevice,
// BlockIsBusy) aborts the loop; the result writer is still closed so
// partial outputs flush cleanly before the error reaches the caller.
func (s *Simulator) Run() error {
	s.prepare()

	s.insertAll(s.App.Start(0))
	if s.Policy != nil {
		s.insertAll(s.Policy.Init(s.Stack, 0))
	}

	return s.runLoop()
}

// runLoop consumes the event queue until Terminate or exhaustion, then
// flushes the cache and emits final results.
func (s *Simulator) runLoop() error {
	var appResults workload.Results
	var policyResults placement.Results
	if s.Writer != nil {
		appResults = s.Writer.AppBatch
		policyResults = s.Writer.Migration
	}

	var runErr error
	for {
		ev, ok := s.queue.Pop()
		if !ok {
			break
		}
		s.now = ev.Time

		if ev.Kind == model.EventTerminate {
			logrus.Infof("[tick %d] terminating", s.now)
			break
		}

		logrus.Debugf("[tick %d] dispatching %v", s.now, ev.Kind)
		events, err := s.dispatch(ev, appResults, policyResults)
		if err != nil {
			runErr = fmt.Errorf("engine: at tick %d: %w", s.now, err)
			break
		}
		s.insertAll(events)
	}

	if runErr == nil {
		runErr = s.drainClear()
	}
	s.emitResults()
	return runErr
}

// dispatch runs one event through the component it is destined for.
func (s *Simulator) dispatch(ev model.Event, appResults workload.Results, policyResults placement.Results) ([]model.Event, error) {
	switch ev.Kind {
	case model.EventCache:
		if s.Cache == nil {
			return nil, nil
		}
		return s.Cache.Process(ev.Cache, s.now), nil
	case model.EventStorage:
		return s.Stack.Process(ev.Storage, s.now)
	case model.EventApplication:
		return s.App.Done(ev.Application, s.now, appResults), nil
	case model.EventPlacement:
		if s.Policy == nil {
			return nil, nil
		}
		return s.Policy.Update(ev.Placement, s.Stack, s.now, policyResults), nil
	default:
		return nil, nil
	}
}

// drainClear flushes the cache manager's remaining residents to
// storage after Terminate, advancing the clock past every resulting
// non-Placement event while discarding Placement events: the policy's
// migration schedule has no bearing on a simulation that is already
// winding down.
func (s *Simulator) drainClear() error {
	if s.Cache == nil {
		return nil
	}
	s.insertAll(s.Cache.Clear(s.now))

	for {
		ev, ok := s.queue.Pop()
		if !ok {
			return nil
		}
		if ev.Kind == model.EventPlacement || ev.Kind == model.EventTerminate {
			continue
		}
		s.now = ev.Time
		events, err := s.dispatch(ev, nil, nil)
		if err != nil {
			return fmt.Errorf("engine: draining at tick %d: %w", s.now, err)
		}
		s.insertAll(events)
	}
}

func (s *Simulator) emitResults() {
	if s.Writer == nil {
		return
	}

	ids := make([]model.DiskId, 0, len(s.Stack.Devices))
	for id := range s.Stack.Devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		dev := s.Stack.Devices[id]
		s.Writer.Device <- result.DeviceRecord{
			ID:             int(id),
			TotalRequests:  dev.TotalReq,
			AvgLatencyNs:   dev.AvgLatencyNs(),
			MaxLatencyNs:   dev.MaxQ,
			IdlePercentage: dev.IdlePercentage(s.now),
		}
	}

	s.Writer.Simulator <- result.SimulatorRecord{RuntimeSeconds: float64(s.now) / 1e9}
	s.Writer.Close()
}
