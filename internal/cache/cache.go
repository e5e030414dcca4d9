package cache

import "github.com/tiersim/blocksim/internal/model"

// Cache is the policy-agnostic meta-layer around a pluggable
// Algorithm: it tracks in-flight fetches and evictions, coalesces
// duplicate work, and gates completions on eviction write-backs.
type Cache struct {
	Algorithm Algorithm
	Capacity  int

	InFetch    map[model.Block]bool
	InEviction map[model.Block]bool

	// QueueCompletion holds Get messages waiting on an in-flight fetch
	// for the same block, keyed by block so every waiter is released
	// together once the fetch lands.
	QueueCompletion map[model.Block][]model.CacheMsg
	// QueueEviction holds Get/Put messages deferred behind eviction,
	// drained one at a time as eviction slots free up.
	QueueEviction []model.CacheMsg
}

func New(algo Algorithm, capacity int) *Cache {
	return &Cache{
		Algorithm:       algo,
		Capacity:        capacity,
		InFetch:         make(map[model.Block]bool),
		InEviction:      make(map[model.Block]bool),
		QueueCompletion: make(map[model.Block][]model.CacheMsg),
	}
}

func (c *Cache) bypass() bool { return c.Capacity == 0 }

func (c *Cache) occupied() int {
	return c.Algorithm.Len() + len(c.InEviction) + len(c.InFetch)
}

// drainEviction pops one deferred message, if any, and reprocesses it
// now that an eviction slot or fetch slot may have freed up.
func (c *Cache) drainEviction(now int64) []model.Event {
	if len(c.QueueEviction) == 0 {
		return nil
	}
	msg := c.QueueEviction[0]
	c.QueueEviction = c.QueueEviction[1:]
	return c.Process(msg, now)
}

// Process advances the cache manager in response to msg.
func (c *Cache) Process(msg model.CacheMsg, now int64) []model.Event {
	switch msg.Kind {
	case model.CacheGet:
		return c.processGet(msg.Block, now)
	case model.CachePut:
		return c.processPut(msg.Block, now)
	case model.CacheReadFinished:
		return c.processReadFinished(msg.Block, now)
	case model.CacheWriteFinished:
		return c.processWriteFinished(msg.Block, now)
	default:
		return nil
	}
}

func (c *Cache) processGet(b model.Block, now int64) []model.Event {
	if c.Algorithm.Get(b) {
		events := []model.Event{model.ApplicationEvent(now, model.ReadAccess(b))}
		return append(events, c.drainEviction(now)...)
	}

	if c.InFetch[b] {
		c.QueueCompletion[b] = append(c.QueueCompletion[b], model.GetMsg(b))
		return nil
	}

	if c.occupied()+1 > c.Capacity {
		if !c.bypass() {
			c.QueueEviction = append(c.QueueEviction, model.GetMsg(b))
		}
		return c.evict(model.ReadAccess(b), now)
	}

	c.InFetch[b] = true
	c.QueueCompletion[b] = append(c.QueueCompletion[b], model.GetMsg(b))
	return []model.Event{model.StorageEvent(now, model.InitMsg(model.ReadAccess(b)))}
}

func (c *Cache) processPut(b model.Block, now int64) []model.Event {
	if c.occupied()+1 > c.Capacity {
		if !c.bypass() {
			c.QueueEviction = append(c.QueueEviction, model.PutMsg(b))
		}
		return c.evict(model.WriteAccess(b), now)
	}

	c.Algorithm.Put(b)
	events := []model.Event{model.ApplicationEvent(now, model.WriteAccess(b))}
	return append(events, c.drainEviction(now)...)
}

// evict invokes the algorithm's victim selection on behalf of a
// blocked Get or Put, emitting the write-back for a chosen victim or
// bypassing straight to storage in capacity-zero (Noop) mode. Callers
// must not enqueue onto QueueEviction in the bypass case: bypass never
// populates InEviction, so drainEviction is never reached for it and
// anything queued there would sit forever.
func (c *Cache) evict(access model.Access, now int64) []model.Event {
	if c.bypass() {
		return []model.Event{model.StorageEvent(now, model.InitMsg(access))}
	}

	victim, ok := c.Algorithm.Evict()
	if !ok {
		return nil
	}
	c.InEviction[victim] = true
	return []model.Event{model.StorageEvent(now, model.InitMsg(model.WriteAccess(victim)))}
}

func (c *Cache) processReadFinished(b model.Block, now int64) []model.Event {
	if c.bypass() {
		return []model.Event{model.ApplicationEvent(now, model.ReadAccess(b))}
	}

	delete(c.InFetch, b)
	c.Algorithm.Put(b)

	var events []model.Event
	for range c.QueueCompletion[b] {
		events = append(events, model.ApplicationEvent(now, model.ReadAccess(b)))
	}
	delete(c.QueueCompletion, b)

	return append(events, c.drainEviction(now)...)
}

func (c *Cache) processWriteFinished(b model.Block, now int64) []model.Event {
	if c.bypass() {
		return []model.Event{model.ApplicationEvent(now, model.WriteAccess(b))}
	}

	delete(c.InEviction, b)
	return c.drainEviction(now)
}

// Clear writes every resident block out to storage, for use at the
// end of a simulation run.
func (c *Cache) Clear(now int64) []model.Event {
	blocks := c.Algorithm.Clear()
	events := make([]model.Event, 0, len(blocks))
	for _, b := range blocks {
		events = append(events, model.StorageEvent(now, model.InitMsg(model.WriteAccess(b))))
	}
	return events
}
