package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiersim/blocksim/internal/model"
)

func TestCache_GetMiss_FetchesFromStorage(t *testing.T) {
	c := New(NewLRU(4), 4)
	events := c.Process(model.GetMsg(1), 0)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventStorage, events[0].Kind)
	assert.Equal(t, model.StorageInit, events[0].Storage.Kind)
	assert.Equal(t, model.Read, events[0].Storage.Access.Kind)
	assert.True(t, c.InFetch[1])
}

func TestCache_GetHit_EmitsApplicationRead(t *testing.T) {
	c := New(NewLRU(4), 4)
	c.Algorithm.Put(1)

	events := c.Process(model.GetMsg(1), 10)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventApplication, events[0].Kind)
	assert.Equal(t, model.Read, events[0].Application.Kind)
}

func TestCache_DuplicateGetWhileFetching_Coalesces(t *testing.T) {
	c := New(NewLRU(4), 4)
	c.Process(model.GetMsg(1), 0)

	events := c.Process(model.GetMsg(1), 1)
	assert.Empty(t, events, "a second Get for a block already being fetched emits no I/O")
	assert.Len(t, c.QueueCompletion[1], 2)
}

func TestCache_ReadFinished_ReleasesAllWaiters(t *testing.T) {
	c := New(NewLRU(4), 4)
	c.Process(model.GetMsg(1), 0)
	c.Process(model.GetMsg(1), 1)

	events := c.Process(model.ReadFinishedMsg(1), 5)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, model.EventApplication, e.Kind)
		assert.Equal(t, model.Block(1), e.Application.Block)
	}
	assert.False(t, c.InFetch[1])
	assert.True(t, c.Algorithm.Get(1), "block must be resident after its fetch completes")
}

func TestCache_FullCapacity_TriggersEviction(t *testing.T) {
	c := New(NewLRU(1), 1)
	c.Algorithm.Put(1)

	events := c.Process(model.GetMsg(2), 0)
	require.Len(t, events, 1)
	assert.Equal(t, model.Write, events[0].Storage.Access.Kind, "eviction writes the victim back first")
	assert.Equal(t, model.Block(1), events[0].Storage.Access.Block)
	assert.True(t, c.InEviction[1])
	assert.Len(t, c.QueueEviction, 1, "the original Get waits behind the eviction")
}

func TestCache_WriteFinished_DrainsQueuedEviction(t *testing.T) {
	c := New(NewLRU(1), 1)
	c.Algorithm.Put(1)
	c.Process(model.GetMsg(2), 0)

	events := c.Process(model.WriteFinishedMsg(1), 10)
	require.Len(t, events, 1, "draining the queued Get for block 2 now fetches it")
	assert.Equal(t, model.StorageInit, events[0].Storage.Kind)
	assert.Equal(t, model.Block(2), events[0].Storage.Access.Block)
	assert.False(t, c.InEviction[1])
}

func TestCache_Bypass_Noop(t *testing.T) {
	c := New(NewNoop(), 0)

	events := c.Process(model.GetMsg(1), 0)
	require.Len(t, events, 1)
	assert.Equal(t, model.StorageInit, events[0].Storage.Kind)
	assert.Equal(t, model.Read, events[0].Storage.Access.Kind)

	events = c.Process(model.ReadFinishedMsg(1), 5)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventApplication, events[0].Kind)
}

func TestCache_Clear_WritesBackResidentBlocks(t *testing.T) {
	c := New(NewFIFO(4), 4)
	c.Algorithm.Put(1)
	c.Algorithm.Put(2)

	events := c.Clear(100)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, model.StorageInit, e.Storage.Kind)
		assert.Equal(t, model.Write, e.Storage.Access.Kind)
		assert.Equal(t, int64(100), e.Time)
	}
}

// Capacity-2 LRU over the access sequence Get(1), Get(2), Get(3),
// Get(1): the third Get evicts block 1, making the fourth a miss, for
// four storage reads in total.
func TestCache_LRUCapacityTwo_SequenceEvictsAndRefetches(t *testing.T) {
	c := New(NewLRU(2), 2)
	storageReads := 0

	step := func(b model.Block) {
		for _, e := range c.Process(model.GetMsg(b), 0) {
			if e.Kind == model.EventStorage && e.Storage.Access.Kind == model.Read {
				storageReads++
				c.Process(model.ReadFinishedMsg(e.Storage.Access.Block), 0)
			}
			if e.Kind == model.EventStorage && e.Storage.Access.Kind == model.Write {
				// eviction write-back lands, releasing the deferred Get
				for _, e2 := range c.Process(model.WriteFinishedMsg(e.Storage.Access.Block), 0) {
					if e2.Kind == model.EventStorage && e2.Storage.Access.Kind == model.Read {
						storageReads++
						c.Process(model.ReadFinishedMsg(e2.Storage.Access.Block), 0)
					}
				}
			}
		}
	}

	step(1)
	step(2)
	step(3) // evicts 1
	assert.False(t, c.Algorithm.Get(1), "block 1 must have been evicted by the third Get")
	step(1) // miss again
	assert.Equal(t, 4, storageReads)
}

func TestFIFO_EvictsOldestFirst(t *testing.T) {
	f := NewFIFO(3)
	f.Put(1)
	f.Put(2)
	f.Put(3)

	v, ok := f.Evict()
	require.True(t, ok)
	assert.Equal(t, model.Block(1), v)
}

func TestLRU_GetPromotesToFront(t *testing.T) {
	l := NewLRU(3)
	l.Put(1)
	l.Put(2)
	l.Put(3)

	assert.True(t, l.Get(1), "1 is now most-recently-used")
	v, ok := l.Evict()
	require.True(t, ok)
	assert.Equal(t, model.Block(2), v, "2 is now the least-recently-used")
}
