package cache

import "github.com/tiersim/blocksim/internal/model"

// FIFO evicts in strict insertion order: get never reorders, put of a
// new block appends at the back, and evict removes the front.
type FIFO struct {
	list     *orderedList
	capacity int
}

func NewFIFO(capacity int) *FIFO {
	return &FIFO{list: newOrderedList(capacity), capacity: capacity}
}

func (c *FIFO) Get(b model.Block) bool {
	_, ok := c.list.index[b]
	return ok
}

func (c *FIFO) Put(b model.Block) {
	if _, ok := c.list.index[b]; ok {
		return
	}
	c.list.pushBack(b)
}

// Evict removes the oldest (front) block: FIFO appends new blocks at
// the back via Put, so the head is always the longest-resident entry.
func (c *FIFO) Evict() (model.Block, bool) {
	n := c.list.head
	if n == nil {
		return 0, false
	}
	c.list.remove(n)
	return n.block, true
}

func (c *FIFO) Len() int             { return c.list.len() }
func (c *FIFO) Capacity() int        { return c.capacity }
func (c *FIFO) Clear() []model.Block { return c.list.clear() }
