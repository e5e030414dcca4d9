package cache

import "github.com/tiersim/blocksim/internal/model"

// node is one entry of the residency doubly linked list. LRU keeps it
// ordered from most-recently-used (head) to least-recently-used
// (tail); FIFO keeps it ordered from oldest (head) to newest (tail).
// Explicit prev/next fields keep the map index and the list entry in
// one allocation, instead of pairing container/list elements with a
// separate lookup structure.
type node struct {
	block      model.Block
	prev, next *node
}

type orderedList struct {
	head, tail *node
	index      map[model.Block]*node
	capacity   int
}

func newOrderedList(capacity int) *orderedList {
	return &orderedList{index: make(map[model.Block]*node), capacity: capacity}
}

func (l *orderedList) pushFront(b model.Block) {
	n := &node{block: b}
	l.index[b] = n
	if l.head == nil {
		l.head, l.tail = n, n
		return
	}
	n.next = l.head
	l.head.prev = n
	l.head = n
}

func (l *orderedList) pushBack(b model.Block) {
	n := &node{block: b}
	l.index[b] = n
	if l.tail == nil {
		l.head, l.tail = n, n
		return
	}
	n.prev = l.tail
	l.tail.next = n
	l.tail = n
}

func (l *orderedList) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	delete(l.index, n.block)
}

func (l *orderedList) moveToFront(n *node) {
	if l.head == n {
		return
	}
	l.remove(n)
	l.index[n.block] = n
	n.prev, n.next = nil, l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *orderedList) len() int { return len(l.index) }

// popBack removes and returns the tail, which is LRU's eviction
// victim. FIFO evicts from the head instead (see FIFO.Evict).
func (l *orderedList) popBack() (model.Block, bool) {
	if l.tail == nil {
		return 0, false
	}
	b := l.tail.block
	l.remove(l.tail)
	return b, true
}

func (l *orderedList) clear() []model.Block {
	out := make([]model.Block, 0, len(l.index))
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.block)
	}
	l.head, l.tail = nil, nil
	l.index = make(map[model.Block]*node)
	return out
}

// LRU evicts the least-recently-used block: get moves the accessed
// block to the front, put inserts new blocks at the front, and evict
// removes the tail.
type LRU struct {
	list     *orderedList
	capacity int
}

func NewLRU(capacity int) *LRU {
	return &LRU{list: newOrderedList(capacity), capacity: capacity}
}

func (c *LRU) Get(b model.Block) bool {
	n, ok := c.list.index[b]
	if !ok {
		return false
	}
	c.list.moveToFront(n)
	return true
}

func (c *LRU) Put(b model.Block) {
	if n, ok := c.list.index[b]; ok {
		c.list.moveToFront(n)
		return
	}
	c.list.pushFront(b)
}

func (c *LRU) Evict() (model.Block, bool) { return c.list.popBack() }
func (c *LRU) Len() int                   { return c.list.len() }
func (c *LRU) Capacity() int              { return c.capacity }
func (c *LRU) Clear() []model.Block       { return c.list.clear() }
