package model

import "container/heap"

// eventHeap implements heap.Interface ordered purely by Time. Insert
// guarantees every key is unique before it ever reaches the heap, so
// no secondary tie-breaker is needed here (contrast with a plain
// container/heap priority queue, which would need one).
type eventHeap []*Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].Time < h[j].Time }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)         { *h = append(*h, x.(*Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// EventQueue is the simulator's ordered mapping from virtual-time to
// event. Keys are strictly unique: Insert finds the smallest
// non-negative nanosecond offset that is not already occupied and
// schedules the event there, preserving submission order among events
// requested for the same timestamp without needing a stable secondary
// key.
type EventQueue struct {
	heap  eventHeap
	taken map[int64]bool
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{taken: make(map[int64]bool)}
	heap.Init(&q.heap)
	return q
}

// Insert schedules ev at the smallest t' >= ev.Time such that t' is not
// already occupied, mutating ev.Time to the key actually used.
func (q *EventQueue) Insert(ev Event) {
	t := ev.Time
	for q.taken[t] {
		t++
	}
	ev.Time = t
	q.taken[t] = true
	heap.Push(&q.heap, &ev)
}

// Pop removes and returns the event with the smallest scheduled time.
// ok is false when the queue is empty.
func (q *EventQueue) Pop() (ev Event, ok bool) {
	if q.heap.Len() == 0 {
		return Event{}, false
	}
	e := heap.Pop(&q.heap).(*Event)
	delete(q.taken, e.Time)
	return *e, true
}

// Len reports the number of events currently scheduled.
func (q *EventQueue) Len() int { return q.heap.Len() }
