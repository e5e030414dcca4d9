package placement

import "github.com/tiersim/blocksim/internal/model"

// freqQueue is a disk's double-ended priority queue keyed by block,
// priority = observed access frequency. Implemented as a linear scan
// over a map rather than a heap-of-heaps: migration passes run once
// per policy interval over a handful of disks, so an O(n) peek/pop is
// cheap and the bookkeeping stays trivial.
type freqQueue struct {
	priority map[model.Block]float64
}

func newFreqQueue() *freqQueue {
	return &freqQueue{priority: make(map[model.Block]float64)}
}

func (q *freqQueue) len() int { return len(q.priority) }

// increment bumps b's priority by delta, initializing it to delta if
// b was not already tracked.
func (q *freqQueue) increment(b model.Block, delta float64) {
	q.priority[b] += delta
}

// push inserts b with an explicit priority, used when a block arrives
// via migration and should carry its prior frequency with it.
func (q *freqQueue) push(b model.Block, p float64) {
	q.priority[b] = p
}

func (q *freqQueue) remove(b model.Block) {
	delete(q.priority, b)
}

// peekMax returns the highest-priority block without removing it.
func (q *freqQueue) peekMax() (model.Block, float64, bool) {
	var best model.Block
	var bestP float64
	found := false
	for b, p := range q.priority {
		if !found || p > bestP || (p == bestP && b < best) {
			best, bestP, found = b, p, true
		}
	}
	return best, bestP, found
}

// peekMin returns the lowest-priority block without removing it.
func (q *freqQueue) peekMin() (model.Block, float64, bool) {
	var best model.Block
	var bestP float64
	found := false
	for b, p := range q.priority {
		if !found || p < bestP || (p == bestP && b < best) {
			best, bestP, found = b, p, true
		}
	}
	return best, bestP, found
}

func (q *freqQueue) decayAll(decay float64) {
	factor := 1 - decay
	for b := range q.priority {
		q.priority[b] *= factor
	}
}
