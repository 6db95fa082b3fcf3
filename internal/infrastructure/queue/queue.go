package queue

import (
	"container/heap"
	"sync"

	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
)

// Queue is a concurrent priority queue of work units. Higher priority pops
// first; equal priorities pop in insertion order. Pop blocks until a unit
// is available or the queue is closed.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  unitHeap
	seq    uint64
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push adds a unit; it reports false if the queue is closed
func (q *Queue) Push(unit *syncdomain.WorkUnit) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.seq++
	heap.Push(&q.items, &queuedUnit{unit: unit, seq: q.seq})
	q.cond.Signal()
	return true
}

// Pop removes the highest-priority unit, blocking while the queue is empty.
// It returns false once the queue is closed and drained.
func (q *Queue) Pop() (*syncdomain.WorkUnit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	item := heap.Pop(&q.items).(*queuedUnit)
	return item.unit, true
}

// Close stops accepting units and unblocks waiting consumers once the
// remaining units are drained
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued units
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type queuedUnit struct {
	unit *syncdomain.WorkUnit
	seq  uint64
}

type unitHeap []*queuedUnit

func (h unitHeap) Len() int { return len(h) }

func (h unitHeap) Less(i, j int) bool {
	if h[i].unit.Priority != h[j].unit.Priority {
		return h[i].unit.Priority > h[j].unit.Priority
	}
	return h[i].seq < h[j].seq
}

func (h unitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *unitHeap) Push(x any) { *h = append(*h, x.(*queuedUnit)) }

func (h *unitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
