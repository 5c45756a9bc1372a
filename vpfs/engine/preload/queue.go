// Package preload implements the background decode pipeline: a priority
// queue ordered by distance from the current index and a bounded worker
// pool that services it. The queue holds scheduling metadata only, never
// payloads.
package preload

import (
	"container/heap"
	"context"
	"sync/atomic"

	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/collection"
	"github.com/ZanzyTHEbar/virtual-photofs/vpfs/decode"
)

// ImmediatePriority sorts ahead of every background preload, guaranteeing
// the visible photo is never starved by speculative work.
const ImmediatePriority = -1

// Token is the cooperative cancellation handle shared between the loader
// and a decode worker. Workers observe it at dequeue time and again after
// decode; the loader uses pointer identity to drop late results from
// superseded attempts.
type Token struct {
	cancelled atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewToken derives a cancellable token from parent.
func NewToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Cancel signals the worker to abandon without completing.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Cancelled reports whether the token has been signalled.
func (t *Token) Cancelled() bool { return t.cancelled.Load() }

// Context returns the context a worker should decode under.
func (t *Token) Context() context.Context { return t.ctx }

// Task is one scheduled decode. It lives only while queued or in flight;
// removed on completion, cancellation, or failure.
type Task struct {
	Ref      collection.PhotoRef
	Priority int // distance from current index; ImmediatePriority jumps the queue
	Forward  bool
	Token    *Token

	seq   uint64
	index int // heap index, -1 once popped or removed
}

// Result is a worker's report back to the loader.
type Result struct {
	Task      *Task
	Payload   *decode.Payload
	Meta      *decode.Metadata
	Err       error
	Cancelled bool
}

// Queue is a priority queue keyed by (priority, direction, insertion
// order). Lowest priority value pops first; ties at equal distance break
// forward (ascending index) first. Owner-confined: mutated only on the
// loader goroutine.
type Queue struct {
	heap    taskHeap
	byOrd   map[int]*Task
	nextSeq uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{byOrd: make(map[int]*Task)}
}

// Push enqueues a task. Any previously queued task for the same ordinal is
// replaced (its token is not cancelled; the caller owns that decision).
func (q *Queue) Push(t *Task) {
	if old, ok := q.byOrd[t.Ref.Ordinal]; ok {
		q.removeTask(old)
	}
	t.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.heap, t)
	q.byOrd[t.Ref.Ordinal] = t
}

// Pop removes and returns the closest task, or nil if empty.
func (q *Queue) Pop() *Task {
	if q.heap.Len() == 0 {
		return nil
	}
	t := heap.Pop(&q.heap).(*Task)
	delete(q.byOrd, t.Ref.Ordinal)
	return t
}

// Remove drops the queued task for ordinal, returning it so the caller can
// reset its load state. In-flight tasks are not tracked here.
func (q *Queue) Remove(ordinal int) *Task {
	t, ok := q.byOrd[ordinal]
	if !ok {
		return nil
	}
	q.removeTask(t)
	return t
}

// Contains reports whether a task for ordinal is queued.
func (q *Queue) Contains(ordinal int) bool {
	_, ok := q.byOrd[ordinal]
	return ok
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int { return q.heap.Len() }

// Ordinals returns the ordinals of all queued tasks, in no particular order.
func (q *Queue) Ordinals() []int {
	out := make([]int, 0, len(q.byOrd))
	for ord := range q.byOrd {
		out = append(out, ord)
	}
	return out
}

// Clear drops every queued task and returns them.
func (q *Queue) Clear() []*Task {
	out := make([]*Task, 0, q.heap.Len())
	for q.heap.Len() > 0 {
		out = append(out, q.Pop())
	}
	return out
}

func (q *Queue) removeTask(t *Task) {
	heap.Remove(&q.heap, t.index)
	delete(q.byOrd, t.Ref.Ordinal)
}

// taskHeap implements heap.Interface over pending tasks.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	// Equal distance on both sides: forward wins, matching the predominant
	// reading direction of sequential navigation.
	if a.Forward != b.Forward {
		return a.Forward
	}
	return a.seq < b.seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
