package epiabm

import "github.com/segmentio/ksuid"

// PlanPhase orders plans that share the same fire time. Normal-phase
// plans at a given time always run before Last-phase plans at that same
// time, regardless of insertion order between phases.
type PlanPhase int

const (
	// Normal is the default phase for scheduled plans.
	Normal PlanPhase = iota
	// Last runs strictly after every Normal-phase plan at the same time.
	Last
)

// Callback is the unit of work a Plan executes when it fires. It
// receives the Context so it can read/mutate state and schedule more
// plans.
type Callback func(ctx *Context)

// PlanHandle is an opaque reference returned by AddPlan, used only to
// Cancel the plan later. A periodic plan's handle also carries a shared
// series-cancellation flag so Cancel stops future reinsertions, not just
// the currently queued occurrence.
type PlanHandle struct {
	id     ksuid.KSUID
	series *bool
}

// planItem is the heap element. fireTime and phase determine pop order;
// seq breaks ties deterministically (FIFO within a phase).
type planItem struct {
	id        ksuid.KSUID
	fireTime  float64
	phase     PlanPhase
	seq       uint64
	callback  Callback
	cancelled bool
	index     int // heap.Interface bookkeeping
}

// planQueue implements container/heap.Interface, ordered by
// (fireTime, phase, seq).
type planQueue []*planItem

func (q planQueue) Len() int { return len(q) }

func (q planQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.fireTime != b.fireTime {
		return a.fireTime < b.fireTime
	}
	if a.phase != b.phase {
		return a.phase < b.phase
	}
	return a.seq < b.seq
}

func (q planQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *planQueue) Push(x interface{}) {
	item := x.(*planItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *planQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}
