package epiabm

import (
	"container/heap"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

// Scheduler is the discrete-event core: a priority queue of Plans, a
// monotonically non-decreasing clock, and Normal/Last phase ordering at
// equal fire times. It never runs a callback concurrently with another;
// §5 mandates a single cooperative loop.
type Scheduler struct {
	queue    planQueue
	byID     map[ksuid.KSUID]*planItem
	now      float64
	maxTime  float64
	seq      uint64
	shutdown bool
}

// NewScheduler returns a Scheduler that stops execution once the clock
// would advance past maxTime.
func NewScheduler(maxTime float64) *Scheduler {
	s := &Scheduler{
		byID:    make(map[ksuid.KSUID]*planItem),
		maxTime: maxTime,
	}
	heap.Init(&s.queue)
	return s
}

// Now returns the current simulation time.
func (s *Scheduler) Now() float64 {
	return s.now
}

// MaxTime returns the configured cutoff time.
func (s *Scheduler) MaxTime() float64 {
	return s.maxTime
}

// AddPlan schedules callback to run at time t in the Normal phase. t
// must be >= Now().
func (s *Scheduler) AddPlan(t float64, callback Callback) (PlanHandle, error) {
	return s.AddPlanPhase(t, callback, Normal)
}

// AddPlanPhase schedules callback to run at time t in the given phase.
func (s *Scheduler) AddPlanPhase(t float64, callback Callback, phase PlanPhase) (PlanHandle, error) {
	if t < s.now {
		return PlanHandle{}, errors.Errorf("cannot schedule plan at t=%f before now=%f", t, s.now)
	}
	id := ksuid.New()
	item := &planItem{
		id:       id,
		fireTime: t,
		phase:    phase,
		seq:      s.seq,
		callback: callback,
	}
	s.seq++
	heap.Push(&s.queue, item)
	s.byID[id] = item
	return PlanHandle{id: id}, nil
}

// AddPeriodic schedules callback to run every period time units,
// starting at Now()+period, reinserting itself after every firing until
// the next firing would pass MaxTime or the returned handle is passed
// to Cancel.
func (s *Scheduler) AddPeriodic(phase PlanPhase, period float64, callback Callback) PlanHandle {
	cancelled := new(bool)
	var self func(ctx *Context)
	self = func(ctx *Context) {
		if *cancelled {
			return
		}
		callback(ctx)
		if *cancelled {
			return
		}
		next := s.now + period
		if next > s.maxTime {
			return
		}
		s.AddPlanPhase(next, self, phase) //nolint:errcheck // t is always >= now by construction
	}
	handle, _ := s.AddPlanPhase(s.now+period, self, phase)
	handle.series = cancelled
	return handle
}

// Cancel marks a previously scheduled plan as cancelled; it will be
// skipped when popped. For a periodic plan's handle, it also stops all
// future reinsertions. Cancelling an already-fired or unknown handle is
// a no-op.
func (s *Scheduler) Cancel(handle PlanHandle) {
	if item, ok := s.byID[handle.id]; ok {
		item.cancelled = true
	}
	if handle.series != nil {
		*handle.series = true
	}
}

// Shutdown requests the main loop to stop before popping the next plan.
// The currently executing callback (if any) still runs to completion.
func (s *Scheduler) Shutdown() {
	s.shutdown = true
}

// IsEmpty reports whether the queue has no pending (possibly cancelled)
// plans.
func (s *Scheduler) IsEmpty() bool {
	return s.queue.Len() == 0
}

// Execute pops plans in (time, phase, insertion-order) order, advancing
// Now to each plan's fire time and invoking its callback unless it was
// cancelled, until the queue empties, Shutdown was requested, or the
// next plan's time exceeds MaxTime.
func (s *Scheduler) Execute(ctx *Context) {
	for {
		if s.shutdown || s.queue.Len() == 0 {
			return
		}
		next := s.queue[0]
		if next.fireTime > s.maxTime {
			return
		}
		heap.Pop(&s.queue)
		delete(s.byID, next.id)
		if next.cancelled {
			continue
		}
		s.now = next.fireTime
		next.callback(ctx)
	}
}
