package epiabm

import "github.com/pkg/errors"

// Progression maps a PropertyChangeEvent into the next (value, delay)
// pair for that same property, or ok=false if there is no further
// transition (§3 Progression<T>).
type Progression interface {
	Next(event PropertyChangeEvent) (next Value, delay float64, ok bool)
}

// ProgressionFunc adapts a plain function to the Progression interface.
type ProgressionFunc func(event PropertyChangeEvent) (Value, float64, bool)

func (f ProgressionFunc) Next(event PropertyChangeEvent) (Value, float64, bool) {
	return f(event)
}

// IDAssigner picks which of the registered progressions for a property
// applies to a given person. Returning the same index for two different
// properties' assigners is how scenarios correlate progressions (e.g.
// symptom-progression id == rate-function id, §8 scenario 5).
type IDAssigner func(p PersonID) int

type progressionTypeState struct {
	progressions []Progression
	assigner     IDAssigner
	materialized map[PersonID]int
	subscribed   bool
}

// ProgressionEngine drives Markovian property transitions: on every
// PropertyChangeEvent<T> it picks one registered progression for T
// (uniformly, unless an IDAssigner was registered) and, if it returns a
// next value, schedules set_property at now+delay (§4.6).
type ProgressionEngine struct {
	scheduler *Scheduler
	store     *PersonStore
	bus       *EventBus
	rng       *RngStreams

	perType map[PropertyType]*progressionTypeState
}

// NewProgressionEngine wires a ProgressionEngine to the simulation's
// shared scheduler, person store, event bus, and RNG streams.
func NewProgressionEngine(scheduler *Scheduler, store *PersonStore, bus *EventBus, rng *RngStreams) *ProgressionEngine {
	return &ProgressionEngine{
		scheduler: scheduler,
		store:     store,
		bus:       bus,
		rng:       rng,
		perType:   make(map[PropertyType]*progressionTypeState),
	}
}

func (e *ProgressionEngine) stateFor(t PropertyType) *progressionTypeState {
	s, ok := e.perType[t]
	if !ok {
		s = &progressionTypeState{materialized: make(map[PersonID]int)}
		e.perType[t] = s
	}
	return s
}

// RegisterProgression adds progression to the list for property t. On
// the first registration for t, the engine subscribes to
// PropertyChangeEvent<t> on the bus.
func (e *ProgressionEngine) RegisterProgression(t PropertyType, progression Progression) {
	state := e.stateFor(t)
	state.progressions = append(state.progressions, progression)
	if !state.subscribed {
		state.subscribed = true
		e.bus.SubscribePropertyChange(func(event PropertyChangeEvent) {
			if event.Property != t {
				return
			}
			e.handle(t, event)
		})
	}
}

// RegisterIDAssigner installs a deterministic id assigner for property
// t, replacing the default uniform-random choice. Registering a second
// assigner for the same property, or registering one after any id has
// already been materialized for t, is a domain-rule error (§4.6, §9's
// natural_history_manager/natural_history_parameters_manager note).
func (e *ProgressionEngine) RegisterIDAssigner(t PropertyType, assigner IDAssigner) error {
	state := e.stateFor(t)
	if state.assigner != nil {
		return errors.Errorf(DuplicateProgressionAssignerError, t)
	}
	if len(state.materialized) > 0 {
		return errors.Errorf(AssignerAfterMaterializationError, t)
	}
	state.assigner = assigner
	return nil
}

// idFor returns the progression index assigned to p for property t,
// materializing (and caching) it on first access.
func (e *ProgressionEngine) idFor(t PropertyType, p PersonID) int {
	state := e.stateFor(t)
	if id, ok := state.materialized[p]; ok {
		return id
	}
	var id int
	if state.assigner != nil {
		id = state.assigner(p)
	} else if n := len(state.progressions); n > 0 {
		id = e.rng.Stream(ProgressionRng).Intn(n)
	}
	state.materialized[p] = id
	return id
}

func (e *ProgressionEngine) handle(t PropertyType, event PropertyChangeEvent) {
	state := e.stateFor(t)
	if len(state.progressions) == 0 {
		return
	}
	id := e.idFor(t, event.Person)
	if id < 0 || id >= len(state.progressions) {
		id = 0
	}
	next, delay, ok := state.progressions[id].Next(event)
	if !ok {
		return
	}
	if delay < 0 {
		delay = 0
	}
	person := event.Person
	e.scheduler.AddPlan(e.scheduler.Now()+delay, func(ctx *Context) {
		ctx.People.Set(person, t, next) //nolint:errcheck // progression-scheduled sets are always well-typed
	})
}
