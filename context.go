package epiabm

// Context is the single object that owns every piece of simulation
// state; per §5 all mutation happens through its (or its sub-objects')
// methods, and no plan or subscriber ever runs concurrently with
// another.
type Context struct {
	Scheduler    *Scheduler
	Bus          *EventBus
	People       *PersonStore
	Settings     *SettingsManager
	Modifiers    *ModifierRegistry
	Progressions *ProgressionEngine
	Forecaster   *Forecaster
	Rng          *RngStreams
	Counters     *Counters
	Params       *Parameters
}

// NewContext wires together a fresh Scheduler, EventBus, PersonStore,
// SettingsManager, ModifierRegistry, ProgressionEngine and RngStreams
// rooted at params.Seed, but leaves Forecaster nil — callers attach it
// with SetForecaster once the rate-function library is ready, since the
// forecaster needs the fully-wired Context to read settings/modifiers.
func NewContext(params *Parameters) *Context {
	bus := NewEventBus()
	store := NewPersonStore(bus)
	ctx := &Context{
		Scheduler: NewScheduler(params.MaxTime),
		Bus:       bus,
		People:    store,
		Settings:  NewSettingsManager(store),
		Modifiers: NewModifierRegistry(store),
		Rng:       NewRngStreams(params.Seed),
		Counters:  NewCounters(),
		Params:    params,
	}
	ctx.Progressions = NewProgressionEngine(ctx.Scheduler, ctx.People, ctx.Bus, ctx.Rng)
	return ctx
}

// SetForecaster attaches the forecaster and subscribes it to
// InfectionStatus changes, so any transition to Infectious (whether
// from seeding or from a prior forecast's accepted contact) starts that
// person's own forecast chain.
func (ctx *Context) SetForecaster(f *Forecaster) {
	ctx.Forecaster = f
	ctx.Bus.SubscribePropertyChange(func(event PropertyChangeEvent) {
		if event.Property != InfectionStatusProperty {
			return
		}
		if status, ok := event.Current.(InfectionStatus); ok && status == Infectious {
			f.onInfection(ctx, event.Person)
		}
	})
}

// Run executes the scheduler's event loop to completion (empty queue,
// shutdown, or max_time reached).
func (ctx *Context) Run() {
	ctx.Scheduler.Execute(ctx)
}
