package epiabm

import "testing"

func TestProgressionEngine_SchedulesNextValue(t *testing.T) {
	bus := NewEventBus()
	store := NewPersonStore(bus)
	scheduler := NewScheduler(100)
	rng := NewRngStreams(1)
	engine := NewProgressionEngine(scheduler, store, bus, rng)

	store.Properties.RegisterDefault(SymptomCategoryProperty, NoSymptoms)
	engine.RegisterProgression(SymptomCategoryProperty, ProgressionFunc(func(event PropertyChangeEvent) (Value, float64, bool) {
		if event.Current == Category1 {
			return Category2, 5, true
		}
		return nil, 0, false
	}))

	ctx := &Context{Scheduler: scheduler, Bus: bus, People: store, Rng: rng}
	p, _ := store.AddPerson()
	store.Set(p, SymptomCategoryProperty, Category1)
	scheduler.Execute(ctx)

	v, _ := store.Get(p, SymptomCategoryProperty)
	if v != Category2 {
		t.Errorf("after progression engine ran, symptom category = %v, want Category2", v)
	}
	if scheduler.Now() != 5 {
		t.Errorf("clock after progression fired = %v, want 5", scheduler.Now())
	}
}

func TestProgressionEngine_IDAssignerCorrelation(t *testing.T) {
	bus := NewEventBus()
	store := NewPersonStore(bus)
	scheduler := NewScheduler(100)
	rng := NewRngStreams(1)
	engine := NewProgressionEngine(scheduler, store, bus, rng)

	store.Properties.RegisterDefault(SymptomCategoryProperty, NoSymptoms)
	engine.RegisterProgression(SymptomCategoryProperty, ProgressionFunc(func(event PropertyChangeEvent) (Value, float64, bool) {
		return nil, 0, false
	}))
	engine.RegisterProgression(SymptomCategoryProperty, ProgressionFunc(func(event PropertyChangeEvent) (Value, float64, bool) {
		return nil, 0, false
	}))
	if err := engine.RegisterIDAssigner(SymptomCategoryProperty, func(p PersonID) int { return 1 }); err != nil {
		t.Fatal(err)
	}
	if id := engine.idFor(SymptomCategoryProperty, 0); id != 1 {
		t.Errorf("idFor with a constant assigner = %d, want 1", id)
	}
}

func TestProgressionEngine_DuplicateAssignerErrors(t *testing.T) {
	bus := NewEventBus()
	store := NewPersonStore(bus)
	scheduler := NewScheduler(100)
	rng := NewRngStreams(1)
	engine := NewProgressionEngine(scheduler, store, bus, rng)

	assigner := func(p PersonID) int { return 0 }
	if err := engine.RegisterIDAssigner(AgeProperty, assigner); err != nil {
		t.Fatal(err)
	}
	if err := engine.RegisterIDAssigner(AgeProperty, assigner); err == nil {
		t.Error("registering a second id assigner for the same property must error")
	}
}

func TestProgressionEngine_AssignerAfterMaterializationErrors(t *testing.T) {
	bus := NewEventBus()
	store := NewPersonStore(bus)
	scheduler := NewScheduler(100)
	rng := NewRngStreams(1)
	engine := NewProgressionEngine(scheduler, store, bus, rng)

	engine.RegisterProgression(AgeProperty, ProgressionFunc(func(event PropertyChangeEvent) (Value, float64, bool) {
		return nil, 0, false
	}))
	engine.idFor(AgeProperty, 1) // materializes an id for person 1
	if err := engine.RegisterIDAssigner(AgeProperty, func(p PersonID) int { return 0 }); err == nil {
		t.Error("registering an id assigner after materialization must error")
	}
}
