package epiabm

import "testing"

func newForecasterFixture(maxTime float64) *Context {
	ctx := NewContext(&Parameters{MaxTime: maxTime, Seed: 7})
	ctx.Settings.RegisterSettingType(Home, SettingTypeParams{Alpha: 1})
	return ctx
}

// A lone person (single-member household) must still reach Recovered
// within the rate function's duration, per the scale_max floor in
// scheduleNext.
func TestForecaster_LonePersonEventuallyRecovers(t *testing.T) {
	ctx := newForecasterFixture(50)
	p, _ := ctx.People.AddPerson(
		Initializer{Property: AliveProperty, Value: true},
		Initializer{Property: InfectionStatusProperty, Value: Susceptible},
	)
	ctx.Settings.AddItinerary(p, []ItineraryEntry{{Setting: SettingKey{Type: Home, ID: 1}, Weight: 1}})

	// A high rate keeps P(no candidate time falls within the support) so
	// small the test is deterministic in practice without depending on a
	// specific RNG draw.
	forecaster := NewForecaster([]RateFn{NewConstantRateFn(1000, 5)}, Constraint{Property: AliveProperty, Value: true})
	ctx.SetForecaster(forecaster)
	ctx.People.Set(p, InfectionStatusProperty, Infectious)

	ctx.Run()

	status, _ := ctx.People.Get(p, InfectionStatusProperty)
	if status != Recovered {
		t.Errorf("lone infectious person ended as %v, want Recovered", status)
	}
	now := ctx.Scheduler.Now()
	if now <= 0 || now > 5 {
		t.Errorf("lone person recovered at t=%v, want within (0, 5]", now)
	}
}

func TestForecaster_InfectsEligibleContact(t *testing.T) {
	ctx := newForecasterFixture(50)
	home := SettingKey{Type: Home, ID: 1}
	infector, _ := ctx.People.AddPerson(
		Initializer{Property: AliveProperty, Value: true},
		Initializer{Property: InfectionStatusProperty, Value: Susceptible},
	)
	contact, _ := ctx.People.AddPerson(
		Initializer{Property: AliveProperty, Value: true},
		Initializer{Property: InfectionStatusProperty, Value: Susceptible},
	)
	ctx.Settings.AddItinerary(infector, []ItineraryEntry{{Setting: home, Weight: 1}})
	ctx.Settings.AddItinerary(contact, []ItineraryEntry{{Setting: home, Weight: 1}})

	forecaster := NewForecaster([]RateFn{NewConstantRateFn(100, 5)}, Constraint{Property: AliveProperty, Value: true})
	var observed []PersonID
	forecaster.Observe(func(ctx *Context, target, infectedBy PersonID, setting SettingKey) {
		observed = append(observed, target)
	})
	ctx.SetForecaster(forecaster)
	ctx.People.Set(infector, InfectionStatusProperty, Infectious)

	ctx.Run()

	status, _ := ctx.People.Get(contact, InfectionStatusProperty)
	if status != Infectious {
		t.Errorf("contact status = %v, want Infectious", status)
	}
	if len(observed) == 0 {
		t.Error("expected at least one transmission observer notification")
	}
	infectedBy, err := ctx.People.Get(contact, InfectedByProperty)
	if err != nil || infectedBy != infector {
		t.Errorf("contact's infected_by = %v (err=%v), want %v", infectedBy, err, infector)
	}
}

// A fully efficacious mask (facemask_efficacy=1) on the sampled contact
// must drive acceptProb to exactly 0 via the (Susceptible, MaskingStatus)
// modifier, regardless of the infector's own status, so the contact is
// never infected across the run.
func TestForecaster_MaskedContactIsNeverInfected(t *testing.T) {
	ctx := newForecasterFixture(50)
	home := SettingKey{Type: Home, ID: 1}
	infector, _ := ctx.People.AddPerson(
		Initializer{Property: AliveProperty, Value: true},
		Initializer{Property: InfectionStatusProperty, Value: Susceptible},
		Initializer{Property: MaskingStatusProperty, Value: false},
	)
	contact, _ := ctx.People.AddPerson(
		Initializer{Property: AliveProperty, Value: true},
		Initializer{Property: InfectionStatusProperty, Value: Susceptible},
		Initializer{Property: MaskingStatusProperty, Value: true},
	)
	ctx.Settings.AddItinerary(infector, []ItineraryEntry{{Setting: home, Weight: 1}})
	ctx.Settings.AddItinerary(contact, []ItineraryEntry{{Setting: home, Weight: 1}})

	if err := RegisterFacemaskModifier(ctx, 1.0); err != nil {
		t.Fatal(err)
	}
	forecaster := NewForecaster([]RateFn{NewConstantRateFn(100, 5)}, Constraint{Property: AliveProperty, Value: true})
	ctx.SetForecaster(forecaster)
	ctx.People.Set(infector, InfectionStatusProperty, Infectious)

	ctx.Run()

	status, _ := ctx.People.Get(contact, InfectionStatusProperty)
	if status != Susceptible {
		t.Errorf("fully masked contact ended as %v, want Susceptible (never infected)", status)
	}
}

func TestForecaster_EmptyLibraryPanics(t *testing.T) {
	ctx := newForecasterFixture(10)
	p, _ := ctx.People.AddPerson(
		Initializer{Property: AliveProperty, Value: true},
		Initializer{Property: InfectionStatusProperty, Value: Susceptible},
	)
	forecaster := NewForecaster(nil)
	ctx.SetForecaster(forecaster)

	defer func() {
		if r := recover(); r == nil {
			t.Error("infecting with an empty rate-function library should panic")
		}
	}()
	ctx.People.Set(p, InfectionStatusProperty, Infectious)
}

func TestSeedInfections_SplitsPopulation(t *testing.T) {
	ctx := newForecasterFixture(10)
	for i := 0; i < 100; i++ {
		ctx.People.AddPerson(
			Initializer{Property: AliveProperty, Value: true},
			Initializer{Property: InfectionStatusProperty, Value: Susceptible},
		)
	}
	SeedInfections(ctx, 0.1, 0.2)

	infected := ctx.People.QueryPeopleCount(Constraint{Property: InfectionStatusProperty, Value: Infectious})
	recovered := ctx.People.QueryPeopleCount(Constraint{Property: InfectionStatusProperty, Value: Recovered})
	if infected != 10 {
		t.Errorf("infected count = %d, want 10", infected)
	}
	if recovered != 20 {
		t.Errorf("recovered count = %d, want 20", recovered)
	}
	for _, p := range ctx.People.QueryPeople(Constraint{Property: InfectionStatusProperty, Value: Infectious}) {
		if _, err := ctx.People.Get(p, InfectedByProperty); err == nil {
			t.Errorf("seeded infection for person %d has an infected_by value set, want unset", p)
		}
	}
}

// SeedInfections shuffles QueryPeople's result: if that result were
// built from map iteration instead of a sorted slice, Fisher-Yates over
// a nondeterministically-ordered input would pick a different initial
// set of infected/recovered persons on every run of the same seed.
func TestSeedInfections_IsDeterministicAcrossRuns(t *testing.T) {
	run := func() []PersonID {
		ctx := newForecasterFixture(10)
		for i := 0; i < 50; i++ {
			ctx.People.AddPerson(
				Initializer{Property: AliveProperty, Value: true},
				Initializer{Property: InfectionStatusProperty, Value: Susceptible},
			)
		}
		SeedInfections(ctx, 0.2, 0.1)
		return ctx.People.QueryPeople(Constraint{Property: InfectionStatusProperty, Value: Infectious})
	}

	first := run()
	for i := 0; i < 5; i++ {
		got := run()
		if len(got) != len(first) {
			t.Fatalf("run %d infected %d persons, want %d", i, len(got), len(first))
		}
		for j := range got {
			if got[j] != first[j] {
				t.Errorf("run %d infected set = %v, want %v (same seed, same population)", i, got, first)
				break
			}
		}
	}
}
