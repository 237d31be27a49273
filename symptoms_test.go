package epiabm

import "testing"

func TestSymptomManager_AsymptomaticSkipsLadder(t *testing.T) {
	ctx := NewContext(&Parameters{MaxTime: 50, Seed: 1})
	sm := NewSymptomManager(ctx, []RateFn{NewConstantRateFn(1, 8)}, 1.0, 0.5)
	sm.Attach(ctx)

	p, _ := ctx.People.AddPerson(Initializer{Property: InfectionStatusProperty, Value: Susceptible})
	ctx.People.Set(p, InfectionStatusProperty, Infectious)

	cat, err := ctx.People.Get(p, SymptomCategoryProperty)
	if err != nil {
		t.Fatal(err)
	}
	if cat != NoSymptoms {
		t.Errorf("with proportion_asymptomatic=1.0, symptom category = %v, want NoSymptoms", cat)
	}
}

func TestSymptomManager_SymptomaticClimbsLadder(t *testing.T) {
	ctx := NewContext(&Parameters{MaxTime: 50, Seed: 1})
	sm := NewSymptomManager(ctx, []RateFn{NewConstantRateFn(1, 8)}, 0.0, 0.5)
	sm.Attach(ctx)

	p, _ := ctx.People.AddPerson(Initializer{Property: InfectionStatusProperty, Value: Susceptible})
	ctx.People.Set(p, InfectionStatusProperty, Infectious)

	cat, _ := ctx.People.Get(p, SymptomCategoryProperty)
	if cat != Category1 {
		t.Errorf("with proportion_asymptomatic=0.0, symptom category = %v, want Category1", cat)
	}

	ctx.Scheduler.Execute(ctx)
	cat, _ = ctx.People.Get(p, SymptomCategoryProperty)
	if cat != NoSymptoms {
		t.Errorf("after the ladder runs to completion, symptom category = %v, want NoSymptoms", cat)
	}
}

func TestSymptomManager_RegistersAsymptomaticModifier(t *testing.T) {
	ctx := NewContext(&Parameters{MaxTime: 10, Seed: 1})
	ctx.People.Properties.RegisterDefault(AliveProperty, true)
	NewSymptomManager(ctx, []RateFn{NewConstantRateFn(1, 8)}, 1.0, 0.25)

	p, _ := ctx.People.AddPerson(Initializer{Property: InfectionStatusProperty, Value: Infectious})
	if r := ctx.Modifiers.RelativeTransmission(p); !almostEqual(r, 0.25) {
		t.Errorf("asymptomatic person's RelativeTransmission = %v, want 0.25", r)
	}
}
