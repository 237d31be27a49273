package epiabm

import "testing"

func TestModifierRegistry_DefaultNeutralFactor(t *testing.T) {
	store := NewPersonStore(NewEventBus())
	store.Properties.RegisterDefault(InfectionStatusProperty, Infectious)
	store.Properties.RegisterDefault(AliveProperty, true)
	mr := NewModifierRegistry(store)
	p, _ := store.AddPerson()
	if r := mr.RelativeTransmission(p); r != 1.0 {
		t.Errorf("no modifiers registered, RelativeTransmission = %v, want 1.0", r)
	}
}

func TestModifierRegistry_ProductAggregation(t *testing.T) {
	store := NewPersonStore(NewEventBus())
	store.Properties.RegisterDefault(InfectionStatusProperty, Infectious)
	store.Properties.RegisterDefault(AliveProperty, true)
	store.Properties.RegisterDefault(MaskingStatusProperty, false)
	store.Properties.RegisterDefault(SymptomCategoryProperty, NoSymptoms)
	mr := NewModifierRegistry(store)
	mr.RegisterModifier(Infectious, MaskingStatusProperty, map[Value]float64{true: 0.5})
	mr.RegisterModifier(Infectious, SymptomCategoryProperty, map[Value]float64{NoSymptoms: 0.3})

	p, _ := store.AddPerson()
	store.Set(p, MaskingStatusProperty, true)
	if r := mr.RelativeTransmission(p); !almostEqual(r, 0.15) {
		t.Errorf("masked+asymptomatic RelativeTransmission = %v, want 0.15", r)
	}
}

func TestModifierRegistry_DeadPersonIsInert(t *testing.T) {
	store := NewPersonStore(NewEventBus())
	store.Properties.RegisterDefault(InfectionStatusProperty, Infectious)
	store.Properties.RegisterDefault(AliveProperty, true)
	mr := NewModifierRegistry(store)
	p, _ := store.AddPerson()
	store.Set(p, AliveProperty, false)
	if r := mr.RelativeTransmission(p); r != 0 {
		t.Errorf("dead person RelativeTransmission = %v, want 0", r)
	}
}

func TestModifierRegistry_DuplicateRegistrationErrors(t *testing.T) {
	store := NewPersonStore(NewEventBus())
	mr := NewModifierRegistry(store)
	if err := mr.RegisterModifier(Infectious, MaskingStatusProperty, nil); err != nil {
		t.Fatal(err)
	}
	if err := mr.RegisterModifier(Infectious, MaskingStatusProperty, nil); err == nil {
		t.Error("registering the same (status, property) pair twice must error")
	}
}
