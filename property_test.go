package epiabm

import "testing"

func TestPropertyStore_SetGet(t *testing.T) {
	bus := NewEventBus()
	s := NewPropertyStore(bus)
	s.Set(1, AgeProperty, 30)
	v, err := s.Get(1, AgeProperty)
	if err != nil {
		t.Fatal(err)
	}
	if v != 30 {
		t.Errorf("Get(1, age) = %v, want 30", v)
	}
}

func TestPropertyStore_DefaultBeforeSet(t *testing.T) {
	bus := NewEventBus()
	s := NewPropertyStore(bus)
	s.RegisterDefault(HospitalizedProperty, false)
	s.ensurePerson(1)
	v, err := s.Get(1, HospitalizedProperty)
	if err != nil {
		t.Fatal(err)
	}
	if v != false {
		t.Errorf("default Get(1, hospitalized) = %v, want false", v)
	}
}

func TestPropertyStore_NoChangeNoEvent(t *testing.T) {
	bus := NewEventBus()
	s := NewPropertyStore(bus)
	count := 0
	bus.SubscribePropertyChange(func(e PropertyChangeEvent) { count++ })
	s.Set(1, AgeProperty, 10)
	s.Set(1, AgeProperty, 10)
	if count != 1 {
		t.Errorf("property change fired %d times for a no-op second Set, want 1", count)
	}
}

func TestPropertyStore_DerivedRecompute(t *testing.T) {
	bus := NewEventBus()
	s := NewPropertyStore(bus)
	s.RegisterDefault(AgeProperty, 0)
	s.RegisterDerived(PropertyType("is_adult"), []PropertyType{AgeProperty}, func(values []Value) Value {
		age, _ := values[0].(int)
		return age >= 18
	})
	s.ensurePerson(1)
	s.Set(1, AgeProperty, 10)
	v, _ := s.Get(1, PropertyType("is_adult"))
	if v != false {
		t.Errorf("is_adult at age 10 = %v, want false", v)
	}
	s.Set(1, AgeProperty, 20)
	v, _ = s.Get(1, PropertyType("is_adult"))
	if v != true {
		t.Errorf("is_adult at age 20 = %v, want true", v)
	}
}

func TestPropertyStore_DerivedChangeEmitsEvent(t *testing.T) {
	bus := NewEventBus()
	s := NewPropertyStore(bus)
	s.RegisterDefault(AgeProperty, 0)
	s.RegisterDerived(PropertyType("is_adult"), []PropertyType{AgeProperty}, func(values []Value) Value {
		age, _ := values[0].(int)
		return age >= 18
	})
	s.ensurePerson(1)
	var derivedEvents int
	bus.SubscribePropertyChange(func(e PropertyChangeEvent) {
		if e.Property == PropertyType("is_adult") {
			derivedEvents++
		}
	})
	s.Set(1, AgeProperty, 20)
	if derivedEvents != 1 {
		t.Errorf("derived property change fired %d times, want 1", derivedEvents)
	}
}

func TestPropertyStore_QueryPeople(t *testing.T) {
	bus := NewEventBus()
	s := NewPropertyStore(bus)
	s.ensurePerson(1)
	s.ensurePerson(2)
	s.ensurePerson(3)
	s.Set(1, InfectionStatusProperty, Susceptible)
	s.Set(2, InfectionStatusProperty, Infectious)
	s.Set(3, InfectionStatusProperty, Susceptible)

	got := s.QueryPeople(Constraint{Property: InfectionStatusProperty, Value: Susceptible})
	if len(got) != 2 {
		t.Errorf("QueryPeople(Susceptible) returned %d people, want 2", len(got))
	}
}

func TestPropertyStore_Tabulate(t *testing.T) {
	bus := NewEventBus()
	s := NewPropertyStore(bus)
	s.ensurePerson(1)
	s.ensurePerson(2)
	s.Set(1, InfectionStatusProperty, Susceptible)
	s.Set(2, InfectionStatusProperty, Susceptible)

	tabs := s.Tabulate([]PropertyType{InfectionStatusProperty})
	if len(tabs) != 1 {
		t.Fatalf("Tabulate produced %d groups, want 1", len(tabs))
	}
	if len(tabs[0].People) != 2 {
		t.Errorf("Tabulate group has %d people, want 2", len(tabs[0].People))
	}
}
