package epiabm

import "math/rand"

// PersonID is the opaque, stable, monotonically increasing identifier
// assigned to a person at creation. It is never reused or destroyed
// during a run.
type PersonID int

// Initializer sets an explicit property value at person creation; any
// property not covered by an Initializer falls back to its registered
// default.
type Initializer struct {
	Property PropertyType
	Value    Value
}

// PersonStore owns person identity allocation on top of a PropertyStore.
// It is the §4.3 "Person Store" — AddPerson, Get/Set forward to the
// PropertyStore, QueryPeople/SamplePerson/Tabulate reuse its indices.
type PersonStore struct {
	Properties *PropertyStore
	bus        *EventBus
	nextID     PersonID
}

// NewPersonStore returns an empty PersonStore backed by a fresh
// PropertyStore subscribed to bus.
func NewPersonStore(bus *EventBus) *PersonStore {
	return &PersonStore{
		Properties: NewPropertyStore(bus),
		bus:        bus,
	}
}

// AddPerson allocates a fresh PersonID, applies initializers (anything
// left unset uses its registered default), and emits PersonCreatedEvent.
func (s *PersonStore) AddPerson(initializers ...Initializer) (PersonID, error) {
	id := s.nextID
	s.nextID++
	s.Properties.ensurePerson(id)
	for _, init := range initializers {
		if err := s.Properties.Set(id, init.Property, init.Value); err != nil {
			return id, err
		}
	}
	if s.bus != nil {
		s.bus.EmitPersonCreated(PersonCreatedEvent{Person: id})
	}
	return id, nil
}

// Get returns person p's current value of property t.
func (s *PersonStore) Get(p PersonID, t PropertyType) (Value, error) {
	return s.Properties.Get(p, t)
}

// Set assigns v to person p's property t.
func (s *PersonStore) Set(p PersonID, t PropertyType, v Value) error {
	return s.Properties.Set(p, t, v)
}

// QueryPeople returns every person matching the conjunction of
// constraints.
func (s *PersonStore) QueryPeople(constraints ...Constraint) []PersonID {
	return s.Properties.QueryPeople(constraints...)
}

// QueryPeopleCount returns the number of persons matching constraints.
func (s *PersonStore) QueryPeopleCount(constraints ...Constraint) int {
	return s.Properties.QueryPeopleCount(constraints...)
}

// SamplePerson draws one person uniformly at random from those matching
// constraints, returning ok=false if none match.
func (s *PersonStore) SamplePerson(rng *rand.Rand, constraints ...Constraint) (PersonID, bool) {
	pool := s.QueryPeople(constraints...)
	if len(pool) == 0 {
		return 0, false
	}
	return pool[rng.Intn(len(pool))], true
}

// Tabulate groups every known person by their current values of
// properties.
func (s *PersonStore) Tabulate(properties []PropertyType) []Tabulation {
	return s.Properties.Tabulate(properties)
}

// NumPeople returns the total number of persons ever created.
func (s *PersonStore) NumPeople() int {
	return int(s.nextID)
}
