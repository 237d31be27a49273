package epiabm

import (
	"sort"

	"github.com/pkg/errors"
)

// PropertyType is a stable string key identifying a property. Using a
// string registry (rather than requiring one Go type per property) is
// the choice DESIGN NOTES calls out for languages without first-class
// generics over property descriptors: every property is looked up by
// name, and callers type-assert the Value they read back.
type PropertyType string

// Value is the dynamically-typed value held for a property. Concrete
// properties document their own V(T) domain (e.g. int, float64, bool,
// string) next to their declaration.
type Value interface{}

// Well-known property types shared by every module in this package.
// Domain-specific properties (hospitalization, symptoms, masking, ...)
// are declared next to the component that owns them.
const (
	AgeProperty             PropertyType = "age"
	AliveProperty           PropertyType = "alive"
	InfectionStatusProperty PropertyType = "infection_status"
)

// InfectionStatus is the V(InfectionStatusProperty) domain.
type InfectionStatus int

const (
	Susceptible InfectionStatus = iota
	Infectious
	Recovered
)

func (s InfectionStatus) String() string {
	switch s {
	case Susceptible:
		return "Susceptible"
	case Infectious:
		return "Infectious"
	case Recovered:
		return "Recovered"
	default:
		return "Unknown"
	}
}

// derivedDef is a registered derived property: a pure reducer over the
// current values of its dependencies. It is never stored; PropertyStore
// recomputes it on read and on dependency-change notification.
type derivedDef struct {
	deps    []PropertyType
	reducer func(values []Value) Value
}

// PropertyStore holds per-person values for stored properties, defaults
// for with-default properties, and reducers for derived properties. It
// maintains per-property inverted indices (value -> set of persons) for
// explicitly set values of stored and with-default properties so
// conjunctive queries stay cheap under repeated use, per §4.3; persons
// still holding a with-default property's default are found by a scan.
type PropertyStore struct {
	bus *EventBus

	values   map[PropertyType]map[PersonID]Value
	defaults map[PropertyType]Value
	derived  map[PropertyType]derivedDef

	// index[property][value] = set of person IDs currently holding value.
	index map[PropertyType]map[Value]map[PersonID]bool

	// dependents[dep] = derived properties that must be recomputed when
	// dep changes.
	dependents map[PropertyType][]PropertyType

	knownPersons map[PersonID]bool
}

// NewPropertyStore returns an empty store that emits PropertyChangeEvent
// on bus whenever a stored or derived property changes.
func NewPropertyStore(bus *EventBus) *PropertyStore {
	return &PropertyStore{
		bus:          bus,
		values:       make(map[PropertyType]map[PersonID]Value),
		defaults:     make(map[PropertyType]Value),
		derived:      make(map[PropertyType]derivedDef),
		index:        make(map[PropertyType]map[Value]map[PersonID]bool),
		dependents:   make(map[PropertyType][]PropertyType),
		knownPersons: make(map[PersonID]bool),
	}
}

// RegisterDefault declares a with-default property: reads return def
// until a person has an explicit value set.
func (s *PropertyStore) RegisterDefault(t PropertyType, def Value) {
	s.defaults[t] = def
	if s.values[t] == nil {
		s.values[t] = make(map[PersonID]Value)
	}
	if s.index[t] == nil {
		s.index[t] = make(map[Value]map[PersonID]bool)
	}
}

// RegisterDerived declares a derived property computed from deps by
// reducer. deps must themselves be stored (or with-default) properties;
// chaining derived-on-derived is not supported, matching the "may depend
// only on stored properties" invariant in §3.
func (s *PropertyStore) RegisterDerived(t PropertyType, deps []PropertyType, reducer func(values []Value) Value) {
	s.derived[t] = derivedDef{deps: append([]PropertyType{}, deps...), reducer: reducer}
	for _, d := range deps {
		s.dependents[d] = append(s.dependents[d], t)
	}
}

// ensurePerson lazily creates the bookkeeping for a newly seen person.
func (s *PropertyStore) ensurePerson(p PersonID) {
	if s.knownPersons[p] {
		return
	}
	s.knownPersons[p] = true
}

// Get returns the current value of property t for person p. For derived
// properties the reducer is evaluated fresh against current dependency
// values; for with-default properties, the default is returned if no
// explicit value was ever set.
func (s *PropertyStore) Get(p PersonID, t PropertyType) (Value, error) {
	if def, ok := s.derived[t]; ok {
		return s.evalDerived(p, def), nil
	}
	m, ok := s.values[t]
	if !ok {
		return nil, errors.Errorf("property %q is not registered", t)
	}
	if v, ok := m[p]; ok {
		return v, nil
	}
	if def, ok := s.defaults[t]; ok {
		return def, nil
	}
	return nil, errors.Errorf(PersonNotFoundError, p)
}

func (s *PropertyStore) evalDerived(p PersonID, def derivedDef) Value {
	values := make([]Value, len(def.deps))
	for i, d := range def.deps {
		v, _ := s.Get(p, d)
		values[i] = v
	}
	return def.reducer(values)
}

// Set assigns v to property t for person p. If v equals the current
// value, nothing happens (§4.2: emitted "only if v != current"). Setting
// a stored/with-default property that feeds a derived property triggers
// re-evaluation of the derived property and emits its own
// PropertyChangeEvent if the derived result changed.
func (s *PropertyStore) Set(p PersonID, t PropertyType, v Value) error {
	if _, ok := s.derived[t]; ok {
		return errors.Errorf("cannot Set derived property %q directly", t)
	}
	s.ensurePerson(p)
	if s.values[t] == nil {
		s.values[t] = make(map[PersonID]Value)
	}
	current, _ := s.Get(p, t)
	if current == v {
		return nil
	}

	// Snapshot derived properties that depend on t before mutating.
	type derivedSnapshot struct {
		prop PropertyType
		prev Value
	}
	var snapshots []derivedSnapshot
	for _, dprop := range s.dependents[t] {
		prev := s.evalDerived(p, s.derived[dprop])
		snapshots = append(snapshots, derivedSnapshot{dprop, prev})
	}

	previous := current
	s.values[t][p] = v
	s.reindex(t, p, previous, v)

	if s.bus != nil {
		s.bus.EmitPropertyChange(PropertyChangeEvent{
			Person: p, Property: t, Previous: previous, Current: v,
		})
	}

	for _, snap := range snapshots {
		next := s.evalDerived(p, s.derived[snap.prop])
		if next != snap.prev && s.bus != nil {
			s.bus.EmitPropertyChange(PropertyChangeEvent{
				Person: p, Property: snap.prop, Previous: snap.prev, Current: next,
			})
		}
	}
	return nil
}

func (s *PropertyStore) reindex(t PropertyType, p PersonID, previous, current Value) {
	if s.index[t] == nil {
		s.index[t] = make(map[Value]map[PersonID]bool)
	}
	if previous != nil {
		if set, ok := s.index[t][previous]; ok {
			delete(set, p)
		}
	}
	if s.index[t][current] == nil {
		s.index[t][current] = make(map[PersonID]bool)
	}
	s.index[t][current][p] = true
}

// Constraint is one (PropertyType, Value) term of a conjunctive query.
type Constraint struct {
	Property PropertyType
	Value    Value
}

// QueryPeople returns every person satisfying the conjunction of
// constraints, built from per-property inverted indices so repeated
// conjunctions stay cheap. The result is sorted by PersonID: callers
// draw from it with a named RNG stream, and map iteration order is not
// reproducible across runs even with a fixed seed.
func (s *PropertyStore) QueryPeople(constraints ...Constraint) []PersonID {
	if len(constraints) == 0 {
		result := make([]PersonID, 0, len(s.knownPersons))
		for p := range s.knownPersons {
			result = append(result, p)
		}
		sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
		return result
	}
	sets := make([]map[PersonID]bool, 0, len(constraints))
	for _, c := range constraints {
		if def, ok := s.derived[c.Property]; ok {
			// Derived properties are not indexed; fall back to a scan.
			matched := make(map[PersonID]bool)
			for p := range s.knownPersons {
				if s.evalDerived(p, def) == c.Value {
					matched[p] = true
				}
			}
			sets = append(sets, matched)
			continue
		}
		set := s.index[c.Property][c.Value]
		if def, ok := s.defaults[c.Property]; ok && def == c.Value {
			// Persons still holding the default were never indexed.
			merged := make(map[PersonID]bool, len(set))
			for p := range set {
				merged[p] = true
			}
			for p := range s.knownPersons {
				if _, explicit := s.values[c.Property][p]; !explicit {
					merged[p] = true
				}
			}
			set = merged
		}
		sets = append(sets, set)
	}
	// Intersect, smallest set first.
	smallest := 0
	for i := range sets {
		if len(sets[i]) < len(sets[smallest]) {
			smallest = i
		}
	}
	var result []PersonID
	for p := range sets[smallest] {
		match := true
		for i, set := range sets {
			if i == smallest {
				continue
			}
			if !set[p] {
				match = false
				break
			}
		}
		if match {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// QueryPeopleCount returns the number of persons satisfying constraints;
// it builds the full QueryPeople result and returns its length.
func (s *PropertyStore) QueryPeopleCount(constraints ...Constraint) int {
	return len(s.QueryPeople(constraints...))
}

// Tabulation is one group produced by Tabulate: the tuple of property
// values shared by the group (Key, in the order the properties were
// requested) and the persons holding that tuple.
type Tabulation struct {
	Key    []Value
	People []PersonID
}

// Tabulate groups every known person by their current values of
// properties and returns one Tabulation per observed combination.
func (s *PropertyStore) Tabulate(properties []PropertyType) []Tabulation {
	groups := make(map[string]*Tabulation)
	var order []string
	for p := range s.knownPersons {
		key := make([]Value, len(properties))
		for i, prop := range properties {
			v, _ := s.Get(p, prop)
			key[i] = v
		}
		k := tupleKey(key)
		if g, ok := groups[k]; ok {
			g.People = append(g.People, p)
		} else {
			groups[k] = &Tabulation{Key: key, People: []PersonID{p}}
			order = append(order, k)
		}
	}
	result := make([]Tabulation, 0, len(order))
	for _, k := range order {
		result = append(result, *groups[k])
	}
	return result
}

func tupleKey(values []Value) string {
	s := ""
	for _, v := range values {
		s += "\x1f"
		switch x := v.(type) {
		case string:
			s += x
		default:
			s += fmtAny(x)
		}
	}
	return s
}
