package epiabm

import "github.com/pkg/errors"

// modifierEntry maps one property's possible values to a relative-rate
// factor; a value with no entry contributes 1.0 (neutral).
type modifierEntry struct {
	property PropertyType
	factors  map[Value]float64
}

// ModifierRegistry aggregates per-person transmission-modifier
// contributions (masks, isolation, asymptomatic relative
// infectiousness, ...) by InfectionStatus, per §4.7.
type ModifierRegistry struct {
	store *PersonStore

	modifiers   map[InfectionStatus][]modifierEntry
	registered  map[InfectionStatus]map[PropertyType]bool
	aggregators map[InfectionStatus]func(values []float64) float64
}

// NewModifierRegistry returns an empty registry reading property values
// from store.
func NewModifierRegistry(store *PersonStore) *ModifierRegistry {
	return &ModifierRegistry{
		store:       store,
		modifiers:   make(map[InfectionStatus][]modifierEntry),
		registered:  make(map[InfectionStatus]map[PropertyType]bool),
		aggregators: make(map[InfectionStatus]func(values []float64) float64),
	}
}

// RegisterModifier stores a factor table for property under status:
// relative_transmission looks up the person's current value of property
// in factors, using 1.0 for any value with no entry. Registering the
// same (status, property) pair twice is a domain-rule error.
func (r *ModifierRegistry) RegisterModifier(status InfectionStatus, property PropertyType, factors map[Value]float64) error {
	if r.registered[status] == nil {
		r.registered[status] = make(map[PropertyType]bool)
	}
	if r.registered[status][property] {
		return errors.Errorf(DuplicateModifierError, status, property)
	}
	r.registered[status][property] = true
	table := make(map[Value]float64, len(factors))
	for k, v := range factors {
		table[k] = v
	}
	r.modifiers[status] = append(r.modifiers[status], modifierEntry{property: property, factors: table})
	return nil
}

// RegisterAggregator replaces the default product aggregator for status.
func (r *ModifierRegistry) RegisterAggregator(status InfectionStatus, fn func(values []float64) float64) {
	r.aggregators[status] = fn
}

func defaultAggregator(values []float64) float64 {
	product := 1.0
	for _, v := range values {
		product *= v
	}
	return product
}

// RelativeTransmission evaluates every modifier registered for p's
// current InfectionStatus and reduces them via the status's aggregator
// (product by default). A person with Alive=false always contributes 0,
// for both Susceptible and Infectious statuses, making dead persons
// inert regardless of any other modifier.
func (r *ModifierRegistry) RelativeTransmission(p PersonID) float64 {
	if alive, err := r.store.Get(p, AliveProperty); err == nil {
		if aliveBool, ok := alive.(bool); ok && !aliveBool {
			return 0
		}
	}
	status, err := r.store.Get(p, InfectionStatusProperty)
	if err != nil {
		return 1.0
	}
	infectionStatus, _ := status.(InfectionStatus)

	values := make([]float64, 0, len(r.modifiers[infectionStatus]))
	for _, entry := range r.modifiers[infectionStatus] {
		pv, err := r.store.Get(p, entry.property)
		factor := 1.0
		if err == nil {
			if f, ok := entry.factors[pv]; ok {
				factor = f
			}
		}
		values = append(values, factor)
	}
	agg := r.aggregators[infectionStatus]
	if agg == nil {
		agg = defaultAggregator
	}
	return agg(values)
}
