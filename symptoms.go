package epiabm

import "math/rand"

// SymptomCategoryProperty is the V(SymptomCategory) domain driving the
// incidence report's Category1..4 events and the isolation guidance
// policy's symptom_start/symptom_end triggers.
const SymptomCategoryProperty PropertyType = "symptom_category"

// SymptomCategory ranges over the severity ladder a symptomatic person
// climbs and then descends back out of.
type SymptomCategory int

const (
	NoSymptoms SymptomCategory = iota
	Category1
	Category2
	Category3
	Category4
)

func (s SymptomCategory) String() string {
	switch s {
	case NoSymptoms:
		return "None"
	case Category1:
		return "Category1"
	case Category2:
		return "Category2"
	case Category3:
		return "Category3"
	case Category4:
		return "Category4"
	default:
		return "Unknown"
	}
}

// symptomProgression climbs Category1->2->3->4 and then falls back to
// NoSymptoms, drawing each step's delay from rateFn's own duration, per
// the symptom_progression_library entry assigned to this person.
type symptomProgression struct {
	rateFn RateFn
	rng    *rand.Rand
}

func (p *symptomProgression) Next(event PropertyChangeEvent) (Value, float64, bool) {
	current, _ := event.Current.(SymptomCategory)
	step := p.rateFn.Duration() / 4
	if step <= 0 {
		step = 1
	}
	delay := p.rng.ExpFloat64() * step
	switch current {
	case Category1:
		return Category2, delay, true
	case Category2:
		return Category3, delay, true
	case Category3:
		return Category4, delay, true
	case Category4:
		return NoSymptoms, delay, true
	default:
		return nil, 0, false
	}
}

// SymptomManager assigns a symptom-progression rate function to every
// newly-infectious person (unless they are drawn asymptomatic) and
// starts their climb at Category1, registering the progressions with
// the shared ProgressionEngine so the rest of the climb runs through
// the normal property-progression machinery.
type SymptomManager struct {
	engine                 *ProgressionEngine
	library                []RateFn
	proportionAsymptomatic float64
	assigner               IDAssigner
}

// NewSymptomManager registers one symptomProgression per entry of
// library with engine and returns a manager that starts a fraction
// proportionAsymptomatic of newly-infectious persons with no symptoms at
// all. relativeInfectiousnessAsymptomatics configures the transmission
// modifier applied to asymptomatic persons (§6).
func NewSymptomManager(ctx *Context, library []RateFn, proportionAsymptomatic, relativeInfectiousnessAsymptomatics float64) *SymptomManager {
	m := &SymptomManager{
		engine:                 ctx.Progressions,
		library:                append([]RateFn{}, library...),
		proportionAsymptomatic: proportionAsymptomatic,
	}
	ctx.People.Properties.RegisterDefault(SymptomCategoryProperty, NoSymptoms)
	for _, rateFn := range library {
		m.engine.RegisterProgression(SymptomCategoryProperty, &symptomProgression{rateFn: rateFn, rng: ctx.Rng.Stream(ProgressionRng)})
	}
	_ = ctx.Modifiers.RegisterModifier(Infectious, SymptomCategoryProperty, map[Value]float64{
		NoSymptoms: relativeInfectiousnessAsymptomatics,
	})
	return m
}

// RegisterAssigner installs a deterministic symptom-progression id
// assigner (e.g. to correlate with the infectiousness rate-function id,
// per §8 scenario 5).
func (m *SymptomManager) RegisterAssigner(assigner IDAssigner) error {
	m.assigner = assigner
	return m.engine.RegisterIDAssigner(SymptomCategoryProperty, assigner)
}

// Attach subscribes the manager to InfectionStatus changes so every
// transition to Infectious decides (via a Bernoulli draw on
// proportionAsymptomatic) whether the person climbs the symptom ladder
// starting at Category1.
func (m *SymptomManager) Attach(ctx *Context) {
	ctx.Bus.SubscribePropertyChange(func(event PropertyChangeEvent) {
		if event.Property != InfectionStatusProperty {
			return
		}
		status, ok := event.Current.(InfectionStatus)
		if !ok || status != Infectious {
			return
		}
		if len(m.library) == 0 {
			return
		}
		if ctx.Rng.Stream(ProgressionRng).Float64() < m.proportionAsymptomatic {
			return
		}
		_ = ctx.People.Set(event.Person, SymptomCategoryProperty, Category1)
	})
}
