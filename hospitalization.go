package epiabm

import "sort"

// HospitalizedProperty is the with-default boolean property toggled by
// the hospitalization manager's admission/discharge plans.
const HospitalizedProperty PropertyType = "hospitalized"

// HospitalAgeGroup is one `{min, probability}` bucket of the
// hospitalization age-risk ladder (§6).
type HospitalAgeGroup struct {
	Min         float64
	Probability float64
}

// HospitalAdmissionObserver is notified on every hospital admission;
// the hospital incidence report writer registers one of these.
type HospitalAdmissionObserver func(ctx *Context, p PersonID, age int, time float64)

// HospitalizationManager decides, for every newly-Infectious person,
// whether they are eventually hospitalized (by age-bucketed probability)
// and drives the admission/discharge timing via exponentially
// distributed delay and duration draws around the configured means.
type HospitalizationManager struct {
	ageGroups        []HospitalAgeGroup
	meanDelay        float64
	meanDuration     float64
	observers        []HospitalAdmissionObserver
}

// NewHospitalizationManager returns a manager using ageGroups (sorted
// ascending by Min internally) to decide hospitalization risk.
func NewHospitalizationManager(ageGroups []HospitalAgeGroup, meanDelay, meanDuration float64) *HospitalizationManager {
	sorted := append([]HospitalAgeGroup{}, ageGroups...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	return &HospitalizationManager{ageGroups: sorted, meanDelay: meanDelay, meanDuration: meanDuration}
}

// Observe registers obs to run on every admission, in registration order.
func (m *HospitalizationManager) Observe(obs HospitalAdmissionObserver) {
	m.observers = append(m.observers, obs)
}

func (m *HospitalizationManager) probabilityFor(age float64) float64 {
	prob := 0.0
	for _, g := range m.ageGroups {
		if age >= g.Min {
			prob = g.Probability
		}
	}
	return prob
}

// Attach registers the with-default Hospitalized property and subscribes
// to InfectionStatus transitions to Infectious.
func (m *HospitalizationManager) Attach(ctx *Context) {
	ctx.People.Properties.RegisterDefault(HospitalizedProperty, false)
	ctx.Bus.SubscribePropertyChange(func(event PropertyChangeEvent) {
		if event.Property != InfectionStatusProperty {
			return
		}
		status, ok := event.Current.(InfectionStatus)
		if !ok || status != Infectious {
			return
		}
		m.maybeAdmit(ctx, event.Person)
	})
}

func (m *HospitalizationManager) maybeAdmit(ctx *Context, p PersonID) {
	ageVal, err := ctx.People.Get(p, AgeProperty)
	if err != nil {
		return
	}
	age, _ := ageVal.(int)
	prob := m.probabilityFor(float64(age))
	if ctx.Rng.Stream(HospitalRng).Float64() >= prob {
		return
	}
	admitAt := ctx.Scheduler.Now() + ctx.Rng.Stream(HospitalRng).ExpFloat64()*m.meanDelay
	ctx.Scheduler.AddPlan(admitAt, func(ctx *Context) { //nolint:errcheck // t is in the future by construction
		status, err := ctx.People.Get(p, InfectionStatusProperty)
		if err != nil || status != Infectious {
			return // recovered before admission was due
		}
		_ = ctx.People.Set(p, HospitalizedProperty, true)
		ctx.Counters.Incr("hospitalization.admissions")
		for _, obs := range m.observers {
			obs(ctx, p, age, ctx.Scheduler.Now())
		}
		dischargeAt := ctx.Scheduler.Now() + ctx.Rng.Stream(HospitalRng).ExpFloat64()*m.meanDuration
		ctx.Scheduler.AddPlan(dischargeAt, func(ctx *Context) { //nolint:errcheck // t is in the future by construction
			_ = ctx.People.Set(p, HospitalizedProperty, false)
		})
	})
}
