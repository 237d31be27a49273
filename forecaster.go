package epiabm

import (
	rv "github.com/kentwait/randomvariate"
)

// Infection-bookkeeping properties, owned by the forecaster.
const (
	RateFnIDProperty          PropertyType = "rate_fn_id"
	InfectionTimeProperty     PropertyType = "infection_time"
	InfectedByProperty        PropertyType = "infected_by"
	InfectionSettingTypeProperty PropertyType = "infection_setting_type"
	InfectionSettingIDProperty   PropertyType = "infection_setting_id"
)

// RateFnAssigner picks which library entry applies to a newly infected
// person, replacing the default uniform-random choice.
type RateFnAssigner func(p PersonID) int

// TransmissionObserver is notified whenever the forecaster accepts a
// contact and infects someone; Observe lets report writers (the
// transmission report) hook in without the forecaster depending on any
// of them directly.
type TransmissionObserver func(ctx *Context, target, infectedBy PersonID, setting SettingKey)

// Forecaster drives the §4.5 non-homogeneous-Poisson-with-thinning
// infection process: on infection it assigns a rate function and
// schedules the first forecast; each firing either infects a sampled
// contact or does nothing, then always reschedules.
type Forecaster struct {
	library  []RateFn
	assigner RateFnAssigner

	contactConstraints []Constraint
	observers          []TransmissionObserver
}

// NewForecaster returns a Forecaster drawing from library (must be
// non-empty) and sampling contacts among persons matching
// contactConstraints (typically Susceptible and Alive).
func NewForecaster(library []RateFn, contactConstraints ...Constraint) *Forecaster {
	return &Forecaster{
		library:            append([]RateFn{}, library...),
		contactConstraints: append([]Constraint{}, contactConstraints...),
	}
}

// RegisterAssigner installs a deterministic rate-function assigner,
// replacing the default uniform-random choice.
func (f *Forecaster) RegisterAssigner(assigner RateFnAssigner) {
	f.assigner = assigner
}

// Observe registers a transmission observer, invoked synchronously in
// registration order whenever a contact is infected.
func (f *Forecaster) Observe(obs TransmissionObserver) {
	f.observers = append(f.observers, obs)
}

// onInfection assigns p a rate function and infection time, then
// schedules its first forecast. It is invoked by Context.SetForecaster's
// subscription whenever a person transitions to Infectious.
func (f *Forecaster) onInfection(ctx *Context, p PersonID) {
	if len(f.library) == 0 {
		panic(EmptyRateFnLibraryError)
	}
	id := 0
	if f.assigner != nil {
		id = f.assigner(p)
	} else if n := len(f.library); n > 1 {
		id = ctx.Rng.Stream(ForecastRng).Intn(n)
	}
	if id < 0 || id >= len(f.library) {
		id = 0
	}
	_ = ctx.People.Set(p, RateFnIDProperty, id)
	_ = ctx.People.Set(p, InfectionTimeProperty, ctx.Scheduler.Now())
	ctx.Counters.Incr("forecaster.infections")
	f.scheduleNext(ctx, p)
}

// scheduleNext draws the next candidate forecast time from a scaled
// upper-bound rate function and schedules fire, or marks p Recovered if
// no candidate remains within the rate function's support (§4.5 steps
// 2-3). scale_max is recomputed fresh on every call rather than cached,
// since a person's setting itinerary and modifiers can change between
// suspensions.
func (f *Forecaster) scheduleNext(ctx *Context, p PersonID) {
	rateFnIDVal, err := ctx.People.Get(p, RateFnIDProperty)
	if err != nil {
		return
	}
	rateFnID := rateFnIDVal.(int)
	infectionTimeVal, _ := ctx.People.Get(p, InfectionTimeProperty)
	infectionTime := infectionTimeVal.(float64)

	// scale_max is floored at 1.0 so a person with no feasible contact
	// (e.g. a single-member household) still draws forecast times off
	// their own rate function's unscaled support, reaching Recovered at
	// the function's duration rather than instantly at elapsed=0; the
	// true setting multiplier and modifier product are what the actual
	// acceptance test at fire time uses, so no spurious infection can
	// result from this floor.
	scaleMax := ctx.Settings.MaxContactMultiplier(p)
	if modMax := ctx.Modifiers.RelativeTransmission(p); modMax > scaleMax {
		scaleMax = modMax
	}
	if scaleMax < 1.0 {
		scaleMax = 1.0
	}

	now := ctx.Scheduler.Now()
	upper := ScaledRateFn{Base: f.library[rateFnID], Scale: scaleMax, Elapsed: now - infectionTime}

	e := ctx.Rng.Stream(ForecastRng).ExpFloat64()
	dt, ok := upper.Inverse(e)
	if !ok {
		_ = ctx.People.Set(p, InfectionStatusProperty, Recovered)
		return
	}
	fireTime := now + dt
	ctx.Scheduler.AddPlan(fireTime, func(ctx *Context) {
		f.fire(ctx, p, rateFnID, infectionTime, scaleMax)
	})
}

// fire runs one thinning trial: accept with probability
// lambda_actual/lambda_upper, and if accepted, sample a setting and
// contact and infect the contact. It always reschedules the next
// candidate regardless of outcome (§4.5 step 4).
func (f *Forecaster) fire(ctx *Context, p PersonID, rateFnID int, infectionTime, scaleMax float64) {
	defer f.scheduleNext(ctx, p)

	status, err := ctx.People.Get(p, InfectionStatusProperty)
	if err != nil || status != Infectious {
		return
	}

	setting, ok := ctx.Settings.SampleSetting(p, ctx.Rng.Stream(SettingRng))
	if !ok {
		return
	}
	constraints := append(append([]Constraint{}, f.contactConstraints...), Constraint{Property: InfectionStatusProperty, Value: Susceptible})
	contact, ok := ctx.Settings.SampleContact(ctx.Rng.Stream(ContactRng), p, setting, constraints...)
	if !ok {
		ctx.Counters.Incr("forecaster.no_contact")
		return
	}

	now := ctx.Scheduler.Now()
	elapsed := now - infectionTime
	// actualScale folds in both sides of any registered modifier: the
	// infector's own relative infectiousness (e.g. masked, asymptomatic)
	// and the sampled contact's relative susceptibility (e.g. masked),
	// so a masked contact is symmetrically harder to infect.
	actualScale := ctx.Settings.MaxContactMultiplier(p) * relativeTransmissionOrOne(ctx, p) * relativeTransmissionOrOne(ctx, contact)
	base := f.library[rateFnID]
	lambdaActual := actualScale * base.Rate(elapsed)
	lambdaUpper := scaleMax * base.Rate(elapsed)
	if lambdaUpper <= 0 {
		return
	}
	acceptProb := lambdaActual / lambdaUpper
	if acceptProb > 1 {
		acceptProb = 1
	}
	if rv.Binomial(1, acceptProb) != 1.0 {
		ctx.Counters.Incr("forecaster.rejected")
		return
	}

	_ = ctx.People.Set(contact, InfectedByProperty, p)
	_ = ctx.People.Set(contact, InfectionSettingTypeProperty, setting.Type)
	_ = ctx.People.Set(contact, InfectionSettingIDProperty, setting.ID)
	_ = ctx.People.Set(contact, InfectionStatusProperty, Infectious)
	ctx.Counters.Incr("forecaster.transmissions")
	for _, obs := range f.observers {
		obs(ctx, contact, p, setting)
	}
}

func relativeTransmissionOrOne(ctx *Context, p PersonID) float64 {
	v := ctx.Modifiers.RelativeTransmission(p)
	if v <= 0 {
		return 0
	}
	return v
}

// SeedInfections transitions a uniformly-sampled subset of Susceptible
// persons to Infectious and a disjoint uniformly-sampled subset to
// Recovered, per initial_incidence/initial_recovered (§6). Infecting
// a person here runs through the same InfectionStatusProperty
// subscription as any contact-caused infection, but InfectedByProperty
// is left unset for seeded cases, so the transmission report's
// "infected_by is non-null" test distinguishes seeding from transmission.
func SeedInfections(ctx *Context, initialIncidence, initialRecovered float64) {
	susceptible := ctx.People.QueryPeople(Constraint{Property: InfectionStatusProperty, Value: Susceptible})
	rng := ctx.Rng.Stream(SeedingRng)
	rng.Shuffle(len(susceptible), func(i, j int) { susceptible[i], susceptible[j] = susceptible[j], susceptible[i] })

	n := len(susceptible)
	numRecovered := int(initialRecovered * float64(n))
	numInfected := int(initialIncidence * float64(n))
	if numRecovered+numInfected > n {
		numInfected = n - numRecovered
	}
	for i := 0; i < numRecovered; i++ {
		_ = ctx.People.Set(susceptible[i], InfectionStatusProperty, Recovered)
	}
	for i := numRecovered; i < numRecovered+numInfected; i++ {
		_ = ctx.People.Set(susceptible[i], InfectionStatusProperty, Infectious)
	}
}
