package epiabm

// IsolatingStatusProperty and MaskingStatusProperty are the two
// with-default boolean properties the isolation guidance policy drives.
// The policy pairs IsolatingStatus with a SettingsManager itinerary
// restriction it applies itself; the facemask transmission modifier
// keys off MaskingStatus.
const (
	IsolatingStatusProperty PropertyType = "isolating_status"
	MaskingStatusProperty   PropertyType = "masking_status"
)

// UpdatedIsolationGuidance implements §6/§8 scenario 6: once a person's
// symptoms reach Category2, isolation_probability decides whether they
// isolate; if so, isolation_delay_period after symptom onset they are
// restricted to Home (IsolatingStatus=true) until symptoms resolve back
// to NoSymptoms, at which point isolation lifts and they mask for
// post_isolation_duration.
type UpdatedIsolationGuidance struct {
	IsolationProbability  float64
	IsolationDelayPeriod  float64
	PostIsolationDuration float64
}

// Attach subscribes the policy to SymptomCategoryProperty transitions.
func (g *UpdatedIsolationGuidance) Attach(ctx *Context) {
	ctx.People.Properties.RegisterDefault(IsolatingStatusProperty, false)
	ctx.People.Properties.RegisterDefault(MaskingStatusProperty, false)

	ctx.Bus.SubscribePropertyChange(func(event PropertyChangeEvent) {
		if event.Property != SymptomCategoryProperty {
			return
		}
		current, _ := event.Current.(SymptomCategory)
		switch current {
		case Category2:
			g.onSymptomStart(ctx, event.Person)
		case NoSymptoms:
			g.onSymptomEnd(ctx, event.Person)
		}
	})
}

func (g *UpdatedIsolationGuidance) onSymptomStart(ctx *Context, p PersonID) {
	if ctx.Rng.Stream(ProgressionRng).Float64() >= g.IsolationProbability {
		return
	}
	symptomStart := ctx.Scheduler.Now()
	ctx.Scheduler.AddPlan(symptomStart+g.IsolationDelayPeriod, func(ctx *Context) { //nolint:errcheck // t is in the future by construction
		status, err := ctx.People.Get(p, SymptomCategoryProperty)
		if err != nil || status == NoSymptoms {
			return // already recovered from symptoms before isolation took effect
		}
		home, ok := homeSetting(ctx, p)
		if !ok {
			return
		}
		_ = ctx.People.Set(p, IsolatingStatusProperty, true)
		ctx.Settings.ModifyItinerary(p, &ItineraryModifier{Kind: RestrictTo, Target: home})
	})
}

// homeSetting returns the Home-type setting in p's active itinerary, used
// as the isolation restriction target.
func homeSetting(ctx *Context, p PersonID) (SettingKey, bool) {
	for _, e := range ctx.Settings.ActiveItinerary(p) {
		if e.Setting.Type == Home {
			return e.Setting, true
		}
	}
	return SettingKey{}, false
}

func (g *UpdatedIsolationGuidance) onSymptomEnd(ctx *Context, p PersonID) {
	symptomEnd := ctx.Scheduler.Now()
	isolating, _ := ctx.People.Get(p, IsolatingStatusProperty)
	if b, ok := isolating.(bool); ok && b {
		_ = ctx.People.Set(p, IsolatingStatusProperty, false)
		ctx.Settings.ModifyItinerary(p, nil)
	}
	_ = ctx.People.Set(p, MaskingStatusProperty, true)
	ctx.Scheduler.AddPlan(symptomEnd+g.PostIsolationDuration, func(ctx *Context) { //nolint:errcheck // t is in the future by construction
		_ = ctx.People.Set(p, MaskingStatusProperty, false)
	})
}
