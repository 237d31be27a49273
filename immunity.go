package epiabm

// ImmunityCountProperty is a monotonic per-person counter of completed
// infections, incremented on every transition to Recovered. It is purely
// observational: nothing in this core reads it to gate a transition, but
// it gives a future reinfection extension (S re-entry) a ready hook
// without touching the forecaster or progression engine.
const ImmunityCountProperty PropertyType = "immunity_count"

// ImmunityTracker increments ImmunityCountProperty whenever a person
// reaches Recovered. It never decrements: there is no waning in this
// core (deterministic S->I->R per §8 stands), so the count is a lower
// bound on lifetime infections rather than a current-immunity level.
type ImmunityTracker struct{}

// Attach registers the default and subscribes to InfectionStatus changes.
func (ImmunityTracker) Attach(ctx *Context) {
	ctx.People.Properties.RegisterDefault(ImmunityCountProperty, 0)
	ctx.Bus.SubscribePropertyChange(func(event PropertyChangeEvent) {
		if event.Property != InfectionStatusProperty {
			return
		}
		status, ok := event.Current.(InfectionStatus)
		if !ok || status != Recovered {
			return
		}
		current, err := ctx.People.Get(event.Person, ImmunityCountProperty)
		if err != nil {
			return
		}
		count, _ := current.(int)
		_ = ctx.People.Set(event.Person, ImmunityCountProperty, count+1)
	})
}
