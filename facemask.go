package epiabm

// RegisterFacemaskModifier wires facemask_parameters.facemask_efficacy
// into the transmission-modifier registry, symmetrically: a masked
// Infectious person's outgoing contribution and a masked Susceptible
// contact's incoming susceptibility are both scaled by (1 - efficacy),
// relative to the unmasked baseline of 1.0.
func RegisterFacemaskModifier(ctx *Context, efficacy float64) error {
	factors := map[Value]float64{true: 1 - efficacy}
	if err := ctx.Modifiers.RegisterModifier(Infectious, MaskingStatusProperty, factors); err != nil {
		return err
	}
	return ctx.Modifiers.RegisterModifier(Susceptible, MaskingStatusProperty, factors)
}
