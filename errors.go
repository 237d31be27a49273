package epiabm

// Error message templates used throughout the package. Keeping them as
// named constants mirrors how call sites are grep-able and lets tests
// assert against the same string the production code produces.
const (
	InvalidFloatParameterError  = "invalid %s %f, %s"
	InvalidIntParameterError    = "invalid %s %d, %s"
	InvalidStringParameterError = "invalid %s %s, %s"

	// PersonNotFoundError is returned when a PersonID has no backing record.
	PersonNotFoundError = "person %d not found"

	// DuplicateModifierError fires when register_modifier is called twice
	// for the same (status, property) pair.
	DuplicateModifierError = "modifier for status %d and property %q already registered"

	// DuplicateProgressionAssignerError fires when two id assigners are
	// registered for the same property.
	DuplicateProgressionAssignerError = "progression id assigner for property %q already registered"

	// AssignerAfterMaterializationError fires when an id assigner is
	// registered after any id has already been materialized for that
	// property.
	AssignerAfterMaterializationError = "cannot register id assigner for property %q: an id was already materialized"

	// EmptyRateFnLibraryError fires when a rate function must be assigned
	// but the library has no entries.
	EmptyRateFnLibraryError = "rate function library is empty"
)
