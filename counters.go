package epiabm

// Counters is an inert set of named event tallies. Components that want
// observability call Incr/Add on whatever counter names they own;
// nothing in the package reads Counters back to make a decision, so a
// caller that never looks at it pays only the cost of a map write.
type Counters struct {
	values map[string]int64
}

// NewCounters returns an empty Counters.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]int64)}
}

// Incr adds 1 to name.
func (c *Counters) Incr(name string) {
	c.Add(name, 1)
}

// Add adds delta to name.
func (c *Counters) Add(name string, delta int64) {
	if c == nil {
		return
	}
	c.values[name] += delta
}

// Value returns the current tally for name.
func (c *Counters) Value(name string) int64 {
	if c == nil {
		return 0
	}
	return c.values[name]
}

// Span is an inert open/close profiling hook. OpenSpan returns a Span whose
// Close is a no-op placeholder for wall-clock instrumentation; nothing
// in the package depends on timing data it might someday record.
type Span struct {
	name string
}

// OpenSpan starts a named span.
func (c *Counters) OpenSpan(name string) *Span {
	return &Span{name: name}
}

// Close ends the span.
func (s *Span) Close() {}
