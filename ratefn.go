package epiabm

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

var (
	errEmpiricalShape = errors.New("empirical rate function requires matching non-empty times and values")
	errEmpiricalStart = errors.New("empirical rate function times[0] must be 0")
	errEmpiricalOrder = errors.New("empirical rate function times must be strictly increasing")
)

// RateFn is a non-negative intensity function with finite support
// [0, Duration()]. Rate, Cumulative and Inverse must agree per §4.4's
// laws: Cumulative(b)-Cumulative(a) = integral of Rate over [a,b], and
// Inverse(Cumulative(t)) == t up to numerical tolerance.
type RateFn interface {
	// Rate returns λ(t): instantaneous intensity at time t.
	Rate(t float64) float64
	// Cumulative returns Λ(t) = ∫₀ᵗ λ.
	Cumulative(t float64) float64
	// Inverse returns Λ⁻¹(u), or ok=false if u exceeds Cumulative(Duration()).
	Inverse(u float64) (t float64, ok bool)
	// Duration returns D, the right edge of the finite support [0, D].
	Duration() float64
}

// ConstantRateFn is λ(t) = Rate for 0<=t<=Duration, else 0.
type ConstantRateFn struct {
	RateValue     float64
	DurationValue float64
}

// NewConstantRateFn returns a RateFn constant at rate over [0, duration].
func NewConstantRateFn(rate, duration float64) *ConstantRateFn {
	return &ConstantRateFn{RateValue: rate, DurationValue: duration}
}

func (c *ConstantRateFn) Rate(t float64) float64 {
	if t < 0 || t > c.DurationValue {
		return 0
	}
	return c.RateValue
}

func (c *ConstantRateFn) Cumulative(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > c.DurationValue {
		t = c.DurationValue
	}
	return c.RateValue * t
}

func (c *ConstantRateFn) Inverse(u float64) (float64, bool) {
	total := c.RateValue * c.DurationValue
	if u > total {
		return 0, false
	}
	if c.RateValue == 0 {
		return 0, false
	}
	return u / c.RateValue, true
}

func (c *ConstantRateFn) Duration() float64 {
	return c.DurationValue
}

// EmpiricalRateFn is a piecewise-linear intensity defined on a grid.
// Times[0] must be 0 and Times must be strictly increasing. Rate is
// linearly interpolated between grid points and 0 past the last point;
// Cumulative is the trapezoidal-rule integral of Rate, precomputed at
// each grid point; Inverse binary-searches that precomputed cumulative
// grid and solves for the exact time within the bracketing segment.
type EmpiricalRateFn struct {
	Times     []float64
	Values    []float64
	cumAtGrid []float64
}

// NewEmpiricalRateFn validates and returns an EmpiricalRateFn. Times and
// Values must be the same non-zero length, Times[0] must be 0, and Times
// must be strictly increasing.
func NewEmpiricalRateFn(times, values []float64) (*EmpiricalRateFn, error) {
	if len(times) == 0 || len(times) != len(values) {
		return nil, errEmpiricalShape
	}
	if times[0] != 0 {
		return nil, errEmpiricalStart
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, errEmpiricalOrder
		}
	}
	fn := &EmpiricalRateFn{
		Times:  append([]float64{}, times...),
		Values: append([]float64{}, values...),
	}
	fn.cumAtGrid = make([]float64, len(times))
	for i := 1; i < len(times); i++ {
		dt := times[i] - times[i-1]
		avg := (values[i] + values[i-1]) / 2
		fn.cumAtGrid[i] = fn.cumAtGrid[i-1] + avg*dt
	}
	return fn, nil
}

func (e *EmpiricalRateFn) Rate(t float64) float64 {
	n := len(e.Times)
	if t < 0 || t > e.Times[n-1] {
		return 0
	}
	i := sort.SearchFloat64s(e.Times, t)
	if i < n && e.Times[i] == t {
		return e.Values[i]
	}
	// i is the first index with Times[i] > t; interpolate within (i-1, i).
	lo, hi := i-1, i
	frac := (t - e.Times[lo]) / (e.Times[hi] - e.Times[lo])
	return e.Values[lo] + frac*(e.Values[hi]-e.Values[lo])
}

func (e *EmpiricalRateFn) Cumulative(t float64) float64 {
	n := len(e.Times)
	if t <= 0 {
		return 0
	}
	if t >= e.Times[n-1] {
		return e.cumAtGrid[n-1]
	}
	i := sort.SearchFloat64s(e.Times, t)
	if i < n && e.Times[i] == t {
		return e.cumAtGrid[i]
	}
	lo := i - 1
	// Trapezoid from Times[lo] to t using the interpolated rate at t.
	rt := e.Rate(t)
	avg := (e.Values[lo] + rt) / 2
	return e.cumAtGrid[lo] + avg*(t-e.Times[lo])
}

func (e *EmpiricalRateFn) Inverse(u float64) (float64, bool) {
	n := len(e.Times)
	total := e.cumAtGrid[n-1]
	if u > total {
		return 0, false
	}
	i := sort.SearchFloat64s(e.cumAtGrid, u)
	if i < n && e.cumAtGrid[i] == u {
		return e.Times[i], true
	}
	if i == 0 {
		return e.Times[0], true
	}
	lo, hi := i-1, i
	segCum := e.cumAtGrid[hi] - e.cumAtGrid[lo]
	if segCum == 0 {
		return e.Times[lo], true
	}
	// Within the segment the rate is v0 + k*s, so the mass past Times[lo]
	// is v0*s + k*s*s/2; solve that quadratic for s in its stable form.
	du := u - e.cumAtGrid[lo]
	v0 := e.Values[lo]
	k := (e.Values[hi] - v0) / (e.Times[hi] - e.Times[lo])
	denom := v0 + math.Sqrt(math.Max(v0*v0+2*k*du, 0))
	if denom <= 0 {
		return e.Times[lo], true
	}
	return e.Times[lo] + 2*du/denom, true
}

func (e *EmpiricalRateFn) Duration() float64 {
	return e.Times[len(e.Times)-1]
}

// ScaledRateFn is a non-owning view scaling and time-shifting a base
// RateFn: rate(t) = scale*base(t+elapsed). Per DESIGN NOTES it must be
// recomputed on each use rather than cached across suspensions, since
// elapsed and scale can change between forecaster plan firings.
type ScaledRateFn struct {
	Base    RateFn
	Scale   float64
	Elapsed float64
}

func (s ScaledRateFn) Rate(t float64) float64 {
	return s.Scale * s.Base.Rate(t+s.Elapsed)
}

func (s ScaledRateFn) Cumulative(t float64) float64 {
	return s.Scale * (s.Base.Cumulative(t+s.Elapsed) - s.Base.Cumulative(s.Elapsed))
}

// Inverse returns t such that Cumulative(t) == u, shifted back into the
// view's own time frame; ok is false exactly when no such event can
// occur within [elapsed, Duration()] of the base after shifting.
func (s ScaledRateFn) Inverse(u float64) (float64, bool) {
	if s.Scale <= 0 {
		return 0, false
	}
	baseTarget := u/s.Scale + s.Base.Cumulative(s.Elapsed)
	baseT, ok := s.Base.Inverse(baseTarget)
	if !ok {
		return 0, false
	}
	return baseT - s.Elapsed, true
}

func (s ScaledRateFn) Duration() float64 {
	return s.Base.Duration() - s.Elapsed
}
