package epiabm

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConstantRateFn_RateCumulativeInverse(t *testing.T) {
	fn := NewConstantRateFn(2, 5)
	if r := fn.Rate(3); r != 2 {
		t.Errorf("Rate(3) = %v, want 2", r)
	}
	if r := fn.Rate(6); r != 0 {
		t.Errorf("Rate(6) outside support = %v, want 0", r)
	}
	if c := fn.Cumulative(5); !almostEqual(c, 10) {
		t.Errorf("Cumulative(5) = %v, want 10", c)
	}
	inv, ok := fn.Inverse(4)
	if !ok || !almostEqual(inv, 2) {
		t.Errorf("Inverse(4) = (%v, %v), want (2, true)", inv, ok)
	}
	if _, ok := fn.Inverse(100); ok {
		t.Error("Inverse beyond total cumulative mass should return ok=false")
	}
}

func TestEmpiricalRateFn_Validation(t *testing.T) {
	if _, err := NewEmpiricalRateFn(nil, nil); err == nil {
		t.Error("empty times/values should error")
	}
	if _, err := NewEmpiricalRateFn([]float64{1, 2}, []float64{1, 2}); err == nil {
		t.Error("times[0] != 0 should error")
	}
	if _, err := NewEmpiricalRateFn([]float64{0, 0, 1}, []float64{1, 1, 1}); err == nil {
		t.Error("non-strictly-increasing times should error")
	}
}

func TestEmpiricalRateFn_InterpolationAndInverseRoundTrip(t *testing.T) {
	fn, err := NewEmpiricalRateFn([]float64{0, 1, 2}, []float64{0, 2, 0})
	if err != nil {
		t.Fatal(err)
	}
	if r := fn.Rate(0.5); !almostEqual(r, 1) {
		t.Errorf("Rate(0.5) = %v, want 1 (midpoint interpolation)", r)
	}
	for _, probe := range []float64{0.25, 1.0, 1.75} {
		cum := fn.Cumulative(probe)
		back, ok := fn.Inverse(cum)
		if !ok {
			t.Fatalf("Inverse(Cumulative(%v)) reported ok=false", probe)
		}
		if !almostEqual(back, probe) {
			t.Errorf("Inverse(Cumulative(%v)) = %v, want %v", probe, back, probe)
		}
	}
}

func TestScaledRateFn_ScalesAndShifts(t *testing.T) {
	base := NewConstantRateFn(1, 10)
	scaled := ScaledRateFn{Base: base, Scale: 2, Elapsed: 3}
	if r := scaled.Rate(0); !almostEqual(r, 2) {
		t.Errorf("scaled Rate(0) = %v, want 2", r)
	}
	if d := scaled.Duration(); !almostEqual(d, 7) {
		t.Errorf("scaled Duration() = %v, want 7 (10-3)", d)
	}
	inv, ok := scaled.Inverse(scaled.Cumulative(4))
	if !ok || !almostEqual(inv, 4) {
		t.Errorf("scaled Inverse(Cumulative(4)) = (%v, %v), want (4, true)", inv, ok)
	}
}

func TestScaledRateFn_ZeroScaleNeverFires(t *testing.T) {
	base := NewConstantRateFn(1, 10)
	scaled := ScaledRateFn{Base: base, Scale: 0, Elapsed: 0}
	if _, ok := scaled.Inverse(0.001); ok {
		t.Error("a zero-scale view must never report a candidate time")
	}
}
