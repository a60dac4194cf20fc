package window

import (
	"math"
	"testing"

	"github.com/cwbudde/stemmix/internal/testutil"
)

func TestHann_Symmetric(t *testing.T) {
	got, err := Hann(5)
	if err != nil {
		t.Fatal(err)
	}

	// Symmetric form pins both edges to zero and peaks at the center.
	want := []float64{0, 0.5, 1, 0.5, 0}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestHann_Periodic(t *testing.T) {
	got, err := Hann(4, WithPeriodic())
	if err != nil {
		t.Fatal(err)
	}

	// Periodic form drops the final zero so frames tile seamlessly.
	want := []float64{0, 0.5, 1, 0.5}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestCosineWindows_PeakAtCenter(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		peak float64
	}{
		{"hamming", TypeHamming, 1},
		{"blackman", TypeBlackman, 1},
		{"blackman-harris-4t", TypeBlackmanHarris4Term, 1},
		{"flat-top", TypeFlatTop, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coeffs := Generate(tt.typ, 65)
			if got := coeffs[32]; math.Abs(got-tt.peak) > 1e-6 {
				t.Fatalf("center = %v, want %v", got, tt.peak)
			}
			testutil.RequireFinite(t, coeffs)
		})
	}
}

func TestRectangular(t *testing.T) {
	coeffs := Generate(TypeRectangular, 8)
	testutil.RequireSliceNearlyEqual(t, coeffs, testutil.DC(1, 8), 0)
}

func TestKaiser(t *testing.T) {
	coeffs, err := Kaiser(33, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got := coeffs[16]; math.Abs(got-1) > 1e-12 {
		t.Fatalf("center = %v, want 1", got)
	}
	if coeffs[0] >= 0.01 || coeffs[0] <= 0 {
		t.Fatalf("edge = %v, want small positive taper", coeffs[0])
	}

	if _, err := Kaiser(0, 8); err == nil {
		t.Fatal("Kaiser accepted size 0")
	}
	if _, err := Kaiser(33, -1); err == nil {
		t.Fatal("Kaiser accepted negative beta")
	}
}

func TestGenerate_NonPositiveLength(t *testing.T) {
	if got := Generate(TypeHann, 0); got != nil {
		t.Fatalf("Generate(0) = %v, want nil", got)
	}
	if got := Generate(TypeHann, -3); got != nil {
		t.Fatalf("Generate(-3) = %v, want nil", got)
	}
}

func TestEquivalentNoiseBandwidth(t *testing.T) {
	// Periodic Hann has an exact ENBW of 1.5 bins.
	coeffs := Generate(TypeHann, 1024, WithPeriodic())

	enbw, err := EquivalentNoiseBandwidth(coeffs)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(enbw-1.5) > 1e-9 {
		t.Fatalf("ENBW = %v, want 1.5", enbw)
	}

	if _, err := EquivalentNoiseBandwidth(nil); err == nil {
		t.Fatal("ENBW accepted empty coefficients")
	}
}

func TestApply(t *testing.T) {
	buf := testutil.DC(2, 5)
	Apply(TypeHann, buf)
	testutil.RequireSliceNearlyEqual(t, buf, []float64{0, 1, 2, 1, 0}, 1e-12)
}

func TestApplyCoefficients(t *testing.T) {
	out, err := ApplyCoefficients([]float64{1, 2, 3}, []float64{2, 0.5, 1})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, out, []float64{2, 1, 3}, 0)

	if _, err := ApplyCoefficients([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("mismatched lengths accepted")
	}
	if err := ApplyCoefficientsInPlace([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("mismatched lengths accepted in place")
	}
}
