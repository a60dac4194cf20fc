package dither

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestNewQuantizer_Validation(t *testing.T) {
	for _, rate := range []float64{0, -44100, math.NaN(), math.Inf(1)} {
		if _, err := NewQuantizer(rate); err == nil {
			t.Errorf("sample rate %v: expected error", rate)
		}
	}

	badOpts := []Option{
		WithBitDepth(0),
		WithBitDepth(33),
		WithDitherAmplitude(-1),
		WithDitherAmplitude(math.NaN()),
	}
	for i, opt := range badOpts {
		if _, err := NewQuantizer(44100, opt); err == nil {
			t.Errorf("option %d: expected error", i)
		}
	}

	q, err := NewQuantizer(44100, nil)
	if err != nil {
		t.Fatalf("nil option: %v", err)
	}
	if q.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %v, want 44100", q.SampleRate())
	}
}

// Without dither and shaping the quantizer is a plain scale-and-floor
// converter with symmetric limiting.
func TestProcessInteger_PlainQuantization(t *testing.T) {
	q, err := NewQuantizer(44100,
		WithDitherAmplitude(0),
		WithShaperCoefficients(nil),
	)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		input float64
		want  int
	}{
		{0, 0},
		{0.5, 16383},
		{-0.5, -16384},
		{1, 32767},
		{-1, -32768},
		{2, 32767},
		{-2, -32768},
	}
	for _, tc := range cases {
		if got := q.ProcessInteger(tc.input); got != tc.want {
			t.Errorf("ProcessInteger(%v) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestProcessInteger_BitDepth8(t *testing.T) {
	q, err := NewQuantizer(44100,
		WithBitDepth(8),
		WithDitherAmplitude(0),
		WithShaperCoefficients(nil),
	)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		input float64
		want  int
	}{
		{1, 127},
		{-1, -128},
		{0.5, 63},
		{2, 127},
		{-2, -128},
	}
	for _, tc := range cases {
		if got := q.ProcessInteger(tc.input); got != tc.want {
			t.Errorf("ProcessInteger(%v) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

// The default 16-bit configuration must never leave the int16 range, even
// for inputs beyond full scale. The output stage casts without checking.
func TestProcessInteger_Int16Bound(t *testing.T) {
	q, err := NewQuantizer(44100, WithRNG(rand.New(rand.NewPCG(7, 11))))
	if err != nil {
		t.Fatal(err)
	}

	for i := range 20000 {
		input := 3 * math.Sin(float64(i)/17)
		v := q.ProcessInteger(input)
		if v < math.MinInt16 || v > math.MaxInt16 {
			t.Fatalf("sample %d: %d outside int16 range", i, v)
		}
	}
}

// With dithering off the F-weighted feedback path is exactly computable:
// each output corrects for the weighted history of past rounding errors.
func TestProcessInteger_ShaperFeedback(t *testing.T) {
	q, err := NewQuantizer(44100, WithDitherAmplitude(0))
	if err != nil {
		t.Fatal(err)
	}

	// DC at 0.25 scales to 8191.875. The first error is -0.875, which the
	// shaper feeds back with weights 2.412 and -3.370 on the next passes.
	want := []int{8191, 8193, 8191}
	for i, w := range want {
		if got := q.ProcessInteger(0.25); got != w {
			t.Errorf("pass %d: got %d, want %d", i, got, w)
		}
	}

	q.Reset()
	if got := q.ProcessInteger(0.25); got != 8191 {
		t.Errorf("after Reset: got %d, want 8191", got)
	}
}

// Triangular dither at 1 LSB makes the expected output linear in the
// input: E[floor(x + tpdf)] = x - 0.5.
func TestProcessInteger_DitherMean(t *testing.T) {
	q, err := NewQuantizer(44100,
		WithShaperCoefficients(nil),
		WithRNG(rand.New(rand.NewPCG(3, 5))),
	)
	if err != nil {
		t.Fatal(err)
	}

	const n = 20000
	var sum float64
	for range n {
		sum += float64(q.ProcessInteger(0.25))
	}

	mean := sum / n
	want := 0.25*32767.5 - 0.5
	if math.Abs(mean-want) > 0.05 {
		t.Errorf("mean = %v, want %v within 0.05", mean, want)
	}
}

func BenchmarkProcessInteger(b *testing.B) {
	q, err := NewQuantizer(44100, WithRNG(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		b.Fatal(err)
	}

	in := make([]float64, 1024)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * float64(i) / 64)
	}

	i := 0
	for b.Loop() {
		q.ProcessInteger(in[i&1023])
		i++
	}
}
