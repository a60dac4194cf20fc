package meter

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/stemmix/dsp/window"
)

// Spectrum produces magnitude snapshots of a time-domain block for
// frequency-domain consumers (visualizers). All buffers are allocated at
// construction; Snapshot never allocates.
type Spectrum struct {
	size   int
	coeffs []float64
	buf    []float64
	freq   []complex128
	re     []float64
	im     []float64
	mags   []float64

	plan *algofft.Plan[complex128]
}

// NewSpectrum creates an analyzer for blocks of the given power-of-two
// size. A Hann window is applied before the transform.
func NewSpectrum(size int) (*Spectrum, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("meter: spectrum size must be a power of two, got %d", size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("meter: spectrum plan: %w", err)
	}
	coeffs, err := window.Hann(size)
	if err != nil {
		return nil, fmt.Errorf("meter: spectrum window: %w", err)
	}

	half := size / 2
	return &Spectrum{
		size:   size,
		coeffs: coeffs,
		buf:    make([]float64, size),
		freq:   make([]complex128, size),
		re:     make([]float64, half),
		im:     make([]float64, half),
		mags:   make([]float64, half),
		plan:   plan,
	}, nil
}

// Size returns the required input block length.
func (s *Spectrum) Size() int { return s.size }

// Snapshot windows the block, transforms it, and returns the magnitudes of
// the size/2 positive-frequency bins. The returned slice is owned by the
// analyzer and overwritten on the next call.
func (s *Spectrum) Snapshot(samples []float64) ([]float64, error) {
	if len(samples) != s.size {
		return nil, fmt.Errorf("meter: spectrum expects %d samples, got %d", s.size, len(samples))
	}

	copy(s.buf, samples)
	if err := window.ApplyCoefficientsInPlace(s.buf, s.coeffs); err != nil {
		return nil, fmt.Errorf("meter: spectrum window: %w", err)
	}

	for i, v := range s.buf {
		s.freq[i] = complex(v, 0)
	}
	if err := s.plan.Forward(s.freq, s.freq); err != nil {
		return nil, fmt.Errorf("meter: spectrum fft: %w", err)
	}

	for i := range s.re {
		s.re[i] = real(s.freq[i])
		s.im[i] = imag(s.freq[i])
	}
	vecmath.Magnitude(s.mags, s.re, s.im)

	return s.mags, nil
}
