package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	defaultBitDepth  = 16
	defaultAmplitude = 1.0
	minBitDepth      = 1
	maxBitDepth      = 32
)

type config struct {
	bitDepth  int
	amplitude float64
	coeffs    []float64
	rng       *rand.Rand
}

func defaultConfig() config {
	return config{
		bitDepth:  defaultBitDepth,
		amplitude: defaultAmplitude,
		coeffs:    fweighted9,
	}
}

// Option configures a [Quantizer].
type Option func(*config) error

// WithBitDepth sets the target bit depth (1 to 32, default 16).
func WithBitDepth(bits int) Option {
	return func(cfg *config) error {
		if bits < minBitDepth || bits > maxBitDepth {
			return fmt.Errorf("dither: bit depth must be in [%d, %d]: %d", minBitDepth, maxBitDepth, bits)
		}

		cfg.bitDepth = bits

		return nil
	}
}

// WithDitherAmplitude sets the triangular dither amplitude in LSB
// (default 1). Zero disables dithering.
func WithDitherAmplitude(amp float64) Option {
	return func(cfg *config) error {
		if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
			return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", amp)
		}

		cfg.amplitude = amp

		return nil
	}
}

// WithShaperCoefficients replaces the F-weighted noise shaping
// coefficient set. A nil or empty slice disables shaping.
func WithShaperCoefficients(coeffs []float64) Option {
	return func(cfg *config) error {
		cfg.coeffs = coeffs
		return nil
	}
}

// WithRNG sets a deterministic noise source for reproducible output.
func WithRNG(rng *rand.Rand) Option {
	return func(cfg *config) error {
		cfg.rng = rng
		return nil
	}
}
