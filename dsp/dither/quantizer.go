// Package dither converts float64 audio in [-1, +1] to integer PCM for a
// fixed-width output device. Triangular dither decorrelates the rounding
// error from the signal and an F-weighted error-feedback shaper moves the
// residual noise out of the most audible band.
package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Quantizer quantizes samples to a target bit depth. The output is always
// limited to the bit-depth range, so a 16-bit quantizer never returns a
// value outside int16. Each channel needs its own Quantizer because the
// shaper carries per-channel error history.
type Quantizer struct {
	sampleRate float64
	amplitude  float64
	shaper     *firShaper
	rng        *rand.Rand

	scale float64
	lo    int
	hi    int
}

// NewQuantizer creates a Quantizer. The defaults are 16-bit output,
// triangular dither at 1 LSB, and 9th-order F-weighted noise shaping.
func NewQuantizer(sampleRate float64, opts ...Option) (*Quantizer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("dither: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	rng := cfg.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	// Half-LSB offset so the full range maps symmetrically. For 16 bits
	// this is 32767.5, giving [lo, hi] = [-32768, 32767].
	scale := math.Exp2(float64(cfg.bitDepth-1)) - 0.5

	return &Quantizer{
		sampleRate: sampleRate,
		amplitude:  cfg.amplitude,
		shaper:     newFIRShaper(cfg.coeffs),
		rng:        rng,
		scale:      scale,
		lo:         -int(math.Round(scale + 0.5)),
		hi:         int(math.Round(scale - 0.5)),
	}, nil
}

// ProcessInteger quantizes one sample to an integer in the bit-depth
// range. The floor after adding dither reproduces the legacy converter's
// truncation bias.
func (q *Quantizer) ProcessInteger(input float64) int {
	shaped := q.shaper.shape(q.scale * input)

	var noise float64
	if q.amplitude > 0 {
		noise = q.amplitude * (q.rng.Float64() - q.rng.Float64())
	}

	out := int(math.Floor(shaped + noise))
	out = max(q.lo, min(q.hi, out))

	q.shaper.recordError(float64(out) - shaped)

	return out
}

// Reset clears the shaper's error history.
func (q *Quantizer) Reset() {
	q.shaper.reset()
}

// SampleRate returns the configured sample rate.
func (q *Quantizer) SampleRate() float64 { return q.sampleRate }
