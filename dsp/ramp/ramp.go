// Package ramp provides one-pole parameter smoothing for click-free
// parameter changes in streaming DSP blocks.
package ramp

import (
	"fmt"
	"math"
)

const (
	// DefaultTimeConstant is the smoothing time constant applied when no
	// explicit value is given. Roughly the shortest ramp that is reliably
	// inaudible as a click on gain-class parameters.
	DefaultTimeConstant = 0.015

	snapEpsilon = 1e-6
)

// Smoother ramps a scalar parameter toward a target value with a one-pole
// exponential characteristic. Advancing is sample-based so the ramp shape is
// independent of the processing block size.
type Smoother struct {
	current float64
	target  float64
	coeff   float64
	done    bool
}

// NewSmoother creates a smoother at the given initial value.
// timeConstant is the exponential time constant in seconds; after one time
// constant the remaining distance to the target has decayed to ~37%.
func NewSmoother(sampleRate, timeConstant, initial float64) (*Smoother, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("ramp: sample rate must be > 0: %f", sampleRate)
	}
	if timeConstant <= 0 || math.IsNaN(timeConstant) || math.IsInf(timeConstant, 0) {
		return nil, fmt.Errorf("ramp: time constant must be > 0: %f", timeConstant)
	}
	return &Smoother{
		current: initial,
		target:  initial,
		coeff:   math.Exp(-1.0 / (sampleRate * timeConstant)),
		done:    true,
	}, nil
}

// SetTarget starts a ramp toward value. Setting the current value again is a
// no-op.
func (s *Smoother) SetTarget(value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	if value == s.target {
		return
	}
	s.target = value
	s.done = false
}

// SnapTo jumps directly to value without ramping.
func (s *Smoother) SnapTo(value float64) {
	s.current = value
	s.target = value
	s.done = true
}

// Next advances the ramp by one sample and returns the new current value.
func (s *Smoother) Next() float64 {
	if s.done {
		return s.current
	}
	s.current = s.target + (s.current-s.target)*s.coeff
	if math.Abs(s.current-s.target) < snapEpsilon {
		s.current = s.target
		s.done = true
	}
	return s.current
}

// NextBlock advances the ramp by n samples and returns the value at the end
// of the block. Closed form, so skipping ahead costs the same as one step.
func (s *Smoother) NextBlock(n int) float64 {
	if s.done || n <= 0 {
		return s.current
	}
	decay := math.Pow(s.coeff, float64(n))
	s.current = s.target + (s.current-s.target)*decay
	if math.Abs(s.current-s.target) < snapEpsilon {
		s.current = s.target
		s.done = true
	}
	return s.current
}

// Current returns the present smoothed value without advancing.
func (s *Smoother) Current() float64 { return s.current }

// Target returns the ramp destination.
func (s *Smoother) Target() float64 { return s.target }

// Done reports whether the ramp has settled on its target.
func (s *Smoother) Done() bool { return s.done }
