package fx

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/stemmix/dsp/core"
	"github.com/cwbudde/stemmix/dsp/ramp"
)

// Gain is a smoothed linear gain stage applied to a stereo pair.
type Gain struct {
	level *ramp.Smoother
}

// NewGain creates a gain stage at the given initial level.
func NewGain(sampleRate, initial float64) (*Gain, error) {
	level, err := ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, core.Clamp(initial, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("fx: gain: %w", err)
	}
	return &Gain{level: level}, nil
}

// SetLevel sets the linear gain, clamped to [0, 1].
func (g *Gain) SetLevel(level float64) {
	g.level.SetTarget(core.Clamp(level, 0, 1))
}

// Level returns the target linear gain.
func (g *Gain) Level() float64 { return g.level.Target() }

// ProcessBlock scales both channels in place.
func (g *Gain) ProcessBlock(left, right []float64) {
	if g.level.Done() {
		level := g.level.Current()
		vecmath.ScaleBlockInPlace(left, level)
		vecmath.ScaleBlockInPlace(right, level)
		return
	}

	for i := range left {
		level := g.level.Next()
		left[i] *= level
		right[i] *= level
	}
}

// ProcessMono scales a single channel in place.
func (g *Gain) ProcessMono(buf []float64) {
	if g.level.Done() {
		vecmath.ScaleBlockInPlace(buf, g.level.Current())
		return
	}

	for i := range buf {
		buf[i] *= g.level.Next()
	}
}
