package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/stemmix/dsp/core"
	"github.com/cwbudde/stemmix/dsp/ramp"
)

// Pan places a mono signal in the stereo field using the constant-power law,
// so perceived loudness stays even across the full [-1, 1] sweep.
type Pan struct {
	pos *ramp.Smoother
}

// NewPan creates a centered panner.
func NewPan(sampleRate float64) (*Pan, error) {
	pos, err := ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0)
	if err != nil {
		return nil, fmt.Errorf("fx: pan: %w", err)
	}
	return &Pan{pos: pos}, nil
}

// SetPosition sets the stereo position, clamped to [-1, 1].
// -1 is hard left, 0 center, 1 hard right.
func (p *Pan) SetPosition(pos float64) {
	p.pos.SetTarget(core.Clamp(pos, -1, 1))
}

// Position returns the target stereo position.
func (p *Pan) Position() float64 { return p.pos.Target() }

// gains converts a pan position to constant-power left/right gains.
func panGains(pos float64) (left, right float64) {
	angle := (pos + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

// ProcessBlock pans the mono input into the left and right outputs.
// All three slices must have equal length.
func (p *Pan) ProcessBlock(mono, left, right []float64) {
	if p.pos.Done() {
		l, r := panGains(p.pos.Current())
		for i, x := range mono {
			left[i] = x * l
			right[i] = x * r
		}
		return
	}

	for i, x := range mono {
		l, r := panGains(p.pos.Next())
		left[i] = x * l
		right[i] = x * r
	}
}
