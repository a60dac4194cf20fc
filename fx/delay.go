package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/stemmix/dsp/core"
	"github.com/cwbudde/stemmix/dsp/delay"
	"github.com/cwbudde/stemmix/dsp/ramp"
)

// Parameter bounds for the feedback delay. Feedback is capped below 1 so the
// loop energy is always bounded.
const (
	MinDelayTime     = 0.01
	MaxDelayTime     = 2.0
	MaxDelayFeedback = 0.9
)

// FeedbackDelay is a delay line with a feedback loop and a dry/wet mix.
// Delay time, feedback, and mix are all smoothed; time changes ramp the read
// position through fractional-sample reads rather than jumping.
type FeedbackDelay struct {
	sampleRate float64

	time     *ramp.Smoother // seconds
	feedback *ramp.Smoother
	mix      *ramp.Smoother // wet fraction [0, 1]

	line *delay.Line
}

// NewFeedbackDelay creates a delay with a fully dry mix.
func NewFeedbackDelay(sampleRate float64) (*FeedbackDelay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("fx: delay sample rate must be > 0: %f", sampleRate)
	}

	// Sized for the maximum time plus interpolation guard samples.
	line, err := delay.New(int(math.Ceil(MaxDelayTime*sampleRate)) + 4)
	if err != nil {
		return nil, err
	}

	d := &FeedbackDelay{
		sampleRate: sampleRate,
		line:       line,
	}

	if d.time, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0.25); err != nil {
		return nil, err
	}
	if d.feedback, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0.3); err != nil {
		return nil, err
	}
	if d.mix, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0); err != nil {
		return nil, err
	}

	return d, nil
}

// SetTime sets the delay time in seconds, clamped to [0.01, 2].
func (d *FeedbackDelay) SetTime(seconds float64) {
	d.time.SetTarget(core.Clamp(seconds, MinDelayTime, MaxDelayTime))
}

// SetFeedback sets the feedback amount, clamped to [0, 0.9].
func (d *FeedbackDelay) SetFeedback(feedback float64) {
	d.feedback.SetTarget(core.Clamp(feedback, 0, MaxDelayFeedback))
}

// SetMix sets the wet fraction, clamped to [0, 1].
func (d *FeedbackDelay) SetMix(mix float64) {
	d.mix.SetTarget(core.Clamp(mix, 0, 1))
}

// Time returns the target delay time in seconds.
func (d *FeedbackDelay) Time() float64 { return d.time.Target() }

// Feedback returns the target feedback amount.
func (d *FeedbackDelay) Feedback() float64 { return d.feedback.Target() }

// Mix returns the target wet fraction.
func (d *FeedbackDelay) Mix() float64 { return d.mix.Target() }

// ProcessBlock applies the delay to buf in place.
func (d *FeedbackDelay) ProcessBlock(buf []float64) {
	for i, x := range buf {
		delaySamples := d.time.Next() * d.sampleRate
		fb := d.feedback.Next()
		wet := d.mix.Next()

		delayed := d.line.ReadFractional(delaySamples)
		d.line.Write(core.FlushDenormals(x + delayed*fb))

		buf[i] = x*(1-wet) + delayed*wet
	}
}

// Reset clears the delay line without touching parameter targets.
func (d *FeedbackDelay) Reset() {
	d.line.Reset()
}
