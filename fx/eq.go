package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/stemmix/dsp/biquad"
	"github.com/cwbudde/stemmix/dsp/core"
	"github.com/cwbudde/stemmix/dsp/ramp"
)

// Fixed band centers of the three-band EQ.
const (
	eqLowShelfHz  = 250
	eqPeakHz      = 1000
	eqHighShelfHz = 4000

	eqShelfQ = 0.707
	eqPeakQ  = 1.0

	// MinEQGainDB and MaxEQGainDB bound every EQ band's gain.
	MinEQGainDB = -12
	MaxEQGainDB = 12
)

// ThreeBandEQ is a low-shelf / peaking / high-shelf equalizer with
// independently smoothed band gains.
type ThreeBandEQ struct {
	sampleRate float64

	low  *biquad.Section
	mid  *biquad.Section
	high *biquad.Section

	lowGain  *ramp.Smoother
	midGain  *ramp.Smoother
	highGain *ramp.Smoother

	// Gains the current coefficients were computed for.
	appliedLow, appliedMid, appliedHigh float64
}

// NewThreeBandEQ creates a flat (0 dB everywhere) EQ.
func NewThreeBandEQ(sampleRate float64) (*ThreeBandEQ, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("fx: eq sample rate must be > 0: %f", sampleRate)
	}

	eq := &ThreeBandEQ{
		sampleRate: sampleRate,
		low:        biquad.NewSection(biquad.LowShelf(sampleRate, eqLowShelfHz, eqShelfQ, 0)),
		mid:        biquad.NewSection(biquad.Peaking(sampleRate, eqPeakHz, eqPeakQ, 0)),
		high:       biquad.NewSection(biquad.HighShelf(sampleRate, eqHighShelfHz, eqShelfQ, 0)),
	}

	var err error
	if eq.lowGain, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0); err != nil {
		return nil, err
	}
	if eq.midGain, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0); err != nil {
		return nil, err
	}
	if eq.highGain, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0); err != nil {
		return nil, err
	}

	return eq, nil
}

// SetLowGain sets the low-shelf gain in dB, clamped to [-12, 12].
func (eq *ThreeBandEQ) SetLowGain(db float64) {
	eq.lowGain.SetTarget(core.Clamp(db, MinEQGainDB, MaxEQGainDB))
}

// SetMidGain sets the peaking gain in dB, clamped to [-12, 12].
func (eq *ThreeBandEQ) SetMidGain(db float64) {
	eq.midGain.SetTarget(core.Clamp(db, MinEQGainDB, MaxEQGainDB))
}

// SetHighGain sets the high-shelf gain in dB, clamped to [-12, 12].
func (eq *ThreeBandEQ) SetHighGain(db float64) {
	eq.highGain.SetTarget(core.Clamp(db, MinEQGainDB, MaxEQGainDB))
}

// LowGain returns the low-shelf target gain in dB.
func (eq *ThreeBandEQ) LowGain() float64 { return eq.lowGain.Target() }

// MidGain returns the peaking target gain in dB.
func (eq *ThreeBandEQ) MidGain() float64 { return eq.midGain.Target() }

// HighGain returns the high-shelf target gain in dB.
func (eq *ThreeBandEQ) HighGain() float64 { return eq.highGain.Target() }

// ProcessBlock applies all three bands to buf in place. While a gain ramp is
// active the coefficients are recomputed once per block, which at typical
// block sizes (128-1024 samples) keeps ramps well under the audible range.
func (eq *ThreeBandEQ) ProcessBlock(buf []float64) {
	n := len(buf)
	if n == 0 {
		return
	}

	if low := eq.lowGain.NextBlock(n); low != eq.appliedLow {
		eq.low.Coefficients = biquad.LowShelf(eq.sampleRate, eqLowShelfHz, eqShelfQ, low)
		eq.appliedLow = low
	}
	if mid := eq.midGain.NextBlock(n); mid != eq.appliedMid {
		eq.mid.Coefficients = biquad.Peaking(eq.sampleRate, eqPeakHz, eqPeakQ, mid)
		eq.appliedMid = mid
	}
	if high := eq.highGain.NextBlock(n); high != eq.appliedHigh {
		eq.high.Coefficients = biquad.HighShelf(eq.sampleRate, eqHighShelfHz, eqShelfQ, high)
		eq.appliedHigh = high
	}

	eq.low.ProcessBlock(buf)
	eq.mid.ProcessBlock(buf)
	eq.high.ProcessBlock(buf)
}

// Reset clears filter state without touching parameter targets.
func (eq *ThreeBandEQ) Reset() {
	eq.low.Reset()
	eq.mid.Reset()
	eq.high.Reset()
}
