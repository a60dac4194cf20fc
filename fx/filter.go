package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/stemmix/dsp/biquad"
	"github.com/cwbudde/stemmix/dsp/core"
	"github.com/cwbudde/stemmix/dsp/ramp"
)

// FilterType selects the multimode filter response.
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterBandpass
)

// ParseFilterType maps a share-string enum index to a FilterType.
// Unknown indices fall back to lowpass.
func ParseFilterType(index int) FilterType {
	switch index {
	case 1:
		return FilterHighpass
	case 2:
		return FilterBandpass
	default:
		return FilterLowpass
	}
}

// Index returns the share-string enum index of t.
func (t FilterType) Index() int {
	switch t {
	case FilterHighpass:
		return 1
	case FilterBandpass:
		return 2
	default:
		return 0
	}
}

func (t FilterType) String() string {
	switch t {
	case FilterHighpass:
		return "highpass"
	case FilterBandpass:
		return "bandpass"
	default:
		return "lowpass"
	}
}

// Rolloff is the filter slope in dB per octave. Steeper slopes are realized
// by cascading identical second-order sections.
type Rolloff int

const (
	Rolloff12 Rolloff = -12
	Rolloff24 Rolloff = -24
)

func (r Rolloff) sections() int {
	if r == Rolloff24 {
		return 2
	}
	return 1
}

// Parameter bounds for the multimode filter.
const (
	MinFilterFrequency = 20
	MaxFilterFrequency = 20000
	MinFilterQ         = 0.1
	MaxFilterQ         = 10
)

// MultiModeFilter is the one chain stage whose internal topology can change
// while audio is flowing. It owns a variable-length cascade of identical
// biquad sections; callers configure type, frequency, Q, and rolloff through
// a single fixed API and never see which cascade depth is active.
type MultiModeFilter struct {
	sampleRate float64

	typ     FilterType
	rolloff Rolloff

	freq *ramp.Smoother
	q    *ramp.Smoother

	cascade *biquad.Cascade

	// Values the current coefficients were computed for.
	appliedFreq float64
	appliedQ    float64
	appliedTyp  FilterType
}

// NewMultiModeFilter creates a lowpass at the top of the audible range
// (effectively transparent) with a -12 dB/octave slope.
func NewMultiModeFilter(sampleRate float64) (*MultiModeFilter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("fx: filter sample rate must be > 0: %f", sampleRate)
	}

	f := &MultiModeFilter{
		sampleRate: sampleRate,
		typ:        FilterLowpass,
		rolloff:    Rolloff12,
	}

	var err error
	if f.freq, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, MaxFilterFrequency); err != nil {
		return nil, err
	}
	if f.q, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 1); err != nil {
		return nil, err
	}

	f.appliedFreq = MaxFilterFrequency
	f.appliedQ = 1
	f.appliedTyp = FilterLowpass
	f.cascade = biquad.NewCascade(f.designSections())

	return f, nil
}

// SetType switches the filter response. Takes effect on the next block.
func (f *MultiModeFilter) SetType(t FilterType) { f.typ = t }

// SetFrequency sets the cutoff/center frequency in Hz, clamped to the
// audible range.
func (f *MultiModeFilter) SetFrequency(hz float64) {
	f.freq.SetTarget(core.Clamp(hz, MinFilterFrequency, MaxFilterFrequency))
}

// SetQ sets the resonance, clamped to [0.1, 10].
func (f *MultiModeFilter) SetQ(q float64) {
	f.q.SetTarget(core.Clamp(q, MinFilterQ, MaxFilterQ))
}

// Type returns the active filter response.
func (f *MultiModeFilter) Type() FilterType { return f.typ }

// Frequency returns the target cutoff/center frequency in Hz.
func (f *MultiModeFilter) Frequency() float64 { return f.freq.Target() }

// Q returns the target resonance.
func (f *MultiModeFilter) Q() float64 { return f.q.Target() }

// RolloffSlope returns the active slope in dB per octave.
func (f *MultiModeFilter) RolloffSlope() Rolloff { return f.rolloff }

// NumStages returns the active cascade depth.
func (f *MultiModeFilter) NumStages() int { return f.cascade.NumSections() }

// SetRolloff swaps the cascade depth while audio is flowing. The current
// type, frequency, and Q carry over to every section of the new cascade.
// Returns false (and leaves the cascade untouched) when the requested slope
// is already active. Unknown slope values fall back to -12 dB/octave.
func (f *MultiModeFilter) SetRolloff(slope Rolloff) bool {
	if slope != Rolloff12 && slope != Rolloff24 {
		slope = Rolloff12
	}
	if slope == f.rolloff {
		return false
	}

	f.rolloff = slope
	// Section count changes, so UpdateCoefficients rebuilds the cascade;
	// the captured type/frequency/Q are baked into the new sections.
	f.cascade.UpdateCoefficients(f.designSections())

	return true
}

// ProcessBlock filters buf in place through the active cascade.
func (f *MultiModeFilter) ProcessBlock(buf []float64) {
	n := len(buf)
	if n == 0 {
		return
	}

	freq := f.freq.NextBlock(n)
	q := f.q.NextBlock(n)

	if freq != f.appliedFreq || q != f.appliedQ || f.typ != f.appliedTyp {
		f.appliedFreq = freq
		f.appliedQ = q
		f.appliedTyp = f.typ
		// Same section count: per-section state survives the update.
		f.cascade.UpdateCoefficients(f.designSections())
	}

	f.cascade.ProcessBlock(buf)
}

// Reset clears cascade state without touching parameters.
func (f *MultiModeFilter) Reset() {
	f.cascade.Reset()
}

// designSections computes the identical coefficient set for every section of
// the active cascade from the applied parameter values.
func (f *MultiModeFilter) designSections() []biquad.Coefficients {
	var c biquad.Coefficients
	switch f.appliedTyp {
	case FilterHighpass:
		c = biquad.Highpass(f.sampleRate, f.appliedFreq, f.appliedQ)
	case FilterBandpass:
		c = biquad.Bandpass(f.sampleRate, f.appliedFreq, f.appliedQ)
	default:
		c = biquad.Lowpass(f.sampleRate, f.appliedFreq, f.appliedQ)
	}

	sections := make([]biquad.Coefficients, f.rolloff.sections())
	for i := range sections {
		sections[i] = c
	}
	return sections
}
