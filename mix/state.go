// Package mix holds the user-facing mixer state: per-stem volume, mute,
// solo, and effect parameters, plus the master volume. All mutation goes
// through methods so range clamping can never be bypassed, and the whole
// state round-trips through a compact share string (see codec.go).
package mix

import (
	"fmt"

	"github.com/cwbudde/stemmix/fx"
)

// FXParams is one stem's effect settings.
type FXParams struct {
	EQLowDB  float64 // [-12, 12]
	EQMidDB  float64 // [-12, 12]
	EQHighDB float64 // [-12, 12]

	FilterType   fx.FilterType
	FilterFreqHz float64    // [20, 20000]
	FilterQ      float64    // [0.1, 10]
	Rolloff      fx.Rolloff // -12 or -24 dB/octave

	ReverbSendPct float64 // [0, 100]

	DelayTimeSec  float64 // [0.01, 2]
	DelayFeedback float64 // [0, 0.9]
	DelayMixPct   float64 // [0, 100]

	Pan float64 // [-1, 1]
}

// StemState is one stem's complete mixer state.
type StemState struct {
	Volume float64 // [0, 1]
	Muted  bool
	Solo   bool
	FX     FXParams
}

// defaultStem returns the documented initial state for a stem.
func defaultStem() StemState {
	return StemState{
		Volume: 1,
		FX: FXParams{
			FilterType:    fx.FilterLowpass,
			FilterFreqHz:  fx.MaxFilterFrequency,
			FilterQ:       1,
			Rolloff:       fx.Rolloff12,
			DelayTimeSec:  0.25,
			DelayFeedback: 0.3,
		},
	}
}

// State is the full mixer state for one session. Not safe for concurrent
// mutation; the session owns it and mutates it from its single control
// context.
type State struct {
	stems  []StemState
	master float64
}

// NewState creates a state with documented defaults for numStems stems.
func NewState(numStems int) *State {
	s := &State{
		stems:  make([]StemState, numStems),
		master: 1,
	}
	for i := range s.stems {
		s.stems[i] = defaultStem()
	}
	return s
}

// NumStems returns the stem count.
func (s *State) NumStems() int { return len(s.stems) }

// Stem returns a copy of one stem's state.
func (s *State) Stem(i int) StemState {
	if i < 0 || i >= len(s.stems) {
		return defaultStem()
	}
	return s.stems[i]
}

// MasterVolume returns the master volume in [0, 1].
func (s *State) MasterVolume() float64 { return s.master }

// SetMasterVolume sets the master volume, clamped to [0, 1].
func (s *State) SetMasterVolume(v float64) { s.master = clamp(v, 0, 1) }

// SetVolume sets a stem's volume, clamped to [0, 1].
func (s *State) SetVolume(stem int, v float64) {
	if st := s.at(stem); st != nil {
		st.Volume = clamp(v, 0, 1)
	}
}

// ToggleMute flips a stem's mute flag and returns the new value.
func (s *State) ToggleMute(stem int) bool {
	st := s.at(stem)
	if st == nil {
		return false
	}
	st.Muted = !st.Muted
	return st.Muted
}

// ToggleSolo flips a stem's solo flag and returns the new value.
func (s *State) ToggleSolo(stem int) bool {
	st := s.at(stem)
	if st == nil {
		return false
	}
	st.Solo = !st.Solo
	return st.Solo
}

// AnySolo reports whether any stem is soloed.
func (s *State) AnySolo() bool {
	for i := range s.stems {
		if s.stems[i].Solo {
			return true
		}
	}
	return false
}

// IsAudible reports whether a stem should currently produce sound: muted
// stems never are; when any stem is soloed, only soloed stems are.
//
// Callers iterating all stems may pass a precomputed AnySolo() result to
// avoid recomputing it once per stem.
func (s *State) IsAudible(stem int, anySolo ...bool) bool {
	st := s.at(stem)
	if st == nil || st.Muted {
		return false
	}

	soloActive := false
	if len(anySolo) > 0 {
		soloActive = anySolo[0]
	} else {
		soloActive = s.AnySolo()
	}

	if soloActive {
		return st.Solo
	}
	return true
}

// SetFx sets one effect parameter addressed by category and field, clamping
// to the documented range. Unknown category/field combinations return an
// error and leave state untouched.
func (s *State) SetFx(stem int, category, field string, value float64) error {
	st := s.at(stem)
	if st == nil {
		return fmt.Errorf("mix: no stem %d", stem)
	}

	switch category {
	case "eq":
		switch field {
		case "low":
			st.FX.EQLowDB = clamp(value, fx.MinEQGainDB, fx.MaxEQGainDB)
		case "mid":
			st.FX.EQMidDB = clamp(value, fx.MinEQGainDB, fx.MaxEQGainDB)
		case "high":
			st.FX.EQHighDB = clamp(value, fx.MinEQGainDB, fx.MaxEQGainDB)
		default:
			return fmt.Errorf("mix: unknown eq field %q", field)
		}

	case "filter":
		switch field {
		case "type":
			st.FX.FilterType = fx.ParseFilterType(int(value))
		case "frequency":
			st.FX.FilterFreqHz = clamp(value, fx.MinFilterFrequency, fx.MaxFilterFrequency)
		case "q":
			st.FX.FilterQ = clamp(value, fx.MinFilterQ, fx.MaxFilterQ)
		case "rolloff":
			if fx.Rolloff(value) == fx.Rolloff24 {
				st.FX.Rolloff = fx.Rolloff24
			} else {
				st.FX.Rolloff = fx.Rolloff12
			}
		default:
			return fmt.Errorf("mix: unknown filter field %q", field)
		}

	case "reverb":
		if field != "send" {
			return fmt.Errorf("mix: unknown reverb field %q", field)
		}
		st.FX.ReverbSendPct = clamp(value, 0, 100)

	case "delay":
		switch field {
		case "time":
			st.FX.DelayTimeSec = clamp(value, fx.MinDelayTime, fx.MaxDelayTime)
		case "feedback":
			st.FX.DelayFeedback = clamp(value, 0, fx.MaxDelayFeedback)
		case "mix":
			st.FX.DelayMixPct = clamp(value, 0, 100)
		default:
			return fmt.Errorf("mix: unknown delay field %q", field)
		}

	case "pan":
		st.FX.Pan = clamp(value, -1, 1)

	default:
		return fmt.Errorf("mix: unknown fx category %q", category)
	}

	return nil
}

// Reset restores every stem and the master volume to documented defaults.
func (s *State) Reset() {
	for i := range s.stems {
		s.stems[i] = defaultStem()
	}
	s.master = 1
}

func (s *State) at(i int) *StemState {
	if i < 0 || i >= len(s.stems) {
		return nil
	}
	return &s.stems[i]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
