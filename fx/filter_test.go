package fx

import (
	"testing"

	"github.com/cwbudde/stemmix/internal/testutil"
)

// TestMultiModeFilter_SetRolloff_NoOpOnSameSlope verifies the hot-swap
// contract: requesting the already-active slope reports no change and the
// cascade keeps its parameters and depth.
func TestMultiModeFilter_SetRolloff_NoOpOnSameSlope(t *testing.T) {
	f, err := NewMultiModeFilter(48000)
	if err != nil {
		t.Fatalf("NewMultiModeFilter: %v", err)
	}

	f.SetType(FilterHighpass)
	f.SetFrequency(800)
	f.SetQ(2)

	if changed := f.SetRolloff(Rolloff12); changed {
		t.Error("SetRolloff(-12) at -12 reported a change")
	}
	if f.NumStages() != 1 {
		t.Errorf("NumStages = %d, want 1", f.NumStages())
	}
	if f.Type() != FilterHighpass || f.Frequency() != 800 || f.Q() != 2 {
		t.Error("parameters disturbed by no-op rolloff call")
	}
}

// TestMultiModeFilter_SetRolloff_SwapCarriesParameters verifies swapping to
// -24 dB/octave produces exactly two stages with the prior type, frequency,
// and Q intact.
func TestMultiModeFilter_SetRolloff_SwapCarriesParameters(t *testing.T) {
	f, err := NewMultiModeFilter(48000)
	if err != nil {
		t.Fatalf("NewMultiModeFilter: %v", err)
	}

	f.SetType(FilterBandpass)
	f.SetFrequency(1200)
	f.SetQ(4)

	if changed := f.SetRolloff(Rolloff24); !changed {
		t.Fatal("SetRolloff(-24) from -12 reported no change")
	}
	if f.NumStages() != 2 {
		t.Fatalf("NumStages = %d, want 2", f.NumStages())
	}
	if f.Type() != FilterBandpass || f.Frequency() != 1200 || f.Q() != 4 {
		t.Error("parameters lost across rolloff swap")
	}
	if f.RolloffSlope() != Rolloff24 {
		t.Errorf("RolloffSlope = %d, want -24", f.RolloffSlope())
	}
}

// TestMultiModeFilter_UnknownSlopeFallsBack verifies unknown slope values
// map to -12 dB/octave.
func TestMultiModeFilter_UnknownSlopeFallsBack(t *testing.T) {
	f, _ := NewMultiModeFilter(48000)

	f.SetRolloff(Rolloff24)
	if changed := f.SetRolloff(Rolloff(-36)); !changed {
		t.Fatal("unknown slope from -24: expected change back to -12")
	}
	if f.RolloffSlope() != Rolloff12 {
		t.Errorf("RolloffSlope = %d, want -12", f.RolloffSlope())
	}
	if f.NumStages() != 1 {
		t.Errorf("NumStages = %d, want 1", f.NumStages())
	}
}

// TestMultiModeFilter_SwapWhileProcessingKeepsOutputBounded verifies that a
// rolloff swap mid-stream does not blow up or produce non-finite samples.
func TestMultiModeFilter_SwapWhileProcessingKeepsOutputBounded(t *testing.T) {
	const sampleRate = 48000.0

	f, _ := NewMultiModeFilter(sampleRate)
	f.SetType(FilterLowpass)
	f.SetFrequency(2000)
	f.SetQ(1)

	buf := testutil.DeterministicSine(440, sampleRate, 0.5, 512)
	f.ProcessBlock(buf)

	f.SetRolloff(Rolloff24)

	buf2 := testutil.DeterministicSine(440, sampleRate, 0.5, 512)
	f.ProcessBlock(buf2)

	testutil.RequireFinite(t, buf2)
	for i, v := range buf2 {
		if v > 4 || v < -4 {
			t.Fatalf("sample %d out of bounds after swap: %v", i, v)
		}
	}
}

// TestMultiModeFilter_ClampsParameters verifies out-of-range inputs are
// silently normalized to the documented bounds.
func TestMultiModeFilter_ClampsParameters(t *testing.T) {
	f, _ := NewMultiModeFilter(48000)

	f.SetFrequency(99999)
	if got := f.Frequency(); got != MaxFilterFrequency {
		t.Errorf("Frequency = %v, want %v", got, float64(MaxFilterFrequency))
	}

	f.SetFrequency(1)
	if got := f.Frequency(); got != MinFilterFrequency {
		t.Errorf("Frequency = %v, want %v", got, float64(MinFilterFrequency))
	}

	f.SetQ(50)
	if got := f.Q(); got != MaxFilterQ {
		t.Errorf("Q = %v, want %v", got, float64(MaxFilterQ))
	}
}

func TestParseFilterType_UnknownIndexIsLowpass(t *testing.T) {
	for _, idx := range []int{-1, 3, 99} {
		if got := ParseFilterType(idx); got != FilterLowpass {
			t.Errorf("ParseFilterType(%d) = %v, want lowpass", idx, got)
		}
	}
	if got := ParseFilterType(1); got != FilterHighpass {
		t.Errorf("ParseFilterType(1) = %v, want highpass", got)
	}
	if got := ParseFilterType(2); got != FilterBandpass {
		t.Errorf("ParseFilterType(2) = %v, want bandpass", got)
	}
}
