package meter

import (
	"math"
	"testing"

	"github.com/cwbudde/stemmix/internal/testutil"
)

// fakeTap serves fixed stereo blocks and counts reads so tests can prove a
// tap was never consulted.
type fakeTap struct {
	left, right []float64
	reads       int
}

func (f *fakeTap) MeterTap() ([]float64, []float64) {
	f.reads++
	return f.left, f.right
}

func constTap(value float64, blockSize int) *fakeTap {
	left := make([]float64, blockSize)
	right := make([]float64, blockSize)
	for i := range left {
		left[i] = value
		right[i] = value
	}
	return &fakeTap{left: left, right: right}
}

// TestSampler_FullScaleSine verifies the RMS→dB→normalized mapping: a
// full-scale sine sits at -3 dB, which lands at 0.95 on the display range.
func TestSampler_FullScaleSine(t *testing.T) {
	const blockSize = 512
	sine := testutil.DeterministicSine(8, blockSize, 1, blockSize)
	tap := &fakeTap{left: sine, right: sine}

	s := NewSampler()
	s.AddStem("Kick", tap, blockSize)
	s.Update(nil)

	want := (20*math.Log10(1/math.Sqrt2) - MinLevelDB) / -MinLevelDB
	if got := s.Level(0); math.Abs(got-want) > 1e-3 {
		t.Errorf("level = %v, want %v", got, want)
	}
}

func TestSampler_SilenceReadsZero(t *testing.T) {
	s := NewSampler()
	s.AddStem("Pad", constTap(0, 64), 64)
	s.Update(nil)

	if got := s.Level(0); got != 0 {
		t.Errorf("level = %v, want 0", got)
	}
	if s.HasSignal(0) {
		t.Error("silence reported as signal")
	}
}

// TestSampler_InactiveStemSkipsBuffer verifies a stem the audibility
// predicate rejects reports zero without its tap being read.
func TestSampler_InactiveStemSkipsBuffer(t *testing.T) {
	loud := constTap(0.5, 64)
	muted := constTap(0.5, 64)

	s := NewSampler()
	s.AddStem("Loud", loud, 64)
	s.AddStem("Muted", muted, 64)

	s.Update(func(stem int) bool { return stem == 0 })

	if s.Level(0) == 0 {
		t.Error("audible stem read zero")
	}
	if got := s.Level(1); got != 0 {
		t.Errorf("inactive stem level = %v, want 0", got)
	}
	if muted.reads != 0 {
		t.Errorf("inactive stem tap read %d times, want 0", muted.reads)
	}
}

// TestSampler_HasSignalThreshold brackets the 5% presence threshold.
func TestSampler_HasSignalThreshold(t *testing.T) {
	// DC of 2e-3 is about -54 dB → normalized 0.10; 1e-3 is -60 dB → 0.
	above := constTap(2e-3, 64)
	below := constTap(1e-3, 64)

	s := NewSampler()
	s.AddStem("Above", above, 64)
	s.AddStem("Below", below, 64)
	s.Update(nil)

	if !s.HasSignal(0) {
		t.Errorf("level %v not flagged as signal", s.Level(0))
	}
	if s.HasSignal(1) {
		t.Errorf("level %v flagged as signal", s.Level(1))
	}
}

// TestSampler_ClampsAboveFullScale verifies levels past 0 dB pin at 1.
func TestSampler_ClampsAboveFullScale(t *testing.T) {
	s := NewSampler()
	s.AddStem("Hot", constTap(2.0, 64), 64)
	s.Update(nil)

	if got := s.Level(0); got != 1 {
		t.Errorf("level = %v, want clamped 1", got)
	}
}

func TestSampler_MasterTap(t *testing.T) {
	s := NewSampler()
	s.AddStem("Kick", constTap(0, 64), 64)
	s.SetMasterTap(constTap(0.1, 64), 64)
	s.Update(nil)

	want := (20*math.Log10(0.1) - MinLevelDB) / -MinLevelDB
	if got := s.MasterLevel(); math.Abs(got-want) > 1e-9 {
		t.Errorf("master level = %v, want %v", got, want)
	}
}

func TestSampler_OutOfRangeStem(t *testing.T) {
	s := NewSampler()
	if s.Level(3) != 0 || s.HasSignal(-1) {
		t.Error("out-of-range stem index not silent")
	}
}

// TestSpectrum_PeakAtToneBin verifies a pure tone at an exact bin frequency
// produces its magnitude peak at that bin.
func TestSpectrum_PeakAtToneBin(t *testing.T) {
	const size = 256
	const bin = 8

	sp, err := NewSpectrum(size)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}

	samples := testutil.DeterministicSine(bin, size, 1, size)

	mags, err := sp.Snapshot(samples)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(mags) != size/2 {
		t.Fatalf("got %d bins, want %d", len(mags), size/2)
	}

	peak := 0
	for i, m := range mags {
		if m > mags[peak] {
			peak = i
		}
	}
	if peak != bin {
		t.Errorf("peak at bin %d, want %d", peak, bin)
	}
}

func TestSpectrum_InputValidation(t *testing.T) {
	if _, err := NewSpectrum(100); err == nil {
		t.Error("non-power-of-two size accepted")
	}

	sp, err := NewSpectrum(64)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	if _, err := sp.Snapshot(make([]float64, 32)); err == nil {
		t.Error("short block accepted")
	}
}
