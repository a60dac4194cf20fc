package playback

import (
	"errors"
	"math"
	"testing"
)

// fakeElement records every call so tests can assert on the exact control
// traffic the synchronizer issues.
type fakeElement struct {
	name     string
	duration float64
	pos      float64
	rate     float64
	playErr  error

	playCalls   int
	pauseCalls  int
	setPosCalls int
}

func newFakeElement(name string, duration float64) *fakeElement {
	return &fakeElement{name: name, duration: duration, rate: NominalRate}
}

func (f *fakeElement) Name() string      { return f.name }
func (f *fakeElement) Duration() float64 { return f.duration }
func (f *fakeElement) Position() float64 { return f.pos }
func (f *fakeElement) Rate() float64     { return f.rate }

func (f *fakeElement) SetRate(rate float64) { f.rate = rate }
func (f *fakeElement) Pause()               { f.pauseCalls++ }

func (f *fakeElement) SetPosition(secs float64) {
	f.pos = secs
	f.setPosCalls++
}

func (f *fakeElement) Play() error {
	f.playCalls++
	return f.playErr
}

func newSyncWithElements(names []string, opts ...Option) (*Synchronizer, []*fakeElement) {
	fakes := make([]*fakeElement, len(names))
	elements := make([]Element, len(names))
	for i, name := range names {
		fakes[i] = newFakeElement(name, 180)
		elements[i] = fakes[i]
	}
	s := NewSynchronizer(opts...)
	s.SetElements(elements)
	return s, fakes
}

// TestLeaderElection_PatternScoring verifies rhythm-pattern scoring and the
// first-by-index fallback.
func TestLeaderElection_PatternScoring(t *testing.T) {
	cases := []struct {
		names  []string
		leader string
	}{
		{[]string{"SynthPad", "Kick", "Bass"}, "Kick"},
		{[]string{"SynthPad", "Lead"}, "SynthPad"},
		{[]string{"Main Drums", "Kick"}, "Kick"},
		{[]string{"Drums", "Main Drums"}, "Main Drums"},
		{[]string{"Bass", "Beat"}, "Beat"},
		{[]string{"Snare", "Hi-Hats"}, "Snare"}, // tie, earliest index
	}

	for _, tc := range cases {
		s, _ := newSyncWithElements(tc.names)
		leader := s.Leader()
		if leader == nil || leader.Name() != tc.leader {
			got := "<nil>"
			if leader != nil {
				got = leader.Name()
			}
			t.Errorf("names %v: leader = %s, want %s", tc.names, got, tc.leader)
		}
	}
}

// TestLeaderElection_CachedUntilElementsChange verifies the leader stays
// stable for one element set and is re-elected after SetElements.
func TestLeaderElection_CachedUntilElementsChange(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Pad", "Kick"})

	first := s.Leader()
	fakes[0].name = "Kick Kick Kick" // renaming must not move the leader
	if s.Leader() != first {
		t.Error("leader changed without SetElements")
	}

	s.SetElements([]Element{newFakeElement("Vocal", 10), newFakeElement("Drums", 10)})
	leader := s.Leader()
	if leader.Name() != "Drums" {
		t.Errorf("re-elected leader = %s, want Drums", leader.Name())
	}
}

// TestPlay_OptimisticStart verifies every element receives exactly one start
// call with no waiting, and only stragglers past the 100 ms threshold are
// repositioned.
func TestPlay_OptimisticStart(t *testing.T) {
	resumed := 0
	s, fakes := newSyncWithElements([]string{"Kick", "Bass", "Pad"},
		WithClockResume(func() { resumed++ }))
	fakes[0].pos = 0.0
	fakes[1].pos = 0.05 // inside threshold, stays put
	fakes[2].pos = 0.3  // past threshold, repositioned

	s.Play()

	if resumed != 1 {
		t.Errorf("clock resumed %d times, want 1", resumed)
	}
	for i, f := range fakes {
		if f.playCalls != 1 {
			t.Errorf("element %d: %d play calls, want 1", i, f.playCalls)
		}
	}
	if fakes[1].setPosCalls != 0 {
		t.Error("element inside reposition threshold was repositioned")
	}
	if fakes[2].setPosCalls != 1 || fakes[2].pos != 0 {
		t.Errorf("straggler not repositioned: calls=%d pos=%v", fakes[2].setPosCalls, fakes[2].pos)
	}
	if s.State() != Playing {
		t.Errorf("state = %v, want playing", s.State())
	}
}

// TestPlay_AbortSwallowedGenuineWarned verifies abort-class start rejections
// stay silent while genuine errors reach the warning callback, and neither
// aborts the session.
func TestPlay_AbortSwallowedGenuineWarned(t *testing.T) {
	var warned []string
	s, fakes := newSyncWithElements([]string{"Kick", "Bass", "Pad"},
		WithWarnFunc(func(element string, err error) { warned = append(warned, element) }))
	fakes[1].playErr = ErrAborted
	fakes[2].playErr = errors.New("decoder fault")

	s.Play()

	if len(warned) != 1 || warned[0] != "Pad" {
		t.Errorf("warned = %v, want [Pad]", warned)
	}
	if s.State() != Playing {
		t.Errorf("state = %v, want playing", s.State())
	}
}

// TestPause_ResetsRatesAndCapturesLeaderPosition verifies pause clears any
// active correction before halting and records the leader's position, not an
// arbitrary element's, as the resume point.
func TestPause_ResetsRatesAndCapturesLeaderPosition(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Pad", "Kick"})
	s.Play()

	fakes[0].pos = 12.4
	fakes[0].rate = NominalRate + SoftRateOffset
	fakes[1].pos = 12.5 // leader

	s.Pause()

	if fakes[0].rate != NominalRate {
		t.Errorf("rate after pause = %v, want nominal", fakes[0].rate)
	}
	for i, f := range fakes {
		if f.pauseCalls != 1 {
			t.Errorf("element %d: %d pause calls, want 1", i, f.pauseCalls)
		}
	}
	if got := s.CurrentTime(); got != 12.5 {
		t.Errorf("resume point = %v, want leader position 12.5", got)
	}
}

// TestSyncTick_HysteresisEnterExitDeadZone walks the documented hysteresis
// scenario: 25 ms ahead enters the nudge set slowed down, 3 ms exits it, and
// 10 ms in the dead zone without membership changes nothing.
func TestSyncTick_HysteresisEnterExitDeadZone(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	kick, pad := fakes[0], fakes[1]
	s.Play()

	kick.pos = 10.000
	pad.pos = 10.025 // ahead, past the entry threshold
	s.SyncTick()
	if want := NominalRate - SoftRateOffset; pad.rate != want {
		t.Errorf("rate after entry = %v, want %v", pad.rate, want)
	}

	pad.pos = kick.pos + 0.003 // under the exit threshold
	s.SyncTick()
	if pad.rate != NominalRate {
		t.Errorf("rate after exit = %v, want nominal", pad.rate)
	}

	pad.pos = kick.pos + 0.010 // dead zone, no longer nudged
	s.SyncTick()
	if pad.rate != NominalRate {
		t.Errorf("dead zone changed rate to %v", pad.rate)
	}
}

// TestSyncTick_NudgeContinuesThroughDeadZone verifies a stem that entered
// the nudge set keeps being corrected inside the dead zone until it crosses
// the exit threshold.
func TestSyncTick_NudgeContinuesThroughDeadZone(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	kick, pad := fakes[0], fakes[1]
	s.Play()

	kick.pos = 20.0
	pad.pos = 19.975 // behind, enters nudging sped up
	s.SyncTick()
	if want := NominalRate + SoftRateOffset; pad.rate != want {
		t.Fatalf("rate after entry = %v, want %v", pad.rate, want)
	}

	pad.pos = kick.pos - 0.010 // dead zone, but membership persists
	s.SyncTick()
	if want := NominalRate + SoftRateOffset; pad.rate != want {
		t.Errorf("rate in dead zone = %v, want %v (still nudging)", pad.rate, want)
	}
}

// TestSyncTick_TwoTierOffset verifies drift past 50 ms selects the stronger
// rate offset.
func TestSyncTick_TwoTierOffset(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	fakes[0].pos = 30.0
	fakes[1].pos = 30.0 - 0.060 // far behind
	s.Play()

	s.SyncTick()

	if want := NominalRate + StrongRateOffset; fakes[1].rate != want {
		t.Errorf("rate = %v, want %v", fakes[1].rate, want)
	}
}

// TestSyncTick_HardResync verifies drift past 500 ms snaps position and
// resets the rate regardless of prior nudging.
func TestSyncTick_HardResync(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	kick, pad := fakes[0], fakes[1]
	s.Play()

	kick.pos = 40.0
	pad.pos = 40.0 - 0.060
	s.SyncTick() // enters nudging first

	pad.pos = 40.6 // stall recovery scenario
	s.SyncTick()

	if pad.pos != kick.pos {
		t.Errorf("position = %v, want snapped to %v", pad.pos, kick.pos)
	}
	if pad.rate != NominalRate {
		t.Errorf("rate = %v, want nominal", pad.rate)
	}

	// Back in the dead zone after the snap: membership was cleared, so no
	// nudge resumes.
	pad.pos = kick.pos + 0.010
	s.SyncTick()
	if pad.rate != NominalRate {
		t.Errorf("nudging resumed after hard resync: rate = %v", pad.rate)
	}
}

// TestSyncTick_LeaderAlwaysNominal verifies the leader's own rate is forced
// back to nominal.
func TestSyncTick_LeaderAlwaysNominal(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	s.Play()
	fakes[0].rate = 1.01

	s.SyncTick()

	if fakes[0].rate != NominalRate {
		t.Errorf("leader rate = %v, want nominal", fakes[0].rate)
	}
}

// TestSyncTick_OptimisticOnlyPolicy verifies the optimistic-only mode never
// touches rates or positions no matter the drift.
func TestSyncTick_OptimisticOnlyPolicy(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"},
		WithPolicy(Policy{ActiveCorrection: false}))
	s.Play()

	fakes[0].pos = 50.0
	fakes[1].pos = 50.7
	fakes[1].setPosCalls = 0
	s.SyncTick()

	if fakes[1].rate != NominalRate {
		t.Errorf("rate = %v, want untouched nominal", fakes[1].rate)
	}
	if fakes[1].setPosCalls != 0 {
		t.Error("position snapped despite disabled correction")
	}
}

// TestSyncTick_IgnoredWhileNotPlaying verifies no correction runs outside
// the Playing state.
func TestSyncTick_IgnoredWhileNotPlaying(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	fakes[0].pos = 5.0
	fakes[1].pos = 6.0

	s.SyncTick()

	if fakes[1].pos != 6.0 || fakes[1].rate != NominalRate {
		t.Error("correction ran while stopped")
	}
}

// TestStateNotifications_ExactlyOnce verifies listeners see one event per
// actual change: redundant Play calls and mid-playback seeks emit nothing.
func TestStateNotifications_ExactlyOnce(t *testing.T) {
	var events []State
	s, _ := newSyncWithElements([]string{"Kick", "Pad"},
		WithStateListener(func(st State) { events = append(events, st) }))

	s.Play()
	s.Play() // redundant
	s.Seek(30)
	s.Pause()
	s.Pause() // redundant
	s.Play()
	s.Stop()

	want := []State{Playing, Paused, Playing, Stopped}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

// TestSeek_RepositionsAndResumes verifies the pause→reposition→resume
// sequence and the clamping of the target.
func TestSeek_RepositionsAndResumes(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	s.Play()

	s.Seek(30)

	for i, f := range fakes {
		if f.pos != 30 {
			t.Errorf("element %d position = %v, want 30", i, f.pos)
		}
		if f.playCalls != 2 { // initial play + resume after seek
			t.Errorf("element %d play calls = %d, want 2", i, f.playCalls)
		}
	}
	if s.State() != Playing {
		t.Errorf("state = %v, want playing", s.State())
	}

	s.Seek(9999)
	if fakes[0].pos != fakes[0].duration {
		t.Errorf("seek past end landed at %v, want %v", fakes[0].pos, fakes[0].duration)
	}

	s.Pause()
	s.Seek(12)
	if got := s.CurrentTime(); got != 12 {
		t.Errorf("current time after paused seek = %v, want 12", got)
	}
	if s.State() != Paused {
		t.Errorf("state = %v, want paused", s.State())
	}
}

// TestStop_Rewinds verifies stop rewinds every element and reports zero.
func TestStop_Rewinds(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Kick", "Pad"})
	s.Play()
	fakes[0].pos = 42
	fakes[1].pos = 42

	s.Stop()

	for i, f := range fakes {
		if f.pos != 0 {
			t.Errorf("element %d position = %v, want 0", i, f.pos)
		}
	}
	if got := s.CurrentTime(); got != 0 {
		t.Errorf("current time = %v, want 0", got)
	}
}

// TestCurrentTime_SourceDependsOnState verifies time reads from the leader
// while playing and from the captured point otherwise.
func TestCurrentTime_SourceDependsOnState(t *testing.T) {
	s, fakes := newSyncWithElements([]string{"Pad", "Kick"})
	s.Play()
	fakes[1].pos = 7.5 // leader
	fakes[0].pos = 7.1

	if got := s.CurrentTime(); got != 7.5 {
		t.Errorf("playing time = %v, want leader's 7.5", got)
	}

	s.Pause()
	fakes[1].pos = 99 // must not be consulted while paused
	if got := s.CurrentTime(); got != 7.5 {
		t.Errorf("paused time = %v, want captured 7.5", got)
	}
}

func TestFormatTime(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{5.4, "0:05"},
		{65, "1:05"},
		{600, "10:00"},
		{-3, "0:00"},
		{math.NaN(), "0:00"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.seconds); got != tc.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
