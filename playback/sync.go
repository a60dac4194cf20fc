package playback

import (
	"errors"
	"fmt"
	"math"
)

// NominalRate is the natural playback speed.
const NominalRate = 1.0

// Drift-correction thresholds and rate offsets, in seconds and rate
// multipliers. These are perceptually tuned values; they are not derivable
// from first principles and should not be "improved" mathematically.
const (
	// HardResyncThreshold is the drift beyond which a stem is snapped to
	// the leader's position instead of nudged. Drift this large means a
	// stall or rebuffer, not clock skew.
	HardResyncThreshold = 0.500

	// NudgeEnterThreshold and NudgeExitThreshold bound the hysteresis
	// band: a stem starts being nudged above the entry threshold and
	// stops only after drift falls under the tighter exit threshold.
	NudgeEnterThreshold = 0.020
	NudgeExitThreshold  = 0.005

	// StrongNudgeThreshold selects the larger of the two rate offsets.
	StrongNudgeThreshold = 0.050

	SoftRateOffset   = 0.002
	StrongRateOffset = 0.005

	// repositionThreshold is the play-time position gap above which a stem
	// is repositioned to the resume point before starting.
	repositionThreshold = 0.100

	// rateEpsilon guards rate comparisons so a value already at target is
	// not redundantly rewritten.
	rateEpsilon = 1e-6
)

// State is the synchronizer's playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Policy selects between the two supported correction modes. With
// ActiveCorrection off the synchronizer relies solely on the optimistic
// simultaneous start and the play-time repositioning threshold; rate nudges
// and hard resyncs are never issued. Platforms where rate changes or hard
// seeks audibly stutter run with it off.
type Policy struct {
	ActiveCorrection bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithPolicy sets the device correction policy.
func WithPolicy(p Policy) Option {
	return func(s *Synchronizer) { s.policy = p }
}

// WithClockResume registers a hook invoked unconditionally at the start of
// every Play. Platforms that suspend their audio clock ignore playback calls
// until the clock is explicitly resumed.
func WithClockResume(fn func()) Option {
	return func(s *Synchronizer) { s.resumeClock = fn }
}

// WithStateListener registers a callback notified exactly once per state
// change.
func WithStateListener(fn func(State)) Option {
	return func(s *Synchronizer) { s.onStateChange = fn }
}

// WithWarnFunc registers a callback for per-element playback-start errors
// that are not abort-class. Abort-class rejections are swallowed silently.
func WithWarnFunc(fn func(element string, err error)) Option {
	return func(s *Synchronizer) { s.warn = fn }
}

// Synchronizer keeps a set of elements in phase. All methods must be called
// from a single control context; the synchronizer owns its leader cache and
// nudge set and nothing mutates them externally.
type Synchronizer struct {
	elements []Element
	policy   Policy

	resumeClock   func()
	onStateChange func(State)
	warn          func(element string, err error)

	state     State
	pausedAt  float64
	leaderIdx int // -1 until elected
	nudged    []bool
}

// NewSynchronizer creates a synchronizer with no elements. Active correction
// defaults to on.
func NewSynchronizer(opts ...Option) *Synchronizer {
	s := &Synchronizer{
		policy:    Policy{ActiveCorrection: true},
		leaderIdx: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetElements replaces the element set, invalidating the cached leader and
// clearing all nudge membership.
func (s *Synchronizer) SetElements(elements []Element) {
	s.elements = elements
	s.leaderIdx = -1
	s.nudged = make([]bool, len(elements))
}

// Elements returns the current element set.
func (s *Synchronizer) Elements() []Element { return s.elements }

// State returns the current playback state.
func (s *Synchronizer) State() State { return s.state }

// Leader returns the elected leader element, electing one on first use. The
// result is stable for the lifetime of the current element set. Returns nil
// with no elements.
func (s *Synchronizer) Leader() Element {
	if len(s.elements) == 0 {
		return nil
	}
	if s.leaderIdx < 0 {
		s.leaderIdx = electLeaderIndex(s.elements)
	}
	return s.elements[s.leaderIdx]
}

// Play starts or resumes playback from the captured resume position. The
// clock-resume hook runs first; elements further than the repositioning
// threshold from the resume point are repositioned; then every element is
// started without waiting for confirmation from any of them.
func (s *Synchronizer) Play() {
	if s.state == Playing || len(s.elements) == 0 {
		return
	}
	s.startAll(s.pausedAt)
	s.setState(Playing)
}

// Pause halts playback. Every element's rate is reset to nominal first so a
// later resume never inherits a stale correction, and the leader's position
// is captured as the authoritative resume point.
func (s *Synchronizer) Pause() {
	if s.state != Playing {
		return
	}
	s.haltAll()
	s.setState(Paused)
}

// Stop halts playback and rewinds every element to zero.
func (s *Synchronizer) Stop() {
	if s.state == Playing {
		s.haltAll()
	}
	for _, el := range s.elements {
		el.SetPosition(0)
	}
	s.pausedAt = 0
	s.setState(Stopped)
}

// Seek repositions every element to the clamped target. If playing, the
// rate-reset + pause sequence runs first and playback resumes afterwards;
// the state observed by listeners never leaves Playing.
func (s *Synchronizer) Seek(seconds float64) {
	wasPlaying := s.state == Playing
	if wasPlaying {
		s.haltAll()
	}

	target := math.Max(0, math.Min(seconds, s.Duration()))
	for _, el := range s.elements {
		el.SetPosition(target)
	}
	s.pausedAt = target

	if wasPlaying {
		s.startAll(target)
	}
}

// SyncTick runs one drift-correction pass. Call it periodically (about once
// per second) while playing; it is a no-op otherwise, and a no-op under an
// optimistic-only policy.
func (s *Synchronizer) SyncTick() {
	if s.state != Playing || !s.policy.ActiveCorrection {
		return
	}
	leader := s.Leader()
	if leader == nil {
		return
	}

	// One leader read per tick: every drift below is measured against the
	// same reference instant.
	leaderPos := leader.Position()

	// The leader always runs at natural speed.
	setRate(leader, NominalRate)

	for i, el := range s.elements {
		if i == s.leaderIdx {
			continue
		}

		drift := el.Position() - leaderPos
		magnitude := math.Abs(drift)

		switch {
		case magnitude > HardResyncThreshold:
			// Stall or rebuffer: snap, never nudge.
			el.SetPosition(leaderPos)
			setRate(el, NominalRate)
			s.nudged[i] = false

		case s.nudged[i] && magnitude < NudgeExitThreshold:
			setRate(el, NominalRate)
			s.nudged[i] = false

		case magnitude > NudgeEnterThreshold || s.nudged[i]:
			// Once nudging starts it continues through the dead zone
			// until the exit threshold is reached.
			offset := SoftRateOffset
			if magnitude > StrongNudgeThreshold {
				offset = StrongRateOffset
			}
			if drift > 0 {
				// Ahead of the leader: slow down.
				offset = -offset
			}
			setRate(el, NominalRate+offset)
			s.nudged[i] = true

		default:
			// Dead zone between exit and entry thresholds: leave alone.
		}
	}
}

// CurrentTime returns the leader's position while playing and the captured
// resume point otherwise. Wall-clock time is never used; only the leader's
// own media position is trusted.
func (s *Synchronizer) CurrentTime() float64 {
	if s.state == Playing {
		if leader := s.Leader(); leader != nil {
			return leader.Position()
		}
	}
	return s.pausedAt
}

// Duration returns the longest element duration.
func (s *Synchronizer) Duration() float64 {
	longest := 0.0
	for _, el := range s.elements {
		if d := el.Duration(); d > longest {
			longest = d
		}
	}
	return longest
}

// startAll repositions stragglers to the target and issues simultaneous
// starts without waiting for confirmation from any element. Waiting would
// serialize start latency across N elements and can invalidate the
// user-gesture permission some platforms require.
func (s *Synchronizer) startAll(target float64) {
	if s.resumeClock != nil {
		s.resumeClock()
	}

	for _, el := range s.elements {
		if math.Abs(el.Position()-target) > repositionThreshold {
			el.SetPosition(target)
		}
	}

	for _, el := range s.elements {
		if err := el.Play(); err != nil {
			if errors.Is(err, ErrAborted) {
				continue
			}
			if s.warn != nil {
				s.warn(el.Name(), err)
			}
		}
	}
}

// haltAll resets every rate to nominal, captures the leader's position as
// the resume point, and pauses every element.
func (s *Synchronizer) haltAll() {
	for i, el := range s.elements {
		setRate(el, NominalRate)
		s.nudged[i] = false
	}
	if leader := s.Leader(); leader != nil {
		s.pausedAt = leader.Position()
	}
	for _, el := range s.elements {
		el.Pause()
	}
}

func (s *Synchronizer) setState(next State) {
	if s.state == next {
		return
	}
	s.state = next
	if s.onStateChange != nil {
		s.onStateChange(next)
	}
}

// setRate writes the rate only when it actually differs.
func setRate(el Element, rate float64) {
	if math.Abs(el.Rate()-rate) > rateEpsilon {
		el.SetRate(rate)
	}
}

// FormatTime renders seconds as m:ss for display.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	whole := int(seconds)
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}
