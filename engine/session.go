// Package engine assembles a complete mixing session: decoded stems, their
// effect chains and the shared reverb bus, the mixer state, the playback
// synchronizer, and the level meters. The surrounding environment drives it
// with periodic render, sync, and meter ticks and pushes user edits through
// the state methods.
package engine

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/stemmix/fx"
	"github.com/cwbudde/stemmix/loader"
	"github.com/cwbudde/stemmix/meter"
	"github.com/cwbudde/stemmix/mix"
	"github.com/cwbudde/stemmix/playback"
)

const (
	DefaultSampleRate = 44100.0
	DefaultBlockSize  = 1024
)

// stemUnit ties one stem's playable element to its effect chain.
type stemUnit struct {
	stem    *loader.Stem
	element *clipElement
	chain   *fx.Chain
	mono    []float64
}

// masterTap holds the post-master-gain stereo block for metering.
type masterTap struct {
	left  []float64
	right []float64
}

func (t *masterTap) MeterTap() ([]float64, []float64) { return t.left, t.right }

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	sampleRate  float64
	blockSize   int
	onState     func(playback.State)
	warn        func(element string, err error)
	resumeClock func()
}

// WithSampleRate sets the output sample rate.
func WithSampleRate(rate float64) Option {
	return func(c *sessionConfig) { c.sampleRate = rate }
}

// WithBlockSize sets the render block size.
func WithBlockSize(n int) Option {
	return func(c *sessionConfig) { c.blockSize = n }
}

// WithStateListener registers the playback state-change callback.
func WithStateListener(fn func(playback.State)) Option {
	return func(c *sessionConfig) { c.onState = fn }
}

// WithClockResume registers a hook invoked before playback starts, for
// output backends whose clock must be resumed explicitly.
func WithClockResume(fn func()) Option {
	return func(c *sessionConfig) { c.resumeClock = fn }
}

// WithWarnFunc registers the callback for non-abort playback warnings.
func WithWarnFunc(fn func(element string, err error)) Option {
	return func(c *sessionConfig) { c.warn = fn }
}

// Session is one live mixing session. Control methods and the tick methods
// (RenderBlock, SyncTick, MeterTick) must all run on the session's single
// control context; the session does no internal locking.
type Session struct {
	sampleRate float64
	blockSize  int

	stems  []*stemUnit
	bus    *fx.ReverbBus
	state  *mix.State
	sync   *playback.Synchronizer
	meters *meter.Sampler

	masterGain *fx.Gain
	master     *masterTap

	spectrum   *meter.Spectrum
	spectrumIn []float64

	mixL []float64
	mixR []float64
}

// NewSession wires every loaded stem into a chain against a shared reverb
// bus sized by the device profile, registers meters and the synchronizer,
// and initializes the mixer state to defaults.
func NewSession(stems []*loader.Stem, profile loader.Profile, opts ...Option) (*Session, error) {
	if len(stems) == 0 {
		return nil, fmt.Errorf("engine: session needs at least one stem")
	}

	cfg := sessionConfig{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	irSeconds := profile.ReverbSeconds
	if irSeconds <= 0 {
		irSeconds = fx.DesktopReverbSeconds
	}
	bus, err := fx.NewReverbBus(cfg.sampleRate, irSeconds, cfg.blockSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		sampleRate: cfg.sampleRate,
		blockSize:  cfg.blockSize,
		bus:        bus,
		state:      mix.NewState(len(stems)),
		meters:     meter.NewSampler(),
		master: &masterTap{
			left:  make([]float64, cfg.blockSize),
			right: make([]float64, cfg.blockSize),
		},
		mixL: make([]float64, cfg.blockSize),
		mixR: make([]float64, cfg.blockSize),
	}

	if s.masterGain, err = fx.NewGain(cfg.sampleRate, 1); err != nil {
		return nil, err
	}

	elements := make([]playback.Element, 0, len(stems))
	for _, stem := range stems {
		chain, err := fx.NewChain(cfg.sampleRate, bus)
		if err != nil {
			return nil, fmt.Errorf("engine: chain for %q: %w", stem.Name, err)
		}
		unit := &stemUnit{
			stem:    stem,
			element: newClipElement(stem.Name, stem.Clip, cfg.sampleRate),
			chain:   chain,
			mono:    make([]float64, cfg.blockSize),
		}
		s.stems = append(s.stems, unit)
		s.meters.AddStem(stem.Name, chain, cfg.blockSize)
		elements = append(elements, unit.element)
	}
	s.meters.SetMasterTap(s.master, cfg.blockSize)

	syncOpts := []playback.Option{
		playback.WithPolicy(playback.Policy{ActiveCorrection: profile.ActiveSyncCorrection}),
	}
	if cfg.onState != nil {
		syncOpts = append(syncOpts, playback.WithStateListener(cfg.onState))
	}
	if cfg.warn != nil {
		syncOpts = append(syncOpts, playback.WithWarnFunc(cfg.warn))
	}
	if cfg.resumeClock != nil {
		syncOpts = append(syncOpts, playback.WithClockResume(cfg.resumeClock))
	}
	s.sync = playback.NewSynchronizer(syncOpts...)
	s.sync.SetElements(elements)

	s.applyAll()

	return s, nil
}

// NumStems returns the number of stems in the session.
func (s *Session) NumStems() int { return len(s.stems) }

// StemName returns a stem's display name.
func (s *Session) StemName(stem int) string {
	if stem < 0 || stem >= len(s.stems) {
		return ""
	}
	return s.stems[stem].stem.Name
}

// Transport.

func (s *Session) Play()            { s.sync.Play() }
func (s *Session) Pause()           { s.sync.Pause() }
func (s *Session) Stop()            { s.sync.Stop() }
func (s *Session) Seek(sec float64) { s.sync.Seek(sec) }

func (s *Session) State() playback.State { return s.sync.State() }

// CurrentTime returns the leader-derived playback time in seconds.
func (s *Session) CurrentTime() float64 { return s.sync.CurrentTime() }

// Duration returns the longest stem duration in seconds.
func (s *Session) Duration() float64 { return s.sync.Duration() }

// FormattedTime returns "current / total" as m:ss values.
func (s *Session) FormattedTime() string {
	return playback.FormatTime(s.CurrentTime()) + " / " + playback.FormatTime(s.Duration())
}

// Mixer state edits. Every edit lands in the state first, which clamps it,
// and the stored value is then pushed into the audio path.

// SetVolume sets a stem's volume.
func (s *Session) SetVolume(stem int, v float64) {
	s.state.SetVolume(stem, v)
	s.applyGains()
}

// ToggleMute flips a stem's mute flag.
func (s *Session) ToggleMute(stem int) bool {
	muted := s.state.ToggleMute(stem)
	s.applyGains()
	return muted
}

// ToggleSolo flips a stem's solo flag. Soloing re-gates every stem.
func (s *Session) ToggleSolo(stem int) bool {
	solo := s.state.ToggleSolo(stem)
	s.applyGains()
	return solo
}

// SetMasterVolume sets the master volume.
func (s *Session) SetMasterVolume(v float64) {
	s.state.SetMasterVolume(v)
	s.masterGain.SetLevel(s.state.MasterVolume())
}

// SetFx sets one effect parameter addressed by category and field.
func (s *Session) SetFx(stem int, category, field string, value float64) error {
	if err := s.state.SetFx(stem, category, field, value); err != nil {
		return err
	}
	s.applyStemFX(stem)
	return nil
}

// Reset restores the default mix.
func (s *Session) Reset() {
	s.state.Reset()
	s.applyAll()
}

// ShareString encodes the current mix for sharing.
func (s *Session) ShareString() string { return s.state.Encode() }

// ApplyShareString decodes a shared mix and applies it to the audio path.
// A malformed string leaves both state and audio untouched.
func (s *Session) ApplyShareString(encoded string) error {
	if err := s.state.Decode(encoded); err != nil {
		return err
	}
	s.applyAll()
	return nil
}

// IsAudible reports whether a stem currently sounds, honoring mute and solo
// arbitration.
func (s *Session) IsAudible(stem int) bool { return s.state.IsAudible(stem) }

// Ticks.

// RenderBlock renders the next stereo block into outL/outR, which must be
// blockSize long. Every stem renders through its chain into the mix bus,
// the shared reverb wet signal joins it, and the master gain shapes the
// result.
func (s *Session) RenderBlock(outL, outR []float64) error {
	if len(outL) != s.blockSize || len(outR) != s.blockSize {
		return fmt.Errorf("engine: render block must be %d samples, got %d/%d",
			s.blockSize, len(outL), len(outR))
	}

	clear(s.mixL)
	clear(s.mixR)

	for _, u := range s.stems {
		u.element.ReadBlock(u.mono)
		if err := u.chain.ProcessBlock(u.mono, s.mixL, s.mixR); err != nil {
			return fmt.Errorf("engine: stem %q: %w", u.stem.Name, err)
		}
	}

	wetL, wetR, err := s.bus.Process()
	if err != nil {
		return err
	}
	vecmath.AddBlockInPlace(s.mixL, wetL)
	vecmath.AddBlockInPlace(s.mixR, wetR)

	s.masterGain.ProcessBlock(s.mixL, s.mixR)

	copy(s.master.left, s.mixL)
	copy(s.master.right, s.mixR)
	copy(outL, s.mixL)
	copy(outR, s.mixR)

	return nil
}

// SyncTick runs one drift-correction pass; call about once per second.
func (s *Session) SyncTick() { s.sync.SyncTick() }

// MeterTick refreshes all level readings.
func (s *Session) MeterTick() {
	anySolo := s.state.AnySolo()
	s.meters.Update(func(stem int) bool {
		return s.state.IsAudible(stem, anySolo)
	})
}

// Level returns a stem's normalized level from the last MeterTick.
func (s *Session) Level(stem int) float64 { return s.meters.Level(stem) }

// MasterLevel returns the master level from the last MeterTick.
func (s *Session) MasterLevel() float64 { return s.meters.MasterLevel() }

// HasSignal reports whether a stem carries signal.
func (s *Session) HasSignal(stem int) bool { return s.meters.HasSignal(stem) }

// MasterSpectrum returns the magnitude spectrum of the mono downmix of the
// last rendered master block, for frequency-domain consumers such as
// visualizers. The returned slice holds blockSize/2 bins and is reused
// between calls. The block size must be a power of two.
func (s *Session) MasterSpectrum() ([]float64, error) {
	if s.spectrum == nil {
		sp, err := meter.NewSpectrum(s.blockSize)
		if err != nil {
			return nil, err
		}
		s.spectrum = sp
		s.spectrumIn = make([]float64, s.blockSize)
	}

	vecmath.AddBlock(s.spectrumIn, s.master.left, s.master.right)
	vecmath.ScaleBlockInPlace(s.spectrumIn, 0.5)

	return s.spectrum.Snapshot(s.spectrumIn)
}

// applyStemFX pushes one stem's stored effect parameters into its chain.
func (s *Session) applyStemFX(stem int) {
	if stem < 0 || stem >= len(s.stems) {
		return
	}
	st := s.state.Stem(stem)
	chain := s.stems[stem].chain

	chain.EQ.SetLowGain(st.FX.EQLowDB)
	chain.EQ.SetMidGain(st.FX.EQMidDB)
	chain.EQ.SetHighGain(st.FX.EQHighDB)

	chain.Filter.SetType(st.FX.FilterType)
	chain.Filter.SetFrequency(st.FX.FilterFreqHz)
	chain.Filter.SetQ(st.FX.FilterQ)
	chain.Filter.SetRolloff(st.FX.Rolloff)

	chain.Delay.SetTime(st.FX.DelayTimeSec)
	chain.Delay.SetFeedback(st.FX.DelayFeedback)
	chain.Delay.SetMix(st.FX.DelayMixPct / 100)

	chain.Pan.SetPosition(st.FX.Pan)
	chain.SetReverbSend(st.FX.ReverbSendPct / 100)
}

// applyGains re-gates every stem: audible stems run at their volume,
// inaudible ones ramp to silence through the same smoothed gain.
func (s *Session) applyGains() {
	anySolo := s.state.AnySolo()
	for i, u := range s.stems {
		level := 0.0
		if s.state.IsAudible(i, anySolo) {
			level = s.state.Stem(i).Volume
		}
		u.chain.Gain.SetLevel(level)
	}
	s.masterGain.SetLevel(s.state.MasterVolume())
}

func (s *Session) applyAll() {
	for i := range s.stems {
		s.applyStemFX(i)
	}
	s.applyGains()
}
