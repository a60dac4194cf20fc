package engine

import (
	"math"

	"github.com/cwbudde/stemmix/dsp/interp"
	"github.com/cwbudde/stemmix/loader"
)

// clipElement adapts a decoded clip to the synchronizer's element contract
// and renders it as a mono stream. Position advances by the playback rate,
// so rate nudges issued by the synchronizer audibly speed the stem up or
// slow it down; fractional positions are read with Hermite interpolation.
type clipElement struct {
	name       string
	clip       *loader.Clip
	outputRate float64

	pos     float64 // clip frames, fractional
	rate    float64
	playing bool
}

func newClipElement(name string, clip *loader.Clip, outputRate float64) *clipElement {
	return &clipElement{
		name:       name,
		clip:       clip,
		outputRate: outputRate,
		rate:       1,
	}
}

func (e *clipElement) Name() string      { return e.name }
func (e *clipElement) Duration() float64 { return e.clip.Duration() }
func (e *clipElement) Rate() float64     { return e.rate }

func (e *clipElement) SetRate(rate float64) {
	if rate > 0 {
		e.rate = rate
	}
}

func (e *clipElement) Position() float64 {
	return e.pos / float64(e.clip.SampleRate())
}

func (e *clipElement) SetPosition(seconds float64) {
	frames := seconds * float64(e.clip.SampleRate())
	e.pos = math.Max(0, math.Min(frames, float64(e.clip.Frames())))
}

func (e *clipElement) Play() error {
	e.playing = true
	return nil
}

func (e *clipElement) Pause() {
	e.playing = false
}

// monoAt mixes all channels of one frame down to a single value.
func (e *clipElement) monoAt(frame int) float64 {
	channels := e.clip.Channels()
	sum := 0.0
	for ch := range channels {
		sum += e.clip.Sample(frame, ch)
	}
	return sum / float64(channels)
}

// ReadBlock renders the next dst-sized mono block, advancing the position
// by the current rate. A paused or exhausted element renders silence.
func (e *clipElement) ReadBlock(dst []float64) {
	if !e.playing {
		clear(dst)
		return
	}

	step := e.rate * float64(e.clip.SampleRate()) / e.outputRate
	end := float64(e.clip.Frames())

	for i := range dst {
		if e.pos >= end {
			dst[i] = 0
			continue
		}
		whole := int(e.pos)
		frac := e.pos - float64(whole)
		dst[i] = interp.Hermite4(frac,
			e.monoAt(whole-1), e.monoAt(whole),
			e.monoAt(whole+1), e.monoAt(whole+2))
		e.pos += step
	}
}
