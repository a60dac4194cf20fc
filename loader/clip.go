package loader

import "errors"

// ErrEmptyClip is returned for decoded audio with no frames.
var ErrEmptyClip = errors.New("loader: decoded clip is empty")

// Clip is fully decoded PCM audio: interleaved float64 samples in [-1, 1].
// Clips are immutable after construction and safe for concurrent reads.
type Clip struct {
	samples    []float64
	sampleRate int
	channels   int
}

// NewClip wraps interleaved samples. The sample count must be a whole number
// of frames.
func NewClip(samples []float64, sampleRate, channels int) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, errors.New("loader: sample rate must be positive")
	}
	if channels <= 0 {
		return nil, errors.New("loader: channel count must be positive")
	}
	if len(samples) == 0 {
		return nil, ErrEmptyClip
	}
	if len(samples)%channels != 0 {
		return nil, errors.New("loader: sample count not a whole number of frames")
	}
	return &Clip{samples: samples, sampleRate: sampleRate, channels: channels}, nil
}

// SampleRate returns the clip's sample rate in Hz.
func (c *Clip) SampleRate() int { return c.sampleRate }

// Channels returns the channel count.
func (c *Clip) Channels() int { return c.channels }

// Frames returns the frame count.
func (c *Clip) Frames() int { return len(c.samples) / c.channels }

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	return float64(c.Frames()) / float64(c.sampleRate)
}

// Sample returns one channel's value at a frame. Out-of-range frames read as
// silence; channel indices past the clip's channel count fold back onto the
// last channel so mono clips serve stereo readers.
func (c *Clip) Sample(frame, channel int) float64 {
	if frame < 0 || frame >= c.Frames() {
		return 0
	}
	if channel >= c.channels {
		channel = c.channels - 1
	}
	return c.samples[frame*c.channels+channel]
}
