package loader

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MPEG-1 Layer III audio. The underlying decoder always
// produces 16-bit little-endian stereo PCM at the stream's sample rate.
type MP3Decoder struct{}

const mp3Channels = 2

func (MP3Decoder) Decode(r io.ReadSeeker) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("loader: mp3 decode: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("loader: mp3 decode: %w", err)
	}
	if len(pcm) < 2 {
		return nil, ErrEmptyClip
	}

	// Drop a trailing odd byte rather than failing the whole stem.
	sampleCount := len(pcm) / 2
	sampleCount -= sampleCount % mp3Channels

	samples := make([]float64, sampleCount)
	for i := range samples {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		samples[i] = float64(v) / 32768.0
	}

	return NewClip(samples, dec.SampleRate(), mp3Channels)
}
