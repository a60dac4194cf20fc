package loader

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// OggDecoder decodes Ogg Vorbis audio.
type OggDecoder struct{}

func (OggDecoder) Decode(r io.ReadSeeker) (*Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: ogg decode: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyClip
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	return NewClip(samples, format.SampleRate, format.Channels)
}
