package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// WAVDecoder decodes RIFF/WAVE PCM audio.
type WAVDecoder struct{}

// Decode reads the full PCM payload and normalizes it by the source bit
// depth.
func (WAVDecoder) Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("loader: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("loader: wav decode: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyClip
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) * scale
	}

	return NewClip(samples, buf.Format.SampleRate, buf.Format.NumChannels)
}
