// Package delay provides a circular delay line with integer and
// fractional-sample reads.
package delay

import (
	"fmt"

	"github.com/cwbudde/stemmix/dsp/interp"
)

// Line is a fixed-size circular delay line. Reads are addressed backwards
// from the write head, so Read(1) returns the most recently written sample.
type Line struct {
	buffer []float64
	write  int
}

// New returns a delay line holding size samples. Fractional reads use the
// last 4 slots as interpolation guard, so size the line for the longest
// delay plus 4.
func New(size int) (*Line, error) {
	if size <= 4 {
		return nil, fmt.Errorf("delay: line size must be > 4: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the line capacity in samples.
func (d *Line) Len() int { return len(d.buffer) }

// Write stores one sample and advances the write head.
func (d *Line) Write(sample float64) {
	d.buffer[d.write] = sample
	d.write++
	if d.write >= len(d.buffer) {
		d.write = 0
	}
}

// Read returns the sample written back steps ago.
func (d *Line) Read(back int) float64 {
	size := len(d.buffer)
	idx := ((d.write-back)%size + size) % size
	return d.buffer[idx]
}

// ReadFractional returns the sample back samples behind the write head
// using cubic Hermite interpolation. back is clamped to [1, Len()-4].
func (d *Line) ReadFractional(back float64) float64 {
	maxBack := float64(len(d.buffer) - 4)
	if back < 1 {
		back = 1
	} else if back > maxBack {
		back = maxBack
	}

	whole := int(back)
	frac := back - float64(whole)

	// Larger back means older sample, so the neighbor order is reversed.
	return interp.Hermite4(frac,
		d.Read(whole-1),
		d.Read(whole),
		d.Read(whole+1),
		d.Read(whole+2),
	)
}

// Reset clears the line without resizing it.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.write = 0
}
