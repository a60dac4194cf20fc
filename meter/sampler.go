// Package meter turns analysis-tap audio into normalized display levels.
// RMS is converted to dB and mapped linearly from [-60, 0] dB onto [0, 1];
// inactive stems report zero without touching their buffers.
package meter

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/stemmix/dsp/core"
)

const (
	// MinLevelDB is the floor of the display range; RMS at or below it
	// reads as zero.
	MinLevelDB = -60.0

	// HasSignalThreshold is the normalized level above which a stem counts
	// as carrying signal.
	HasSignalThreshold = 0.05
)

// Tap exposes the most recent stereo analysis block of one signal path.
type Tap interface {
	MeterTap() (left, right []float64)
}

// stemMeter holds one tap and its reused measurement buffers.
type stemMeter struct {
	name  string
	tap   Tap
	buf   []float64
	sq    []float64
	level float64
}

func (m *stemMeter) measure() float64 {
	left, right := m.tap.MeterTap()
	n := copy(m.buf, left)
	n += copy(m.buf[n:], right)
	if n == 0 {
		return 0
	}

	window := m.buf[:n]
	squares := m.sq[:n]
	vecmath.MulBlock(squares, window, window)

	sum := 0.0
	for _, v := range squares {
		sum += v
	}
	return normalizeRMS(math.Sqrt(sum / float64(n)))
}

// Sampler computes per-stem and master levels once per update tick. All
// buffers are allocated at registration time; the tick path never
// allocates. Not safe for concurrent use; the session's scheduler drives it
// from one goroutine.
type Sampler struct {
	stems  []*stemMeter
	master *stemMeter
}

// NewSampler creates an empty sampler.
func NewSampler() *Sampler { return &Sampler{} }

// AddStem registers one stem's tap and returns its meter index. BlockSize
// is the tap's per-channel block length.
func (s *Sampler) AddStem(name string, tap Tap, blockSize int) int {
	s.stems = append(s.stems, newStemMeter(name, tap, blockSize))
	return len(s.stems) - 1
}

// SetMasterTap registers the master analysis tap.
func (s *Sampler) SetMasterTap(tap Tap, blockSize int) {
	s.master = newStemMeter("master", tap, blockSize)
}

func newStemMeter(name string, tap Tap, blockSize int) *stemMeter {
	return &stemMeter{
		name: name,
		tap:  tap,
		buf:  make([]float64, 2*blockSize),
		sq:   make([]float64, 2*blockSize),
	}
}

// Update recomputes every level. Stems the audible predicate rejects are
// reported as zero without reading their taps; a nil predicate treats all
// stems as audible.
func (s *Sampler) Update(audible func(stem int) bool) {
	for i, m := range s.stems {
		if audible != nil && !audible(i) {
			m.level = 0
			continue
		}
		m.level = m.measure()
	}
	if s.master != nil {
		s.master.level = s.master.measure()
	}
}

// NumStems returns the registered stem count.
func (s *Sampler) NumStems() int { return len(s.stems) }

// Level returns a stem's normalized level from the last Update.
func (s *Sampler) Level(stem int) float64 {
	if stem < 0 || stem >= len(s.stems) {
		return 0
	}
	return s.stems[stem].level
}

// HasSignal reports whether a stem's level exceeds the signal threshold.
func (s *Sampler) HasSignal(stem int) bool {
	return s.Level(stem) > HasSignalThreshold
}

// MasterLevel returns the master tap's normalized level.
func (s *Sampler) MasterLevel() float64 {
	if s.master == nil {
		return 0
	}
	return s.master.level
}

// normalizeRMS maps an RMS amplitude onto the [0, 1] display range.
func normalizeRMS(rms float64) float64 {
	if rms <= 0 {
		return 0
	}
	db := core.LinearToDB(rms)
	return core.Clamp((db-MinLevelDB)/-MinLevelDB, 0, 1)
}
