package fx

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/stemmix/dsp/core"
	"github.com/cwbudde/stemmix/dsp/ramp"
)

// Chain is one stem's complete effect path. The stage order is fixed at
// construction:
//
//	in → EQ → filter → delay → pan → gain → out (+ meter tap)
//
// and the post-pan stereo signal additionally feeds the shared reverb bus
// through the chain's send gain. The chain is exclusively owned by its stem.
type Chain struct {
	EQ     *ThreeBandEQ
	Filter *MultiModeFilter
	Delay  *FeedbackDelay
	Pan    *Pan
	Gain   *Gain

	send *ramp.Smoother
	bus  *ReverbBus

	// Scratch stereo buffers between pan and gain, also serving as the
	// reverb send tap. Sized to the bus block size, allocated once.
	left  []float64
	right []float64

	// tap holds the post-gain stereo block for metering; reused every block.
	tapL []float64
	tapR []float64
}

// NewChain wires a stem's effect path against the shared reverb bus.
func NewChain(sampleRate float64, bus *ReverbBus) (*Chain, error) {
	if bus == nil {
		return nil, fmt.Errorf("fx: chain requires a reverb bus")
	}

	blockSize := bus.BlockSize()

	c := &Chain{
		bus:   bus,
		left:  make([]float64, blockSize),
		right: make([]float64, blockSize),
		tapL:  make([]float64, blockSize),
		tapR:  make([]float64, blockSize),
	}

	var err error
	if c.EQ, err = NewThreeBandEQ(sampleRate); err != nil {
		return nil, err
	}
	if c.Filter, err = NewMultiModeFilter(sampleRate); err != nil {
		return nil, err
	}
	if c.Delay, err = NewFeedbackDelay(sampleRate); err != nil {
		return nil, err
	}
	if c.Pan, err = NewPan(sampleRate); err != nil {
		return nil, err
	}
	if c.Gain, err = NewGain(sampleRate, 1); err != nil {
		return nil, err
	}
	if c.send, err = ramp.NewSmoother(sampleRate, ramp.DefaultTimeConstant, 0); err != nil {
		return nil, err
	}

	return c, nil
}

// SetReverbSend sets the reverb send gain, clamped to [0, 1].
func (c *Chain) SetReverbSend(gain float64) {
	c.send.SetTarget(core.Clamp(gain, 0, 1))
}

// ReverbSend returns the target reverb send gain.
func (c *Chain) ReverbSend() float64 { return c.send.Target() }

// ProcessBlock runs one mono input block through the chain and accumulates
// the stereo result into outL/outR. mono is modified in place by the
// mono-domain stages. All slices must be the bus block size.
func (c *Chain) ProcessBlock(mono, outL, outR []float64) error {
	n := len(mono)
	if n != c.bus.BlockSize() || len(outL) != n || len(outR) != n {
		return fmt.Errorf("fx: chain block must be %d samples", c.bus.BlockSize())
	}

	c.EQ.ProcessBlock(mono)
	c.Filter.ProcessBlock(mono)
	c.Delay.ProcessBlock(mono)

	c.Pan.ProcessBlock(mono, c.left, c.right)

	// Reverb send taps the post-pan signal, before the stem gain, so a
	// faded-down stem still reaches the shared tail at its send level.
	c.bus.AddSend(c.left, c.right, c.send.NextBlock(n))

	c.Gain.ProcessBlock(c.left, c.right)

	copy(c.tapL, c.left)
	copy(c.tapR, c.right)

	vecmath.AddBlockInPlace(outL[:n], c.left)
	vecmath.AddBlockInPlace(outR[:n], c.right)

	return nil
}

// MeterTap returns the most recent post-gain stereo block. The slices are
// owned by the chain and overwritten on every ProcessBlock.
func (c *Chain) MeterTap() (left, right []float64) {
	return c.tapL, c.tapR
}

// Reset clears all stage state (delay lines, filter history) without
// touching parameter targets.
func (c *Chain) Reset() {
	c.EQ.Reset()
	c.Filter.Reset()
	c.Delay.Reset()
}
