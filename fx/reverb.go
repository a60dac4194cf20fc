package fx

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/stemmix/dsp/conv"
)

// Impulse-response defaults. Mobile devices get a shorter tail because the
// convolution cost scales with IR length.
const (
	DesktopReverbSeconds = 1.5
	MobileReverbSeconds  = 0.8

	// reverbDecayExponent shapes the synthetic IR envelope: (1 - t/T)^2.
	reverbDecayExponent = 2
)

// GenerateImpulseResponse synthesizes one channel of exponentially decaying
// noise for the shared reverb. Different seeds produce decorrelated
// channels, which is what gives the tail its stereo width.
func GenerateImpulseResponse(sampleRate, seconds float64, seed int64) []float64 {
	length := int(sampleRate * seconds)
	if length < 1 {
		length = 1
	}

	rng := rand.New(rand.NewSource(seed))
	ir := make([]float64, length)
	for i := range ir {
		envelope := math.Pow(1-float64(i)/float64(length), reverbDecayExponent)
		ir[i] = (rng.Float64()*2 - 1) * envelope
	}
	return ir
}

// ReverbBus is the session-wide convolution reverb. Every stem contributes
// through its own send gain into a shared accumulator; one stereo
// convolution then serves all stems. That trades per-stem reverb shaping
// for an N-fold cost reduction, which is the deliberate design here.
//
// Topology is fixed at construction; only send levels change afterwards.
type ReverbBus struct {
	blockSize int

	convL *conv.StreamingOverlapAdd
	convR *conv.StreamingOverlapAdd

	accumL  []float64
	accumR  []float64
	wetL    []float64
	wetR    []float64
	scratch []float64
}

// NewReverbBus builds the shared reverb with a synthetic stereo IR of the
// given duration.
func NewReverbBus(sampleRate, irSeconds float64, blockSize int) (*ReverbBus, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("fx: reverb sample rate must be > 0: %f", sampleRate)
	}
	if irSeconds <= 0 {
		return nil, fmt.Errorf("fx: reverb IR duration must be > 0: %f", irSeconds)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("fx: reverb block size must be > 0: %d", blockSize)
	}

	convL, err := conv.NewStreamingOverlapAdd(GenerateImpulseResponse(sampleRate, irSeconds, 1), blockSize)
	if err != nil {
		return nil, fmt.Errorf("fx: reverb left convolver: %w", err)
	}
	convR, err := conv.NewStreamingOverlapAdd(GenerateImpulseResponse(sampleRate, irSeconds, 2), blockSize)
	if err != nil {
		return nil, fmt.Errorf("fx: reverb right convolver: %w", err)
	}

	return &ReverbBus{
		blockSize: blockSize,
		convL:     convL,
		convR:     convR,
		accumL:    make([]float64, blockSize),
		accumR:    make([]float64, blockSize),
		wetL:      make([]float64, blockSize),
		wetR:      make([]float64, blockSize),
		scratch:   make([]float64, blockSize),
	}, nil
}

// BlockSize returns the fixed processing block size.
func (b *ReverbBus) BlockSize() int { return b.blockSize }

// AddSend accumulates one stem's post-pan signal into the bus input,
// scaled by the stem's send gain. Slices must be blockSize long.
func (b *ReverbBus) AddSend(left, right []float64, gain float64) {
	if gain <= 0 {
		return
	}
	vecmath.ScaleBlock(b.scratch, left, gain)
	vecmath.AddBlockInPlace(b.accumL, b.scratch)
	vecmath.ScaleBlock(b.scratch, right, gain)
	vecmath.AddBlockInPlace(b.accumR, b.scratch)
}

// Process convolves the accumulated sends and returns the wet block per
// channel. The accumulators are cleared for the next cycle. The returned
// slices are owned by the bus and valid until the next Process call.
func (b *ReverbBus) Process() (wetL, wetR []float64, err error) {
	if err := b.convL.ProcessBlockTo(b.wetL, b.accumL); err != nil {
		return nil, nil, fmt.Errorf("fx: reverb left: %w", err)
	}
	if err := b.convR.ProcessBlockTo(b.wetR, b.accumR); err != nil {
		return nil, nil, fmt.Errorf("fx: reverb right: %w", err)
	}

	clear(b.accumL)
	clear(b.accumR)

	return b.wetL, b.wetR, nil
}

// Reset clears convolution tails and pending sends.
func (b *ReverbBus) Reset() {
	b.convL.Reset()
	b.convR.Reset()
	clear(b.accumL)
	clear(b.accumR)
}
