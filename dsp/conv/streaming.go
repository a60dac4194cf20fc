// Package conv provides streaming FFT-based convolution for real-time
// effect processing, used by the shared reverb bus.
package conv

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

var (
	// ErrEmptyKernel is returned when a convolver is created with an empty
	// impulse response.
	ErrEmptyKernel = errors.New("conv: empty kernel")

	// ErrLengthMismatch is returned when a block does not match the
	// configured block size.
	ErrLengthMismatch = errors.New("conv: block length mismatch")
)

// StreamingOverlapAdd implements streaming FFT-based convolution using the
// overlap-add method. It maintains state for block-by-block processing with
// no allocations per block, which is what a real-time audio callback needs:
// fixed-size input blocks in, fixed-size output blocks out, continuity
// carried in the overlap tail.
type StreamingOverlapAdd struct {
	kernelFFT []complex128

	kernelLen int // original kernel length
	blockSize int // input/output block size (fixed)
	fftSize   int // blockSize + kernelLen - 1, rounded to power of 2

	plan *algofft.Plan[complex128]

	inputPadded  []complex128
	outputPadded []complex128
	convResult   []float64 // full convolution result (blockSize + kernelLen - 1)

	tail []float64 // overlap carried from the previous block
}

// NewStreamingOverlapAdd creates a streaming convolver for the given kernel.
// blockSize is the fixed size of input and output blocks.
func NewStreamingOverlapAdd(kernel []float64, blockSize int) (*StreamingOverlapAdd, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("conv: blockSize must be positive, got %d", blockSize)
	}

	kernelLen := len(kernel)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	soa := &StreamingOverlapAdd{
		kernelFFT:    make([]complex128, fftSize),
		kernelLen:    kernelLen,
		blockSize:    blockSize,
		fftSize:      fftSize,
		plan:         plan,
		inputPadded:  make([]complex128, fftSize),
		outputPadded: make([]complex128, fftSize),
		convResult:   make([]float64, blockSize+kernelLen-1),
		tail:         make([]float64, kernelLen-1),
	}

	kernelPadded := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelPadded[i] = complex(v, 0)
	}

	err = plan.Forward(soa.kernelFFT, kernelPadded)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return soa, nil
}

// BlockSize returns the fixed input/output block size.
func (soa *StreamingOverlapAdd) BlockSize() int { return soa.blockSize }

// KernelLen returns the impulse-response length in samples.
func (soa *StreamingOverlapAdd) KernelLen() int { return soa.kernelLen }

// ProcessBlockTo convolves one input block and writes the result to a
// pre-allocated output block. Both must be of size blockSize. State is
// maintained between calls to ensure continuity.
func (soa *StreamingOverlapAdd) ProcessBlockTo(output, input []float64) error {
	if len(input) != soa.blockSize {
		return fmt.Errorf("%w: expected %d input samples, got %d",
			ErrLengthMismatch, soa.blockSize, len(input))
	}
	if len(output) != soa.blockSize {
		return fmt.Errorf("%w: expected %d output samples, got %d",
			ErrLengthMismatch, soa.blockSize, len(output))
	}

	// Zero-pad input to FFT size.
	for i := range soa.inputPadded {
		soa.inputPadded[i] = 0
	}
	for i := range soa.blockSize {
		soa.inputPadded[i] = complex(input[i], 0)
	}

	err := soa.plan.Forward(soa.inputPadded, soa.inputPadded)
	if err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	// Multiply in frequency domain.
	for i := range soa.outputPadded {
		soa.outputPadded[i] = soa.inputPadded[i] * soa.kernelFFT[i]
	}

	err = soa.plan.Inverse(soa.outputPadded, soa.outputPadded)
	if err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	// Extract real part and add the overlap tail from the previous block.
	resultLen := soa.blockSize + soa.kernelLen - 1
	for i := range resultLen {
		soa.convResult[i] = real(soa.outputPadded[i])
	}

	for i := 0; i < len(soa.tail) && i < resultLen; i++ {
		soa.convResult[i] += soa.tail[i]
	}

	copy(output, soa.convResult[:soa.blockSize])

	// The region beyond blockSize becomes the tail for the next call.
	newTailLen := resultLen - soa.blockSize
	for i := range newTailLen {
		soa.tail[i] = soa.convResult[soa.blockSize+i]
	}
	for i := newTailLen; i < len(soa.tail); i++ {
		soa.tail[i] = 0
	}

	return nil
}

// Reset clears the overlap state without touching the kernel.
func (soa *StreamingOverlapAdd) Reset() {
	for i := range soa.tail {
		soa.tail[i] = 0
	}
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
