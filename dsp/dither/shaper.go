package dither

// firShaper subtracts weighted past quantization errors from the signal
// before rounding. With no coefficients it passes samples through and
// records nothing.
type firShaper struct {
	coeffs  []float64
	history []float64
	pos     int
}

func newFIRShaper(coeffs []float64) *firShaper {
	s := &firShaper{coeffs: append([]float64(nil), coeffs...)}
	if len(s.coeffs) > 0 {
		s.history = make([]float64, len(s.coeffs))
	}
	return s
}

// shape filters the input against the error history. recordError must be
// called once with the resulting quantization error before the next shape.
func (s *firShaper) shape(input float64) float64 {
	n := len(s.coeffs)
	if n == 0 {
		return input
	}

	// history[pos] holds the newest error, older errors sit behind it.
	idx := s.pos
	for _, c := range s.coeffs {
		input -= c * s.history[idx]
		idx--
		if idx < 0 {
			idx = n - 1
		}
	}

	s.pos++
	if s.pos == n {
		s.pos = 0
	}

	return input
}

func (s *firShaper) recordError(quantizationError float64) {
	if len(s.coeffs) == 0 {
		return
	}
	s.history[s.pos] = quantizationError
}

func (s *firShaper) reset() {
	clear(s.history)
	s.pos = 0
}

// fweighted9 is the 9th-order F-weighted coefficient set from the legacy
// DAV noise shaper tables. It pushes quantization noise above 15 kHz.
var fweighted9 = []float64{
	2.412, -3.370, 3.937, -4.174, 3.353,
	-2.205, 1.281, -0.569, 0.0847,
}
