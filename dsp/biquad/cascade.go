package biquad

// Cascade is an ordered series of biquad sections processed back to back.
// It is used for steeper filters where each second-order section feeds
// into the next (e.g. a -24 dB/octave response from two identical
// -12 dB/octave sections).
type Cascade struct {
	sections []Section
}

// NewCascade creates a cascade from one or more coefficient sets.
// Each Coefficients value becomes one Section.
func NewCascade(coeffs []Coefficients) *Cascade {
	c := &Cascade{sections: make([]Section, len(coeffs))}
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}
	return c
}

// ProcessSample cascades input through all sections in order.
func (c *Cascade) ProcessSample(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].ProcessSample(x)
	}
	return x
}

// ProcessBlock filters a block in-place through the full cascade.
func (c *Cascade) ProcessBlock(buf []float64) {
	for i := range c.sections {
		c.sections[i].ProcessBlock(buf)
	}
}

// Reset clears all section states.
func (c *Cascade) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// NumSections returns the number of biquad sections.
func (c *Cascade) NumSections() int {
	return len(c.sections)
}

// UpdateCoefficients replaces the filter coefficients.
// If the number of sections is unchanged the delay-line state of each section
// is preserved, avoiding the output discontinuity that would result from
// starting a fresh cascade with zero state. If the section count changes the
// sections are replaced and state is reset.
func (c *Cascade) UpdateCoefficients(coeffs []Coefficients) {
	if len(coeffs) == len(c.sections) {
		for i := range coeffs {
			c.sections[i].Coefficients = coeffs[i]
		}
		return
	}

	c.sections = make([]Section, len(coeffs))
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}
}
