// Package core holds the numeric helpers and processor configuration
// shared by the DSP packages.
package core

import "math"

// Clamp limits value to the inclusive range [lo, hi]. Reversed bounds are
// swapped.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	switch {
	case value < lo:
		return lo
	case value > hi:
		return hi
	}

	return value
}

// LinearToDB converts linear amplitude to decibels (20 log10 convention).
// Zero maps to -Inf, negative input to NaN.
func LinearToDB(linear float64) float64 {
	switch {
	case linear < 0:
		return math.NaN()
	case linear == 0:
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// FlushDenormals snaps magnitudes below 1e-30 to exact zero. Decaying
// feedback tails otherwise settle in the denormal range, where arithmetic
// is much slower on common hardware.
func FlushDenormals(x float64) float64 {
	const threshold = 1e-30
	if x > -threshold && x < threshold {
		return 0
	}

	return x
}
