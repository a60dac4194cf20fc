package biquad

import "math"

// RBJ cookbook designs. All functions return normalized (a0 == 1)
// coefficients in the Direct Form II Transposed sign convention used by
// Section.

func rbjCommon(sampleRate, frequency, q float64) (sinW, cosW, alpha float64) {
	omega := 2 * math.Pi * frequency / sampleRate
	sinW = math.Sin(omega)
	cosW = math.Cos(omega)
	alpha = sinW / (2 * q)
	return
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	inv := 1 / a0
	return Coefficients{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}

// Lowpass designs a second-order lowpass (-12 dB/octave).
func Lowpass(sampleRate, frequency, q float64) Coefficients {
	_, cosW, alpha := rbjCommon(sampleRate, frequency, q)

	b1 := 1 - cosW
	b0 := b1 / 2

	return normalize(b0, b1, b0, 1+alpha, -2*cosW, 1-alpha)
}

// Highpass designs a second-order highpass (-12 dB/octave).
func Highpass(sampleRate, frequency, q float64) Coefficients {
	_, cosW, alpha := rbjCommon(sampleRate, frequency, q)

	b0 := (1 + cosW) / 2
	b1 := -(1 + cosW)

	return normalize(b0, b1, b0, 1+alpha, -2*cosW, 1-alpha)
}

// Bandpass designs a second-order bandpass (constant skirt gain).
func Bandpass(sampleRate, frequency, q float64) Coefficients {
	_, cosW, alpha := rbjCommon(sampleRate, frequency, q)

	return normalize(alpha, 0, -alpha, 1+alpha, -2*cosW, 1-alpha)
}

// Peaking designs a peaking EQ section with the given gain in dB.
func Peaking(sampleRate, frequency, q, gainDB float64) Coefficients {
	_, cosW, alpha := rbjCommon(sampleRate, frequency, q)
	a := math.Pow(10, gainDB/40)

	return normalize(
		1+alpha*a, -2*cosW, 1-alpha*a,
		1+alpha/a, -2*cosW, 1-alpha/a,
	)
}

// LowShelf designs a low shelf section with the given gain in dB.
func LowShelf(sampleRate, frequency, q, gainDB float64) Coefficients {
	_, cosW, alpha := rbjCommon(sampleRate, frequency, q)
	a := math.Pow(10, gainDB/40)
	sqrtAAlpha := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cosW + sqrtAAlpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosW)
	b2 := a * ((a + 1) - (a-1)*cosW - sqrtAAlpha)
	a0 := (a + 1) + (a-1)*cosW + sqrtAAlpha
	a1 := -2 * ((a - 1) + (a+1)*cosW)
	a2 := (a + 1) + (a-1)*cosW - sqrtAAlpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// HighShelf designs a high shelf section with the given gain in dB.
func HighShelf(sampleRate, frequency, q, gainDB float64) Coefficients {
	_, cosW, alpha := rbjCommon(sampleRate, frequency, q)
	a := math.Pow(10, gainDB/40)
	sqrtAAlpha := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) + (a-1)*cosW + sqrtAAlpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosW)
	b2 := a * ((a + 1) + (a-1)*cosW - sqrtAAlpha)
	a0 := (a + 1) - (a-1)*cosW + sqrtAAlpha
	a1 := 2 * ((a - 1) - (a+1)*cosW)
	a2 := (a + 1) - (a-1)*cosW - sqrtAAlpha

	return normalize(b0, b1, b2, a0, a1, a2)
}
