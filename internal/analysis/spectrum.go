package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// PowerSpectrum returns the magnitude of the real FFT of data after removing
// the mean, so the zero-frequency bin does not swamp the oscillations.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := 0.0
	for _, x := range data {
		mean += x
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, x := range data {
		centered[i] = x - mean
	}

	fft := fourier.NewFFT(len(centered))
	coeffs := fft.Coefficients(nil, centered)

	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		re, im := real(c), imag(c)
		ps[i] = re*re + im*im
	}
	return ps
}

// DominantFrequency finds the strongest oscillation in a uniformly sampled
// series and returns it in cycles per time unit.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	if dt <= 0 {
		return 0, fmt.Errorf("dt must be positive, got %f", dt)
	}
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0, fmt.Errorf("series too short for frequency analysis")
	}
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return float64(best) / (float64(len(data)) * dt), nil
}
