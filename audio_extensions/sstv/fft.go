package sstv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

/*
 * FFT Helper Functions
 * Using gonum's FFT implementation
 */

// minFFTSize keeps bin spacing fine enough for tone checks at 48 kHz
const minFFTSize = 4096

// nextPow2 returns the smallest power of two >= n
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// hannWindow returns an n-point Hann window
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// powerSpectrum windows input, zero-pads it to fftSize and returns the
// power of bins 0..fftSize/2
func powerSpectrum(input []float64, fftSize int) ([]float64, error) {
	if fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft: size %d is not a power of 2", fftSize)
	}
	if len(input) > fftSize {
		return nil, fmt.Errorf("fft: %d samples do not fit size %d", len(input), fftSize)
	}

	padded := make([]float64, fftSize)
	window := hannWindow(len(input))
	for i, v := range input {
		padded[i] = v * window[i]
	}

	coeffs := fourier.NewFFT(fftSize).Coefficients(nil, padded)

	powers := make([]float64, len(coeffs))
	for i, c := range coeffs {
		powers[i] = real(c)*real(c) + imag(c)*imag(c)
	}
	return powers, nil
}
