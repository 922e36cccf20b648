package sstv

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

/*
 * Output Analysis
 *
 * Level, clipping and keying checks on a finished sample buffer, plus a
 * peak-frequency estimator (Hann window, FFT, Gaussian interpolation of
 * the strongest bin).
 */

const (
	// ClipThreshold is the signed level treated as clipping
	ClipThreshold = 32000
	// SilenceThreshold separates keyed tone from silence in ToneRegions
	SilenceThreshold = 500

	regionHold = 5 * time.Millisecond
)

// Report summarises a sample buffer
type Report struct {
	Samples  int
	Duration time.Duration
	Min      int     // Signed minimum
	Max      int     // Signed maximum
	RMS      float64 // Signed RMS
	DC       float64 // Mean offset from MidScale
	Clipped  int     // Samples at or beyond ClipThreshold
	MaxStep  int     // Largest sample-to-sample change
}

// Region is a run of samples above SilenceThreshold
type Region struct {
	Start, End int // Sample offsets, End exclusive
	Peak       int
	RMS        float64
}

// Duration returns the region length at the given sample rate
func (r Region) Duration(sampleRate int) time.Duration {
	return time.Duration(float64(r.End-r.Start) / float64(sampleRate) * float64(time.Second))
}

// signedFloats converts unsigned samples to signed float values
func signedFloats(samples []uint16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(int(s) - MidScale)
	}
	return out
}

// Analyze computes the level report for samples
func Analyze(samples []uint16, sampleRate int) Report {
	r := Report{
		Samples:  len(samples),
		Duration: time.Duration(float64(len(samples)) / float64(sampleRate) * float64(time.Second)),
	}
	if len(samples) == 0 {
		return r
	}

	values := signedFloats(samples)
	r.Min = int(floats.Min(values))
	r.Max = int(floats.Max(values))
	r.DC = stat.Mean(values, nil)
	r.RMS = math.Sqrt(floats.Dot(values, values) / float64(len(values)))

	prev := values[0]
	for _, v := range values {
		if math.Abs(v) >= ClipThreshold {
			r.Clipped++
		}
		if step := int(math.Abs(v - prev)); step > r.MaxStep {
			r.MaxStep = step
		}
		prev = v
	}
	return r
}

// ToneRegions finds keyed bursts in samples[from:]. A burst ends once the
// signal has stayed below SilenceThreshold for regionHold, so zero
// crossings inside a tone do not split it.
func ToneRegions(samples []uint16, sampleRate, from int) []Region {
	hold := int(regionHold.Seconds() * float64(sampleRate))
	var regions []Region
	start, lastLoud := -1, -1

	closeRegion := func(end int) {
		values := signedFloats(samples[start:end])
		peak := math.Max(math.Abs(floats.Min(values)), floats.Max(values))
		regions = append(regions, Region{
			Start: start,
			End:   end,
			Peak:  int(peak),
			RMS:   math.Sqrt(floats.Dot(values, values) / float64(len(values))),
		})
		start = -1
	}

	for i := from; i < len(samples); i++ {
		v := int(samples[i]) - MidScale
		if v > SilenceThreshold || v < -SilenceThreshold {
			if start < 0 {
				start = i
			}
			lastLoud = i
			continue
		}
		if start >= 0 && i-lastLoud > hold {
			closeRegion(lastLoud + 1)
		}
	}
	if start >= 0 {
		closeRegion(lastLoud + 1)
	}
	return regions
}

// DominantFrequency estimates the strongest frequency in samples[from:from+n]
func DominantFrequency(samples []uint16, sampleRate, from, n int) (float64, error) {
	if from < 0 || n < 3 || from+n > len(samples) {
		return 0, fmt.Errorf("analysis window %d+%d outside %d samples", from, n, len(samples))
	}

	// zero-pad so the interpolation sees a smooth main lobe
	fftSize := nextPow2(n) * 4
	if fftSize < minFFTSize {
		fftSize = minFFTSize
	}
	input := make([]float64, n)
	for i, s := range samples[from : from+n] {
		input[i] = float64(int(s)-MidScale) / 32768.0
	}

	powers, err := powerSpectrum(input, fftSize)
	if err != nil {
		return 0, err
	}

	// skip DC and the bins next to it
	maxBin := 2
	for i := 2; i < len(powers)-1; i++ {
		if powers[i] > powers[maxBin] {
			maxBin = i
		}
	}
	binHz := float64(sampleRate) / float64(fftSize)

	prev, peak, next := powers[maxBin-1], powers[maxBin], powers[maxBin+1]
	if prev <= 0 || next <= 0 || peak <= 0 {
		return float64(maxBin) * binHz, nil
	}
	num := next / prev
	den := (peak * peak) / (next * prev)
	if math.Abs(math.Log(den)) < 1e-9 {
		return float64(maxBin) * binHz, nil
	}
	delta := math.Log(num) / (2.0 * math.Log(den))
	return (float64(maxBin) + delta) * binHz, nil
}
