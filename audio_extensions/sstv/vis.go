package sstv

import (
	"errors"
	"fmt"
	"math/bits"
)

/*
 * VIS Code Header and Trailer
 *
 * VIS (Vertical Interval Signaling) header:
 * - 500ms silence
 * - 8 x 100ms attention tones (1900/1500/1900/1500/2300/1500/2300/1500 Hz)
 * - 300ms 1900 Hz leader
 * - 10ms 1200 Hz break
 * - 300ms 1900 Hz leader
 * - 30ms 1200 Hz start bit
 * - 7 x 30ms data bits, LSB first (1100 Hz = 1, 1300 Hz = 0); codes >= 128 cannot be sent
 * - 30ms parity bit (1100 Hz when the code has an odd number of 1 bits)
 * - 30ms 1200 Hz stop bit
 *
 * Trailer: 2300/1200/2300/1200 Hz for 300/10/100/30 ms, then 500ms silence.
 */

const (
	visBitTime  = 30000.0
	visFreqOne  = 1100.0
	visFreqZero = 1300.0
	visDataBits = 7
)

// ErrInvalidVIS is returned for codes that do not fit the 7-bit VIS field
var ErrInvalidVIS = errors.New("VIS code out of range")

// tone is one fixed protocol segment
type tone struct {
	freq float64 // Hz, 0 = silence
	dur  float64 // µs
}

var visLeadIn = []tone{
	{0, 500000},
	{1900, 100000},
	{1500, 100000},
	{1900, 100000},
	{1500, 100000},
	{2300, 100000},
	{1500, 100000},
	{2300, 100000},
	{1500, 100000},
	{1900, 300000},
	{1200, 10000},
	{1900, 300000},
	{1200, visBitTime},
}

var visTrailer = []tone{
	{2300, 300000},
	{1200, 10000},
	{2300, 100000},
	{1200, 30000},
	{0, 500000},
}

func writeTones(w ToneWriter, tones []tone) error {
	for _, t := range tones {
		if err := w.Tone(t.freq, t.dur); err != nil {
			return err
		}
	}
	return nil
}

// VISParity reports whether the code has an odd number of 1 bits
func VISParity(code uint8) bool {
	return bits.OnesCount8(code)%2 == 1
}

// visParityFreq returns the tone that carries the parity bit of code
func visParityFreq(code uint8) float64 {
	if VISParity(code) {
		return visFreqOne
	}
	return visFreqZero
}

// WriteVISHeader emits the calibration header announcing the mode code
func WriteVISHeader(w ToneWriter, code uint8) error {
	if code >= 1<<visDataBits {
		return fmt.Errorf("%w: %d", ErrInvalidVIS, code)
	}

	if err := writeTones(w, visLeadIn); err != nil {
		return err
	}

	for bit := 0; bit < visDataBits; bit++ {
		freq := visFreqZero
		if code&(1<<bit) != 0 {
			freq = visFreqOne
		}
		if err := w.Tone(freq, visBitTime); err != nil {
			return err
		}
	}

	if err := w.Tone(visParityFreq(code), visBitTime); err != nil {
		return err
	}
	return w.Tone(FreqSync, visBitTime)
}

// WriteVISTrailer emits the closing tones and trailing silence
func WriteVISTrailer(w ToneWriter) error {
	return writeTones(w, visTrailer)
}

// VISHeaderTime returns the header duration in µs
func VISHeaderTime() float64 {
	t := 0.0
	for _, s := range visLeadIn {
		t += s.dur
	}
	// data bits, parity, stop
	return t + float64(visDataBits+2)*visBitTime
}

// VISTrailerTime returns the trailer duration in µs
func VISTrailerTime() float64 {
	t := 0.0
	for _, s := range visTrailer {
		t += s.dur
	}
	return t
}
