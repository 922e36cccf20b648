package sstv

import (
	"errors"
	"fmt"

	"github.com/cwsl/ubersstv/audio_extensions/morse"
)

/*
 * CW Station Identification
 *
 * Keys a short text message in Morse after the image. PARIS timing:
 *   dot = 1.2 s / WPM, dash = 3 dots
 *   element gap = 1 dot, character gap = 3 dots, word gap = 7 dots
 *
 * Elements go through EnvelopeTone so keying is click-free. CW is sent at
 * the same amplitude as the SSTV tones.
 */

// CW defaults and limits
const (
	DefaultCWWPM  = 15
	DefaultCWTone = 800.0

	MinCWWPM  = 1
	MaxCWWPM  = 50
	MinCWTone = 400.0
	MaxCWTone = 2000.0

	// CWLeadIn is the silence between the VIS trailer and the first element (µs)
	CWLeadIn = 2000000.0

	cwDotUnit = 1200000.0 // µs per dot at 1 WPM
)

// ErrInvalidCW is returned for out-of-range CW parameters
var ErrInvalidCW = errors.New("invalid CW parameters")

// CWConfig describes the Morse signature sent after the image
type CWConfig struct {
	Text   string
	WPM    int     // 0 = DefaultCWWPM
	ToneHz float64 // 0 = DefaultCWTone
}

// Validate checks the ranges; zero values select the defaults
func (c *CWConfig) Validate() error {
	if c.WPM != 0 && (c.WPM < MinCWWPM || c.WPM > MaxCWWPM) {
		return fmt.Errorf("%w: %d WPM (must be %d-%d)", ErrInvalidCW, c.WPM, MinCWWPM, MaxCWWPM)
	}
	if c.ToneHz != 0 && (c.ToneHz < MinCWTone || c.ToneHz > MaxCWTone) {
		return fmt.Errorf("%w: %.0f Hz tone (must be %.0f-%.0f)", ErrInvalidCW, c.ToneHz, MinCWTone, MaxCWTone)
	}
	return nil
}

// Resolved returns a copy with zero WPM and tone replaced by the defaults
func (c CWConfig) Resolved() CWConfig {
	if c.WPM <= 0 {
		c.WPM = DefaultCWWPM
	}
	if c.ToneHz == 0 {
		c.ToneHz = DefaultCWTone
	}
	return c
}

func cwDot(wpm int) float64 {
	if wpm <= 0 {
		wpm = DefaultCWWPM
	}
	return cwDotUnit / float64(wpm)
}

// WriteCW keys text in Morse. Characters without a pattern are skipped.
func WriteCW(w ToneWriter, text string, wpm int, toneHz float64) error {
	if toneHz == 0 {
		toneHz = DefaultCWTone
	}
	dot := cwDot(wpm)

	for _, p := range morse.Patterns(text) {
		if p == morse.WordGap {
			if err := w.Tone(0, 7*dot); err != nil {
				return err
			}
			continue
		}

		for i, el := range p {
			d := dot
			if el == '-' {
				d = 3 * dot
			}
			if err := w.EnvelopeTone(toneHz, d); err != nil {
				return err
			}
			if i < len(p)-1 {
				if err := w.Tone(0, dot); err != nil {
					return err
				}
			}
		}
		if err := w.Tone(0, 3*dot); err != nil {
			return err
		}
	}
	return nil
}

// CWDuration returns the keyed length of text in µs, excluding CWLeadIn
func CWDuration(text string, wpm int) float64 {
	dot := cwDot(wpm)
	units := 0
	for _, p := range morse.Patterns(text) {
		if p == morse.WordGap {
			units += 7
			continue
		}
		for _, el := range p {
			if el == '-' {
				units += 3
			} else {
				units++
			}
		}
		// element gaps plus the character gap
		units += len(p) - 1 + 3
	}
	return float64(units) * dot
}

// CWElementCount returns the number of dots and dashes keyed for text
func CWElementCount(text string) int {
	n := 0
	for _, p := range morse.Patterns(text) {
		if p != morse.WordGap {
			n += len(p)
		}
	}
	return n
}
