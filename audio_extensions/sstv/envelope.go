package sstv

import "math"

/*
 * Envelope Emitter
 *
 * Keyed CW elements get a Tukey (raised-cosine tapered) envelope:
 *   fade-in  w(t) = 0.5 * (1 - cos(pi*t)), t in [0,1)
 *   middle   w = 1
 *   fade-out w(t) = 0.5 * (1 + cos(pi*t))
 * The ramp is a quarter of the element, clamped to 5-40 ms. Elements shorter
 * than two ramps are sent unshaped. Phase advances every sample exactly as in
 * Tone; only the gain changes.
 */

const (
	envelopeFraction = 0.25
	envelopeMinUs    = 5000.0
	envelopeMaxUs    = 40000.0
)

// envelopeRamp returns the ramp length in samples for a tone of durationUs
func (s *Synth) envelopeRamp(durationUs float64) int {
	rampUs := durationUs * envelopeFraction
	if rampUs < envelopeMinUs {
		rampUs = envelopeMinUs
	}
	if rampUs > envelopeMaxUs {
		rampUs = envelopeMaxUs
	}
	ramp := int(rampUs / s.usPerSample)
	if ramp < 1 {
		ramp = 1
	}
	return ramp
}

// envelopeGain returns the gain for sample i of an n-sample tone with the given ramp
func envelopeGain(i, n, ramp int) float64 {
	switch {
	case i < ramp:
		t := float64(i) / float64(ramp)
		return 0.5 * (1.0 - math.Cos(math.Pi*t))
	case i >= n-ramp:
		t := float64(i-(n-ramp)) / float64(ramp)
		return 0.5 * (1.0 + math.Cos(math.Pi*t))
	default:
		return 1.0
	}
}

// EnvelopeTone appends a shaped tone. Silence is delegated to Tone unchanged.
func (s *Synth) EnvelopeTone(freqHz, durationUs float64) error {
	if freqHz == 0 {
		return s.Tone(0, durationUs)
	}

	n, carry := s.span(durationUs)
	ramp := s.envelopeRamp(durationUs + s.carry)
	out, err := s.buf.grow(n)
	if err != nil {
		return err
	}

	shaped := n >= 2*ramp
	delta := s.radiansPerSample * freqHz
	for i := range out {
		gain := 1.0
		if shaped {
			gain = envelopeGain(i, n, ramp)
		}
		out[i] = s.sample(gain)
		s.phase += delta
	}

	s.carry = carry
	return nil
}
