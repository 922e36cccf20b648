package sstv

import (
	"errors"
	"fmt"
	"math"
)

/*
 * Oscillator and Tone Emitter
 *
 * One Synth is one encoding session: it owns the phase accumulator, the
 * sub-sample timing carry and the sample buffer. Phase is never reset while
 * a session is running; that continuity is what keeps tone boundaries free
 * of clicks.
 */

// Sample rate limits (Hz)
const (
	MinSampleRate     = 8000
	MaxSampleRate     = 48000
	DefaultSampleRate = 22050

	// DefaultVolumePercent leaves headroom for transmitter audio chains
	DefaultVolumePercent = 65
)

var (
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidVolume     = errors.New("invalid volume")
)

// ToneWriter is the sink every encoder writes through
type ToneWriter interface {
	// Tone appends a tone (freqHz > 0) or silence (freqHz == 0) of the given length
	Tone(freqHz, durationUs float64) error
	// EnvelopeTone is Tone with raised-cosine fade-in/fade-out, used for CW keying
	EnvelopeTone(freqHz, durationUs float64) error
}

// Synth generates phase-continuous sine tones into a SampleBuffer
type Synth struct {
	sampleRate       int
	radiansPerSample float64
	usPerSample      float64
	scale            int

	phase float64 // running phase accumulator
	carry float64 // µs rounded off the previous tone

	buf *SampleBuffer
}

// NewSynth creates a synthesis state for one session writing into buf
func NewSynth(sampleRate, volumePercent int, buf *SampleBuffer) (*Synth, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: %d Hz (must be %d-%d)", ErrInvalidSampleRate, sampleRate, MinSampleRate, MaxSampleRate)
	}
	if volumePercent < 1 || volumePercent > 100 {
		return nil, fmt.Errorf("%w: %d%% (must be 1-100)", ErrInvalidVolume, volumePercent)
	}
	if buf == nil {
		return nil, errors.New("nil sample buffer")
	}

	return &Synth{
		sampleRate:       sampleRate,
		radiansPerSample: 2 * math.Pi / float64(sampleRate),
		usPerSample:      1e6 / float64(sampleRate),
		scale:            int(float64(volumePercent) / 100.0 * 32767.0),
		buf:              buf,
	}, nil
}

// SampleRate returns the session sample rate in Hz
func (s *Synth) SampleRate() int { return s.sampleRate }

// MicrosecondsPerSample returns the sample period in µs
func (s *Synth) MicrosecondsPerSample() float64 { return s.usPerSample }

// Phase returns the current phase accumulator value (radians)
func (s *Synth) Phase() float64 { return s.phase }

// Carry returns the timing residue carried into the next tone (µs)
func (s *Synth) Carry() float64 { return s.carry }

// Scale returns the amplitude ceiling in sample units
func (s *Synth) Scale() int { return s.scale }

// Buffer returns the session sample buffer
func (s *Synth) Buffer() *SampleBuffer { return s.buf }

// span converts a requested duration into a sample count, folding in the
// carry from the previous tone, and returns the carry left after it
func (s *Synth) span(durationUs float64) (int, float64) {
	effective := durationUs + s.carry
	n := int(math.Round(effective / s.usPerSample))
	if n < 0 {
		n = 0
	}
	return n, effective - float64(n)*s.usPerSample
}

// sample renders the current phase at the given gain
func (s *Synth) sample(gain float64) uint16 {
	return uint16(MidScale + int(math.Round(math.Sin(s.phase)*float64(s.scale)*gain)))
}

// Tone appends a tone of freqHz for durationUs. freqHz == 0 writes silence
// and leaves the phase untouched.
func (s *Synth) Tone(freqHz, durationUs float64) error {
	n, carry := s.span(durationUs)
	out, err := s.buf.grow(n)
	if err != nil {
		return err
	}

	if freqHz == 0 {
		for i := range out {
			out[i] = MidScale
		}
	} else {
		delta := s.radiansPerSample * freqHz
		for i := range out {
			out[i] = s.sample(1.0)
			s.phase += delta
		}
	}

	s.carry = carry
	return nil
}
