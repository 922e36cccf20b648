package sstv

import "errors"

// toneCall is one recorded ToneWriter call
type toneCall struct {
	freq     float64
	dur      float64
	envelope bool
}

// recorder is a ToneWriter that keeps every call instead of synthesizing
type recorder struct {
	calls []toneCall
	limit int // fail once this many calls were recorded, 0 = never
}

var errRecorderFull = errors.New("recorder full")

func (r *recorder) add(c toneCall) error {
	if r.limit > 0 && len(r.calls) >= r.limit {
		return errRecorderFull
	}
	r.calls = append(r.calls, c)
	return nil
}

func (r *recorder) Tone(freqHz, durationUs float64) error {
	return r.add(toneCall{freq: freqHz, dur: durationUs})
}

func (r *recorder) EnvelopeTone(freqHz, durationUs float64) error {
	return r.add(toneCall{freq: freqHz, dur: durationUs, envelope: true})
}

func (r *recorder) total() float64 {
	t := 0.0
	for _, c := range r.calls {
		t += c.dur
	}
	return t
}

// fillImage is a PixelSource computing each pixel from a function
type fillImage struct {
	w, h int
	fn   func(x, y int) (uint8, uint8, uint8)
}

func (f fillImage) Bounds() (int, int) { return f.w, f.h }

func (f fillImage) RGB(x, y int) (uint8, uint8, uint8) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return 0, 0, 0
	}
	return f.fn(x, y)
}

func solidImage(m *ModeSpec, r, g, b uint8) fillImage {
	return fillImage{w: m.ImgWidth, h: m.ImgHeight, fn: func(int, int) (uint8, uint8, uint8) {
		return r, g, b
	}}
}

func gradientImage(m *ModeSpec) fillImage {
	return fillImage{w: m.ImgWidth, h: m.ImgHeight, fn: func(x, y int) (uint8, uint8, uint8) {
		return uint8(x), uint8(y), uint8(x + y)
	}}
}

func newTestSynth(sampleRate, capacity int) *Synth {
	s, err := NewSynth(sampleRate, DefaultVolumePercent, NewSampleBuffer(capacity))
	if err != nil {
		panic(err)
	}
	return s
}
