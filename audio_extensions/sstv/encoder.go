package sstv

import (
	"errors"
	"fmt"
	"time"
)

/*
 * Frame Orchestrator
 *
 * One Encode call is one session:
 *   VIS header -> scanlines -> VIS trailer -> [2 s silence -> CW]
 *
 * Every parameter is checked in NewEncoder, before a buffer exists. Encode
 * sizes the buffer from the closed-form frame duration and starts from a
 * fresh Synth, so encoding the same image twice gives identical samples.
 */

// ErrUnknownMode is returned for VIS codes with no transmit mode
var ErrUnknownMode = errors.New("unknown SSTV mode")

// Options configures an Encoder
type Options struct {
	SampleRate    int       // Hz, 0 = DefaultSampleRate
	VIS           uint8     // Mode code
	VolumePercent int       // 1-100, 0 = DefaultVolumePercent
	CW            *CWConfig // Optional signature, nil or empty text = none

	// Buffer, when set, is used instead of allocating one. It must hold
	// at least EstimateSamples; it is rewound at the start of every Encode.
	Buffer *SampleBuffer

	// Headroom is added to the estimated sample count when allocating
	Headroom int

	Progress ProgressFunc
}

// Result is the outcome of one encoding session. Sample offsets mark where
// each section starts in Samples.
type Result struct {
	Samples     []uint16
	SampleCount int
	SampleRate  int
	Mode        *ModeSpec

	ImageStart   int
	TrailerStart int
	CWStart      int // -1 when no signature was sent
	Duration     time.Duration
}

// Encoder turns images into SSTV transmissions for one mode
type Encoder struct {
	opts Options
	mode *ModeSpec
}

// NewEncoder validates opts and returns an encoder
func NewEncoder(opts Options) (*Encoder, error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.SampleRate < MinSampleRate || opts.SampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: %d Hz (must be %d-%d)", ErrInvalidSampleRate, opts.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if opts.VolumePercent == 0 {
		opts.VolumePercent = DefaultVolumePercent
	}
	if opts.VolumePercent < 1 || opts.VolumePercent > 100 {
		return nil, fmt.Errorf("%w: %d%% (must be 1-100)", ErrInvalidVolume, opts.VolumePercent)
	}

	mode := GetModeByVIS(opts.VIS)
	if mode == nil {
		return nil, fmt.Errorf("%w: VIS %d", ErrUnknownMode, opts.VIS)
	}

	if opts.CW != nil {
		if err := opts.CW.Validate(); err != nil {
			return nil, err
		}
		if opts.CW.Text == "" {
			opts.CW = nil
		}
	}
	if opts.Headroom < 0 {
		opts.Headroom = 0
	}

	return &Encoder{opts: opts, mode: mode}, nil
}

// Mode returns the transmit mode
func (e *Encoder) Mode() *ModeSpec { return e.mode }

// SampleRate returns the output sample rate in Hz
func (e *Encoder) SampleRate() int { return e.opts.SampleRate }

// RequiredSamples returns the buffer size one Encode call needs
func (e *Encoder) RequiredSamples() int {
	return EstimateSamples(e.mode, e.opts.SampleRate, e.opts.CW)
}

// Encode synthesizes the full transmission for src
func (e *Encoder) Encode(src PixelSource) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil pixel source", ErrImageSize)
	}
	if width, height := src.Bounds(); width != e.mode.ImgWidth || height != e.mode.ImgHeight {
		return nil, fmt.Errorf("%w: got %dx%d, %s needs %dx%d",
			ErrImageSize, width, height, e.mode.ShortName, e.mode.ImgWidth, e.mode.ImgHeight)
	}

	required := e.RequiredSamples()

	buf := e.opts.Buffer
	if buf == nil {
		buf = NewSampleBuffer(required + e.opts.Headroom)
	} else if buf.Cap() < required {
		return nil, &BufferOverflowError{Cursor: 0, Capacity: buf.Cap(), Requested: required}
	}
	buf.Reset()

	synth, err := NewSynth(e.opts.SampleRate, e.opts.VolumePercent, buf)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SampleRate: e.opts.SampleRate,
		Mode:       e.mode,
		CWStart:    -1,
	}

	if err := WriteVISHeader(synth, e.mode.VIS); err != nil {
		return nil, fmt.Errorf("VIS header: %w", err)
	}
	res.ImageStart = buf.Len()

	if err := EncodeImage(synth, e.mode, src, e.opts.Progress); err != nil {
		return nil, fmt.Errorf("%s scanlines: %w", e.mode.ShortName, err)
	}
	res.TrailerStart = buf.Len()

	if err := WriteVISTrailer(synth); err != nil {
		return nil, fmt.Errorf("VIS trailer: %w", err)
	}

	if cw := e.opts.CW; cw != nil {
		if err := synth.Tone(0, CWLeadIn); err != nil {
			return nil, fmt.Errorf("CW lead-in: %w", err)
		}
		res.CWStart = buf.Len()
		if err := WriteCW(synth, cw.Text, cw.WPM, cw.ToneHz); err != nil {
			return nil, fmt.Errorf("CW signature: %w", err)
		}
	}

	res.Samples = buf.Samples()
	res.SampleCount = buf.Len()
	res.Duration = time.Duration(float64(res.SampleCount) / float64(e.opts.SampleRate) * float64(time.Second))
	return res, nil
}
