package sstv

import (
	"errors"
	"fmt"
)

/*
 * Video Encoding - Common Structures and Utilities
 *
 * Pixel values map linearly onto 1500 Hz (black) .. 2300 Hz (white).
 * YUV conversion uses the ITU-R BT.601 studio-swing coefficients that
 * Robot receivers expect.
 */

// ErrImageSize is returned when the pixel source does not match the mode resolution
var ErrImageSize = errors.New("image size does not match mode")

// PixelSource is a read-only RGB grid sized to the mode resolution.
// Out-of-range coordinates are never requested; implementations
// return black if asked anyway.
type PixelSource interface {
	Bounds() (width, height int)
	RGB(x, y int) (r, g, b uint8)
}

// ProgressFunc receives scanline progress (done of total rows)
type ProgressFunc func(done, total int)

// scanline holds one source row split into channels
type scanline struct {
	r, g, b []uint8
}

func newScanline(width int) scanline {
	return scanline{
		r: make([]uint8, width),
		g: make([]uint8, width),
		b: make([]uint8, width),
	}
}

// read fills the scanline from row y of src
func (s scanline) read(src PixelSource, y int) {
	for x := range s.r {
		s.r[x], s.g[x], s.b[x] = src.RGB(x, y)
	}
}

// toneForValue maps an 8-bit channel value to its video frequency
func toneForValue(v uint8) float64 {
	return FreqBlack + float64(v)*freqPerStep
}

// scanTones emits one tone per pixel value
func scanTones(w ToneWriter, values []uint8, pixelTime float64) error {
	for _, v := range values {
		if err := w.Tone(toneForValue(v), pixelTime); err != nil {
			return err
		}
	}
	return nil
}

// luma returns Y for one pixel
func luma(r, g, b uint8) uint8 {
	return clip(16.0 + 0.003906*(65.738*float64(r)+129.057*float64(g)+25.064*float64(b)))
}

// chromaRY returns the R-Y component for an (averaged) pixel
func chromaRY(r, g, b uint8) uint8 {
	return clip(128.0 + 0.003906*(112.439*float64(r)-94.154*float64(g)-18.285*float64(b)))
}

// chromaBY returns the B-Y component for an (averaged) pixel
func chromaBY(r, g, b uint8) uint8 {
	return clip(128.0 + 0.003906*(-37.945*float64(r)-74.494*float64(g)+112.439*float64(b)))
}

// clip clips a value to 0-255 range
func clip(value float64) uint8 {
	if value < 0 {
		return 0
	}
	if value > 255 {
		return 255
	}
	return uint8(value)
}

// EncodeImage emits every scanline of src in mode m
func EncodeImage(w ToneWriter, m *ModeSpec, src PixelSource, progress ProgressFunc) error {
	if m == nil {
		return ErrUnknownMode
	}
	width, height := src.Bounds()
	if width != m.ImgWidth || height != m.ImgHeight {
		return fmt.Errorf("%w: got %dx%d, %s needs %dx%d",
			ErrImageSize, width, height, m.ShortName, m.ImgWidth, m.ImgHeight)
	}

	switch m.Family {
	case FamilyMartin:
		return encodeMartin(w, m, src, progress)
	case FamilyScottie:
		return encodeScottie(w, m, src, progress)
	case FamilyRobot:
		return encodeRobot(w, m, src, progress)
	}
	return fmt.Errorf("%w: family %d", ErrUnknownMode, m.Family)
}
