package sstv

/*
 * YUV scanline encoder (Robot 36 / Robot 72)
 *
 * Rows are processed in pairs. Luma is sent at full resolution for each
 * row; the two colour-difference channels are computed from the averaged
 * RGB of the pair and split across the two lines:
 *
 *   even row: sync porch Y 1500Hz-septr chroma-porch (R-Y)
 *   odd row:  sync porch Y 2300Hz-septr chroma-porch (B-Y)
 *
 * The separator frequency tells the receiver which chroma channel follows.
 */

// yuvPair holds the converted channels of one row pair
type yuvPair struct {
	yEven, yOdd []uint8
	ry, by      []uint8
}

func newYUVPair(width int) yuvPair {
	return yuvPair{
		yEven: make([]uint8, width),
		yOdd:  make([]uint8, width),
		ry:    make([]uint8, width),
		by:    make([]uint8, width),
	}
}

// convert fills the pair from two RGB scanlines
func (p yuvPair) convert(even, odd scanline) {
	for x := range p.yEven {
		p.yEven[x] = luma(even.r[x], even.g[x], even.b[x])
		p.yOdd[x] = luma(odd.r[x], odd.g[x], odd.b[x])

		r := uint8((uint16(even.r[x]) + uint16(odd.r[x])) / 2)
		g := uint8((uint16(even.g[x]) + uint16(odd.g[x])) / 2)
		b := uint8((uint16(even.b[x]) + uint16(odd.b[x])) / 2)
		p.ry[x] = chromaRY(r, g, b)
		p.by[x] = chromaBY(r, g, b)
	}
}

// robotLine emits one Robot scanline: luma followed by one chroma channel
func robotLine(w ToneWriter, m *ModeSpec, y []uint8, septrFreq float64, chroma []uint8) error {
	if err := w.Tone(FreqSync, m.SyncTime); err != nil {
		return err
	}
	if err := w.Tone(FreqPorch, m.PorchTime); err != nil {
		return err
	}
	if err := scanTones(w, y, m.PixelTime); err != nil {
		return err
	}
	if err := w.Tone(septrFreq, m.SeptrTime); err != nil {
		return err
	}
	if err := w.Tone(FreqChromaPorch, m.ChromaPorchTime); err != nil {
		return err
	}
	return scanTones(w, chroma, m.ChromaPixelTime)
}

func encodeRobot(w ToneWriter, m *ModeSpec, src PixelSource, progress ProgressFunc) error {
	even := newScanline(m.ImgWidth)
	odd := newScanline(m.ImgWidth)
	pair := newYUVPair(m.ImgWidth)

	for y := 0; y+1 < m.ImgHeight; y += 2 {
		even.read(src, y)
		odd.read(src, y+1)
		pair.convert(even, odd)

		if err := robotLine(w, m, pair.yEven, FreqSeparator, pair.ry); err != nil {
			return err
		}
		if err := robotLine(w, m, pair.yOdd, FreqOddSeptr, pair.by); err != nil {
			return err
		}

		if progress != nil {
			progress(y+2, m.ImgHeight)
		}
	}
	return nil
}
