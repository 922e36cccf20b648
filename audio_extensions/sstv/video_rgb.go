package sstv

/*
 * RGB scanline encoders (Martin, Scottie)
 *
 * Both send the channels in G, B, R order at one tone per pixel.
 *
 * Martin line:  sync porch G septr B septr R septr
 * Scottie line: septr G septr B sync porch R
 * Scottie sends one extra sync pulse before the first line only.
 */

func encodeMartin(w ToneWriter, m *ModeSpec, src PixelSource, progress ProgressFunc) error {
	line := newScanline(m.ImgWidth)

	for y := 0; y < m.ImgHeight; y++ {
		line.read(src, y)

		if err := w.Tone(FreqSync, m.SyncTime); err != nil {
			return err
		}
		if err := w.Tone(FreqPorch, m.PorchTime); err != nil {
			return err
		}
		for _, ch := range [][]uint8{line.g, line.b, line.r} {
			if err := scanTones(w, ch, m.PixelTime); err != nil {
				return err
			}
			if err := w.Tone(FreqSeparator, m.SeptrTime); err != nil {
				return err
			}
		}

		if progress != nil {
			progress(y+1, m.ImgHeight)
		}
	}
	return nil
}

func encodeScottie(w ToneWriter, m *ModeSpec, src PixelSource, progress ProgressFunc) error {
	line := newScanline(m.ImgWidth)

	if err := w.Tone(FreqSync, m.SyncTime); err != nil {
		return err
	}

	for y := 0; y < m.ImgHeight; y++ {
		line.read(src, y)

		if err := w.Tone(FreqSeparator, m.SeptrTime); err != nil {
			return err
		}
		if err := scanTones(w, line.g, m.PixelTime); err != nil {
			return err
		}
		if err := w.Tone(FreqSeparator, m.SeptrTime); err != nil {
			return err
		}
		if err := scanTones(w, line.b, m.PixelTime); err != nil {
			return err
		}
		if err := w.Tone(FreqSync, m.SyncTime); err != nil {
			return err
		}
		if err := w.Tone(FreqPorch, m.PorchTime); err != nil {
			return err
		}
		if err := scanTones(w, line.r, m.PixelTime); err != nil {
			return err
		}

		if progress != nil {
			progress(y+1, m.ImgHeight)
		}
	}
	return nil
}
