package sstv

import (
	"math"
	"sort"
	"strings"
)

/*
 * SSTV Mode Specifications (transmit side)
 *
 * All timing values are in microseconds, the unit the tone emitter works in.
 *
 * References:
 *   - Martin Bruchanov OK2MNM (2012, 2019): www.sstv-handbook.com/download/sstv_04.pdf
 *   - JL Barber N7CXI: "Proposal for SSTV Mode Specifications" (Dayton SSTV forum, 2000)
 *   - Dave Jones KB4YZ (1999): "SSTV Modes - Line Timing"
 */

// VIS codes of the transmit modes
const (
	VISRobot36   uint8 = 8
	VISRobot72   uint8 = 12
	VISMartin2   uint8 = 40
	VISMartin1   uint8 = 44
	VISScottie2  uint8 = 56
	VISScottie1  uint8 = 60
	VISScottieDX uint8 = 76
)

// ModeFamily selects the scanline encoder used for a mode
type ModeFamily int

const (
	FamilyMartin  ModeFamily = 0 // Sp g s b s r s (sync per line)
	FamilyScottie ModeFamily = 1 // s g s b Sp r (single leading sync)
	FamilyRobot   ModeFamily = 2 // Sp Y s p (R-Y | B-Y), line pairs
)

// ColorEncoding represents the color format
type ColorEncoding int

const (
	ColorGBR ColorEncoding = 0
	ColorYUV ColorEncoding = 2
)

// Tone frequencies in Hz
const (
	FreqSync        = 1200.0
	FreqPorch       = 1500.0
	FreqSeparator   = 1500.0
	FreqBlack       = 1500.0
	FreqWhite       = 2300.0
	FreqOddSeptr    = 2300.0 // Robot B-Y line marker
	FreqChromaPorch = 1900.0

	// Hz per colour step (800 Hz / 255)
	freqPerStep = 3.1372549
)

// ModeSpec defines the parameters for an SSTV transmit mode
type ModeSpec struct {
	Name            string        // Long, human-readable name
	ShortName       string        // Abbreviation for the mode
	VIS             uint8         // VIS code (7-bit)
	Family          ModeFamily    // Scanline encoder
	ColorEnc        ColorEncoding // Color format
	SyncTime        float64       // Sync pulse (µs)
	PorchTime       float64       // Porch after sync (µs)
	SeptrTime       float64       // Channel separator (µs)
	PixelTime       float64       // One pixel, luma/RGB channels (µs)
	ChromaPorchTime float64       // Robot chroma porch (µs)
	ChromaPixelTime float64       // Robot chroma pixel (µs)
	ImgWidth        int           // Pixels per scanline
	ImgHeight       int           // Source image rows
	NominalTime     int           // Advertised TX time (seconds)
}

var modeSpecs = []ModeSpec{
	{
		Name: "Martin M1", ShortName: "M1", VIS: VISMartin1,
		Family: FamilyMartin, ColorEnc: ColorGBR,
		SyncTime: 4862, PorchTime: 572, SeptrTime: 572, PixelTime: 457.6,
		ImgWidth: 320, ImgHeight: 256, NominalTime: 114,
	},
	{
		Name: "Martin M2", ShortName: "M2", VIS: VISMartin2,
		Family: FamilyMartin, ColorEnc: ColorGBR,
		SyncTime: 4862, PorchTime: 572, SeptrTime: 572, PixelTime: 228.8,
		ImgWidth: 320, ImgHeight: 256, NominalTime: 58,
	},
	{
		Name: "Scottie S1", ShortName: "S1", VIS: VISScottie1,
		Family: FamilyScottie, ColorEnc: ColorGBR,
		SyncTime: 9000, PorchTime: 1500, SeptrTime: 1500, PixelTime: 432.0,
		ImgWidth: 320, ImgHeight: 256, NominalTime: 110,
	},
	{
		Name: "Scottie S2", ShortName: "S2", VIS: VISScottie2,
		Family: FamilyScottie, ColorEnc: ColorGBR,
		SyncTime: 9000, PorchTime: 1500, SeptrTime: 1500, PixelTime: 275.2,
		ImgWidth: 320, ImgHeight: 256, NominalTime: 71,
	},
	{
		Name: "Scottie DX", ShortName: "SDX", VIS: VISScottieDX,
		Family: FamilyScottie, ColorEnc: ColorGBR,
		SyncTime: 9000, PorchTime: 1500, SeptrTime: 1500, PixelTime: 1080.0,
		ImgWidth: 320, ImgHeight: 256, NominalTime: 269,
	},
	{
		Name: "Robot 36", ShortName: "R36", VIS: VISRobot36,
		Family: FamilyRobot, ColorEnc: ColorYUV,
		SyncTime: 9000, PorchTime: 3000, SeptrTime: 4500, PixelTime: 275.0,
		ChromaPorchTime: 1500, ChromaPixelTime: 137.5,
		ImgWidth: 320, ImgHeight: 240, NominalTime: 36,
	},
	{
		Name: "Robot 72", ShortName: "R72", VIS: VISRobot72,
		Family: FamilyRobot, ColorEnc: ColorYUV,
		SyncTime: 9000, PorchTime: 3000, SeptrTime: 4500, PixelTime: 550.0,
		ChromaPorchTime: 1500, ChromaPixelTime: 275.0,
		ImgWidth: 320, ImgHeight: 240, NominalTime: 72,
	},
}

// GetModeByVIS returns the mode specification for a given VIS code, or nil
func GetModeByVIS(vis uint8) *ModeSpec {
	for i := range modeSpecs {
		if modeSpecs[i].VIS == vis {
			return &modeSpecs[i]
		}
	}
	return nil
}

// GetModeByName looks a mode up by its short name ("m1", "s2", "r36", ...), case-insensitive
func GetModeByName(name string) *ModeSpec {
	name = strings.TrimSpace(name)
	for i := range modeSpecs {
		if strings.EqualFold(modeSpecs[i].ShortName, name) {
			return &modeSpecs[i]
		}
	}
	return nil
}

// Modes returns all transmit modes ordered by VIS code
func Modes() []ModeSpec {
	out := make([]ModeSpec, len(modeSpecs))
	copy(out, modeSpecs)
	sort.Slice(out, func(i, j int) bool { return out[i].VIS < out[j].VIS })
	return out
}

// LineTime returns the duration of one encoded scanline in µs.
// Robot modes report a single line; two are sent per row pair.
func (m *ModeSpec) LineTime() float64 {
	w := float64(m.ImgWidth)
	switch m.Family {
	case FamilyMartin:
		return m.SyncTime + m.PorchTime + 3*w*m.PixelTime + 3*m.SeptrTime
	case FamilyScottie:
		return 2*m.SeptrTime + m.SyncTime + m.PorchTime + 3*w*m.PixelTime
	case FamilyRobot:
		return m.SyncTime + m.PorchTime + w*m.PixelTime + m.SeptrTime + m.ChromaPorchTime + w*m.ChromaPixelTime
	}
	return 0
}

// ImageTime returns the duration of the image portion (all scanlines) in µs
func (m *ModeSpec) ImageTime() float64 {
	t := m.LineTime() * float64(m.ImgHeight)
	if m.Family == FamilyScottie {
		// leading sync pulse
		t += m.SyncTime
	}
	return t
}

// FrameTime returns header + image + trailer duration in µs
func (m *ModeSpec) FrameTime() float64 {
	return VISHeaderTime() + m.ImageTime() + VISTrailerTime()
}

// FrameDuration returns the total duration in µs of a transmission in mode m,
// including the optional CW signature and the gap before it
func FrameDuration(m *ModeSpec, cw *CWConfig) float64 {
	t := m.FrameTime()
	if cw != nil && cw.Text != "" {
		t += CWLeadIn + CWDuration(cw.Text, cw.WPM)
	}
	return t
}

// EstimateSamples returns the sample count needed to hold a transmission.
// The timing carry bounds the total to within one sample of duration/period,
// so one extra sample is enough.
func EstimateSamples(m *ModeSpec, sampleRate int, cw *CWConfig) int {
	usPerSample := 1e6 / float64(sampleRate)
	return int(math.Ceil(FrameDuration(m, cw)/usPerSample)) + 1
}
