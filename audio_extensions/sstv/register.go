package sstv

import "fmt"

/*
 * Encoder metadata
 * Mode listing and defaults reported by -list-modes
 */

// Version of the synthesis engine
const Version = "1.0.0"

// colorName returns the display name of a colour encoding
func colorName(c ColorEncoding) string {
	switch c {
	case ColorGBR:
		return "GBR"
	case ColorYUV:
		return "YUV 4:2:0"
	}
	return "unknown"
}

// ModeInfo returns display metadata for one mode
func ModeInfo(m *ModeSpec) map[string]interface{} {
	return map[string]interface{}{
		"name":       m.Name,
		"short":      m.ShortName,
		"vis":        m.VIS,
		"resolution": fmt.Sprintf("%dx%d", m.ImgWidth, m.ImgHeight),
		"color":      colorName(m.ColorEnc),
		"nominal_s":  m.NominalTime,
		"line_ms":    m.LineTime() / 1000.0,
		"frame_s":    m.FrameTime() / 1e6,
	}
}

// GetInfo returns encoder metadata
func GetInfo() map[string]interface{} {
	modes := Modes()
	supported := make([]map[string]interface{}, 0, len(modes))
	for i := range modes {
		supported = append(supported, ModeInfo(&modes[i]))
	}

	return map[string]interface{}{
		"name":        "sstv",
		"description": "Slow Scan Television (SSTV) encoder for Martin, Scottie and Robot modes",
		"version":     Version,
		"parameters": map[string]interface{}{
			"sample_rate": map[string]interface{}{
				"type":    "number",
				"default": DefaultSampleRate,
				"min":     MinSampleRate,
				"max":     MaxSampleRate,
			},
			"volume_percent": map[string]interface{}{
				"type":    "number",
				"default": DefaultVolumePercent,
				"min":     1,
				"max":     100,
			},
			"cw_wpm": map[string]interface{}{
				"type":    "number",
				"default": DefaultCWWPM,
				"min":     MinCWWPM,
				"max":     MaxCWWPM,
			},
			"cw_tone_hz": map[string]interface{}{
				"type":    "number",
				"default": DefaultCWTone,
				"min":     MinCWTone,
				"max":     MaxCWTone,
			},
		},
		"supported_modes": supported,
	}
}
