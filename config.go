package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cwsl/ubersstv/audio_extensions/sstv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Encoder    EncoderConfig    `yaml:"encoder"`
	Image      ImageConfig      `yaml:"image"`
	CW         CWConfig         `yaml:"cw"`
	Output     OutputConfig     `yaml:"output"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Logging    LoggingConfig    `yaml:"logging"`
	MinVersion string           `yaml:"min_version,omitempty"` // Version constraint this file was written for, e.g. ">= 1.0"
}

// EncoderConfig contains the SSTV engine settings
type EncoderConfig struct {
	Mode             string `yaml:"mode"`              // Short mode name (m1, m2, s1, s2, sdx, r36, r72)
	SampleRate       int    `yaml:"sample_rate"`       // Output sample rate in Hz
	VolumePercent    int    `yaml:"volume_percent"`    // Tone amplitude as a percentage of full scale
	CapacityHeadroom int    `yaml:"capacity_headroom"` // Extra samples allocated beyond the estimate
}

// ImageConfig contains input image preparation settings
type ImageConfig struct {
	Aspect           string        `yaml:"aspect"`            // center, pad or stretch
	KeepIntermediate bool          `yaml:"keep_intermediate"` // Keep the resized image next to the output
	Overlay          OverlayConfig `yaml:"overlay"`
}

// OverlayConfig contains the station ID text bar settings
type OverlayConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Text       string `yaml:"text"`       // Defaults to the CW callsign when empty
	Position   string `yaml:"position"`   // top or bottom
	Color      string `yaml:"color"`      // Text colour, #rrggbb
	Background string `yaml:"background"` // Bar colour, #rrggbb
	Scale      int    `yaml:"scale"`      // Integer glyph scale factor
}

// CWConfig contains the Morse station identification settings
type CWConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Callsign string  `yaml:"callsign"`
	Message  string  `yaml:"message"` // Overrides the default "SSTV de <callsign>"
	WPM      int     `yaml:"wpm"`
	ToneHz   float64 `yaml:"tone_hz"`
}

// OutputConfig contains the audio container settings
type OutputConfig struct {
	Format string          `yaml:"format"` // wav, aiff, ogg, pcm, pcmz or pcma
	Path   string          `yaml:"path"`   // Defaults to the input name with the format's extension
	Opus   OpusConfig      `yaml:"opus"`
	PCM    PCMOutputConfig `yaml:"pcm"`
}

// OpusConfig contains the Opus encoder settings used by the ogg format
type OpusConfig struct {
	Bitrate    int `yaml:"bitrate"`    // bits per second
	Complexity int `yaml:"complexity"` // 0-10
}

// PCMOutputConfig contains the raw PCM container settings
type PCMOutputConfig struct {
	PacketSamples int `yaml:"packet_samples"` // Samples per packet
	ZstdLevel     int `yaml:"zstd_level"`     // 1 fastest, 2 default, 3 better, 4 best
}

// PrometheusConfig contains metrics export settings
type PrometheusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"` // node_exporter textfile collector path
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Verbose    bool `yaml:"verbose"`
	Timestamps bool `yaml:"timestamps"` // Microsecond timestamps, implies verbose
}

const (
	maxCallsignLength = 31

	aspectCenter  = "center"
	aspectPad     = "pad"
	aspectStretch = "stretch"
)

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Encoder: EncoderConfig{
			Mode:          "m1",
			SampleRate:    sstv.DefaultSampleRate,
			VolumePercent: sstv.DefaultVolumePercent,
		},
		Image: ImageConfig{
			Aspect: aspectCenter,
			Overlay: OverlayConfig{
				Position:   "bottom",
				Color:      "#ffffff",
				Background: "#000000",
				Scale:      2,
			},
		},
		CW: CWConfig{
			WPM:    sstv.DefaultCWWPM,
			ToneHz: sstv.DefaultCWTone,
		},
		Output: OutputConfig{
			Format: "wav",
			Opus: OpusConfig{
				Bitrate:    32000,
				Complexity: 10,
			},
			PCM: PCMOutputConfig{
				PacketSamples: 4096,
				ZstdLevel:     2,
			},
		},
		Prometheus: PrometheusConfig{
			Textfile: "ubersstv.prom",
		},
	}
}

// LoadConfig loads configuration from a YAML file over the defaults.
// A missing file is not an error when allowMissing is set.
func LoadConfig(filename string, allowMissing bool) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Encoder.Mode = strings.ToLower(strings.TrimSpace(config.Encoder.Mode))
	config.Output.Format = strings.ToLower(strings.TrimSpace(config.Output.Format))
	config.Image.Aspect = strings.ToLower(strings.TrimSpace(config.Image.Aspect))
	config.CW.Callsign = strings.TrimSpace(config.CW.Callsign)

	if config.Output.Opus.Bitrate == 0 {
		config.Output.Opus.Bitrate = 32000
	}
	if config.Output.PCM.PacketSamples == 0 {
		config.Output.PCM.PacketSamples = 4096
	}
	if config.Image.Overlay.Scale == 0 {
		config.Image.Overlay.Scale = 2
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if sstv.GetModeByName(c.Encoder.Mode) == nil {
		return fmt.Errorf("encoder.mode %q is not a known mode", c.Encoder.Mode)
	}
	if c.Encoder.SampleRate < sstv.MinSampleRate || c.Encoder.SampleRate > sstv.MaxSampleRate {
		return fmt.Errorf("encoder.sample_rate must be between %d and %d", sstv.MinSampleRate, sstv.MaxSampleRate)
	}
	if c.Encoder.VolumePercent < 1 || c.Encoder.VolumePercent > 100 {
		return fmt.Errorf("encoder.volume_percent must be between 1 and 100")
	}
	if c.Encoder.CapacityHeadroom < 0 {
		return fmt.Errorf("encoder.capacity_headroom cannot be negative")
	}

	switch c.Image.Aspect {
	case aspectCenter, aspectPad, aspectStretch:
	default:
		return fmt.Errorf("image.aspect must be one of center, pad, stretch")
	}
	if c.Image.Overlay.Enabled {
		if err := c.Image.Overlay.validate(); err != nil {
			return err
		}
	}

	if c.CW.Enabled {
		if c.CW.Callsign == "" && c.CW.Message == "" {
			return fmt.Errorf("cw.callsign is required when cw is enabled")
		}
	}
	if len(c.CW.Callsign) > maxCallsignLength {
		return fmt.Errorf("cw.callsign must be at most %d characters", maxCallsignLength)
	}
	if c.CW.WPM < sstv.MinCWWPM || c.CW.WPM > sstv.MaxCWWPM {
		return fmt.Errorf("cw.wpm must be between %d and %d", sstv.MinCWWPM, sstv.MaxCWWPM)
	}
	if c.CW.ToneHz < sstv.MinCWTone || c.CW.ToneHz > sstv.MaxCWTone {
		return fmt.Errorf("cw.tone_hz must be between %.0f and %.0f", sstv.MinCWTone, sstv.MaxCWTone)
	}

	if !AudioEncoderExists(c.Output.Format) {
		return fmt.Errorf("output.format %q is not supported (available: %s)",
			c.Output.Format, strings.Join(ListAudioEncoders(), ", "))
	}
	if c.Output.Opus.Complexity < 0 || c.Output.Opus.Complexity > 10 {
		return fmt.Errorf("output.opus.complexity must be between 0 and 10")
	}
	if c.Output.PCM.PacketSamples < 1 || c.Output.PCM.PacketSamples > maxPCMPacketSamples {
		return fmt.Errorf("output.pcm.packet_samples must be between 1 and %d", maxPCMPacketSamples)
	}
	if c.Output.PCM.ZstdLevel < 1 || c.Output.PCM.ZstdLevel > 4 {
		return fmt.Errorf("output.pcm.zstd_level must be between 1 and 4")
	}

	if c.Prometheus.Enabled && c.Prometheus.Textfile == "" {
		return fmt.Errorf("prometheus.textfile is required when prometheus is enabled")
	}
	return nil
}

func (oc *OverlayConfig) validate() error {
	if oc.Position != "top" && oc.Position != "bottom" {
		return fmt.Errorf("image.overlay.position must be top or bottom")
	}
	if oc.Scale < 1 || oc.Scale > 4 {
		return fmt.Errorf("image.overlay.scale must be between 1 and 4")
	}
	if _, err := parseHexColor(oc.Color); err != nil {
		return fmt.Errorf("image.overlay.color: %w", err)
	}
	if _, err := parseHexColor(oc.Background); err != nil {
		return fmt.Errorf("image.overlay.background: %w", err)
	}
	return nil
}

// SignatureText returns the text keyed after the image, or "" when the
// signature is disabled
func (cc *CWConfig) SignatureText() string {
	if !cc.Enabled {
		return ""
	}
	if cc.Message != "" {
		return cc.Message
	}
	return "SSTV de " + strings.ToUpper(cc.Callsign)
}

// EngineConfig converts the signature settings for the encoder, nil when disabled
func (cc *CWConfig) EngineConfig() *sstv.CWConfig {
	text := cc.SignatureText()
	if text == "" {
		return nil
	}
	return &sstv.CWConfig{Text: text, WPM: cc.WPM, ToneHz: cc.ToneHz}
}
