package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwsl/ubersstv/audio_extensions/morse"
	"github.com/cwsl/ubersstv/audio_extensions/sstv"
	"github.com/google/uuid"
)

// Exit codes, one per pipeline stage
const (
	ExitConfig = 1
	ExitImage  = 2
	ExitEncode = 3
	ExitOutput = 4
)

// outputChannels is the channel count of every container written
const outputChannels = 1

// StageError is a pipeline failure tagged with the stage it happened in
type StageError struct {
	Stage string
	Code  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, code int, err error) error {
	return &StageError{Stage: stage, Code: code, Err: err}
}

// ExitCode returns the process exit code for err
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Code
	}
	return ExitConfig
}

// EncodeSession is one image-to-audio conversion. Each session gets its
// own ID, used as the prefix of its log lines.
type EncodeSession struct {
	ID         string
	Started    time.Time
	InputPath  string
	OutputPath string
	Check      bool

	config  *Config
	mode    *sstv.ModeSpec
	metrics *PrometheusMetrics
	info    AudioEncoderInfo
}

// NewEncodeSession creates a session for a validated configuration. An
// empty outputPath derives the output name from the input file.
func NewEncodeSession(config *Config, inputPath, outputPath string, metrics *PrometheusMetrics) (*EncodeSession, error) {
	mode := sstv.GetModeByName(config.Encoder.Mode)
	if mode == nil {
		return nil, stageError("config", ExitConfig, fmt.Errorf("unknown mode %q", config.Encoder.Mode))
	}
	info, ok := audioEncoders.Info(config.Output.Format)
	if !ok {
		return nil, stageError("config", ExitConfig, fmt.Errorf("unknown output format %q", config.Output.Format))
	}
	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath, info.Extension)
	}

	return &EncodeSession{
		ID:         uuid.New().String(),
		Started:    time.Now(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		config:     config,
		mode:       mode,
		metrics:    metrics,
		info:       info,
	}, nil
}

// DefaultOutputPath replaces the extension of inputPath with ext
func DefaultOutputPath(inputPath, ext string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

func (s *EncodeSession) logf(format string, args ...interface{}) {
	log.Printf("[SSTV %s] "+format, append([]interface{}{s.ID[:8]}, args...)...)
}

// Run executes the whole pipeline: image, synthesis, container, report
func (s *EncodeSession) Run() (*sstv.Result, error) {
	format := s.config.Output.Format
	s.logf("Encoding %s as %s (VIS %d) at %d Hz -> %s",
		s.InputPath, s.mode.Name, s.mode.VIS, s.config.Encoder.SampleRate, s.OutputPath)

	src, err := s.PrepareImage()
	if err != nil {
		s.metrics.RecordFailure(s.mode.ShortName, format, "image")
		return nil, err
	}

	cw := s.config.CW.EngineConfig()
	required := sstv.EstimateSamples(s.mode, s.config.Encoder.SampleRate, cw) + s.config.Encoder.CapacityHeadroom
	outBytes := EstimateOutputBytes(format, required, s.config.Encoder.SampleRate, outputChannels, s.config.Output.Opus)
	rc, err := CheckResources(required, s.OutputPath, outBytes)
	if err != nil {
		s.metrics.RecordFailure(s.mode.ShortName, format, "output")
		return nil, stageError("output", ExitOutput, err)
	}
	if s.config.Logging.Verbose {
		s.logf("Host: %s (%d cores), buffer %s, output up to %s",
			rc.CPUModel, rc.CPUCores, formatBytes(rc.BufferBytes), formatBytes(rc.OutputBytes))
	}

	res, err := s.Synthesize(src, cw)
	if err != nil {
		s.metrics.RecordFailure(s.mode.ShortName, format, "encode")
		return nil, err
	}

	if err := s.WriteOutput(res); err != nil {
		s.metrics.RecordFailure(s.mode.ShortName, format, "output")
		return nil, err
	}

	if s.Check {
		report := CheckAudio(res, cw)
		report.VerifyFile(format, s.OutputPath, res.SampleCount)
		report.Log()
		s.metrics.RecordLevels(s.mode.ShortName, report.Levels.RMS, report.Levels.Clipped)
	}

	return res, nil
}

// PrepareImage loads the input, fits it to the mode resolution and draws
// the overlay
func (s *EncodeSession) PrepareImage() (*ImageSource, error) {
	img, format, err := LoadImage(s.InputPath)
	if err != nil {
		return nil, stageError("image", ExitImage, err)
	}
	b := img.Bounds()
	s.logf("Loaded %s image %dx%d", format, b.Dx(), b.Dy())

	fitted, err := FitImage(img, s.mode.ImgWidth, s.mode.ImgHeight, s.config.Image.Aspect)
	if err != nil {
		return nil, stageError("image", ExitImage, err)
	}

	overlay := s.config.Image.Overlay
	if overlay.Enabled {
		text := overlay.Text
		if text == "" {
			text = strings.ToUpper(s.config.CW.Callsign)
		}
		if err := DrawOverlay(fitted, text, overlay); err != nil {
			return nil, stageError("image", ExitImage, err)
		}
	}

	if s.config.Image.KeepIntermediate {
		if err := SavePNG(fitted, IntermediatePath(s.OutputPath)); err != nil {
			return nil, stageError("image", ExitImage, err)
		}
	}

	return NewImageSource(fitted), nil
}

// Synthesize runs the SSTV engine over src
func (s *EncodeSession) Synthesize(src sstv.PixelSource, cw *sstv.CWConfig) (*sstv.Result, error) {
	opts := sstv.Options{
		SampleRate:    s.config.Encoder.SampleRate,
		VIS:           s.mode.VIS,
		VolumePercent: s.config.Encoder.VolumePercent,
		CW:            cw,
		Headroom:      s.config.Encoder.CapacityHeadroom,
	}
	if s.config.Logging.Verbose {
		opts.Progress = s.progressLogger()
	}

	enc, err := sstv.NewEncoder(opts)
	if err != nil {
		return nil, stageError("config", ExitConfig, err)
	}

	if cw != nil {
		eff := cw.Resolved()
		s.logf("CW signature %q at %d WPM, %.0f Hz: %s",
			eff.Text, eff.WPM, eff.ToneHz, morse.Encode(eff.Text))
		s.metrics.RecordSignature(eff.WPM, sstv.CWElementCount(eff.Text))
	}

	started := time.Now()
	res, err := enc.Encode(src)
	if err != nil {
		return nil, stageError("encode", ExitEncode, err)
	}
	elapsed := time.Since(started)

	s.logf("Synthesized %d samples (%.2f s of audio) in %v",
		res.SampleCount, res.Duration.Seconds(), elapsed.Round(time.Millisecond))
	s.metrics.RecordEncode(s.mode.ShortName, s.config.Output.Format,
		res.SampleCount, res.Duration.Seconds(), elapsed.Seconds())
	return res, nil
}

// progressLogger logs every 64 rows and the last one
func (s *EncodeSession) progressLogger() sstv.ProgressFunc {
	last := 0
	return func(done, total int) {
		if done-last >= 64 || done == total {
			s.logf("Scanlines %d/%d", done, total)
			last = done
		}
	}
}

// WriteOutput writes res into the configured container. A failed write
// never leaves a partial file behind.
func (s *EncodeSession) WriteOutput(res *sstv.Result) error {
	params := AudioEncoderParams{Opus: s.config.Output.Opus, PCM: s.config.Output.PCM}
	enc, err := CreateAudioEncoder(s.config.Output.Format, params)
	if err != nil {
		return stageError("output", ExitOutput, err)
	}
	defer enc.Destroy()

	if err := enc.Init(res.SampleRate, 16, outputChannels, s.OutputPath); err != nil {
		return stageError("output", ExitOutput, err)
	}
	if err := enc.Encode(res.Samples); err != nil {
		return stageError("output", ExitOutput, err)
	}
	if err := enc.Finish(); err != nil {
		return stageError("output", ExitOutput, err)
	}

	if fi, err := os.Stat(s.OutputPath); err == nil {
		s.metrics.RecordOutput(s.config.Output.Format, fi.Size())
		s.logf("Wrote %s (%s, %s)", s.OutputPath, s.info.Description, formatBytes(uint64(fi.Size())))
	}
	return nil
}
