package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/cwsl/ubersstv/audio_extensions/sstv"
	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
)

// Leader window: inside the first 300 ms 1900 Hz leader of the VIS header
const (
	leaderOffset    = 1.35 // seconds
	leaderWindow    = 0.1  // seconds
	leaderFreq      = 1900.0
	leaderTolerance = 10.0 // Hz
	maxDCOffset     = 100.0
)

// AudioCheckReport is the -check analysis of one transmission
type AudioCheckReport struct {
	Levels     sstv.Report
	LeaderHz   float64
	CWRegions  int // Keyed elements found after the trailer, -1 without a signature
	CWExpected int
	Readback   int // Frames read back from the written file, -1 when not checked
	Problems   []string
}

// CheckAudio analyses a finished transmission: levels, clipping, clicks,
// the VIS leader frequency and the keyed CW elements
func CheckAudio(res *sstv.Result, cw *sstv.CWConfig) *AudioCheckReport {
	r := &AudioCheckReport{
		Levels:    sstv.Analyze(res.Samples, res.SampleRate),
		CWRegions: -1,
		Readback:  -1,
	}

	if r.Levels.Clipped > 0 {
		r.problem("%d samples at or beyond clipping level", r.Levels.Clipped)
	}
	if math.Abs(r.Levels.DC) > maxDCOffset {
		r.problem("DC offset %.1f", r.Levels.DC)
	}

	// Scanlines are one continuous-phase signal, so no step may exceed
	// what the highest video frequency allows
	peak := math.Max(math.Abs(float64(r.Levels.Min)), math.Abs(float64(r.Levels.Max)))
	maxStep := 2*math.Sin(math.Pi*math.Min(sstv.FreqWhite/float64(res.SampleRate), 0.5))*peak*1.05 + 2
	if res.TrailerStart > res.ImageStart {
		image := sstv.Analyze(res.Samples[res.ImageStart:res.TrailerStart], res.SampleRate)
		if float64(image.MaxStep) > maxStep {
			r.problem("scanline sample step %d exceeds %.0f (click)", image.MaxStep, maxStep)
		}
	}

	from := int(leaderOffset * float64(res.SampleRate))
	n := int(leaderWindow * float64(res.SampleRate))
	if hz, err := sstv.DominantFrequency(res.Samples, res.SampleRate, from, n); err != nil {
		r.problem("leader tone: %v", err)
	} else {
		r.LeaderHz = hz
		if math.Abs(hz-leaderFreq) > leaderTolerance {
			r.problem("leader tone at %.1f Hz, expected %.0f Hz", hz, leaderFreq)
		}
	}

	if res.CWStart >= 0 && cw != nil {
		r.CWRegions = len(sstv.ToneRegions(res.Samples, res.SampleRate, res.CWStart))
		r.CWExpected = sstv.CWElementCount(cw.Text)
		if r.CWRegions != r.CWExpected {
			r.problem("found %d CW elements, expected %d", r.CWRegions, r.CWExpected)
		}
	}

	return r
}

// VerifyFile reads the written container back and compares its length
func (r *AudioCheckReport) VerifyFile(format, path string, expected int) {
	frames, err := ReadbackFrames(format, path)
	if err != nil {
		r.problem("readback: %v", err)
		return
	}
	if frames < 0 {
		return
	}
	r.Readback = frames
	if frames != expected {
		r.problem("file holds %d samples, expected %d", frames, expected)
	}
}

func (r *AudioCheckReport) problem(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// OK reports whether no problem was found
func (r *AudioCheckReport) OK() bool {
	return len(r.Problems) == 0
}

// Log prints the report
func (r *AudioCheckReport) Log() {
	l := r.Levels
	log.Printf("[Audio] %d samples, %.2f s", l.Samples, l.Duration.Seconds())
	log.Printf("[Audio] Level: min %d, max %d, RMS %.1f, DC %.2f, max step %d",
		l.Min, l.Max, l.RMS, l.DC, l.MaxStep)
	log.Printf("[Audio] VIS leader: %.1f Hz", r.LeaderHz)
	if r.CWRegions >= 0 {
		log.Printf("[Audio] CW elements: %d of %d", r.CWRegions, r.CWExpected)
	}
	if r.Readback >= 0 {
		log.Printf("[Audio] File readback: %d samples", r.Readback)
	}
	for _, p := range r.Problems {
		log.Printf("[Audio] Warning: %s", p)
	}
	if r.OK() {
		log.Printf("[Audio] Check passed")
	}
}

// ReadbackFrames decodes a written file and returns its sample frame count.
// Formats without a decoder return -1.
func ReadbackFrames(format, path string) (int, error) {
	if format == "pcm" || format == "pcmz" || format == "pcma" {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		stream, err := ReadPCMBinary(f)
		if err != nil {
			return 0, err
		}
		return stream.Frames(), nil
	}

	if format != "wav" && format != "aiff" {
		return -1, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if format == "wav" {
		d := wav.NewDecoder(f)
		if !d.IsValidFile() {
			return 0, fmt.Errorf("%s is not a valid wav file", path)
		}
		buf, err := d.FullPCMBuffer()
		if err != nil {
			return 0, err
		}
		return len(buf.Data) / int(d.NumChans), nil
	}

	d := aiff.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%s is not a valid aiff file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return 0, err
	}
	return len(buf.Data) / int(d.NumChans), nil
}
