package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestNewEncoderValidation(t *testing.T) {
	_, err := NewEncoder(Options{SampleRate: 7999, VIS: VISMartin1})
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = NewEncoder(Options{SampleRate: 50000, VIS: VISMartin1})
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = NewEncoder(Options{VIS: 99})
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = NewEncoder(Options{VIS: VISMartin1, VolumePercent: 120})
	assert.ErrorIs(t, err, ErrInvalidVolume)

	_, err = NewEncoder(Options{VIS: VISMartin1, CW: &CWConfig{Text: "N0CALL", WPM: 60}})
	assert.ErrorIs(t, err, ErrInvalidCW)

	enc, err := NewEncoder(Options{VIS: VISRobot36})
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleRate, enc.SampleRate())
	assert.Equal(t, "R36", enc.Mode().ShortName)
}

func TestEncodeRejectsSmallBufferBeforeWriting(t *testing.T) {
	buf := NewSampleBuffer(1000)
	enc, err := NewEncoder(Options{SampleRate: 8000, VIS: VISRobot36, Buffer: buf})
	require.NoError(t, err)

	m := enc.Mode()
	_, err = enc.Encode(solidImage(m, 0, 0, 0))
	require.ErrorIs(t, err, ErrBufferOverflow)

	var overflow *BufferOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 1000, overflow.Capacity)
	assert.Equal(t, enc.RequiredSamples(), overflow.Requested)
	assert.Zero(t, buf.Len())
}

func TestEncodeOverflowAtWritePoint(t *testing.T) {
	m := GetModeByVIS(VISMartin2)
	capacity := EstimateSamples(m, 8000, nil) / 2
	s := newTestSynth(8000, capacity)

	require.NoError(t, WriteVISHeader(s, m.VIS))
	err := EncodeImage(s, m, solidImage(m, 10, 20, 30), nil)
	require.ErrorIs(t, err, ErrBufferOverflow)
	assert.LessOrEqual(t, s.Buffer().Len(), capacity)
	assert.Greater(t, s.Buffer().Len(), capacity-100)
}

func TestEncodeMartin1Black(t *testing.T) {
	const rate = 11025
	enc, err := NewEncoder(Options{SampleRate: rate, VIS: VISMartin1})
	require.NoError(t, err)

	m := enc.Mode()
	res, err := enc.Encode(solidImage(m, 0, 0, 0))
	require.NoError(t, err)

	us := 1e6 / rate
	assert.Equal(t, len(res.Samples), res.SampleCount)
	assert.InDelta(t, m.FrameTime()/us, float64(res.SampleCount), 1.0)
	assert.Equal(t, -1, res.CWStart)

	// the image part is the ~114 s of the mode's name
	image := float64(res.TrailerStart - res.ImageStart)
	assert.InDelta(t, rate*114.29, image, rate*0.01)
	assert.InDelta(t, m.ImageTime()/us, image, 1.0)

	// 0.5 s of silence, then the 1900 Hz leader
	for i := 0; i < 5512; i++ {
		require.Equal(t, uint16(MidScale), res.Samples[i], "sample %d", i)
	}
	freq, err := DominantFrequency(res.Samples, rate, 5520, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 1900.0, freq, 3.0)

	// black pixels are 1500 Hz; green scan of line 0 starts after sync and porch
	from := res.ImageStart + int(math.Ceil((4862+572)/us)) + 4
	freq, err = DominantFrequency(res.Samples, rate, from, 1200)
	require.NoError(t, err)
	assert.InDelta(t, 1500.0, freq, 3.0)
}

func TestEncodeWithSignature(t *testing.T) {
	const rate = 8000
	cw := &CWConfig{Text: "SSTV de N0CALL", WPM: 15, ToneHz: 800}
	enc, err := NewEncoder(Options{SampleRate: rate, VIS: VISRobot36, CW: cw})
	require.NoError(t, err)

	m := enc.Mode()
	res, err := enc.Encode(solidImage(m, 0, 0, 255))
	require.NoError(t, err)
	require.Positive(t, res.CWStart)

	us := 1e6 / rate
	gap := float64(res.CWStart - res.TrailerStart)
	assert.InDelta(t, (VISTrailerTime()+CWLeadIn)/us, gap, 1.0)
	assert.InDelta(t, FrameDuration(m, cw)/us, float64(res.SampleCount), 1.0)
	assert.LessOrEqual(t, res.SampleCount, EstimateSamples(m, rate, cw))

	regions := ToneRegions(res.Samples, rate, res.CWStart)
	assert.Len(t, regions, CWElementCount(cw.Text))
}

func TestEncodeEmptySignatureIsSkipped(t *testing.T) {
	enc, err := NewEncoder(Options{SampleRate: 8000, VIS: VISRobot36, CW: &CWConfig{}})
	require.NoError(t, err)

	res, err := enc.Encode(solidImage(enc.Mode(), 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, -1, res.CWStart)
}

func TestEncodeProgress(t *testing.T) {
	var done []int
	enc, err := NewEncoder(Options{
		SampleRate: 8000,
		VIS:        VISRobot36,
		Progress:   func(d, total int) { done = append(done, d) },
	})
	require.NoError(t, err)

	_, err = enc.Encode(solidImage(enc.Mode(), 0, 0, 0))
	require.NoError(t, err)
	require.Len(t, done, 120)
	assert.Equal(t, 240, done[len(done)-1])
}

func TestEncodeImageSizeError(t *testing.T) {
	enc, err := NewEncoder(Options{SampleRate: 8000, VIS: VISScottie2})
	require.NoError(t, err)

	_, err = enc.Encode(fillImage{w: 320, h: 240, fn: func(int, int) (uint8, uint8, uint8) { return 0, 0, 0 }})
	assert.ErrorIs(t, err, ErrImageSize)

	_, err = enc.Encode(nil)
	assert.ErrorIs(t, err, ErrImageSize)
}

func TestEncodeImageSizeErrorLeavesBufferUntouched(t *testing.T) {
	m := GetModeByVIS(VISScottie2)
	buf := NewSampleBuffer(EstimateSamples(m, 8000, nil))
	enc, err := NewEncoder(Options{SampleRate: 8000, VIS: m.VIS, Buffer: buf})
	require.NoError(t, err)

	// a Robot-sized source for a Scottie mode
	_, err = enc.Encode(fillImage{w: 320, h: 240, fn: func(int, int) (uint8, uint8, uint8) { return 0, 0, 0 }})
	require.ErrorIs(t, err, ErrImageSize)
	assert.Zero(t, buf.Len())

	_, err = enc.Encode(nil)
	require.ErrorIs(t, err, ErrImageSize)
	assert.Zero(t, buf.Len())
}

// EncoderSuite runs every mode through the full pipeline
type EncoderSuite struct {
	suite.Suite
	rate int
}

func (s *EncoderSuite) SetupSuite() {
	s.rate = 8000
}

func (s *EncoderSuite) TestEstimateCoversEveryMode() {
	cw := &CWConfig{Text: "de N0CALL"}
	for _, m := range Modes() {
		enc, err := NewEncoder(Options{SampleRate: s.rate, VIS: m.VIS, CW: cw})
		s.Require().NoError(err)

		res, err := enc.Encode(gradientImage(enc.Mode()))
		s.Require().NoError(err, m.ShortName)
		s.LessOrEqual(res.SampleCount, enc.RequiredSamples(), m.ShortName)
		s.GreaterOrEqual(res.SampleCount, enc.RequiredSamples()-3, m.ShortName)
	}
}

func (s *EncoderSuite) TestIdempotent() {
	enc, err := NewEncoder(Options{SampleRate: s.rate, VIS: VISMartin2})
	s.Require().NoError(err)
	src := gradientImage(enc.Mode())

	first, err := enc.Encode(src)
	s.Require().NoError(err)
	second, err := enc.Encode(src)
	s.Require().NoError(err)
	s.Equal(first.Samples, second.Samples)
}

func (s *EncoderSuite) TestIdempotentWithSharedBuffer() {
	m := GetModeByVIS(VISRobot72)
	buf := NewSampleBuffer(EstimateSamples(m, s.rate, nil))
	enc, err := NewEncoder(Options{SampleRate: s.rate, VIS: m.VIS, Buffer: buf})
	s.Require().NoError(err)
	src := gradientImage(m)

	first, err := enc.Encode(src)
	s.Require().NoError(err)
	saved := append([]uint16(nil), first.Samples...)

	second, err := enc.Encode(src)
	s.Require().NoError(err)
	s.Equal(saved, second.Samples)
	s.Equal(len(saved), buf.Len())
}

func TestEncoderSuite(t *testing.T) {
	suite.Run(t, new(EncoderSuite))
}
