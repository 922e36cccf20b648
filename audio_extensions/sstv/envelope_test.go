package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeGainShape(t *testing.T) {
	const n, ramp = 640, 160

	assert.Zero(t, envelopeGain(0, n, ramp))
	assert.Equal(t, 1.0, envelopeGain(ramp, n, ramp))
	assert.Equal(t, 1.0, envelopeGain(n-ramp-1, n, ramp))
	assert.Equal(t, 1.0, envelopeGain(n-ramp, n, ramp))
	assert.InDelta(t, 0.5, envelopeGain(ramp/2, n, ramp), 1e-12)

	prev := -1.0
	for i := 0; i < ramp; i++ {
		g := envelopeGain(i, n, ramp)
		assert.Greater(t, g, prev, "fade-in must rise at %d", i)
		prev = g
	}
	prev = 2.0
	for i := n - ramp; i < n; i++ {
		g := envelopeGain(i, n, ramp)
		assert.Less(t, g, prev, "fade-out must fall at %d", i)
		assert.GreaterOrEqual(t, g, 0.0)
		prev = g
	}
	assert.Less(t, envelopeGain(n-1, n, ramp), 0.001)
}

func TestEnvelopeRampClamp(t *testing.T) {
	s := newTestSynth(8000, 16)

	// 25% of 80 ms
	assert.Equal(t, 160, s.envelopeRamp(80000))
	// clamped to 5 ms
	assert.Equal(t, 40, s.envelopeRamp(8000))
	// clamped to 40 ms
	assert.Equal(t, 320, s.envelopeRamp(1000000))
}

func TestEnvelopeToneMatchesToneInMiddle(t *testing.T) {
	plain := newTestSynth(8000, 4096)
	shaped := newTestSynth(8000, 4096)

	require.NoError(t, plain.Tone(800, 240000))
	require.NoError(t, shaped.EnvelopeTone(800, 240000))

	p := plain.Buffer().Samples()
	e := shaped.Buffer().Samples()
	require.Equal(t, len(p), len(e))
	assert.Equal(t, plain.Phase(), shaped.Phase())
	assert.Equal(t, plain.Carry(), shaped.Carry())

	ramp := shaped.envelopeRamp(240000)
	for i := ramp; i < len(p)-ramp; i++ {
		assert.Equal(t, p[i], e[i], "sample %d", i)
	}

	// edges start and end near silence
	assert.Equal(t, uint16(MidScale), e[0])
	last := math.Abs(float64(int(e[len(e)-1]) - MidScale))
	assert.Less(t, last, 0.01*float64(shaped.Scale()))
}

func TestEnvelopeToneShortIsUnshaped(t *testing.T) {
	plain := newTestSynth(8000, 256)
	shaped := newTestSynth(8000, 256)

	// 6 ms: ramp clamps to 5 ms, longer than half the tone
	require.NoError(t, plain.Tone(800, 6000))
	require.NoError(t, shaped.EnvelopeTone(800, 6000))
	assert.Equal(t, plain.Buffer().Samples(), shaped.Buffer().Samples())
}

func TestEnvelopeToneSilence(t *testing.T) {
	plain := newTestSynth(8000, 256)
	shaped := newTestSynth(8000, 256)

	require.NoError(t, plain.Tone(0, 12345))
	require.NoError(t, shaped.EnvelopeTone(0, 12345))
	assert.Equal(t, plain.Buffer().Samples(), shaped.Buffer().Samples())
	assert.Equal(t, plain.Carry(), shaped.Carry())
}

func TestEnvelopeToneOverflow(t *testing.T) {
	s := newTestSynth(8000, 100)
	err := s.EnvelopeTone(800, 80000)
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.Zero(t, s.Buffer().Len())
	assert.Zero(t, s.Phase())
}
