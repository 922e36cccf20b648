package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSamples is a short mid-scale sample run covering the full range
var testSamples = []uint16{32768, 0, 65535, 32767, 40000, 20000, 32768}

func testSigned() []int {
	out := make([]int, len(testSamples))
	for i, s := range testSamples {
		out[i] = int(s) - 32768
	}
	return out
}

func TestRegistryListsFormats(t *testing.T) {
	assert.Equal(t, []string{"aiff", "ogg", "pcm", "pcma", "pcmz", "wav"}, ListAudioEncoders())
	for _, name := range ListAudioEncoders() {
		info, ok := audioEncoders.Info(name)
		require.True(t, ok)
		assert.Equal(t, "."+name, info.Extension)
	}

	_, err := CreateAudioEncoder("mp3", AudioEncoderParams{})
	assert.ErrorContains(t, err, "audio format not found")
	assert.False(t, AudioEncoderExists("mp3"))
}

func TestRegistryIsolated(t *testing.T) {
	r := NewAudioEncoderRegistry()
	assert.Empty(t, r.List())

	r.Register("null", func(AudioEncoderParams) AudioEncoder { return &WAVEncoder{} },
		AudioEncoderInfo{Name: "null", Extension: ".null"})
	assert.True(t, r.Exists("null"))

	enc, err := r.Create("null", AudioEncoderParams{})
	require.NoError(t, err)
	assert.IsType(t, &WAVEncoder{}, enc)
}

func TestToSigned(t *testing.T) {
	assert.Equal(t, int16(0), toSigned(32768))
	assert.Equal(t, int16(-32768), toSigned(0))
	assert.Equal(t, int16(32767), toSigned(65535))
}

func TestCheckPCMFormat(t *testing.T) {
	assert.NoError(t, checkPCMFormat(8000, 16, 1))
	assert.NoError(t, checkPCMFormat(48000, 16, 2))
	assert.Error(t, checkPCMFormat(0, 16, 1))
	assert.Error(t, checkPCMFormat(8000, 8, 1))
	assert.Error(t, checkPCMFormat(8000, 16, 3))
}

func encodeFile(t *testing.T, format string, channels int) string {
	t.Helper()
	enc, err := CreateAudioEncoder(format, AudioEncoderParams{PCM: PCMOutputConfig{PacketSamples: 3, ZstdLevel: 2}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out."+format)
	require.NoError(t, enc.Init(11025, 16, channels, path))
	// two calls, so writers must append
	require.NoError(t, enc.Encode(testSamples[:3]))
	require.NoError(t, enc.Encode(testSamples[3:]))
	require.NoError(t, enc.Finish())
	require.NoError(t, enc.Destroy())
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	path := encodeFile(t, "wav", 1)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	assert.Equal(t, uint32(11025), d.SampleRate)
	assert.Equal(t, uint16(1), d.NumChans)
	assert.Equal(t, uint16(16), d.BitDepth)

	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, testSigned(), buf.Data)
}

func TestWAVStereoDuplicatesChannels(t *testing.T) {
	path := encodeFile(t, "wav", 2)

	frames, err := ReadbackFrames("wav", path)
	require.NoError(t, err)
	assert.Equal(t, len(testSamples), frames)
}

func TestAIFFRoundTrip(t *testing.T) {
	path := encodeFile(t, "aiff", 1)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	d := aiff.NewDecoder(f)
	require.True(t, d.IsValidFile())
	assert.Equal(t, 11025, d.SampleRate)
	assert.Equal(t, uint16(1), d.NumChans)

	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, testSigned(), buf.Data)
}

func TestDestroyRemovesUnfinishedFile(t *testing.T) {
	for _, format := range []string{"wav", "aiff", "pcm", "pcmz", "pcma"} {
		t.Run(format, func(t *testing.T) {
			enc, err := CreateAudioEncoder(format, AudioEncoderParams{})
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "partial."+format)
			require.NoError(t, enc.Init(8000, 16, 1, path))
			require.NoError(t, enc.Encode(testSamples))
			require.FileExists(t, path)

			require.NoError(t, enc.Destroy())
			assert.NoFileExists(t, path)
		})
	}
}

func TestEncoderLifecycleErrors(t *testing.T) {
	for _, format := range []string{"wav", "aiff", "pcm", "pcmz", "pcma"} {
		t.Run(format, func(t *testing.T) {
			enc, err := CreateAudioEncoder(format, AudioEncoderParams{})
			require.NoError(t, err)

			assert.Error(t, enc.Encode(testSamples), "encode before init")
			assert.Error(t, enc.Finish(), "finish before init")
			assert.NoError(t, enc.Destroy())

			assert.Error(t, enc.Init(8000, 24, 1, filepath.Join(t.TempDir(), "x")))
			assert.Error(t, enc.Init(8000, 16, 1, filepath.Join(t.TempDir(), "missing", "x")))
		})
	}
}
