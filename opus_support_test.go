//go:build opus
// +build opus

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOggOpusWritesPages(t *testing.T) {
	enc, err := CreateAudioEncoder("ogg", AudioEncoderParams{Opus: OpusConfig{Bitrate: 32000, Complexity: 5}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.ogg")
	require.NoError(t, enc.Init(11025, 16, 1, path))

	samples := make([]uint16, 11025)
	for i, v := range sineSamples(len(samples), 1900, 11025, 15000) {
		samples[i] = uint16(int(v) + 32768)
	}
	require.NoError(t, enc.Encode(samples[:5000]))
	require.NoError(t, enc.Encode(samples[5000:]))
	require.NoError(t, enc.Finish())
	require.NoError(t, enc.Destroy())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("OggS")))
	assert.Contains(t, string(data), "OpusHead")
}

func TestOggOpusDestroyRemovesPartialFile(t *testing.T) {
	enc, err := CreateAudioEncoder("ogg", AudioEncoderParams{Opus: OpusConfig{Bitrate: 32000}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "partial.ogg")
	require.NoError(t, enc.Init(8000, 16, 1, path))
	require.NoError(t, enc.Encode(testSamples))
	require.NoError(t, enc.Destroy())
	assert.NoFileExists(t, path)
}
