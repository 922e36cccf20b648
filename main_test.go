package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage writes a small PNG into a fresh directory
func testImage(t *testing.T) string {
	t.Helper()
	t.Setenv("SSTV_VERBOSE", "")
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, SavePNG(splitImage(64, 48), path))
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunEncodesWAV(t *testing.T) {
	in := testImage(t)
	out := filepath.Join(t.TempDir(), "tx.wav")
	metrics := filepath.Join(t.TempDir(), "tx.prom")

	code, _, stderr := runCLI("-i", in, "-p", "r36", "-r", "8000", "-o", out,
		"-C", "N0CALL", "-W", "20", "-check", "-K", "-metrics-file", metrics)
	require.Equal(t, 0, code, stderr)

	frames, err := ReadbackFrames("wav", out)
	require.NoError(t, err)
	assert.Greater(t, frames, 36*8000)
	assert.FileExists(t, IntermediatePath(out))

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ubersstv_encodes_total{format="wav",mode="R36",result="success"} 1`)
	assert.Contains(t, string(data), `ubersstv_cw_elements{wpm="20"}`)
}

func TestRunDefaultOutputPath(t *testing.T) {
	in := testImage(t)
	code, _, stderr := runCLI("-i", in, "-p", "R36", "-r", "8000", "-f", "PCMZ")
	require.Equal(t, 0, code, stderr)

	out := strings.TrimSuffix(in, ".png") + ".pcmz"
	frames, err := ReadbackFrames("pcmz", out)
	require.NoError(t, err)
	assert.Greater(t, frames, 0)
}

func TestRunWithConfigFile(t *testing.T) {
	in := testImage(t)
	out := filepath.Join(t.TempDir(), "tx.aiff")
	config := writeFile(t, "config.yaml", fmt.Sprintf(`
encoder:
  mode: r36
  sample_rate: 8000
output:
  format: aiff
  path: %s
image:
  aspect: pad
  overlay:
    enabled: true
    text: N0CALL
`, out))

	code, _, stderr := runCLI("-config", config, "-i", in)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, out)
}

func TestRunExitCodes(t *testing.T) {
	in := testImage(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no input", []string{"-p", "m1"}, ExitConfig},
		{"unknown flag", []string{"-i", in, "-q"}, ExitConfig},
		{"extra argument", []string{"-i", in, "extra"}, ExitConfig},
		{"bad mode", []string{"-i", in, "-p", "pd90"}, ExitConfig},
		{"bad format", []string{"-i", in, "-f", "mp3"}, ExitConfig},
		{"wpm without callsign", []string{"-i", in, "-W", "20"}, ExitConfig},
		{"tone without callsign", []string{"-i", in, "-T", "700"}, ExitConfig},
		{"wpm out of range", []string{"-i", in, "-C", "N0CALL", "-W", "60"}, ExitConfig},
		{"sample rate out of range", []string{"-i", in, "-r", "4000"}, ExitConfig},
		{"missing config", []string{"-i", in, "-config", filepath.Join(dir, "none.yaml")}, ExitConfig},
		{"missing image", []string{"-i", filepath.Join(dir, "none.png"), "-p", "r36", "-r", "8000"}, ExitImage},
		{"not an image", []string{"-i", writeFile(t, "x.png", "text"), "-p", "r36", "-r", "8000"}, ExitImage},
		{"unwritable output", []string{"-i", in, "-p", "r36", "-r", "8000", "-o", filepath.Join(dir, "missing", "x.wav")}, ExitOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRunListModes(t *testing.T) {
	code, stdout, _ := runCLI("-list-modes")
	require.Equal(t, 0, code)
	for _, short := range []string{"m1", "m2", "s1", "s2", "sdx", "r36", "r72"} {
		assert.Contains(t, stdout, "\n"+short+" ")
	}
	assert.Contains(t, stdout, "Martin M1")
	assert.Contains(t, stdout, "YUV 4:2:0")
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI("-version")
	require.Equal(t, 0, code)
	assert.Equal(t, "ubersstv "+Version+" (engine 1.0.0)\n", stdout)
}

func TestParseFlagsOnlyOverridesGivenFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-i", "a.png", "-C", " n0call ", "-Z"}, &bytes.Buffer{})
	require.NoError(t, err)

	config := DefaultConfig()
	config.Encoder.Mode = "s2"
	config.CW.Message = "from file"
	opts.apply(config)

	assert.Equal(t, "s2", config.Encoder.Mode)
	assert.True(t, config.CW.Enabled)
	assert.Equal(t, "n0call", config.CW.Callsign)
	assert.Empty(t, config.CW.Message)
	assert.Equal(t, "SSTV de N0CALL", config.CW.SignatureText())
	assert.True(t, config.Logging.Timestamps)
	assert.True(t, config.Logging.Verbose)
	assert.Empty(t, config.Output.Path)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "/tmp/photo.wav", DefaultOutputPath("/tmp/photo.jpg", ".wav"))
	assert.Equal(t, "photo.ogg", DefaultOutputPath("photo", ".ogg"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, ExitConfig, ExitCode(errors.New("plain")))

	err := fmt.Errorf("wrapped: %w", stageError("encode", ExitEncode, errors.New("overflow")))
	assert.Equal(t, ExitEncode, ExitCode(err))
	assert.Equal(t, "wrapped: encode: overflow", err.Error())
}
