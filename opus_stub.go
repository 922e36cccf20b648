//go:build !opus
// +build !opus

package main

import (
	"errors"
	"log"
)

var errOpusUnavailable = errors.New("ogg output requires Opus support (rebuild with -tags opus)")

func init() {
	audioEncoders.Register("ogg", func(AudioEncoderParams) AudioEncoder {
		return &OggOpusEncoder{}
	}, AudioEncoderInfo{
		Name:        "ogg",
		Description: "Ogg Opus (not compiled in)",
		Extension:   ".ogg",
	})
}

// OggOpusEncoder is the stub used when Opus is not available
type OggOpusEncoder struct{}

// Init always fails in stub version
func (e *OggOpusEncoder) Init(sampleRate, bitDepth, channels int, path string) error {
	log.Printf("WARNING: Ogg output requested but Opus is not compiled in")
	log.Printf("To enable Opus support: sudo apt install libopus-dev libopusfile-dev pkg-config")
	log.Printf("Then rebuild with: go build -tags opus")
	return errOpusUnavailable
}

// Encode always fails in stub version
func (e *OggOpusEncoder) Encode(samples []uint16) error { return errOpusUnavailable }

// Finish always fails in stub version
func (e *OggOpusEncoder) Finish() error { return errOpusUnavailable }

// Destroy has nothing to release in stub version
func (e *OggOpusEncoder) Destroy() error { return nil }
