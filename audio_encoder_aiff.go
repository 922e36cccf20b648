package main

import (
	"fmt"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

func init() {
	audioEncoders.Register("aiff", func(AudioEncoderParams) AudioEncoder {
		return &AIFFEncoder{}
	}, AudioEncoderInfo{
		Name:        "aiff",
		Description: "Audio Interchange File Format, 16-bit big-endian PCM",
		Extension:   ".aiff",
	})
}

// AIFFEncoder writes an AIFF file
type AIFFEncoder struct {
	out      outputFile
	enc      *aiff.Encoder
	buf      *audio.IntBuffer
	channels int
}

// Init creates the output file and the AIFF writer
func (e *AIFFEncoder) Init(sampleRate, bitDepth, channels int, path string) error {
	if err := checkPCMFormat(sampleRate, bitDepth, channels); err != nil {
		return err
	}
	if err := e.out.create(path); err != nil {
		return err
	}
	e.enc = aiff.NewEncoder(e.out.file, sampleRate, bitDepth, channels)
	e.buf = &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}
	e.channels = channels
	return nil
}

// Encode appends samples, duplicated across channels
func (e *AIFFEncoder) Encode(samples []uint16) error {
	if e.enc == nil {
		return fmt.Errorf("aiff encoder not initialized")
	}
	e.buf.Data = interleave(e.buf.Data[:0], samples, e.channels)
	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("failed to write aiff samples: %w", err)
	}
	return nil
}

// Finish writes the final chunk sizes and closes the file
func (e *AIFFEncoder) Finish() error {
	if e.enc == nil {
		return fmt.Errorf("aiff encoder not initialized")
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize aiff header: %w", err)
	}
	e.enc = nil
	return e.out.close()
}

// Destroy releases the file, removing it if Finish did not complete
func (e *AIFFEncoder) Destroy() error {
	e.enc = nil
	return e.out.destroy()
}
