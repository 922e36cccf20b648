package main

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func init() {
	audioEncoders.Register("wav", func(AudioEncoderParams) AudioEncoder {
		return &WAVEncoder{}
	}, AudioEncoderInfo{
		Name:        "wav",
		Description: "RIFF WAVE, 16-bit little-endian PCM",
		Extension:   ".wav",
	})
}

// wavFormatPCM is the RIFF format tag for integer PCM
const wavFormatPCM = 1

// WAVEncoder writes a RIFF WAVE file
type WAVEncoder struct {
	out      outputFile
	enc      *wav.Encoder
	buf      *audio.IntBuffer
	channels int
}

// Init creates the output file and the WAVE writer
func (e *WAVEncoder) Init(sampleRate, bitDepth, channels int, path string) error {
	if err := checkPCMFormat(sampleRate, bitDepth, channels); err != nil {
		return err
	}
	if err := e.out.create(path); err != nil {
		return err
	}
	e.enc = wav.NewEncoder(e.out.file, sampleRate, bitDepth, channels, wavFormatPCM)
	e.buf = &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}
	e.channels = channels
	return nil
}

// Encode appends samples, duplicated across channels
func (e *WAVEncoder) Encode(samples []uint16) error {
	if e.enc == nil {
		return fmt.Errorf("wav encoder not initialized")
	}
	e.buf.Data = interleave(e.buf.Data[:0], samples, e.channels)
	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	return nil
}

// Finish writes the final chunk sizes and closes the file
func (e *WAVEncoder) Finish() error {
	if e.enc == nil {
		return fmt.Errorf("wav encoder not initialized")
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav header: %w", err)
	}
	e.enc = nil
	return e.out.close()
}

// Destroy releases the file, removing it if Finish did not complete
func (e *WAVEncoder) Destroy() error {
	e.enc = nil
	return e.out.destroy()
}

// interleave converts samples to signed ints, repeating each across channels
func interleave(dst []int, samples []uint16, channels int) []int {
	for _, s := range samples {
		v := int(toSigned(s))
		for c := 0; c < channels; c++ {
			dst = append(dst, v)
		}
	}
	return dst
}
