//go:build opus
// +build opus

package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
	opus "gopkg.in/hraban/opus.v2"
)

const (
	opusSampleRate  = 48000
	opusFrameSize   = 960  // 20 ms at 48 kHz
	opusMaxPacket   = 4000 // Max Opus frame size
	opusPayloadType = 111
)

func init() {
	audioEncoders.Register("ogg", func(params AudioEncoderParams) AudioEncoder {
		return &OggOpusEncoder{params: params.Opus}
	}, AudioEncoderInfo{
		Name:        "ogg",
		Description: "Ogg Opus, resampled to 48 kHz",
		Extension:   ".ogg",
	})
}

// OggOpusEncoder writes an Ogg Opus file. Input is resampled to 48 kHz,
// the only rate the Ogg granule clock is written in.
type OggOpusEncoder struct {
	params OpusConfig

	path     string
	writer   *oggwriter.OggWriter
	encoder  *opus.Encoder
	channels int
	finished bool

	resampler *linearResampler
	scratch   []float64
	pending   []int16
	packet    []byte
	seq       uint16
	timestamp uint32
	ssrc      uint32
}

// Init creates the Opus encoder and the Ogg file
func (e *OggOpusEncoder) Init(sampleRate, bitDepth, channels int, path string) error {
	if err := checkPCMFormat(sampleRate, bitDepth, channels); err != nil {
		return err
	}
	if e.writer != nil {
		return fmt.Errorf("encoder already initialized")
	}

	encoder, err := opus.NewEncoder(opusSampleRate, channels, opus.AppAudio)
	if err != nil {
		return fmt.Errorf("failed to create opus encoder: %w", err)
	}
	if err := encoder.SetBitrate(e.params.Bitrate); err != nil {
		log.Printf("Warning: Failed to set Opus bitrate: %v", err)
	}
	if err := encoder.SetComplexity(e.params.Complexity); err != nil {
		log.Printf("Warning: Failed to set Opus complexity: %v", err)
	}

	writer, err := oggwriter.New(path, opusSampleRate, uint16(channels))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	e.path = path
	e.writer = writer
	e.encoder = encoder
	e.channels = channels
	e.resampler = newLinearResampler(sampleRate, opusSampleRate)
	e.packet = make([]byte, opusMaxPacket)
	e.ssrc = rand.Uint32()

	log.Printf("[Audio] Opus encoder initialized: %d Hz -> %d Hz, %d bps, complexity %d",
		sampleRate, opusSampleRate, e.params.Bitrate, e.params.Complexity)
	return nil
}

// Encode resamples samples and writes every complete 20 ms frame
func (e *OggOpusEncoder) Encode(samples []uint16) error {
	if e.writer == nil {
		return fmt.Errorf("ogg encoder not initialized")
	}

	e.scratch = e.scratch[:0]
	for _, s := range samples {
		e.scratch = append(e.scratch, float64(toSigned(s)))
	}
	out := e.resampler.process(nil, e.scratch)
	for _, v := range out {
		s := int16(v)
		for c := 0; c < e.channels; c++ {
			e.pending = append(e.pending, s)
		}
	}

	frame := opusFrameSize * e.channels
	for len(e.pending) >= frame {
		if err := e.writeFrame(e.pending[:frame]); err != nil {
			return err
		}
		e.pending = e.pending[frame:]
	}
	return nil
}

func (e *OggOpusEncoder) writeFrame(pcm []int16) error {
	n, err := e.encoder.Encode(pcm, e.packet)
	if err != nil {
		return fmt.Errorf("opus encoding error: %w", err)
	}

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: e.seq,
			Timestamp:      e.timestamp,
			SSRC:           e.ssrc,
		},
		Payload: e.packet[:n],
	}
	if err := e.writer.WriteRTP(pkt); err != nil {
		return fmt.Errorf("failed to write ogg page: %w", err)
	}

	e.seq++
	e.timestamp += opusFrameSize
	return nil
}

// Finish pads the last frame with silence and closes the file
func (e *OggOpusEncoder) Finish() error {
	if e.writer == nil {
		return fmt.Errorf("ogg encoder not initialized")
	}
	if len(e.pending) > 0 {
		frame := make([]int16, opusFrameSize*e.channels)
		copy(frame, e.pending)
		e.pending = e.pending[:0]
		if err := e.writeFrame(frame); err != nil {
			return err
		}
	}
	err := e.writer.Close()
	e.writer = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", e.path, err)
	}
	e.finished = true
	return nil
}

// Destroy releases the file, removing it if Finish did not complete
func (e *OggOpusEncoder) Destroy() error {
	if e.writer != nil {
		e.writer.Close()
		e.writer = nil
	}
	e.encoder = nil
	if e.finished || e.path == "" {
		return nil
	}
	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove partial output %s: %w", e.path, err)
	}
	return nil
}
