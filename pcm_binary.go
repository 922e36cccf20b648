package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Binary PCM File Format Documentation
// ====================================
//
// The pcm, pcmz and pcma containers store the engine's samples as a sequence of
// length-prefixed packets. The first packet carries the stream metadata,
// every later packet only its sample offset.
//
// FILE LAYOUT:
// ------------
// Repeated until EOF:
//   4 bytes | uint32 | Packet length N (little-endian)
//   N bytes | []byte | Packet (zstd frame for pcmz)
//
// FULL HEADER FORMAT (29 bytes):
// ------------------------------
// Offset | Size | Type    | Description
// -------|------|---------|--------------------------------------------------
// 0      | 2    | uint16  | Magic bytes: 0x5043 ("PC" for PCM)
// 2      | 1    | uint8   | Version: 1
// 3      | 1    | uint8   | Format type: 0=PCM, 2=PCM-zstd, 3=IMA ADPCM
// 4      | 8    | uint64  | Offset of the first sample in the stream
// 12     | 8    | uint64  | Encode start time in milliseconds
// 20     | 4    | uint32  | Sample rate in Hz
// 24     | 1    | uint8   | Number of channels (1=mono, 2=stereo)
// 25     | 4    | uint32  | zstd level (0 when uncompressed)
// 29     | N    | []byte  | PCM audio data (big-endian int16 samples)
//
// MINIMAL HEADER FORMAT (13 bytes):
// ---------------------------------
// Offset | Size | Type    | Description
// -------|------|---------|--------------------------------------------------
// 0      | 2    | uint16  | Magic bytes: 0x504D ("PM" for PCM Minimal)
// 2      | 1    | uint8   | Version: 1
// 3      | 8    | uint64  | Offset of the first sample in the stream
// 11     | 2    | uint16  | Reserved
// 13     | N    | []byte  | PCM audio data (big-endian int16 samples)
//
// COMPRESSION:
// -----------
// For pcmz every packet (header + data) is compressed as its own zstd
// frame, so a reader can decode packets independently.
//
// ADPCM:
// ------
// For pcma (mono only) the data of every packet is an IMA ADPCM payload:
// uint32 sample count, int16 predictor, uint8 step index, uint8 reserved,
// then two 4-bit codes per byte, low nibble first.

const (
	// Magic bytes for packet identification
	PCMBinaryMagicFull    uint16 = 0x5043 // "PC" - Full header packet
	PCMBinaryMagicMinimal uint16 = 0x504D // "PM" - Minimal header packet

	PCMBinaryVersion uint8 = 1

	// Format types
	PCMFormatUncompressed uint8 = 0
	PCMFormatZstd         uint8 = 2
	PCMFormatADPCM        uint8 = 3

	// Header sizes
	PCMFullHeaderSize    = 29
	PCMMinimalHeaderSize = 13

	maxPCMPacketSamples = 1 << 16
	maxPCMPacketBytes   = PCMFullHeaderSize + 2*2*maxPCMPacketSamples
)

var errPCMFormat = errors.New("malformed pcm stream")

func init() {
	audioEncoders.Register("pcm", func(params AudioEncoderParams) AudioEncoder {
		return NewPCMBinaryEncoder(false, params.PCM)
	}, AudioEncoderInfo{
		Name:        "pcm",
		Description: "Packetized big-endian PCM",
		Extension:   ".pcm",
	})
	audioEncoders.Register("pcmz", func(params AudioEncoderParams) AudioEncoder {
		return NewPCMBinaryEncoder(true, params.PCM)
	}, AudioEncoderInfo{
		Name:        "pcmz",
		Description: "Packetized big-endian PCM, zstd compressed",
		Extension:   ".pcmz",
	})
	audioEncoders.Register("pcma", func(params AudioEncoderParams) AudioEncoder {
		return NewADPCMBinaryEncoder(params.PCM)
	}, AudioEncoderInfo{
		Name:        "pcma",
		Description: "Packetized IMA ADPCM, mono",
		Extension:   ".pcma",
	})
}

// zstdEncoderPools provides reusable zstd encoders, one pool per level
var zstdEncoderPools [zstd.SpeedBestCompression + 1]sync.Pool

func init() {
	for level := zstd.SpeedFastest; level <= zstd.SpeedBestCompression; level++ {
		level := level
		zstdEncoderPools[level].New = func() interface{} {
			encoder, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
			return encoder
		}
	}
}

func zstdEncoderPool(level zstd.EncoderLevel) *sync.Pool {
	return &zstdEncoderPools[level]
}

// PCMBinaryEncoder writes the pcm, pcmz and pcma containers
type PCMBinaryEncoder struct {
	out outputFile
	w   *bufio.Writer

	useCompression bool
	useADPCM       bool
	adpcm          *IMAAdpcmEncoder
	level          zstd.EncoderLevel
	pool           *sync.Pool
	zstdEncoder    *zstd.Encoder

	sampleRate    int
	channels      int
	packetSamples int
	started       time.Time

	pending     []int16
	offset      uint64
	packetCount uint64
	scratch     []byte
}

// NewPCMBinaryEncoder creates a new PCM binary encoder
func NewPCMBinaryEncoder(useCompression bool, config PCMOutputConfig) *PCMBinaryEncoder {
	packetSamples := config.PacketSamples
	if packetSamples <= 0 || packetSamples > maxPCMPacketSamples {
		packetSamples = 4096
	}
	level := zstd.EncoderLevel(config.ZstdLevel)
	if level < zstd.SpeedFastest || level > zstd.SpeedBestCompression {
		level = zstd.SpeedDefault
	}
	return &PCMBinaryEncoder{
		useCompression: useCompression,
		level:          level,
		packetSamples:  packetSamples,
	}
}

// NewADPCMBinaryEncoder creates an encoder writing IMA ADPCM packets
func NewADPCMBinaryEncoder(config PCMOutputConfig) *PCMBinaryEncoder {
	e := NewPCMBinaryEncoder(false, config)
	e.useADPCM = true
	return e
}

// Init creates the output file
func (e *PCMBinaryEncoder) Init(sampleRate, bitDepth, channels int, path string) error {
	if err := checkPCMFormat(sampleRate, bitDepth, channels); err != nil {
		return err
	}
	if e.useADPCM {
		if channels != 1 {
			return fmt.Errorf("pcma supports mono only, got %d channels", channels)
		}
		e.adpcm = NewIMAAdpcmEncoder()
	}
	if err := e.out.create(path); err != nil {
		return err
	}
	e.w = bufio.NewWriter(e.out.file)
	e.sampleRate = sampleRate
	e.channels = channels
	e.started = time.Now()

	if e.useCompression {
		e.pool = zstdEncoderPool(e.level)
		e.zstdEncoder = e.pool.Get().(*zstd.Encoder)
	}
	return nil
}

// Encode buffers samples and writes every complete packet
func (e *PCMBinaryEncoder) Encode(samples []uint16) error {
	if e.w == nil {
		return fmt.Errorf("pcm encoder not initialized")
	}
	for _, s := range samples {
		v := toSigned(s)
		for c := 0; c < e.channels; c++ {
			e.pending = append(e.pending, v)
		}
	}

	frame := e.packetSamples * e.channels
	for len(e.pending) >= frame {
		if err := e.writePacket(e.pending[:frame]); err != nil {
			return err
		}
		e.pending = e.pending[frame:]
	}
	return nil
}

// Finish writes the remaining samples and closes the file
func (e *PCMBinaryEncoder) Finish() error {
	if e.w == nil {
		return fmt.Errorf("pcm encoder not initialized")
	}
	if len(e.pending) > 0 || e.packetCount == 0 {
		if err := e.writePacket(e.pending); err != nil {
			return err
		}
		e.pending = e.pending[:0]
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", e.out.path, err)
	}
	e.w = nil
	e.release()
	return e.out.close()
}

// Destroy releases the file, removing it if Finish did not complete
func (e *PCMBinaryEncoder) Destroy() error {
	e.w = nil
	e.release()
	return e.out.destroy()
}

func (e *PCMBinaryEncoder) release() {
	if e.zstdEncoder != nil {
		// Return encoder to pool for reuse
		e.pool.Put(e.zstdEncoder)
		e.zstdEncoder = nil
	}
}

// writePacket frames one packet of interleaved samples
func (e *PCMBinaryEncoder) writePacket(data []int16) error {
	var packet []byte
	if e.packetCount == 0 {
		packet = e.buildFullHeaderPacket(data)
	} else {
		packet = e.buildMinimalHeaderPacket(data)
	}

	if e.zstdEncoder != nil {
		e.scratch = e.zstdEncoder.EncodeAll(packet, e.scratch[:0])
		packet = e.scratch
	}

	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(packet)))
	if _, err := e.w.Write(length[:]); err != nil {
		return fmt.Errorf("failed to write packet length: %w", err)
	}
	if _, err := e.w.Write(packet); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}

	e.packetCount++
	e.offset += uint64(len(data) / e.channels)
	return nil
}

// buildFullHeaderPacket creates a packet with full metadata header (29 bytes)
func (e *PCMBinaryEncoder) buildFullHeaderPacket(data []int16) []byte {
	packet := make([]byte, PCMFullHeaderSize, PCMFullHeaderSize+e.payloadSize(len(data)))

	binary.LittleEndian.PutUint16(packet[0:], PCMBinaryMagicFull)
	packet[2] = PCMBinaryVersion
	switch {
	case e.useCompression:
		packet[3] = PCMFormatZstd
		binary.LittleEndian.PutUint32(packet[25:], uint32(e.level))
	case e.useADPCM:
		packet[3] = PCMFormatADPCM
	default:
		packet[3] = PCMFormatUncompressed
	}
	binary.LittleEndian.PutUint64(packet[4:], e.offset)
	binary.LittleEndian.PutUint64(packet[12:], uint64(e.started.UnixMilli()))
	binary.LittleEndian.PutUint32(packet[20:], uint32(e.sampleRate))
	packet[24] = byte(e.channels)

	return e.appendPayload(packet, data)
}

// buildMinimalHeaderPacket creates a packet with minimal header (13 bytes)
func (e *PCMBinaryEncoder) buildMinimalHeaderPacket(data []int16) []byte {
	packet := make([]byte, PCMMinimalHeaderSize, PCMMinimalHeaderSize+e.payloadSize(len(data)))

	binary.LittleEndian.PutUint16(packet[0:], PCMBinaryMagicMinimal)
	packet[2] = PCMBinaryVersion
	binary.LittleEndian.PutUint64(packet[3:], e.offset)

	return e.appendPayload(packet, data)
}

func (e *PCMBinaryEncoder) payloadSize(n int) int {
	if e.useADPCM {
		return adpcmEncodedSize(n)
	}
	return 2 * n
}

// appendPayload appends the packet data for samples: big-endian int16, or
// an ADPCM payload for pcma
func (e *PCMBinaryEncoder) appendPayload(packet []byte, data []int16) []byte {
	if e.useADPCM {
		return e.adpcm.Encode(packet, data)
	}
	for _, v := range data {
		packet = binary.BigEndian.AppendUint16(packet, uint16(v))
	}
	return packet
}

// PCMStream is the decoded content of a pcm, pcmz or pcma file
type PCMStream struct {
	Compressed bool
	ADPCM      bool
	SampleRate int
	Channels   int
	Started    time.Time
	Packets    int
	Samples    []int16 // Interleaved
}

// Frames returns the number of sample frames in the stream
func (s *PCMStream) Frames() int {
	if s.Channels == 0 {
		return 0
	}
	return len(s.Samples) / s.Channels
}

// ReadPCMBinary decodes a pcm, pcmz or pcma file. The format is detected from
// the first packet.
func ReadPCMBinary(r io.Reader) (*PCMStream, error) {
	br := bufio.NewReader(r)
	stream := &PCMStream{}
	var decoder *zstd.Decoder
	defer func() {
		if decoder != nil {
			decoder.Close()
		}
	}()

	var length [4]byte
	for {
		if _, err := io.ReadFull(br, length[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: truncated length: %v", errPCMFormat, err)
		}
		n := binary.LittleEndian.Uint32(length[:])
		if n < 2 || n > maxPCMPacketBytes {
			return nil, fmt.Errorf("%w: packet length %d", errPCMFormat, n)
		}
		packet := make([]byte, n)
		if _, err := io.ReadFull(br, packet); err != nil {
			return nil, fmt.Errorf("%w: truncated packet: %v", errPCMFormat, err)
		}

		if stream.Packets == 0 && binary.LittleEndian.Uint16(packet) != PCMBinaryMagicFull {
			d, err := zstd.NewReader(nil)
			if err != nil {
				return nil, err
			}
			decoder = d
			stream.Compressed = true
		}
		if decoder != nil {
			plain, err := decoder.DecodeAll(packet, nil)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errPCMFormat, err)
			}
			packet = plain
		}

		if err := stream.addPacket(packet); err != nil {
			return nil, err
		}
	}

	if stream.Packets == 0 {
		return nil, fmt.Errorf("%w: empty stream", errPCMFormat)
	}
	return stream, nil
}

func (s *PCMStream) addPacket(packet []byte) error {
	if len(packet) < PCMMinimalHeaderSize || packet[2] != PCMBinaryVersion {
		return fmt.Errorf("%w: bad packet header", errPCMFormat)
	}

	var offset uint64
	var data []byte
	switch binary.LittleEndian.Uint16(packet) {
	case PCMBinaryMagicFull:
		if s.Packets != 0 || len(packet) < PCMFullHeaderSize {
			return fmt.Errorf("%w: unexpected full header", errPCMFormat)
		}
		s.Compressed = packet[3] == PCMFormatZstd
		s.ADPCM = packet[3] == PCMFormatADPCM
		offset = binary.LittleEndian.Uint64(packet[4:])
		s.Started = time.UnixMilli(int64(binary.LittleEndian.Uint64(packet[12:])))
		s.SampleRate = int(binary.LittleEndian.Uint32(packet[20:]))
		s.Channels = int(packet[24])
		if s.Channels == 0 || (s.ADPCM && s.Channels != 1) {
			return fmt.Errorf("%w: %d channels", errPCMFormat, s.Channels)
		}
		data = packet[PCMFullHeaderSize:]
	case PCMBinaryMagicMinimal:
		if s.Packets == 0 {
			return fmt.Errorf("%w: stream does not start with a full header", errPCMFormat)
		}
		offset = binary.LittleEndian.Uint64(packet[3:])
		data = packet[PCMMinimalHeaderSize:]
	default:
		return fmt.Errorf("%w: bad magic", errPCMFormat)
	}

	if offset != uint64(s.Frames()) {
		return fmt.Errorf("%w: packet at sample %d, expected %d", errPCMFormat, offset, s.Frames())
	}
	if s.ADPCM {
		samples, err := decodeADPCM(s.Samples, data)
		if err != nil {
			return fmt.Errorf("%w: %v", errPCMFormat, err)
		}
		s.Samples = samples
		s.Packets++
		return nil
	}

	if len(data)%(2*s.Channels) != 0 {
		return fmt.Errorf("%w: partial sample frame", errPCMFormat)
	}
	for i := 0; i+1 < len(data); i += 2 {
		s.Samples = append(s.Samples, int16(binary.BigEndian.Uint16(data[i:])))
	}
	s.Packets++
	return nil
}
