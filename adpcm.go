package main

import (
	"encoding/binary"
	"fmt"
)

// IMA ADPCM codec for the pcma container. Each packet carries the
// predictor state it starts from, so packets decode independently.

var stepSizeTable = []int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34,
	37, 41, 45, 50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143,
	157, 173, 190, 209, 230, 253, 279, 307, 337, 371, 408, 449, 494,
	544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411, 1552,
	1707, 1878, 2066, 2272, 2499, 2749, 3024, 3327, 3660, 4026,
	4428, 4871, 5358, 5894, 6484, 7132, 7845, 8630, 9493, 10442,
	11487, 12635, 13899, 15289, 16818, 18500, 20350, 22385, 24623,
	27086, 29794, 32767,
}

var indexAdjustTable = []int{
	-1, -1, -1, -1, // +0 - +3, decrease the step size
	2, 4, 6, 8, // +4 - +7, increase the step size
	-1, -1, -1, -1, // -0 - -3, decrease the step size
	2, 4, 6, 8, // -4 - -7, increase the step size
}

// adpcmStateSize is the packet prefix: uint32 sample count, int16
// predictor, uint8 step index, uint8 reserved
const adpcmStateSize = 8

// adpcmState is the shared predictor of the encoder and the decoder
type adpcmState struct {
	index int
	prev  int
}

// clamp restricts a value to a range
func clamp(x, xmin, xmax int) int {
	if x < xmin {
		return xmin
	}
	if x > xmax {
		return xmax
	}
	return x
}

// update applies one 4-bit code to the predictor
func (st *adpcmState) update(code byte) {
	step := stepSizeTable[st.index]
	difference := step >> 3
	if code&1 != 0 {
		difference += step >> 2
	}
	if code&2 != 0 {
		difference += step >> 1
	}
	if code&4 != 0 {
		difference += step
	}
	if code&8 != 0 {
		difference = -difference
	}

	st.prev = clamp(st.prev+difference, -32768, 32767)
	st.index = clamp(st.index+indexAdjustTable[code], 0, len(stepSizeTable)-1)
}

// IMAAdpcmEncoder encodes 16-bit PCM to IMA ADPCM
type IMAAdpcmEncoder struct {
	adpcmState
}

// NewIMAAdpcmEncoder creates a new IMA ADPCM encoder
func NewIMAAdpcmEncoder() *IMAAdpcmEncoder {
	return &IMAAdpcmEncoder{}
}

// encodeSample encodes a single 16-bit PCM sample to 4-bit ADPCM
func (enc *IMAAdpcmEncoder) encodeSample(sample int) byte {
	step := stepSizeTable[enc.index]
	diff := sample - enc.prev

	code := byte(0)
	if diff < 0 {
		code = 8
		diff = -diff
	}

	if diff >= step {
		code |= 4
		diff -= step
	}
	if diff >= step/2 {
		code |= 2
		diff -= step / 2
	}
	if diff >= step/4 {
		code |= 1
	}

	// Update state using the same logic as decoder
	enc.update(code)
	return code
}

// Encode appends one packet payload for samples to dst: the state prefix,
// then two codes per byte, low nibble first
func (enc *IMAAdpcmEncoder) Encode(dst []byte, samples []int16) []byte {
	var state [adpcmStateSize]byte
	binary.LittleEndian.PutUint32(state[0:], uint32(len(samples)))
	binary.LittleEndian.PutUint16(state[4:], uint16(int16(enc.prev)))
	state[6] = byte(enc.index)
	dst = append(dst, state[:]...)

	for i := 0; i < len(samples); i += 2 {
		code0 := enc.encodeSample(int(samples[i]))
		var code1 byte
		if i+1 < len(samples) {
			code1 = enc.encodeSample(int(samples[i+1]))
		}
		// Pack two 4-bit codes into one byte
		dst = append(dst, (code1<<4)|code0)
	}
	return dst
}

// adpcmEncodedSize returns the payload size for n samples
func adpcmEncodedSize(n int) int {
	return adpcmStateSize + (n+1)/2
}

// decodeADPCM appends the samples of one packet payload to dst
func decodeADPCM(dst []int16, payload []byte) ([]int16, error) {
	if len(payload) < adpcmStateSize {
		return dst, fmt.Errorf("adpcm payload of %d bytes", len(payload))
	}
	n := int(binary.LittleEndian.Uint32(payload[0:]))
	if len(payload) != adpcmEncodedSize(n) {
		return dst, fmt.Errorf("adpcm payload of %d bytes for %d samples", len(payload), n)
	}
	st := adpcmState{
		prev:  int(int16(binary.LittleEndian.Uint16(payload[4:]))),
		index: int(payload[6]),
	}
	if st.index >= len(stepSizeTable) {
		return dst, fmt.Errorf("adpcm step index %d", st.index)
	}

	codes := payload[adpcmStateSize:]
	for i := 0; i < n; i++ {
		code := codes[i/2]
		if i%2 == 1 {
			code >>= 4
		}
		st.update(code & 0x0f)
		dst = append(dst, int16(st.prev))
	}
	return dst, nil
}
