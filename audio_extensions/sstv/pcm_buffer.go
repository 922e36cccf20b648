package sstv

import (
	"errors"
	"fmt"
)

/*
 * Sample Buffer
 *
 * Fixed-capacity store for 16-bit unsigned PCM centred at MidScale.
 * Capacity is decided before encoding starts; a write that would cross
 * it is refused as a whole and reported as ErrBufferOverflow.
 */

// MidScale is the unsigned sample value for silence
const MidScale = 32768

// ErrBufferOverflow is returned when a write would exceed buffer capacity
var ErrBufferOverflow = errors.New("sample buffer overflow")

// BufferOverflowError describes a refused write
type BufferOverflowError struct {
	Cursor    int // Samples already written
	Capacity  int // Buffer capacity
	Requested int // Samples the refused write needed
}

func (e *BufferOverflowError) Error() string {
	return fmt.Sprintf("sample buffer overflow: cursor=%d, requested=%d, capacity=%d",
		e.Cursor, e.Requested, e.Capacity)
}

func (e *BufferOverflowError) Unwrap() error {
	return ErrBufferOverflow
}

// SampleBuffer holds the synthesized audio for one encoding session
type SampleBuffer struct {
	data   []uint16
	cursor int
}

// NewSampleBuffer allocates a buffer able to hold capacity samples
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &SampleBuffer{data: make([]uint16, capacity)}
}

// Len returns the number of samples written so far
func (b *SampleBuffer) Len() int {
	return b.cursor
}

// Cap returns the buffer capacity in samples
func (b *SampleBuffer) Cap() int {
	return len(b.data)
}

// Samples returns the written prefix of the buffer
func (b *SampleBuffer) Samples() []uint16 {
	return b.data[:b.cursor]
}

// Reset rewinds the write cursor; contents are left as-is
func (b *SampleBuffer) Reset() {
	b.cursor = 0
}

// grow reserves n samples at the cursor and returns them for filling.
// Nothing is reserved when the request does not fit.
func (b *SampleBuffer) grow(n int) ([]uint16, error) {
	if n > len(b.data)-b.cursor {
		return nil, &BufferOverflowError{Cursor: b.cursor, Capacity: len(b.data), Requested: n}
	}
	out := b.data[b.cursor : b.cursor+n]
	b.cursor += n
	return out, nil
}
