package main

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// AudioEncoderParams contains container settings taken from the output config
type AudioEncoderParams struct {
	Opus OpusConfig
	PCM  PCMOutputConfig
}

// AudioEncoder writes 16-bit mid-scale PCM (as produced by the SSTV engine)
// into an audio container file.
//
// The lifecycle is Init, any number of Encode calls, then Finish. Destroy
// may be called at any point; when Finish has not completed it removes the
// partial file so incomplete output is never left behind.
type AudioEncoder interface {
	Init(sampleRate, bitDepth, channels int, path string) error
	Encode(samples []uint16) error
	Finish() error
	Destroy() error
}

// AudioEncoderFactory is a function that creates a new encoder instance
type AudioEncoderFactory func(params AudioEncoderParams) AudioEncoder

// AudioEncoderInfo contains metadata about a registered container format
type AudioEncoderInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
}

// AudioEncoderRegistry manages available container formats
type AudioEncoderRegistry struct {
	factories map[string]AudioEncoderFactory
	info      map[string]AudioEncoderInfo
	mu        sync.RWMutex
}

// NewAudioEncoderRegistry creates a new audio encoder registry
func NewAudioEncoderRegistry() *AudioEncoderRegistry {
	return &AudioEncoderRegistry{
		factories: make(map[string]AudioEncoderFactory),
		info:      make(map[string]AudioEncoderInfo),
	}
}

// Register registers a new container format
func (r *AudioEncoderRegistry) Register(name string, factory AudioEncoderFactory, info AudioEncoderInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
	r.info[name] = info
}

// Create creates a new encoder instance
func (r *AudioEncoderRegistry) Create(name string, params AudioEncoderParams) (AudioEncoder, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("audio format not found: %s", name)
	}

	return factory(params), nil
}

// Info returns the metadata of a registered format
func (r *AudioEncoderRegistry) Info(name string) (AudioEncoderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.info[name]
	return info, ok
}

// List returns information about all registered formats, sorted by name
func (r *AudioEncoderRegistry) List() []AudioEncoderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]AudioEncoderInfo, 0, len(r.info))
	for _, info := range r.info {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	return list
}

// Exists checks if a format is registered
func (r *AudioEncoderRegistry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// audioEncoders holds every format compiled into the binary; each
// audio_encoder_*.go file registers itself from init
var audioEncoders = NewAudioEncoderRegistry()

// AudioEncoderExists reports whether format is available
func AudioEncoderExists(format string) bool {
	return audioEncoders.Exists(format)
}

// ListAudioEncoders returns the available format names
func ListAudioEncoders() []string {
	infos := audioEncoders.List()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

// CreateAudioEncoder creates an encoder for format
func CreateAudioEncoder(format string, params AudioEncoderParams) (AudioEncoder, error) {
	return audioEncoders.Create(format, params)
}

// toSigned converts a mid-scale unsigned sample to signed PCM
func toSigned(s uint16) int16 {
	return int16(int32(s) - 32768)
}

// checkPCMFormat validates the stream parameters every container accepts
func checkPCMFormat(sampleRate, bitDepth, channels int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if bitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (only 16-bit PCM is produced)", bitDepth)
	}
	if channels < 1 || channels > 2 {
		return fmt.Errorf("unsupported channel count: %d", channels)
	}
	return nil
}

// outputFile is the file handling shared by the container writers
type outputFile struct {
	path     string
	file     *os.File
	finished bool
}

func (o *outputFile) create(path string) error {
	if o.file != nil {
		return fmt.Errorf("encoder already initialized")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	o.path = path
	o.file = f
	return nil
}

func (o *outputFile) close() error {
	if o.file == nil {
		return fmt.Errorf("encoder not initialized")
	}
	err := o.file.Close()
	o.file = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", o.path, err)
	}
	o.finished = true
	return nil
}

// destroy closes the file and removes it unless it was finished
func (o *outputFile) destroy() error {
	if o.file != nil {
		o.file.Close()
		o.file = nil
	}
	if o.finished || o.path == "" {
		return nil
	}
	if err := os.Remove(o.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove partial output %s: %w", o.path, err)
	}
	return nil
}
