package main

import (
	"fmt"
	"log"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds the collectors describing one run of the encoder.
// The metrics live on their own registry and are written out as a
// node_exporter textfile when the run ends.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Encoding metrics
	encodesTotal      *prometheus.CounterVec   // Encodes by mode, format and result
	encodeDuration    *prometheus.HistogramVec // Wall time spent synthesizing
	samplesTotal      *prometheus.CounterVec   // Samples produced
	transmissionTime  *prometheus.GaugeVec     // Length of the produced audio
	outputBytes       *prometheus.GaugeVec     // Size of the written container
	signatureElements *prometheus.GaugeVec     // CW elements keyed after the image
	lastEncode        prometheus.Gauge         // Unix timestamp of the last encode
	buildInfo         *prometheus.GaugeVec

	// Audio level metrics from the -check report
	audioRMS     *prometheus.GaugeVec
	audioClipped *prometheus.GaugeVec

	// Resource metrics
	memoryAllocBytes prometheus.Gauge
	memoryHeapBytes  prometheus.Gauge
	gcPauseSeconds   prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors on a fresh registry
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	pm := &PrometheusMetrics{
		registry: reg,
		encodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ubersstv_encodes_total",
				Help: "Total number of encode attempts",
			},
			[]string{"mode", "format", "result"},
		),
		encodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ubersstv_encode_duration_seconds",
				Help:    "Time spent synthesizing one transmission",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		samplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ubersstv_samples_total",
				Help: "Total number of audio samples produced",
			},
			[]string{"mode"},
		),
		transmissionTime: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ubersstv_transmission_seconds",
				Help: "Length of the last produced transmission",
			},
			[]string{"mode"},
		),
		outputBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ubersstv_output_bytes",
				Help: "Size of the last written audio file",
			},
			[]string{"format"},
		),
		signatureElements: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ubersstv_cw_elements",
				Help: "Dots and dashes in the last CW signature",
			},
			[]string{"wpm"},
		),
		lastEncode: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ubersstv_last_encode_timestamp_seconds",
				Help: "Unix timestamp of the last successful encode",
			},
		),
		buildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ubersstv_build_info",
				Help: "Build information",
			},
			[]string{"version", "go_version"},
		),
		audioRMS: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ubersstv_audio_rms",
				Help: "RMS level of the last transmission in sample units",
			},
			[]string{"mode"},
		),
		audioClipped: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ubersstv_audio_clipped_samples",
				Help: "Samples at or beyond the clipping threshold",
			},
			[]string{"mode"},
		),
		memoryAllocBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ubersstv_memory_alloc_bytes",
				Help: "Bytes of allocated heap objects",
			},
		),
		memoryHeapBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ubersstv_memory_heap_bytes",
				Help: "Bytes in in-use heap spans",
			},
		),
		gcPauseSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ubersstv_gc_pause_seconds",
				Help: "Most recent GC pause",
			},
		),
	}

	pm.buildInfo.WithLabelValues(Version, runtime.Version()).Set(1)
	return pm
}

// Registry returns the registry holding every collector
func (pm *PrometheusMetrics) Registry() *prometheus.Registry {
	if pm == nil {
		return nil
	}
	return pm.registry
}

// RecordEncode records a successful encode
func (pm *PrometheusMetrics) RecordEncode(mode, format string, samples int, audioSeconds, wallSeconds float64) {
	if pm == nil {
		return
	}
	pm.encodesTotal.WithLabelValues(mode, format, "success").Inc()
	pm.encodeDuration.WithLabelValues(mode).Observe(wallSeconds)
	pm.samplesTotal.WithLabelValues(mode).Add(float64(samples))
	pm.transmissionTime.WithLabelValues(mode).Set(audioSeconds)
	pm.lastEncode.SetToCurrentTime()
}

// RecordFailure records a failed encode; stage is the failing step
func (pm *PrometheusMetrics) RecordFailure(mode, format, stage string) {
	if pm == nil {
		return
	}
	pm.encodesTotal.WithLabelValues(mode, format, stage+"_error").Inc()
}

// RecordOutput records the size of the written container
func (pm *PrometheusMetrics) RecordOutput(format string, bytes int64) {
	if pm == nil {
		return
	}
	pm.outputBytes.WithLabelValues(format).Set(float64(bytes))
}

// RecordSignature records the CW signature length
func (pm *PrometheusMetrics) RecordSignature(wpm, elements int) {
	if pm == nil {
		return
	}
	pm.signatureElements.WithLabelValues(fmt.Sprintf("%d", wpm)).Set(float64(elements))
}

// RecordLevels records the -check report levels
func (pm *PrometheusMetrics) RecordLevels(mode string, rms float64, clipped int) {
	if pm == nil {
		return
	}
	pm.audioRMS.WithLabelValues(mode).Set(rms)
	pm.audioClipped.WithLabelValues(mode).Set(float64(clipped))
}

// updateResourceMetrics updates runtime resource metrics
func (pm *PrometheusMetrics) updateResourceMetrics() {
	if pm == nil {
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	pm.memoryAllocBytes.Set(float64(m.Alloc))
	pm.memoryHeapBytes.Set(float64(m.HeapAlloc))

	// Get the most recent GC pause
	if m.NumGC > 0 {
		lastPause := m.PauseNs[(m.NumGC+255)%256]
		pm.gcPauseSeconds.Set(float64(lastPause) / 1e9)
	}
}

// WriteTextfile writes every metric to filename in the text exposition format
func (pm *PrometheusMetrics) WriteTextfile(filename string) error {
	if pm == nil {
		return nil
	}
	pm.updateResourceMetrics()
	if err := prometheus.WriteToTextfile(filename, pm.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", filename, err)
	}
	log.Printf("[Metrics] Wrote %s", filename)
	return nil
}
