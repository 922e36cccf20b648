package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// containerOverhead covers headers and packet framing
const containerOverhead = 64 * 1024

// ResourceCheck is the outcome of the pre-encode resource check
type ResourceCheck struct {
	BufferBytes   uint64 // Sample buffer the engine will allocate
	MemAvailable  uint64
	OutputBytes   uint64 // Upper bound of the container size
	DiskFree      uint64
	MemoryWarning bool
	CPUModel      string
	CPUCores      int
}

// EstimateOutputBytes returns an upper bound of the file size for format
func EstimateOutputBytes(format string, samples, sampleRate, channels int, opus OpusConfig) uint64 {
	if format == "ogg" {
		seconds := float64(samples)/float64(sampleRate) + 1
		return uint64(seconds*float64(opus.Bitrate)/8) + containerOverhead
	}
	return uint64(samples)*2*uint64(channels) + containerOverhead
}

// CheckResources verifies there is room for the sample buffer and the
// output file. A memory shortfall is logged as a warning, a disk shortfall
// is an error.
func CheckResources(samples int, outputPath string, outputBytes uint64) (*ResourceCheck, error) {
	rc := &ResourceCheck{
		BufferBytes: uint64(samples) * 2,
		OutputBytes: outputBytes,
	}
	rc.CPUModel, rc.CPUCores = getCPUInfo()

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Printf("Warning: Failed to read memory statistics: %v", err)
	} else {
		rc.MemAvailable = vm.Available
		if rc.BufferBytes > vm.Available {
			rc.MemoryWarning = true
			log.Printf("Warning: Sample buffer needs %s but only %s of memory is available",
				formatBytes(rc.BufferBytes), formatBytes(vm.Available))
		}
	}

	dir := filepath.Dir(outputPath)
	usage, err := disk.Usage(dir)
	if err != nil {
		log.Printf("Warning: Failed to read disk usage for %s: %v", dir, err)
		return rc, nil
	}
	rc.DiskFree = usage.Free
	if outputBytes > usage.Free {
		return rc, fmt.Errorf("not enough disk space in %s: need %s, %s free",
			dir, formatBytes(outputBytes), formatBytes(usage.Free))
	}
	return rc, nil
}

// getCPUInfo returns the CPU model and total core count
func getCPUInfo() (string, int) {
	info, err := cpu.Info()
	if err != nil {
		log.Printf("Failed to get CPU info: %v", err)
		return "Unknown", 0
	}

	if len(info) > 0 {
		model := info[0].ModelName

		// Sum across all CPUs
		totalCores := 0
		for _, cpuInfo := range info {
			totalCores += int(cpuInfo.Cores)
		}

		return model, totalCores
	}

	return "Unknown", 0
}

// formatBytes renders a byte count with a binary unit
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
