package services

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// SystemSnapshot is a point-in-time view of process and host resource usage,
// surfaced on the health endpoint.
type SystemSnapshot struct {
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	MemoryUsedMB   uint64  `json:"memory_used_mb"`
	HeapAllocMB    uint64  `json:"heap_alloc_mb"`
	Goroutines     int     `json:"goroutines"`
	NumCPU         int     `json:"num_cpu"`
	GCPauseTotalMs uint64  `json:"gc_pause_total_ms"`
}

// PerformanceMonitor samples host and runtime stats. Sampling failures
// degrade to partial snapshots rather than errors; this is diagnostics, not
// control flow.
type PerformanceMonitor struct {
	logger *logrus.Logger
}

// NewPerformanceMonitor creates a performance monitor.
func NewPerformanceMonitor(logger *logrus.Logger) *PerformanceMonitor {
	return &PerformanceMonitor{logger: logger}
}

// Snapshot samples current resource usage.
func (p *PerformanceMonitor) Snapshot() SystemSnapshot {
	snap := SystemSnapshot{
		Goroutines: runtime.NumGoroutine(),
		NumCPU:     runtime.NumCPU(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap.HeapAllocMB = ms.HeapAlloc / 1024 / 1024
	snap.GCPauseTotalMs = ms.PauseTotalNs / 1e6

	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemoryPercent = vm.UsedPercent
		snap.MemoryUsedMB = vm.Used / 1024 / 1024
	} else {
		p.logger.WithError(err).Debug("Failed to sample virtual memory")
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	} else if err != nil {
		p.logger.WithError(err).Debug("Failed to sample CPU usage")
	}

	return snap
}
