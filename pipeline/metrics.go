package pipeline

import (
	"runtime"
	"time"
)

// Metrics captures the duration of every stage of one run.
type Metrics struct {
	Timestamp         time.Time     `json:"timestamp"`
	TotalDuration     time.Duration `json:"total_duration"`
	LoadDuration      time.Duration `json:"load_duration"`
	PackDuration      time.Duration `json:"pack_duration"`
	InferenceDuration time.Duration `json:"inference_duration"`
	DecodeDuration    time.Duration `json:"decode_duration"`
	RenderDuration    time.Duration `json:"render_duration"`
	ImageCount        int           `json:"image_count"`
	DetectionCount    int           `json:"detection_count"`
	MemoryStats       MemoryMetrics `json:"memory_stats"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

func readMemory() MemoryMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryMetrics{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		SysBytes:        m.Sys,
		NumGC:           m.NumGC,
		HeapAllocBytes:  m.HeapAlloc,
		HeapSysBytes:    m.HeapSys,
	}
}

// FramesPerSecond returns the images processed per second of inference time.
func (m Metrics) FramesPerSecond() float64 {
	if m.InferenceDuration <= 0 {
		return 0
	}
	return float64(m.ImageCount) / m.InferenceDuration.Seconds()
}

// stopwatch measures consecutive stages.
type stopwatch struct {
	start time.Time
	last  time.Time
}

func newStopwatch() *stopwatch {
	now := time.Now()
	return &stopwatch{start: now, last: now}
}

// lap returns the time since the previous lap.
func (s *stopwatch) lap() time.Duration {
	now := time.Now()
	d := now.Sub(s.last)
	s.last = now
	return d
}

func (s *stopwatch) total() time.Duration {
	return time.Since(s.start)
}
