package processor

import (
	"sync"
	"time"
)

// Metrics counts what happened to the frames handed to a processor.
type Metrics struct {
	Processed int64 // Frames whose graphics reached the overlay
	Dropped   int64 // Frames skipped because a previous one was in flight
	Failed    int64 // Frames whose detection returned an error
	Rejected  int64 // Frames refused for a bad buffer or after Stop

	LastLatency    time.Duration // Detector time of the most recent frame
	AverageLatency time.Duration // Mean detector time over recent frames
}

const latencyWindow = 100

// MetricsCollector accumulates Metrics. It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	current Metrics
	history []time.Duration // Recent latencies for averaging

	onUpdate func(Metrics)
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]time.Duration, 0, latencyWindow),
	}
}

// OnUpdate sets a callback that fires after every processed frame.
func (m *MetricsCollector) OnUpdate(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// MarkProcessed records a frame that reached the overlay.
func (m *MetricsCollector) MarkProcessed(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Processed++
	m.recordLatency(latency)
	m.notify()
}

// MarkFailed records a frame whose detection failed.
func (m *MetricsCollector) MarkFailed(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Failed++
	m.recordLatency(latency)
}

// MarkDropped records a frame skipped while busy.
func (m *MetricsCollector) MarkDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Dropped++
}

// MarkRejected records a frame refused before detection.
func (m *MetricsCollector) MarkRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Rejected++
}

// Current returns a snapshot.
func (m *MetricsCollector) Current() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Reset clears all counters and latency history.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Metrics{}
	m.history = m.history[:0]
}

func (m *MetricsCollector) recordLatency(d time.Duration) {
	m.current.LastLatency = d
	m.history = append(m.history, d)
	if len(m.history) > latencyWindow {
		m.history = m.history[1:]
	}
	var sum time.Duration
	for _, h := range m.history {
		sum += h
	}
	m.current.AverageLatency = sum / time.Duration(len(m.history))
}

// notify calls the update callback (must hold lock).
func (m *MetricsCollector) notify() {
	if m.onUpdate != nil {
		snapshot := m.current
		go m.onUpdate(snapshot)
	}
}
