package engine

import (
	"sync"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/detect"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/perfstats"
)

// SystemMetrics is a point-in-time snapshot. No history is retained here;
// if a consumer wants history, it samples us on its own cadence.
// SYNC-SYSTEM-METRICS
type SystemMetrics struct {
	FPS            float64 `json:"fps"`
	LatencyMS      float64 `json:"latencyMS"`
	Utilization    float64 `json:"utilization"`
	DetectionCount int     `json:"detectionCount"`
	TrackCount     int     `json:"trackCount"`
	AlertCount     int     `json:"alertCount"`
}

// metricsAggregator relays and smooths the raw figures supplied by the
// detection collaborator (we do not measure fps/latency/utilization
// ourselves), and combines them with current store sizes on Sample.
type metricsAggregator struct {
	lock           sync.Mutex
	fps            perfstats.Accumulator
	latency        perfstats.Accumulator
	utilization    perfstats.Accumulator
	last           SystemMetrics // last sampled values, used when the feed goes quiet
	detectionCount int           // detections seen in the most recent ingest cycle
}

func (m *metricsAggregator) addRaw(raw detect.RawMetrics) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.fps.AddSample(raw.FPS)
	m.latency.AddSample(raw.LatencyMS)
	m.utilization.AddSample(raw.Utilization)
}

func (m *metricsAggregator) setDetectionCount(n int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.detectionCount = n
}

// sample averages the accumulated window, resets it, and returns the
// combined snapshot.
func (m *metricsAggregator) sample(trackCount, alertCount int) SystemMetrics {
	m.lock.Lock()
	defer m.lock.Unlock()
	metrics := SystemMetrics{
		FPS:            m.fps.AverageOr(m.last.FPS),
		LatencyMS:      m.latency.AverageOr(m.last.LatencyMS),
		Utilization:    m.utilization.AverageOr(m.last.Utilization),
		DetectionCount: m.detectionCount,
		TrackCount:     trackCount,
		AlertCount:     alertCount,
	}
	m.fps.Reset()
	m.latency.Reset()
	m.utilization.Reset()
	m.last = metrics
	return metrics
}

// current is like sample, but read-only: it neither resets the smoothing
// window nor updates the fallback values.
func (m *metricsAggregator) current(trackCount, alertCount int) SystemMetrics {
	m.lock.Lock()
	defer m.lock.Unlock()
	return SystemMetrics{
		FPS:            m.fps.AverageOr(m.last.FPS),
		LatencyMS:      m.latency.AverageOr(m.last.LatencyMS),
		Utilization:    m.utilization.AverageOr(m.last.Utilization),
		DetectionCount: m.detectionCount,
		TrackCount:     trackCount,
		AlertCount:     alertCount,
	}
}
