package detect

import (
	"time"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/gen"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

// Package detect defines the input boundary of the perception pipeline.
// Object detection itself runs in an external process (or on dedicated
// hardware); we consume its per-frame output as batches of Detection records.

// Detection is one object found by the upstream detector in a single frame.
// Detections are ephemeral: the tracker consumes a batch and discards it.
type Detection struct {
	ID         string           `json:"id"` // Opaque token assigned by the producer
	Class      defs.ObjectClass `json:"class"`
	Confidence float32          `json:"confidence"` // 0..1
	Box        geom.Rect        `json:"box"`        // Normalized to the camera frame
	Camera     defs.CameraView  `json:"camera"`
	Timestamp  time.Time        `json:"timestamp"`
}

// RawMetrics are throughput/latency/utilization figures measured by the
// detection collaborator. We relay them; we do not compute them.
type RawMetrics struct {
	FPS         float64 `json:"fps"`
	LatencyMS   float64 `json:"latencyMS"`
	Utilization float64 `json:"utilization"` // percent, 0..100
}

// Batch is everything the detector produced for one camera since the last
// poll. Ordering within the batch follows the detector's emission order.
type Batch struct {
	Camera     defs.CameraView `json:"camera"`
	Detections []Detection     `json:"detections"`
	Metrics    RawMetrics      `json:"metrics"`
}

// Source supplies detection batches to the engine's ingestion loop.
// NextBatches must not block: it returns whatever has arrived since the
// previous call, possibly nothing.
type Source interface {
	NextBatches() []Batch
}

// ChannelSource adapts a push-style producer (eg an HTTP ingestion endpoint)
// to the pull-style Source interface.
type ChannelSource struct {
	ch chan Batch
}

func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{
		ch: make(chan Batch, buffer),
	}
}

// Push queues a batch. If the engine has fallen behind and the buffer is
// full, the batch is dropped, and Push returns false. Dropping is preferable
// to blocking the producer's delivery thread.
func (s *ChannelSource) Push(batch Batch) bool {
	select {
	case s.ch <- batch:
		return true
	default:
		return false
	}
}

func (s *ChannelSource) NextBatches() []Batch {
	return gen.DrainChannelIntoSlice(s.ch)
}
