package detect

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

// SyntheticSource is a deterministic stand-in for a real detector feed.
// It simulates a handful of objects per camera that move coherently between
// frames, so that the tracker sees plausible association input.
// It exists for tests and development only. Given the same seed and the same
// sequence of timestamps, it produces exactly the same batches.
type SyntheticSource struct {
	rng          *rand.Rand
	now          func() time.Time
	nextID       int64
	walkers      map[defs.CameraView][]*syntheticWalker
	maxPerCamera int
}

type syntheticWalker struct {
	class defs.ObjectClass
	box   geom.Rect
	vx    float32 // per tick, normalized units
	vy    float32
	ttl   int // ticks until the object leaves the scene
}

func NewSyntheticSource(seed int64) *SyntheticSource {
	return &SyntheticSource{
		rng:          rand.New(rand.NewSource(seed)),
		now:          time.Now,
		walkers:      map[defs.CameraView][]*syntheticWalker{},
		maxPerCamera: 4,
	}
}

// SetClock overrides the timestamp source, for reproducible tests.
func (s *SyntheticSource) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SyntheticSource) NextBatches() []Batch {
	ts := s.now()
	batches := make([]Batch, 0, len(defs.AllCameraViews))
	for _, camera := range defs.AllCameraViews {
		s.stepCamera(camera)
		batch := Batch{
			Camera: camera,
			Metrics: RawMetrics{
				FPS:         28 + s.rng.Float64()*4,
				LatencyMS:   30 + s.rng.Float64()*20,
				Utilization: 55 + s.rng.Float64()*15,
			},
		}
		for _, w := range s.walkers[camera] {
			s.nextID++
			batch.Detections = append(batch.Detections, Detection{
				ID:         fmt.Sprintf("synth_%v", s.nextID),
				Class:      w.class,
				Confidence: 0.7 + s.rng.Float32()*0.3,
				Box:        w.box,
				Camera:     camera,
				Timestamp:  ts,
			})
		}
		batches = append(batches, batch)
	}
	return batches
}

func (s *SyntheticSource) stepCamera(camera defs.CameraView) {
	alive := s.walkers[camera][:0]
	for _, w := range s.walkers[camera] {
		w.ttl--
		if w.ttl <= 0 {
			continue
		}
		w.box.X += w.vx
		w.box.Y += w.vy
		if w.box.X < 0 || w.box.X2() > 1 {
			w.vx = -w.vx
		}
		if w.box.Y < 0 || w.box.Y2() > 1 {
			w.vy = -w.vy
		}
		alive = append(alive, w)
	}
	s.walkers[camera] = alive

	// Spawn a new object now and then, up to the per-camera cap
	if len(s.walkers[camera]) < s.maxPerCamera && s.rng.Float64() < 0.3 {
		classes := defs.AllObjectClasses
		w := &syntheticWalker{
			class: classes[s.rng.Intn(len(classes))],
			box: geom.Rect{
				X:      s.rng.Float32() * 0.7,
				Y:      s.rng.Float32() * 0.7,
				Width:  0.1 + s.rng.Float32()*0.2,
				Height: 0.1 + s.rng.Float32()*0.2,
			},
			vx:  (s.rng.Float32() - 0.5) * 0.04,
			vy:  (s.rng.Float32() - 0.5) * 0.04,
			ttl: 20 + s.rng.Intn(80),
		}
		s.walkers[camera] = append(s.walkers[camera], w)
	}
}
