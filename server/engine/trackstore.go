package engine

import (
	"sort"
	"time"

	"github.com/bmharper/flatbush-go"
	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/logs"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/detect"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/idgen"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

// A time and position where we saw an object
type trajectorySample struct {
	time time.Time
	box  geom.Rect
}

// Internal state of an object that we're tracking.
// Owned exclusively by the track store; mutation is serialized by the engine.
type trackedObject struct {
	id             int64 // every new tracked object gets a unique id
	class          defs.ObjectClass
	camera         defs.CameraView
	firstSeen      time.Time
	lastSeen       time.Time
	detectionCount int64
	avgConfidence  float32
	lastPosition   geom.Rect // equivalent to mostRecent().box, but kept here for lookup speed
	history        ringbuffer.RingP[trajectorySample]
	inZones        map[int64]bool // zone membership as of the last completed analysis cycle
}

func (t *trackedObject) mostRecent() trajectorySample {
	return t.history.Peek(t.history.Len() - 1)
}

// Instantaneous velocity from the last two trajectory samples, in normalized
// coordinate units per second. We have no camera calibration model, so we
// never convert to physical units; a collaborator can apply scale.
func (t *trackedObject) velocity() float32 {
	n := t.history.Len()
	if n < 2 {
		return 0
	}
	a := t.history.Peek(n - 2)
	b := t.history.Peek(n - 1)
	dt := float32(b.time.Sub(a.time).Seconds())
	if dt <= 0 {
		return 0
	}
	return a.box.Center().Distance(b.box.Center()) / dt
}

// Largest inter-sample velocity across the trajectory window.
// Used by the loitering test, which needs "stays slow", not "is slow right now".
func (t *trackedObject) maxWindowVelocity() float32 {
	best := float32(0)
	for i := 1; i < t.history.Len(); i++ {
		a := t.history.Peek(i - 1)
		b := t.history.Peek(i)
		dt := float32(b.time.Sub(a.time).Seconds())
		if dt <= 0 {
			continue
		}
		v := a.box.Center().Distance(b.box.Center()) / dt
		if v > best {
			best = v
		}
	}
	return best
}

// Ratio of the newest box area to the oldest box area in the window.
// A ratio well above 1 means the object is growing in frame, which we use as
// a proxy for approaching the camera.
func (t *trackedObject) areaGrowth() float32 {
	if t.history.Len() < 2 {
		return 1
	}
	first := t.history.Peek(0).box.Area()
	last := t.mostRecent().box.Area()
	if first <= 0 {
		return 1
	}
	return last / first
}

// TrackedObject is the public snapshot of a track, safe to hand to API
// consumers while the store keeps mutating.
// SYNC-TRACKED-OBJECT
type TrackedObject struct {
	ID             int64             `json:"id"`
	Class          defs.ObjectClass  `json:"class"`
	Camera         defs.CameraView   `json:"camera"`
	FirstSeen      time.Time         `json:"firstSeen"`
	LastSeen       time.Time         `json:"lastSeen"`
	DetectionCount int64             `json:"detectionCount"`
	AvgConfidence  float32           `json:"avgConfidence"`
	Box            geom.Rect         `json:"box"`
	Trajectory     []TrajectoryPoint `json:"trajectory"`
	Velocity       float32           `json:"velocity"` // normalized units per second
	InZone         bool              `json:"inZone"`
}

type TrajectoryPoint struct {
	X         float32   `json:"x"`
	Y         float32   `json:"y"`
	Timestamp time.Time `json:"timestamp"`
}

func (t *trackedObject) snapshot() *TrackedObject {
	obj := &TrackedObject{
		ID:             t.id,
		Class:          t.class,
		Camera:         t.camera,
		FirstSeen:      t.firstSeen,
		LastSeen:       t.lastSeen,
		DetectionCount: t.detectionCount,
		AvgConfidence:  t.avgConfidence,
		Box:            t.lastPosition,
		Velocity:       t.velocity(),
		InZone:         len(t.inZones) != 0,
		Trajectory:     make([]TrajectoryPoint, 0, t.history.Len()),
	}
	for i := 0; i < t.history.Len(); i++ {
		s := t.history.Peek(i)
		center := s.box.Center()
		obj.Trajectory = append(obj.Trajectory, TrajectoryPoint{
			X:         center.X,
			Y:         center.Y,
			Timestamp: s.time,
		})
	}
	return obj
}

// trackStore owns all tracked objects, keyed by camera.
// All mutation happens on the engine's cycle goroutines, serialized by the
// engine mutex, so the store itself carries no lock.
type trackStore struct {
	log               logs.Log
	settings          *Settings
	nextTrackID       idgen.Int64
	byCamera          map[defs.CameraView][]*trackedObject
	droppedDetections int64 // detections discarded due to an unknown camera identity
}

func newTrackStore(log logs.Log, settings *Settings) *trackStore {
	return &trackStore{
		log:      log,
		settings: settings,
		byCamera: map[defs.CameraView][]*trackedObject{},
	}
}

func (s *trackStore) count() int {
	n := 0
	for _, tracks := range s.byCamera {
		n += len(tracks)
	}
	return n
}

func (s *trackStore) snapshot() []*TrackedObject {
	all := []*TrackedObject{}
	for _, camera := range defs.AllCameraViews {
		for _, t := range s.byCamera[camera] {
			all = append(all, t.snapshot())
		}
	}
	return all
}

func (s *trackStore) snapshotCamera(camera defs.CameraView) []*TrackedObject {
	tracks := []*TrackedObject{}
	for _, t := range s.byCamera[camera] {
		tracks = append(tracks, t.snapshot())
	}
	return tracks
}

// candidatePair is one plausible detection-to-track assignment
type candidatePair struct {
	distance float32
	detIdx   int
	trackIdx int
}

// ingestBatch associates one camera's detection batch with existing tracks,
// creating new tracks for whatever fails to match.
// Matching is greedy on center distance: all gated (detection, track) pairs
// are sorted by distance, ties broken by detection order, and assigned
// first-come. A detection only matches a track of the same class on the same
// camera, within the gating distance.
func (s *trackStore) ingestBatch(batch detect.Batch, now time.Time) {
	if _, err := defs.ParseCameraView(string(batch.Camera)); err != nil {
		s.droppedDetections += int64(len(batch.Detections))
		s.log.Warnf("Dropping batch of %v detections: %v", len(batch.Detections), err)
		return
	}
	detections := make([]detect.Detection, 0, len(batch.Detections))
	for _, det := range batch.Detections {
		if det.Camera != batch.Camera {
			s.droppedDetections++
			continue
		}
		detections = append(detections, det)
	}
	tracked := s.byCamera[batch.Camera]

	// Spatial index over the current track positions, so we only measure
	// distance against plausible candidates.
	fb := flatbush.NewFlatbush[float32]()
	fb.Reserve(len(tracked))
	for _, t := range tracked {
		box := &t.lastPosition
		fb.Add(box.X, box.Y, box.X2(), box.Y2())
	}
	fb.Finish()

	pairs := []candidatePair{}
	nearbyIdx := []int{}
	for i := range detections {
		det := &detections[i]
		// Inflate the search window beyond the gating distance, because the
		// index stores boxes, and we gate on center distance.
		buffer := s.settings.GatingDistance + max(det.Box.Width, det.Box.Height)
		nearbyIdx = fb.SearchFast(det.Box.X-buffer, det.Box.Y-buffer, det.Box.X2()+buffer, det.Box.Y2()+buffer, nearbyIdx)
		for _, j := range nearbyIdx {
			if tracked[j].class != det.Class {
				continue
			}
			distance := det.Box.Center().Distance(tracked[j].lastPosition.Center())
			if distance > s.settings.GatingDistance {
				continue
			}
			pairs = append(pairs, candidatePair{distance: distance, detIdx: i, trackIdx: j})
		}
	}

	// Lowest distance wins; earliest detection breaks ties
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].distance != pairs[b].distance {
			return pairs[a].distance < pairs[b].distance
		}
		return pairs[a].detIdx < pairs[b].detIdx
	})

	detMatched := make([]int, len(detections))
	for i := range detMatched {
		detMatched[i] = -1
	}
	trackMatched := make([]bool, len(tracked))
	for _, p := range pairs {
		if detMatched[p.detIdx] != -1 || trackMatched[p.trackIdx] {
			continue
		}
		detMatched[p.detIdx] = p.trackIdx
		trackMatched[p.trackIdx] = true
	}

	for i := range detections {
		det := &detections[i]
		ts := det.Timestamp
		if ts.IsZero() {
			ts = now
		}
		j := detMatched[i]
		if j == -1 {
			// Create a new track
			t := &trackedObject{
				id:            s.nextTrackID.Next(),
				class:         det.Class,
				camera:        batch.Camera,
				firstSeen:     ts,
				avgConfidence: 0,
				history:       ringbuffer.NewRingP[trajectorySample](nextPowerOf2(s.settings.TrajectoryWindow)),
				inZones:       map[int64]bool{},
			}
			j = len(tracked)
			tracked = append(tracked, t)
			trackMatched = append(trackMatched, true)
			if s.settings.Verbose {
				s.log.Infof("Tracker (cam %v): New '%v' at %v,%v", batch.Camera, det.Class, det.Box.Center().X, det.Box.Center().Y)
			}
		}
		t := tracked[j]
		t.detectionCount++
		t.avgConfidence += (det.Confidence - t.avgConfidence) / float32(t.detectionCount)
		t.lastPosition = det.Box
		if ts.After(t.lastSeen) {
			t.lastSeen = ts
		}
		// Skip duplicate zero-time-advance samples so that re-running the same
		// batch doesn't pollute velocity estimates
		if t.history.Len() == 0 || t.mostRecent().time.Before(ts) {
			t.history.Add(trajectorySample{time: ts, box: det.Box})
		}
	}
	s.byCamera[batch.Camera] = tracked

	s.enforceCap()
}

// evictStale removes tracks that have not been updated within the staleness
// threshold. The object has left the scene, or was a false detection.
func (s *trackStore) evictStale(now time.Time) {
	for camera, tracked := range s.byCamera {
		remaining := tracked[:0]
		for _, t := range tracked {
			if now.Sub(t.lastSeen) > s.settings.StalenessTimeout {
				if s.settings.Verbose {
					s.log.Infof("Tracker (cam %v): '%v' track %v evicted after %v sightings", camera, t.class, t.id, t.detectionCount)
				}
			} else {
				remaining = append(remaining, t)
			}
		}
		s.byCamera[camera] = remaining
	}
}

// enforceCap guards against degenerate input producing unbounded tracks.
// Once over the hard cap, the oldest tracks (by last sighting) are evicted.
func (s *trackStore) enforceCap() {
	over := s.count() - s.settings.MaxTracks
	if over <= 0 {
		return
	}
	all := []*trackedObject{}
	for _, tracked := range s.byCamera {
		all = append(all, tracked...)
	}
	sort.Slice(all, func(a, b int) bool {
		return all[a].lastSeen.Before(all[b].lastSeen)
	})
	evict := map[int64]bool{}
	for i := 0; i < over; i++ {
		evict[all[i].id] = true
	}
	for camera, tracked := range s.byCamera {
		remaining := tracked[:0]
		for _, t := range tracked {
			if !evict[t.id] {
				remaining = append(remaining, t)
			}
		}
		s.byCamera[camera] = remaining
	}
	s.log.Warnf("Track store over capacity; evicted %v oldest tracks", over)
}
