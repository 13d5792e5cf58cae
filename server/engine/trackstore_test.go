package engine

import (
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/detect"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
	"github.com/stretchr/testify/require"
)

var testBaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, mutate func(*Settings)) *trackStore {
	settings := DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	return newTrackStore(logs.NewTestingLog(t), &settings)
}

func makeDetection(camera defs.CameraView, class defs.ObjectClass, cx, cy float32, ts time.Time) detect.Detection {
	return detect.Detection{
		ID:         "det",
		Class:      class,
		Confidence: 0.9,
		Box:        geom.Rect{X: cx - 0.05, Y: cy - 0.05, Width: 0.1, Height: 0.1},
		Camera:     camera,
		Timestamp:  ts,
	}
}

func makeBatch(camera defs.CameraView, detections ...detect.Detection) detect.Batch {
	return detect.Batch{
		Camera:     camera,
		Detections: detections,
	}
}

func TestAssociationCreatesAndMatches(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime

	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)), t0)
	require.Equal(t, 1, store.count())
	track := store.byCamera[defs.CameraFront][0]
	require.Equal(t, int64(1), track.id)
	require.Equal(t, defs.ClassPerson, track.class)
	require.Equal(t, t0, track.firstSeen)
	require.Equal(t, t0, track.lastSeen)

	// The object moved a little; it must match the existing track
	t1 := t0.Add(100 * time.Millisecond)
	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.55, 0.5, t1)), t1)
	require.Equal(t, 1, store.count())
	require.Equal(t, int64(2), track.detectionCount)
	require.True(t, !track.firstSeen.After(track.lastSeen))
	require.Equal(t, t1, track.lastSeen)
}

func TestAssociationIsDeterministic(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime
	batch := makeBatch(defs.CameraFront,
		makeDetection(defs.CameraFront, defs.ClassPerson, 0.3, 0.3, t0),
		makeDetection(defs.CameraFront, defs.ClassPerson, 0.7, 0.7, t0),
	)

	// Re-running association on identical input (no time advance) must not
	// create duplicate tracks
	store.ingestBatch(batch, t0)
	require.Equal(t, 2, store.count())
	store.ingestBatch(batch, t0)
	require.Equal(t, 2, store.count())
}

func TestAssociationClassGate(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime

	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)), t0)
	// Same position, different class: must not associate
	t1 := t0.Add(100 * time.Millisecond)
	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassDog, 0.5, 0.5, t1)), t1)
	require.Equal(t, 2, store.count())
}

func TestAssociationGatingDistance(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime

	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassCar, 0.1, 0.1, t0)), t0)
	// Far beyond the gating distance: a new track, not a match
	t1 := t0.Add(100 * time.Millisecond)
	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassCar, 0.9, 0.9, t1)), t1)
	require.Equal(t, 2, store.count())
}

func TestAssociationLowestDistanceWins(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime
	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)), t0)

	// Two detections compete for the one track. The closer one must win,
	// and the farther one becomes a new track.
	t1 := t0.Add(100 * time.Millisecond)
	far := makeDetection(defs.CameraFront, defs.ClassPerson, 0.58, 0.5, t1)
	near := makeDetection(defs.CameraFront, defs.ClassPerson, 0.52, 0.5, t1)
	store.ingestBatch(makeBatch(defs.CameraFront, far, near), t1)

	require.Equal(t, 2, store.count())
	track := store.byCamera[defs.CameraFront][0]
	require.Equal(t, int64(2), track.detectionCount)
	require.InDelta(t, 0.52, float64(track.lastPosition.Center().X), 1e-5)
}

func TestRunningAverageConfidence(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime

	det := makeDetection(defs.CameraRear, defs.ClassPerson, 0.5, 0.5, t0)
	det.Confidence = 0.8
	store.ingestBatch(makeBatch(defs.CameraRear, det), t0)

	det2 := makeDetection(defs.CameraRear, defs.ClassPerson, 0.5, 0.5, t0.Add(time.Second))
	det2.Confidence = 0.6
	store.ingestBatch(makeBatch(defs.CameraRear, det2), t0.Add(time.Second))

	track := store.byCamera[defs.CameraRear][0]
	require.InDelta(t, 0.7, float64(track.avgConfidence), 1e-5)
}

func TestVelocity(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime

	store.ingestBatch(makeBatch(defs.CameraLeft, makeDetection(defs.CameraLeft, defs.ClassBicycle, 0.2, 0.5, t0)), t0)
	t1 := t0.Add(time.Second)
	store.ingestBatch(makeBatch(defs.CameraLeft, makeDetection(defs.CameraLeft, defs.ClassBicycle, 0.3, 0.5, t1)), t1)

	track := store.byCamera[defs.CameraLeft][0]
	require.InDelta(t, 0.1, float64(track.velocity()), 1e-5)
}

func TestEvictStale(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime

	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)), t0)
	require.Equal(t, 1, store.count())

	store.evictStale(t0.Add(time.Second))
	require.Equal(t, 1, store.count())

	store.evictStale(t0.Add(10 * time.Second))
	require.Equal(t, 0, store.count())
}

func TestUnknownCameraDropped(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime

	batch := makeBatch("overhead", makeDetection("overhead", defs.ClassPerson, 0.5, 0.5, t0))
	store.ingestBatch(batch, t0)
	require.Equal(t, 0, store.count())
	require.Equal(t, int64(1), store.droppedDetections)
}

func TestHardCap(t *testing.T) {
	store := newTestStore(t, func(s *Settings) {
		s.MaxTracks = 4
	})

	// Positions are spread far beyond the gating distance, so every batch
	// creates a fresh track
	for i := 0; i < 8; i++ {
		ts := testBaseTime.Add(time.Duration(i) * 10 * time.Second)
		cx := float32(i%3) * 0.4
		cy := float32(i/3) * 0.4
		store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, cx+0.1, cy+0.1, ts)), ts)
	}
	require.Equal(t, 4, store.count())

	// The survivors must be the most recently seen
	for _, track := range store.byCamera[defs.CameraFront] {
		require.True(t, track.lastSeen.After(testBaseTime.Add(30*time.Second)))
	}
}

func TestTrajectoryWindowIsBounded(t *testing.T) {
	store := newTestStore(t, func(s *Settings) {
		s.TrajectoryWindow = 8
	})

	ts := testBaseTime
	for i := 0; i < 50; i++ {
		ts = ts.Add(100 * time.Millisecond)
		store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassCar, 0.5, 0.5, ts)), ts)
	}
	track := store.byCamera[defs.CameraFront][0]
	require.Equal(t, int64(50), track.detectionCount)
	require.LessOrEqual(t, track.history.Len(), 8)
}

func TestSnapshotIsACopy(t *testing.T) {
	store := newTestStore(t, nil)
	t0 := testBaseTime
	store.ingestBatch(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)), t0)

	snap := store.snapshot()
	require.Len(t, snap, 1)
	snap[0].Class = defs.ClassCat

	require.Equal(t, defs.ClassPerson, store.byCamera[defs.CameraFront][0].class)
}
