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

// newTestEngine builds an engine without starting its loops, so tests can
// drive ingest/analyze cycles by hand with a controlled clock.
func newTestEngine(t *testing.T, mutate func(*Settings)) (*Engine, *detect.ChannelSource) {
	settings := DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	src := detect.NewChannelSource(64)
	e := newEngine(logs.NewTestingLog(t), src, settings)
	return e, src
}

func frontZone() Zone {
	return Zone{
		ID:           1,
		Name:         "front restricted",
		Camera:       defs.CameraFront,
		Enabled:      true,
		AlertOnEntry: true,
		Sensitivity:  defs.SensitivityMedium,
		Polygon:      geom.Polygon{{X: 0.3, Y: 0.3}, {X: 0.7, Y: 0.3}, {X: 0.7, Y: 0.7}, {X: 0.3, Y: 0.7}},
	}
}

// The end-to-end scenario: one person on the front camera, inside an
// alert-on-entry zone. One track, one zone_intrusion alert with the severity
// of the person policy tier, and no re-emission on subsequent cycles.
func TestEndToEndIntrusion(t *testing.T) {
	e, src := newTestEngine(t, func(s *Settings) {
		s.StalenessTimeout = time.Hour
		s.LoiterDuration = time.Hour
	})
	e.SetZones([]Zone{frontZone()})

	t0 := testBaseTime
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)))
	e.ingestCycle(t0)

	tracks := e.Tracks()
	require.Len(t, tracks, 1)
	require.Equal(t, defs.ClassPerson, tracks[0].Class)
	require.False(t, tracks[0].InZone) // no analysis cycle has run yet

	t1 := t0.Add(2 * time.Second)
	e.analyzeCycle(t1)

	alerts := e.AlertLog().List(defs.SeverityLow)
	require.Len(t, alerts, 1)
	require.Equal(t, AlertZoneIntrusion, alerts[0].Type)
	require.Equal(t, defs.SeverityHigh, alerts[0].Severity) // person tier, medium zone
	require.Equal(t, defs.CameraFront, alerts[0].Camera)
	require.Equal(t, tracks[0].ID, alerts[0].TrackID)
	require.Contains(t, alerts[0].Message, "person")

	require.True(t, e.Tracks()[0].InZone)

	// Still inside on the next cycles: dedup holds, no new alert
	t2 := t1.Add(2 * time.Second)
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t2)))
	e.ingestCycle(t2)
	e.analyzeCycle(t2.Add(time.Second))
	require.Equal(t, 1, e.AlertLog().Count())

	// Clearing the alert doesn't cause re-emission while inside -> inside
	e.AlertLog().Clear(alerts[0].ID)
	e.analyzeCycle(t2.Add(2 * time.Second))
	require.Equal(t, 0, e.AlertLog().Count())
}

// A second intrusion alert fires only after the first was acknowledged and
// the track left and re-entered the zone.
func TestIntrusionReentry(t *testing.T) {
	e, src := newTestEngine(t, func(s *Settings) {
		s.StalenessTimeout = time.Hour
		s.LoiterDuration = time.Hour
		s.GatingDistance = 0.5
	})
	e.SetZones([]Zone{frontZone()})

	t0 := testBaseTime
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)))
	e.ingestCycle(t0)
	e.analyzeCycle(t0.Add(time.Second))
	require.Equal(t, 1, e.AlertLog().Count())
	alertID := e.AlertLog().List(defs.SeverityLow)[0].ID

	// While the first alert is unacknowledged, re-entry does not re-alert
	t1 := t0.Add(2 * time.Second)
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.15, t1)))
	e.ingestCycle(t1)
	e.analyzeCycle(t1.Add(time.Second))
	t2 := t1.Add(2 * time.Second)
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t2)))
	e.ingestCycle(t2)
	e.analyzeCycle(t2.Add(time.Second))
	require.Equal(t, 1, e.AlertLog().Count())

	e.AlertLog().Acknowledge(alertID)

	// Leave, then re-enter: a fresh alert
	t3 := t2.Add(2 * time.Second)
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.15, t3)))
	e.ingestCycle(t3)
	e.analyzeCycle(t3.Add(time.Second))
	t4 := t3.Add(2 * time.Second)
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t4)))
	e.ingestCycle(t4)
	e.analyzeCycle(t4.Add(time.Second))
	require.Equal(t, 2, e.AlertLog().Count())
}

func TestDisabledZoneNeverMatches(t *testing.T) {
	e, src := newTestEngine(t, func(s *Settings) {
		s.StalenessTimeout = time.Hour
		s.LoiterDuration = time.Hour
	})
	zone := frontZone()
	zone.Enabled = false
	e.SetZones([]Zone{zone})

	t0 := testBaseTime
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, t0)))
	e.ingestCycle(t0)
	e.analyzeCycle(t0.Add(time.Second))
	require.Equal(t, 0, e.AlertLog().Count())
	require.False(t, e.Tracks()[0].InZone)
}

func TestLoitering(t *testing.T) {
	e, src := newTestEngine(t, func(s *Settings) {
		s.StalenessTimeout = time.Hour
		s.LoiterDuration = time.Second
	})

	ts := testBaseTime
	for i := 0; i < 4; i++ {
		src.Push(makeBatch(defs.CameraRear, makeDetection(defs.CameraRear, defs.ClassPerson, 0.5, 0.5, ts)))
		e.ingestCycle(ts)
		ts = ts.Add(500 * time.Millisecond)
	}
	e.analyzeCycle(ts)

	alerts := e.AlertLog().List(defs.SeverityLow)
	require.Len(t, alerts, 1)
	require.Equal(t, AlertLoitering, alerts[0].Type)
	require.Equal(t, defs.SeverityHigh, alerts[0].Severity)
}

func TestRapidApproach(t *testing.T) {
	e, src := newTestEngine(t, func(s *Settings) {
		s.StalenessTimeout = time.Hour
		s.GatingDistance = 0.5
	})

	t0 := testBaseTime
	sizes := []float32{0.1, 0.2, 0.3}
	for i, size := range sizes {
		ts := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		cx := 0.2 + float32(i)*0.2
		det := detect.Detection{
			ID:         "det",
			Class:      defs.ClassCar,
			Confidence: 0.9,
			Box:        geom.Rect{X: cx - size/2, Y: 0.5 - size/2, Width: size, Height: size},
			Camera:     defs.CameraFront,
			Timestamp:  ts,
		}
		src.Push(makeBatch(defs.CameraFront, det))
		e.ingestCycle(ts)
	}
	e.analyzeCycle(t0.Add(300 * time.Millisecond))

	alerts := e.AlertLog().List(defs.SeverityLow)
	require.Len(t, alerts, 1)
	require.Equal(t, AlertRapidApproach, alerts[0].Type)
}

// Zone intrusion outranks rapid approach when both conditions hold in the
// same cycle.
func TestAlertPriority(t *testing.T) {
	e, src := newTestEngine(t, func(s *Settings) {
		s.StalenessTimeout = time.Hour
		s.GatingDistance = 0.5
	})
	e.SetZones([]Zone{frontZone()})

	t0 := testBaseTime
	sizes := []float32{0.1, 0.2, 0.3}
	for i, size := range sizes {
		ts := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		cx := 0.2 + float32(i)*0.2 // ends at 0.6, inside the zone
		det := detect.Detection{
			ID:         "det",
			Class:      defs.ClassPerson,
			Confidence: 0.9,
			Box:        geom.Rect{X: cx - size/2, Y: 0.5 - size/2, Width: size, Height: size},
			Camera:     defs.CameraFront,
			Timestamp:  ts,
		}
		src.Push(makeBatch(defs.CameraFront, det))
		e.ingestCycle(ts)
	}
	e.analyzeCycle(t0.Add(300 * time.Millisecond))

	alerts := e.AlertLog().List(defs.SeverityLow)
	require.Len(t, alerts, 1)
	require.Equal(t, AlertZoneIntrusion, alerts[0].Type)
}

func TestMultipleObjects(t *testing.T) {
	e, src := newTestEngine(t, func(s *Settings) {
		s.StalenessTimeout = time.Hour
		s.LoiterDuration = time.Hour
		s.MultiObjectThreshold = 2
	})

	t0 := testBaseTime
	src.Push(makeBatch(defs.CameraLeft,
		makeDetection(defs.CameraLeft, defs.ClassPerson, 0.1, 0.1, t0),
		makeDetection(defs.CameraLeft, defs.ClassPerson, 0.5, 0.5, t0),
		makeDetection(defs.CameraLeft, defs.ClassPerson, 0.9, 0.9, t0),
	))
	e.ingestCycle(t0)
	e.analyzeCycle(t0.Add(time.Second))

	alerts := e.AlertLog().List(defs.SeverityLow)
	require.Len(t, alerts, 1)
	require.Equal(t, AlertMultipleObjects, alerts[0].Type)
	require.Equal(t, defs.CameraLeft, alerts[0].Camera)

	// Sustained condition: dedup prevents an alert storm
	e.analyzeCycle(t0.Add(2 * time.Second))
	require.Equal(t, 1, e.AlertLog().Count())
}

func TestWatchersReceiveAnalysisStates(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	all := e.AddWatcherAllCameras()
	front := e.AddWatcher(defs.CameraFront)

	e.analyzeCycle(testBaseTime)

	require.Len(t, all, len(defs.AllCameraViews))
	require.Len(t, front, 1)
	state := <-front
	require.Equal(t, defs.CameraFront, state.Camera)

	e.RemoveWatcher(defs.CameraFront, front)
	e.RemoveWatcherAllCameras(all)
	e.analyzeCycle(testBaseTime.Add(2 * time.Second))
	require.Len(t, front, 0)
}

func TestMetricsRelay(t *testing.T) {
	e, src := newTestEngine(t, nil)

	batch := makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.5, 0.5, testBaseTime))
	batch.Metrics = detect.RawMetrics{FPS: 30, LatencyMS: 40, Utilization: 60}
	src.Push(batch)
	e.ingestCycle(testBaseTime)

	metrics := e.Metrics()
	require.Equal(t, 30.0, metrics.FPS)
	require.Equal(t, 40.0, metrics.LatencyMS)
	require.Equal(t, 60.0, metrics.Utilization)
	require.Equal(t, 1, metrics.DetectionCount)
	require.Equal(t, 1, metrics.TrackCount)
	require.Equal(t, 0, metrics.AlertCount)

	// The analysis cycle rolls the smoothing window; with no new raw samples,
	// the last figures carry forward
	e.analyzeCycle(testBaseTime.Add(time.Second))
	metrics = e.Metrics()
	require.Equal(t, 30.0, metrics.FPS)
}

// Pausing halts all track and alert mutation; resuming continues from the
// retained state without resetting.
func TestPauseAndResume(t *testing.T) {
	src := detect.NewChannelSource(64)
	settings := DefaultSettings()
	settings.IngestInterval = 5 * time.Millisecond
	settings.AnalyzeInterval = 10 * time.Millisecond
	e := NewEngine(logs.NewTestingLog(t), src, settings)
	defer e.Pause()

	require.Equal(t, StateRunning, e.State())

	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.1, 0.1, time.Now())))
	require.Eventually(t, func() bool { return len(e.Tracks()) == 1 }, time.Second, 5*time.Millisecond)

	e.Pause()
	e.Pause() // idempotent against rapid repeated calls
	require.Equal(t, StatePaused, e.State())

	// No mutation while paused
	src.Push(makeBatch(defs.CameraFront, makeDetection(defs.CameraFront, defs.ClassPerson, 0.9, 0.9, time.Now())))
	time.Sleep(50 * time.Millisecond)
	require.Len(t, e.Tracks(), 1)

	e.Start()
	e.Start() // idempotent
	require.Equal(t, StateRunning, e.State())
	require.Eventually(t, func() bool { return len(e.Tracks()) == 2 }, time.Second, 5*time.Millisecond)
}
