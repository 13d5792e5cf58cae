package engine

import (
	"math"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/detect"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/perfstats"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

// The engine runs the perception pipeline: it ingests detection batches on a
// fine cadence, and runs tracking analysis (zone evaluation, alerting,
// eviction, metrics) on a coarser cadence. It is the only component in the
// system with concurrency concerns; everything it owns is mutated on its two
// loop goroutines, serialized by a single mutex.

// Settings are the tunables of the pipeline. Zero values are replaced by
// DefaultSettings in NewEngine.
type Settings struct {
	IngestInterval        time.Duration // Cadence of detection ingestion
	AnalyzeInterval       time.Duration // Cadence of tracking/alert analysis
	GatingDistance        float32       // Max normalized center distance for a detection-to-track match
	TrajectoryWindow      int           // Ring buffer of the last N positions per track
	StalenessTimeout      time.Duration // Evict a track after this long without a matching detection
	MaxTracks             int           // Hard cap on total tracks (degenerate-input guard)
	LoiterDuration        time.Duration // Continuous presence beyond this triggers loitering...
	LoiterMaxVelocity     float32       // ...if velocity stayed below this (units/sec)
	RapidApproachVelocity float32       // Velocity above this can trigger rapid_approach...
	RapidApproachGrowth   float32       // ...if bbox area grew by this factor across the window
	MultiObjectThreshold  int           // More than this many tracks on one camera triggers multiple_objects
	AlertLogCapacity      int
	SeverityPolicy        map[defs.ObjectClass]defs.Severity
	Verbose               bool
}

func DefaultSettings() Settings {
	return Settings{
		IngestInterval:        100 * time.Millisecond,
		AnalyzeInterval:       2 * time.Second,
		GatingDistance:        0.15,
		TrajectoryWindow:      32,
		StalenessTimeout:      3 * time.Second,
		MaxTracks:             256,
		LoiterDuration:        30 * time.Second,
		LoiterMaxVelocity:     0.02,
		RapidApproachVelocity: 0.5,
		RapidApproachGrowth:   1.25,
		MultiObjectThreshold:  4,
		AlertLogCapacity:      50,
		SeverityPolicy:        DefaultSeverityPolicy(),
	}
}

// DefaultSeverityPolicy is the built-in class -> base severity table.
// People rank above vehicles, vehicles above animals. Normally overridden by
// the alert_policy config table.
func DefaultSeverityPolicy() map[defs.ObjectClass]defs.Severity {
	return map[defs.ObjectClass]defs.Severity{
		defs.ClassPerson:     defs.SeverityHigh,
		defs.ClassCar:        defs.SeverityMedium,
		defs.ClassMotorcycle: defs.SeverityMedium,
		defs.ClassBicycle:    defs.SeverityLow,
		defs.ClassDog:        defs.SeverityLow,
		defs.ClassCat:        defs.SeverityLow,
	}
}

type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
)

type Engine struct {
	Log      logs.Log
	settings Settings
	source   detect.Source
	tracks   *trackStore
	zones    zoneRegistry
	alertLog *AlertLog
	metrics  metricsAggregator

	// mu serializes association, eviction, and analysis against each other,
	// so an analysis cycle always observes track state as of the most recent
	// completed association cycle.
	mu sync.Mutex

	// runLock guards start/pause transitions
	runLock        sync.Mutex
	running        bool
	stop           chan bool
	ingestStopped  chan bool
	analyzeStopped chan bool

	watchersLock       sync.RWMutex
	watchers           map[defs.CameraView][]chan *AnalysisState
	watchersAllCameras []chan *AnalysisState

	analyzePerf perfstats.TimeAccumulator // guarded by mu
}

// NewEngine creates the pipeline and starts it (the initial state is Running).
func NewEngine(log logs.Log, source detect.Source, settings Settings) *Engine {
	e := newEngine(log, source, settings)
	e.Start()
	return e
}

func newEngine(log logs.Log, source detect.Source, settings Settings) *Engine {
	def := DefaultSettings()
	if settings.IngestInterval <= 0 {
		settings.IngestInterval = def.IngestInterval
	}
	if settings.AnalyzeInterval <= 0 {
		settings.AnalyzeInterval = def.AnalyzeInterval
	}
	if settings.GatingDistance <= 0 {
		settings.GatingDistance = def.GatingDistance
	}
	if settings.TrajectoryWindow <= 0 {
		settings.TrajectoryWindow = def.TrajectoryWindow
	}
	if settings.StalenessTimeout <= 0 {
		settings.StalenessTimeout = def.StalenessTimeout
	}
	if settings.MaxTracks <= 0 {
		settings.MaxTracks = def.MaxTracks
	}
	if settings.LoiterDuration <= 0 {
		settings.LoiterDuration = def.LoiterDuration
	}
	if settings.LoiterMaxVelocity <= 0 {
		settings.LoiterMaxVelocity = def.LoiterMaxVelocity
	}
	if settings.RapidApproachVelocity <= 0 {
		settings.RapidApproachVelocity = def.RapidApproachVelocity
	}
	if settings.RapidApproachGrowth <= 0 {
		settings.RapidApproachGrowth = def.RapidApproachGrowth
	}
	if settings.MultiObjectThreshold <= 0 {
		settings.MultiObjectThreshold = def.MultiObjectThreshold
	}
	if settings.AlertLogCapacity <= 0 {
		settings.AlertLogCapacity = def.AlertLogCapacity
	}
	if settings.SeverityPolicy == nil {
		settings.SeverityPolicy = def.SeverityPolicy
	}
	e := &Engine{
		Log:      log,
		settings: settings,
		source:   source,
		alertLog: NewAlertLog(settings.AlertLogCapacity),
		watchers: map[defs.CameraView][]chan *AnalysisState{},
	}
	e.tracks = newTrackStore(log, &e.settings)
	return e
}

// Start resumes the two periodic loops. Idempotent: starting a running
// engine does nothing (no double-start).
func (e *Engine) Start() {
	e.runLock.Lock()
	defer e.runLock.Unlock()
	if e.running {
		return
	}
	e.stop = make(chan bool)
	e.ingestStopped = make(chan bool)
	e.analyzeStopped = make(chan bool)
	go e.ingestLoop()
	go e.analyzeLoop()
	e.running = true
	e.Log.Infof("Engine running")
}

// Pause halts both loops, waiting for any in-flight cycle to finish before
// returning. Track and alert state is retained; resuming continues from
// where we left off. Idempotent.
func (e *Engine) Pause() {
	e.runLock.Lock()
	defer e.runLock.Unlock()
	if !e.running {
		return
	}
	close(e.stop)
	<-e.ingestStopped
	<-e.analyzeStopped
	e.running = false
	e.Log.Infof("Engine paused")
}

func (e *Engine) State() State {
	e.runLock.Lock()
	defer e.runLock.Unlock()
	if e.running {
		return StateRunning
	}
	return StatePaused
}

func (e *Engine) ingestLoop() {
	ticker := time.NewTicker(e.settings.IngestInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			e.ingestStopped <- true
			return
		case <-ticker.C:
			e.ingestCycle(time.Now())
		}
	}
}

func (e *Engine) analyzeLoop() {
	ticker := time.NewTicker(e.settings.AnalyzeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			e.analyzeStopped <- true
			return
		case <-ticker.C:
			e.analyzeCycle(time.Now())
		}
	}
}

// ingestCycle pulls whatever the detector has produced and runs association.
func (e *Engine) ingestCycle(now time.Time) {
	batches := e.source.NextBatches()
	if len(batches) == 0 {
		return
	}
	total := 0
	e.mu.Lock()
	for _, batch := range batches {
		e.tracks.ingestBatch(batch, now)
		e.metrics.addRaw(batch.Metrics)
		total += len(batch.Detections)
	}
	e.mu.Unlock()
	e.metrics.setDetectionCount(total)
}

// analyzeCycle runs eviction, zone evaluation, alerting and metrics sampling,
// then publishes per-camera analysis states to watchers.
func (e *Engine) analyzeCycle(now time.Time) {
	cycleStart := time.Now()
	e.mu.Lock()

	e.tracks.evictStale(now)
	zones := e.zones.snapshot()

	states := make([]*AnalysisState, 0, len(defs.AllCameraViews))
	for _, camera := range defs.AllCameraViews {
		tracked := e.tracks.byCamera[camera]
		alerted := map[int64]bool{}
		camAlerts := []*Alert{}
		for _, t := range tracked {
			newZones := evaluateZones(camera, t.lastPosition.Center(), zones)
			if alert := e.evaluateTrackAlerts(t, zones, newZones, now); alert != nil {
				if !e.alertLog.hasActive(alert.Type, alert.TrackID) {
					e.alertLog.Append(alert)
					alerted[t.id] = true
					camAlerts = append(camAlerts, alert)
					e.Log.Infof("Alert [%v] %v: %v", alert.Severity, alert.Type, alert.Message)
				}
			}
			t.inZones = newZones
		}
		if alert := e.evaluateCameraAlerts(camera, tracked, alerted, now); alert != nil {
			if !e.alertLog.hasActive(alert.Type, alert.TrackID) {
				e.alertLog.Append(alert)
				camAlerts = append(camAlerts, alert)
				e.Log.Infof("Alert [%v] %v: %v", alert.Severity, alert.Type, alert.Message)
			}
		}
		states = append(states, &AnalysisState{
			Camera: camera,
			Time:   now,
			Tracks: e.tracks.snapshotCamera(camera),
			Alerts: camAlerts,
		})
	}

	trackCount := e.tracks.count()

	e.analyzePerf.AddSample(time.Since(cycleStart))
	if e.analyzePerf.Samples >= 64 {
		if e.settings.Verbose {
			e.Log.Infof("Analysis cycle average %v over %v cycles", e.analyzePerf.Average(), e.analyzePerf.Samples)
		}
		e.analyzePerf.Reset()
	}
	e.mu.Unlock()

	e.metrics.sample(trackCount, e.alertLog.Count())

	for _, state := range states {
		e.sendToWatchers(state)
	}
}

// SetZones replaces the zone list. Takes effect on the next analysis cycle;
// there is deliberately no transactional guarantee.
func (e *Engine) SetZones(zones []Zone) {
	e.zones.set(zones)
}

func (e *Engine) Zones() []Zone {
	return e.zones.snapshot()
}

// Tracks returns a snapshot of all current tracks, safe to use while the
// pipeline keeps running.
func (e *Engine) Tracks() []*TrackedObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracks.snapshot()
}

func (e *Engine) TracksForCamera(camera defs.CameraView) []*TrackedObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracks.snapshotCamera(camera)
}

func (e *Engine) AlertLog() *AlertLog {
	return e.alertLog
}

// Metrics returns the current system metrics snapshot. Pure read: it does not
// advance the smoothing window.
func (e *Engine) Metrics() SystemMetrics {
	e.mu.Lock()
	trackCount := e.tracks.count()
	e.mu.Unlock()
	return e.metrics.current(trackCount, e.alertLog.Count())
}

func nextPowerOf2(n int) int {
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
