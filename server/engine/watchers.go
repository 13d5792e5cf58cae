package engine

import (
	"time"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/gen"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// AnalysisState is the result of one analysis cycle for one camera,
// published to watchers (eg the live websocket feed).
// SYNC-ANALYSIS-STATE
type AnalysisState struct {
	Camera defs.CameraView  `json:"camera"`
	Time   time.Time        `json:"time"`
	Tracks []*TrackedObject `json:"tracks"`
	Alerts []*Alert         `json:"alerts"` // alerts emitted this cycle, if any
}

// Register to receive analysis results for a specific camera.
func (e *Engine) AddWatcher(camera defs.CameraView) chan *AnalysisState {
	e.watchersLock.Lock()
	defer e.watchersLock.Unlock()
	ch := make(chan *AnalysisState, WatcherChannelSize)
	e.watchers[camera] = append(e.watchers[camera], ch)
	return ch
}

// Unregister from analysis results for a specific camera
func (e *Engine) RemoveWatcher(camera defs.CameraView, ch chan *AnalysisState) {
	e.watchersLock.Lock()
	defer e.watchersLock.Unlock()
	for i, w := range e.watchers[camera] {
		if w == ch {
			e.watchers[camera] = gen.DeleteFromSliceUnordered(e.watchers[camera], i)
			return
		}
	}
	e.Log.Warnf("Engine.RemoveWatcher failed to find channel for camera %v", camera)
}

// Add a watcher that is interested in all camera activity
func (e *Engine) AddWatcherAllCameras() chan *AnalysisState {
	e.watchersLock.Lock()
	defer e.watchersLock.Unlock()
	ch := make(chan *AnalysisState, WatcherChannelSize)
	e.watchersAllCameras = append(e.watchersAllCameras, ch)
	return ch
}

// Unregister from analysis results of all cameras
func (e *Engine) RemoveWatcherAllCameras(ch chan *AnalysisState) {
	e.watchersLock.Lock()
	defer e.watchersLock.Unlock()
	for i, wch := range e.watchersAllCameras {
		if wch == ch {
			e.watchersAllCameras = gen.DeleteFromSliceUnordered(e.watchersAllCameras, i)
			return
		}
	}
	e.Log.Warnf("Engine.RemoveWatcherAllCameras failed to find channel")
}

func (e *Engine) sendToWatchers(state *AnalysisState) {
	e.watchersLock.RLock()
	defer e.watchersLock.RUnlock()
	// If a watcher stalls, we drop states rather than stalling the analysis
	// loop. Watchers that care about continuity must keep up.
	for _, ch := range e.watchers[state.Camera] {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			e.Log.Warnf("Engine watcher on camera %v is falling behind. I am going to drop states.", state.Camera)
		} else {
			ch <- state
		}
	}
	for _, ch := range e.watchersAllCameras {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			e.Log.Warnf("Engine watcher on all cameras is falling behind. I am going to drop states.")
		} else {
			ch <- state
		}
	}
}
