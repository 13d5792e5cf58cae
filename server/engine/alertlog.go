package engine

import (
	"sync"
	"time"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

type AlertType string

const (
	AlertZoneIntrusion   AlertType = "zone_intrusion"
	AlertLoitering       AlertType = "loitering"
	AlertRapidApproach   AlertType = "rapid_approach"
	AlertMultipleObjects AlertType = "multiple_objects"
)

// Alert references the track that triggered it. The track may be evicted
// later; we never re-validate the reference.
type Alert struct {
	ID           string           `json:"id"`
	Type         AlertType        `json:"type"`
	Severity     defs.Severity    `json:"severity"`
	Camera       defs.CameraView  `json:"camera"`
	TrackID      int64            `json:"trackId"`
	ObjectClass  defs.ObjectClass `json:"objectClass"`
	Timestamp    time.Time        `json:"timestamp"`
	Message      string           `json:"message"`
	Acknowledged bool             `json:"acknowledged"`
}

// AlertLog is a bounded, time-ordered alert collection. When full, the oldest
// alert is evicted regardless of its acknowledgment state. An operator who
// needs a durable audit trail must export alerts through the API before they
// age out.
type AlertLog struct {
	lock     sync.Mutex
	capacity int
	alerts   []*Alert // oldest first
}

func NewAlertLog(capacity int) *AlertLog {
	return &AlertLog{
		capacity: capacity,
	}
}

func (l *AlertLog) Append(alert *Alert) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.alerts = append(l.alerts, alert)
	if len(l.alerts) > l.capacity {
		over := len(l.alerts) - l.capacity
		l.alerts = append(l.alerts[:0], l.alerts[over:]...)
	}
}

// Acknowledge marks the alert as acknowledged. Unknown IDs and repeat calls
// are no-ops, so concurrent operators can race harmlessly.
func (l *AlertLog) Acknowledge(id string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, alert := range l.alerts {
		if alert.ID == id {
			alert.Acknowledged = true
			return
		}
	}
}

// Clear removes the alert entirely. Unknown IDs are a no-op.
func (l *AlertLog) Clear(id string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for i, alert := range l.alerts {
		if alert.ID == id {
			l.alerts = append(l.alerts[:i], l.alerts[i+1:]...)
			return
		}
	}
}

// List returns copies of the alerts, most recent first, optionally filtered
// to severities >= minSeverity.
func (l *AlertLog) List(minSeverity defs.Severity) []*Alert {
	l.lock.Lock()
	defer l.lock.Unlock()
	minRank := minSeverity.Rank()
	out := make([]*Alert, 0, len(l.alerts))
	for i := len(l.alerts) - 1; i >= 0; i-- {
		alert := l.alerts[i]
		if alert.Severity.Rank() < minRank {
			continue
		}
		cp := *alert
		out = append(out, &cp)
	}
	return out
}

func (l *AlertLog) Count() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.alerts)
}

// hasActive reports whether an unacknowledged, uncleared alert exists for the
// (type, track) pair. Used for deduplication, so a sustained condition does
// not produce an alert storm.
func (l *AlertLog) hasActive(alertType AlertType, trackID int64) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, alert := range l.alerts {
		if alert.Type == alertType && alert.TrackID == trackID && !alert.Acknowledged {
			return true
		}
	}
	return false
}
