package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

// The alert engine decides, once per analysis cycle per track, whether an
// alert condition is met. Trigger conditions are evaluated in priority order
// and at most one alert is emitted per track per cycle. The camera-level
// multiple_objects condition is evaluated separately by the analysis cycle.

// severityForClass looks up the base severity tier for an object class.
// The policy is an explicit table rather than branching, so it stays
// auditable and tunable (see DefaultSeverityPolicy and the alert_policy
// config table).
func severityForClass(policy map[defs.ObjectClass]defs.Severity, class defs.ObjectClass) defs.Severity {
	if s, ok := policy[class]; ok {
		return s
	}
	return defs.SeverityLow
}

// adjustForSensitivity bumps the severity one tier up for high-sensitivity
// zones, and one tier down for low-sensitivity zones.
func adjustForSensitivity(s defs.Severity, sensitivity defs.ZoneSensitivity) defs.Severity {
	rank := s.Rank()
	switch sensitivity {
	case defs.SensitivityHigh:
		rank++
	case defs.SensitivityLow:
		rank--
	}
	return defs.SeverityFromRank(rank)
}

func newAlert(alertType AlertType, severity defs.Severity, t *trackedObject, message string, now time.Time) *Alert {
	return &Alert{
		ID:          uuid.NewString(),
		Type:        alertType,
		Severity:    severity,
		Camera:      t.camera,
		TrackID:     t.id,
		ObjectClass: t.class,
		Timestamp:   now,
		Message:     message,
	}
}

// evaluateTrackAlerts runs the per-track trigger conditions in priority
// order: zone_intrusion, then loitering, then rapid_approach.
// newZones is this cycle's zone membership; t.inZones is the previous
// cycle's. Returns nil if no condition is met.
func (e *Engine) evaluateTrackAlerts(t *trackedObject, zones []Zone, newZones map[int64]bool, now time.Time) *Alert {
	// 1. zone_intrusion: outside -> inside transition on an alert-on-entry zone
	for i := range zones {
		zone := &zones[i]
		if !zone.AlertOnEntry || !newZones[zone.ID] || t.inZones[zone.ID] {
			continue
		}
		severity := adjustForSensitivity(severityForClass(e.settings.SeverityPolicy, t.class), zone.Sensitivity)
		msg := fmt.Sprintf("%v detected in restricted zone '%v'", t.class, zone.Name)
		return newAlert(AlertZoneIntrusion, severity, t, msg, now)
	}

	// 2. loitering: continuously present beyond the duration threshold, and
	// velocity stayed near zero across the trajectory window
	if now.Sub(t.firstSeen) > e.settings.LoiterDuration &&
		t.history.Len() >= 2 &&
		t.maxWindowVelocity() < e.settings.LoiterMaxVelocity {
		severity := severityForClass(e.settings.SeverityPolicy, t.class)
		msg := fmt.Sprintf("%v loitering near vehicle", t.class)
		return newAlert(AlertLoitering, severity, t, msg, now)
	}

	// 3. rapid_approach: moving fast, and growing in frame (our proxy for
	// trending toward the camera)
	if t.velocity() > e.settings.RapidApproachVelocity &&
		t.areaGrowth() > e.settings.RapidApproachGrowth {
		severity := severityForClass(e.settings.SeverityPolicy, t.class)
		msg := fmt.Sprintf("%v approaching rapidly", t.class)
		return newAlert(AlertRapidApproach, severity, t, msg, now)
	}

	return nil
}

// evaluateCameraAlerts runs the camera-level multiple_objects condition:
// more than MultiObjectThreshold distinct tracks simultaneously active on one
// camera. The alert is attached to the newest track that has not already
// alerted this cycle, so dedup has a stable (type, track) identity.
func (e *Engine) evaluateCameraAlerts(camera defs.CameraView, tracks []*trackedObject, alerted map[int64]bool, now time.Time) *Alert {
	if len(tracks) <= e.settings.MultiObjectThreshold {
		return nil
	}
	var newest *trackedObject
	for _, t := range tracks {
		if alerted[t.id] {
			continue
		}
		if newest == nil || t.firstSeen.After(newest.firstSeen) {
			newest = t
		}
	}
	if newest == nil {
		return nil
	}
	severity := severityForClass(e.settings.SeverityPolicy, newest.class)
	msg := fmt.Sprintf("Multiple objects detected near vehicle (%v camera)", camera)
	return newAlert(AlertMultipleObjects, severity, newest, msg, now)
}
