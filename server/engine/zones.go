package engine

import (
	"sync"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/gen"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

// Zone is the runtime form of an operator-configured detection zone.
// The engine treats zones as read-only; edits arrive as a whole new list,
// and take effect on the next analysis cycle.
type Zone struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Camera       defs.CameraView      `json:"camera"`
	Enabled      bool                 `json:"enabled"`
	AlertOnEntry bool                 `json:"alertOnEntry"`
	Sensitivity  defs.ZoneSensitivity `json:"sensitivity"`
	Polygon      geom.Polygon         `json:"polygon"`
}

// zoneRegistry holds the current zone list. Written by the operator surface,
// read once per analysis cycle.
type zoneRegistry struct {
	lock  sync.RWMutex
	zones []Zone
}

func (r *zoneRegistry) set(zones []Zone) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.zones = gen.CopySlice(zones)
}

func (r *zoneRegistry) snapshot() []Zone {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return gen.CopySlice(r.zones)
}

// zoneContains is a pure membership test: no side effects, no state.
func zoneContains(zone *Zone, p geom.Point) bool {
	return zone.Polygon.Contains(p)
}

// evaluateZones returns the set of zone IDs that 'point' currently occupies,
// restricted to enabled zones on the given camera. Disabled or malformed
// (<3 vertex) zones never match.
func evaluateZones(camera defs.CameraView, point geom.Point, zones []Zone) map[int64]bool {
	occupied := map[int64]bool{}
	for i := range zones {
		zone := &zones[i]
		if zone.Camera != camera || !zone.Enabled || !zone.Polygon.IsValid() {
			continue
		}
		if zoneContains(zone, point) {
			occupied[zone.ID] = true
		}
	}
	return occupied
}
