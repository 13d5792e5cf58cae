package server

import (
	"fmt"
	"net/http"

	"github.com/cyclopcam/logs"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/detect"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/configdb"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/engine"
)

// Server owns the HTTP surface and glues the config database to the running
// perception engine. The engine never reads the database itself; whenever
// zones change, the server pushes a fresh snapshot into the engine.
type Server struct {
	Log      logs.Log
	configDB *configdb.ConfigDB
	engine   *engine.Engine
	source   *detect.ChannelSource // nil when running off a synthetic feed
}

// NewServer wires the components together and primes the engine with the
// zones and severity policy stored in the config database.
// 'source' may be nil, in which case the detection ingestion API is disabled.
func NewServer(log logs.Log, cfg *configdb.ConfigDB, eng *engine.Engine, source *detect.ChannelSource) (*Server, error) {
	s := &Server{
		Log:      log,
		configDB: cfg,
		engine:   eng,
		source:   source,
	}
	if err := s.reloadZones(); err != nil {
		return nil, err
	}
	return s, nil
}

// reloadZones reads all zones from the config DB and replaces the engine's
// zone set. Malformed zones are skipped with a warning, so one bad record
// can't take zone evaluation down with it.
func (s *Server) reloadZones() error {
	records, err := s.configDB.GetZones()
	if err != nil {
		return fmt.Errorf("Failed to load zones: %w", err)
	}
	zones := make([]engine.Zone, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			s.Log.Warnf("Skipping zone %v (%v): %v", rec.ID, rec.Name, err)
			continue
		}
		poly, _ := rec.Polygon()
		zones = append(zones, engine.Zone{
			ID:           rec.ID,
			Name:         rec.Name,
			Camera:       rec.Camera,
			Enabled:      rec.Enabled,
			AlertOnEntry: rec.AlertOnEntry,
			Sensitivity:  rec.Sensitivity,
			Polygon:      poly,
		})
	}
	s.engine.SetZones(zones)
	s.Log.Infof("Loaded %v zones (%v active)", len(records), len(zones))
	return nil
}

// ListenHTTP blocks, serving the API. port example: ":8080"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	return http.ListenAndServe(port, s.SetupHTTP())
}
