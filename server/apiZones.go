package server

import (
	"errors"
	"net/http"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/www"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/configdb"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
	"github.com/julienschmidt/httprouter"
	"gorm.io/gorm"
)

// On the wire, a zone carries its polygon as an array of vertices, not as the
// encoded string that the database stores.
// SYNC-ZONE-JSON
type zoneJSON struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	Camera       defs.CameraView      `json:"camera"`
	Enabled      bool                 `json:"enabled"`
	AlertOnEntry bool                 `json:"alertOnEntry"`
	Sensitivity  defs.ZoneSensitivity `json:"sensitivity"`
	Vertices     geom.Polygon         `json:"vertices"`
}

func toZoneJSON(rec *configdb.Zone) *zoneJSON {
	poly, err := rec.Polygon()
	if err != nil {
		// The record is corrupt. Return it anyway, with no vertices, so the
		// operator can see it and fix or delete it.
		poly = geom.Polygon{}
	}
	return &zoneJSON{
		ID:           rec.ID,
		Name:         rec.Name,
		Camera:       rec.Camera,
		Enabled:      rec.Enabled,
		AlertOnEntry: rec.AlertOnEntry,
		Sensitivity:  rec.Sensitivity,
		Vertices:     poly,
	}
}

// validateZoneJSON panics with a 400 if the incoming zone is not usable
func validateZoneJSON(z *zoneJSON) {
	_, err := defs.ParseCameraView(string(z.Camera))
	www.CheckClient(err)
	_, err = defs.ParseZoneSensitivity(string(z.Sensitivity))
	www.CheckClient(err)
	if z.Name == "" {
		www.PanicBadRequestf("Zone name may not be empty")
	}
	if !z.Vertices.IsValid() {
		www.PanicBadRequestf("A zone needs at least 3 vertices")
	}
}

func (s *Server) httpZonesGetAll(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	records, err := s.configDB.GetZones()
	www.Check(err)
	zones := make([]*zoneJSON, 0, len(records))
	for _, rec := range records {
		zones = append(zones, toZoneJSON(rec))
	}
	www.SendJSON(w, zones)
}

func (s *Server) httpZoneGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	rec, err := s.configDB.GetZoneFromID(www.ParseID(params.ByName("id")))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		www.PanicNotFound()
	}
	www.Check(err)
	www.SendJSON(w, toZoneJSON(rec))
}

func (s *Server) httpZoneCreate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	incoming := zoneJSON{Enabled: true, Sensitivity: defs.SensitivityMedium}
	www.ReadJSON(w, r, &incoming, 1024*1024)
	validateZoneJSON(&incoming)

	rec := configdb.Zone{
		Name:         incoming.Name,
		Camera:       incoming.Camera,
		Enabled:      incoming.Enabled,
		AlertOnEntry: incoming.AlertOnEntry,
		Sensitivity:  incoming.Sensitivity,
	}
	rec.SetPolygon(incoming.Vertices)
	www.Check(s.configDB.DB.Create(&rec).Error)
	s.Log.Infof("Zone %v (%v) created on camera %v", rec.ID, rec.Name, rec.Camera)

	www.Check(s.reloadZones())
	www.SendID(w, rec.ID)
}

func (s *Server) httpZoneUpdate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	rec, err := s.configDB.GetZoneFromID(www.ParseID(params.ByName("id")))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		www.PanicNotFound()
	}
	www.Check(err)

	incoming := *toZoneJSON(rec)
	www.ReadJSON(w, r, &incoming, 1024*1024)
	validateZoneJSON(&incoming)

	rec.Name = incoming.Name
	rec.Camera = incoming.Camera
	rec.Enabled = incoming.Enabled
	rec.AlertOnEntry = incoming.AlertOnEntry
	rec.Sensitivity = incoming.Sensitivity
	rec.SetPolygon(incoming.Vertices)
	www.Check(s.configDB.DB.Save(rec).Error)

	www.Check(s.reloadZones())
	www.SendOK(w)
}

func (s *Server) httpZoneDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	if _, err := s.configDB.GetZoneFromID(id); errors.Is(err, gorm.ErrRecordNotFound) {
		www.PanicNotFound()
	}
	www.Check(s.configDB.DB.Delete(&configdb.Zone{}, id).Error)
	s.Log.Infof("Zone %v deleted", id)

	www.Check(s.reloadZones())
	www.SendOK(w)
}
