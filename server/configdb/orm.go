package configdb

import (
	"encoding/json"
	"errors"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
)

var ErrZoneDecode = errors.New("Zone vertex decode error")

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// Zone is an operator-drawn polygonal region on one camera's frame.
// Vertices are stored as a JSON array of normalized {x,y} points.
// A zone with fewer than 3 vertices is never evaluated.
type Zone struct {
	BaseModel
	Name         string               `json:"name"`
	Camera       defs.CameraView      `json:"camera"`
	Enabled      bool                 `json:"enabled"`
	AlertOnEntry bool                 `json:"alertOnEntry" gorm:"column:alert_on_entry"`
	Sensitivity  defs.ZoneSensitivity `json:"sensitivity"`
	Vertices     string               `json:"vertices"` // JSON-encoded geom.Polygon
}

func (z *Zone) Polygon() (geom.Polygon, error) {
	poly := geom.Polygon{}
	if err := json.Unmarshal([]byte(z.Vertices), &poly); err != nil {
		return nil, ErrZoneDecode
	}
	return poly, nil
}

func (z *Zone) SetPolygon(poly geom.Polygon) {
	b, err := json.Marshal(poly)
	if err != nil {
		panic(err)
	}
	z.Vertices = string(b)
}

// Validate returns an error describing why the zone cannot be evaluated, or
// nil if it is well formed. Malformed zones are skipped, not fatal.
func (z *Zone) Validate() error {
	if _, err := defs.ParseCameraView(string(z.Camera)); err != nil {
		return err
	}
	if _, err := defs.ParseZoneSensitivity(string(z.Sensitivity)); err != nil {
		return err
	}
	poly, err := z.Polygon()
	if err != nil {
		return err
	}
	if !poly.IsValid() {
		return ErrZoneDecode
	}
	return nil
}

// AlertPolicy maps an object class to the base severity tier used when that
// class triggers an alert. Kept as a table so an operator can tune it without
// a rebuild.
type AlertPolicy struct {
	Class    defs.ObjectClass `gorm:"primaryKey" json:"class"`
	Severity defs.Severity    `json:"severity"`
}
