package configdb

import (
	"testing"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/geom"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
	"github.com/stretchr/testify/require"
)

func TestZoneVertices(t *testing.T) {
	zone := Zone{
		Name:         "driveway",
		Camera:       defs.CameraFront,
		Enabled:      true,
		AlertOnEntry: true,
		Sensitivity:  defs.SensitivityHigh,
	}
	poly := geom.Polygon{{X: 0.3, Y: 0.3}, {X: 0.7, Y: 0.3}, {X: 0.7, Y: 0.7}, {X: 0.3, Y: 0.7}}
	zone.SetPolygon(poly)

	decoded, err := zone.Polygon()
	require.NoError(t, err)
	require.Equal(t, poly, decoded)
	require.NoError(t, zone.Validate())
}

func TestZoneValidate(t *testing.T) {
	zone := Zone{
		Camera:      defs.CameraRear,
		Sensitivity: defs.SensitivityMedium,
	}

	zone.Vertices = "not json"
	require.Error(t, zone.Validate())

	// 2 vertices is not a polygon
	zone.SetPolygon(geom.Polygon{{X: 0, Y: 0}, {X: 1, Y: 1}})
	require.Error(t, zone.Validate())

	zone.SetPolygon(geom.Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
	require.NoError(t, zone.Validate())

	zone.Camera = "overhead"
	require.Error(t, zone.Validate())
}
