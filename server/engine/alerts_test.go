package engine

import (
	"testing"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
	"github.com/stretchr/testify/require"
)

func TestSeverityPolicyTable(t *testing.T) {
	policy := DefaultSeverityPolicy()
	require.Equal(t, defs.SeverityHigh, severityForClass(policy, defs.ClassPerson))
	require.Equal(t, defs.SeverityMedium, severityForClass(policy, defs.ClassCar))
	require.Equal(t, defs.SeverityLow, severityForClass(policy, defs.ClassCat))
	// Classes missing from the table fall back to low
	require.Equal(t, defs.SeverityLow, severityForClass(map[defs.ObjectClass]defs.Severity{}, defs.ClassPerson))
}

func TestAdjustForSensitivity(t *testing.T) {
	require.Equal(t, defs.SeverityCritical, adjustForSensitivity(defs.SeverityHigh, defs.SensitivityHigh))
	require.Equal(t, defs.SeverityHigh, adjustForSensitivity(defs.SeverityHigh, defs.SensitivityMedium))
	require.Equal(t, defs.SeverityMedium, adjustForSensitivity(defs.SeverityHigh, defs.SensitivityLow))
	// Clamped at the ends of the scale
	require.Equal(t, defs.SeverityCritical, adjustForSensitivity(defs.SeverityCritical, defs.SensitivityHigh))
	require.Equal(t, defs.SeverityLow, adjustForSensitivity(defs.SeverityLow, defs.SensitivityLow))
}
