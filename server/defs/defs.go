package defs

import (
	"fmt"
)

// defs contains definitions that are shared by all systems

// CameraView identifies one of the fixed camera positions around the vehicle
type CameraView string

const (
	CameraFront CameraView = "front"
	CameraRear  CameraView = "rear"
	CameraLeft  CameraView = "left"
	CameraRight CameraView = "right"
)

var AllCameraViews = []CameraView{CameraFront, CameraRear, CameraLeft, CameraRight}

func ParseCameraView(v string) (CameraView, error) {
	switch CameraView(v) {
	case CameraFront, CameraRear, CameraLeft, CameraRight:
		return CameraView(v), nil
	}
	return "", fmt.Errorf("Unknown camera view '%v'. Valid values are 'front', 'rear', 'left', 'right'", v)
}

// ObjectClass is the class label assigned by the upstream object detector.
// The class of a tracked object is fixed at track creation.
type ObjectClass string

const (
	ClassPerson     ObjectClass = "person"
	ClassCar        ObjectClass = "car"
	ClassBicycle    ObjectClass = "bicycle"
	ClassMotorcycle ObjectClass = "motorcycle"
	ClassDog        ObjectClass = "dog"
	ClassCat        ObjectClass = "cat"
)

var AllObjectClasses = []ObjectClass{ClassPerson, ClassCar, ClassBicycle, ClassMotorcycle, ClassDog, ClassCat}

func ParseObjectClass(v string) (ObjectClass, error) {
	switch ObjectClass(v) {
	case ClassPerson, ClassCar, ClassBicycle, ClassMotorcycle, ClassDog, ClassCat:
		return ObjectClass(v), nil
	}
	return "", fmt.Errorf("Unknown object class '%v'", v)
}

// Severity is an ordered threat level
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var AllSeverities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank returns the ordinal of the severity (low=0 ... critical=3), or -1 for
// an unrecognized value.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// SeverityFromRank clamps rank to the valid range
func SeverityFromRank(rank int) Severity {
	if rank < 0 {
		rank = 0
	}
	if rank > 3 {
		rank = 3
	}
	return AllSeverities[rank]
}

func ParseSeverity(v string) (Severity, error) {
	switch Severity(v) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(v), nil
	}
	return "", fmt.Errorf("Unknown severity '%v'. Valid values are 'low', 'medium', 'high', 'critical'", v)
}

// ZoneSensitivity biases the severity of alerts raised from a zone
type ZoneSensitivity string

const (
	SensitivityLow    ZoneSensitivity = "low"
	SensitivityMedium ZoneSensitivity = "medium"
	SensitivityHigh   ZoneSensitivity = "high"
)

func ParseZoneSensitivity(v string) (ZoneSensitivity, error) {
	switch ZoneSensitivity(v) {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
		return ZoneSensitivity(v), nil
	}
	return "", fmt.Errorf("Unknown zone sensitivity '%v'. Valid values are 'low', 'medium', 'high'", v)
}
