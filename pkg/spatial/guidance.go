package spatial

import (
	"fmt"
	"math"
)

// Guidance describes where a remembered object is relative to the current
// heading.
type Guidance struct {
	Label          string  `json:"label"`
	AzimuthDiff    float64 `json:"azimuth_diff"` // signed turn angle, (-180,180], positive = right
	ElevationDiff  float64 `json:"elevation_diff"`
	Description    string  `json:"description"` // e.g. "to your left and above"
	Visible        bool    `json:"visible"`
	Confidence     float64 `json:"confidence"`
	DistanceBucket int     `json:"distance_bucket"`
}

// describe renders a cardinal description of a bearing/elevation offset.
func describe(azDiff, elevDiff, elevationCue float64) string {
	abs := math.Abs(azDiff)
	side := "right"
	if azDiff < 0 {
		side = "left"
	}

	var dir string
	switch {
	case abs < 10:
		dir = "ahead"
	case abs < 45:
		dir = fmt.Sprintf("slightly %s", side)
	case abs < 110:
		dir = fmt.Sprintf("to your %s", side)
	case abs < 160:
		dir = fmt.Sprintf("behind %s", side)
	default:
		dir = "behind you"
	}

	if elevDiff > elevationCue {
		dir += " and above"
	} else if elevDiff < -elevationCue {
		dir += " and below"
	}
	return dir
}
