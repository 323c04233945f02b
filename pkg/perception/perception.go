// Package perception defines the sensing boundary of the navigation
// engine: object detection and floor segmentation. The neural networks
// themselves are opaque; the engine consumes their output as plain data.
package perception

import (
	"image"
	"strings"

	"github.com/pathsense/go-pathsense/pkg/occupancy"
)

// Detection is one detected object in image pixel space. Detections are
// ephemeral and owned by the cycle that produced them.
type Detection struct {
	Label      string
	Box        image.Rectangle
	Confidence float64 // 0-1
}

// Center returns the center of the bounding box.
func (d Detection) Center() image.Point {
	return image.Pt((d.Box.Min.X+d.Box.Max.X)/2, (d.Box.Min.Y+d.Box.Max.Y)/2)
}

// Area returns the bounding box area in pixels.
func (d Detection) Area() int {
	return d.Box.Dx() * d.Box.Dy()
}

// Detector is the interface for object detection backends.
type Detector interface {
	// Detect finds objects in the JPEG image.
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources.
	Close() error
}

// Segmenter is the interface for floor-walkability segmentation backends.
type Segmenter interface {
	// Segment produces a per-pixel walkability mask for the JPEG image.
	Segment(jpeg []byte) (*occupancy.Mask, error)

	// Close releases resources.
	Close() error
}

// SelectTarget picks the best detection matching label (case-insensitive)
// from multiple candidates. Priority: confidence * 0.7 + area * 0.3, so a
// large near match beats a marginally more confident distant one.
func SelectTarget(dets []Detection, label string) *Detection {
	var matches []*Detection
	for i := range dets {
		if strings.EqualFold(dets[i].Label, label) {
			matches = append(matches, &dets[i])
		}
	}
	if len(matches) == 0 {
		return nil
	}
	if len(matches) == 1 {
		return matches[0]
	}

	maxArea := 0
	for _, d := range matches {
		if d.Area() > maxArea {
			maxArea = d.Area()
		}
	}

	bestScore := -1.0
	var best *Detection
	for _, d := range matches {
		score := d.Confidence * 0.7
		if maxArea > 0 {
			score += float64(d.Area()) / float64(maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return best
}
