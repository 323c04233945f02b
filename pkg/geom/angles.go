// Package geom provides the angle and pixel-space bearing math shared by
// the navigation engine. Bearings are in degrees; in pixel space bearing 0
// points up the image (away from the user) and positive bearings rotate
// clockwise (to the user's right).
package geom

import "math"

// Normalize wraps an angle in degrees to [0, 360).
func Normalize(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// SignedDelta returns the shortest signed angular path from one bearing to
// another, in (-180, 180]. Positive means clockwise.
func SignedDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}

// AngularDistance returns the unsigned shortest distance between two
// bearings, in [0, 180].
func AngularDistance(a, b float64) float64 {
	return math.Abs(SignedDelta(a, b))
}

// BearingToVector converts a bearing to a unit direction in pixel space,
// where y grows downward.
func BearingToVector(deg float64) (dx, dy float64) {
	r := deg * math.Pi / 180
	return math.Sin(r), -math.Cos(r)
}

// VectorToBearing converts a pixel-space direction to a bearing in [0, 360).
// The zero vector maps to bearing 0.
func VectorToBearing(dx, dy float64) float64 {
	if dx == 0 && dy == 0 {
		return 0
	}
	return Normalize(math.Atan2(dx, -dy) * 180 / math.Pi)
}

// Clamp limits a value to a range.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
