// Package orientation fuses raw device orientation sensors into a stable
// azimuth/pitch/roll estimate. The estimator is a single latest-value cell:
// producers push sensor events, consumers read Current() without blocking.
package orientation

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pathsense/go-pathsense/pkg/geom"
)

// Sample is a fused orientation estimate in degrees.
type Sample struct {
	Azimuth float64 `json:"azimuth"` // compass heading, [0, 360)
	Pitch   float64 `json:"pitch"`   // positive = device top tilted up
	Roll    float64 `json:"roll"`
}

// Mode selects the fusion path. It is chosen once at startup from sensor
// availability and fixed thereafter.
type Mode int

const (
	// ModeRotationVector decodes a rotation-vector sensor directly.
	ModeRotationVector Mode = iota
	// ModeAccelMag fuses accelerometer and magnetometer readings via a
	// gravity/magnetic-field rotation-matrix solve.
	ModeAccelMag
)

// Estimator holds the latest fused orientation. Updates come from the
// sensor producer; Current is cheap and safe from any goroutine.
type Estimator struct {
	mode Mode

	mu      sync.RWMutex
	current Sample

	accel    r3.Vec
	mag      r3.Vec
	hasAccel bool
	hasMag   bool
}

// New creates an estimator using the given fusion mode.
func New(mode Mode) *Estimator {
	return &Estimator{mode: mode}
}

// Mode returns the fusion mode fixed at construction.
func (e *Estimator) Mode() Mode {
	return e.mode
}

// Current returns the latest fused estimate. Before the first valid sensor
// input it returns the zero triple, never NaN.
func (e *Estimator) Current() Sample {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// UpdateRotationVector ingests a rotation-vector sensor event as a unit
// quaternion (x, y, z, w). Degenerate quaternions are ignored.
func (e *Estimator) UpdateRotationVector(x, y, z, w float64) {
	if e.mode != ModeRotationVector {
		return
	}
	n := math.Sqrt(x*x + y*y + z*z + w*w)
	if n < 1e-9 || math.IsNaN(n) {
		return
	}
	x, y, z, w = x/n, y/n, z/n, w/n

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	sinp := 2 * (w*y - z*x)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	e.store(Sample{
		Azimuth: geom.Normalize(yaw * 180 / math.Pi),
		Pitch:   pitch * 180 / math.Pi,
		Roll:    roll * 180 / math.Pi,
	})
}

// UpdateAccel ingests an accelerometer sample (device coordinates, any
// consistent unit). Recomputes the fused estimate if a magnetometer sample
// has also arrived.
func (e *Estimator) UpdateAccel(x, y, z float64) {
	if e.mode != ModeAccelMag {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accel = r3.Vec{X: x, Y: y, Z: z}
	e.hasAccel = true
	e.recomputeLocked()
}

// UpdateMag ingests a magnetometer sample (device coordinates).
func (e *Estimator) UpdateMag(x, y, z float64) {
	if e.mode != ModeAccelMag {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mag = r3.Vec{X: x, Y: y, Z: z}
	e.hasMag = true
	e.recomputeLocked()
}

// recomputeLocked solves the gravity/magnetic rotation matrix and extracts
// azimuth/pitch/roll. Keeps the last valid estimate while only one of the
// two inputs has arrived or the solve is degenerate (freefall, fields
// parallel). Caller must hold e.mu.
func (e *Estimator) recomputeLocked() {
	if !e.hasAccel || !e.hasMag {
		return
	}

	a := e.accel
	if r3.Norm(a) < 1e-6 {
		return
	}

	h := r3.Cross(e.mag, a)
	if r3.Norm(h) < 1e-6 {
		return
	}
	h = r3.Unit(h)
	an := r3.Unit(a)
	m := r3.Cross(an, h)

	// Rotation matrix rows are h, m, an; extract Euler angles the way the
	// platform sensor stack does.
	azimuth := math.Atan2(h.Y, m.Y)
	pitch := math.Asin(-geom.Clamp(an.Y, -1, 1))
	roll := math.Atan2(-an.X, an.Z)

	if math.IsNaN(azimuth) || math.IsNaN(pitch) || math.IsNaN(roll) {
		return
	}

	e.current = Sample{
		Azimuth: geom.Normalize(azimuth * 180 / math.Pi),
		Pitch:   pitch * 180 / math.Pi,
		Roll:    roll * 180 / math.Pi,
	}
}

func (e *Estimator) store(s Sample) {
	e.mu.Lock()
	e.current = s
	e.mu.Unlock()
}
