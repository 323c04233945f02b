// Package spatial maintains a decaying registry of previously seen objects
// keyed by label and approximate bearing, so the engine can keep guiding a
// user toward a target that has left the field of view. Coarse azimuth
// bucketing absorbs detector and heading jitter without real object
// re-identification; two same-label objects at different bearings coexist.
package spatial

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pathsense/go-pathsense/pkg/geom"
	"github.com/pathsense/go-pathsense/pkg/orientation"
	"github.com/pathsense/go-pathsense/pkg/perception"
)

// Camera field of view used to convert screen positions to bearings.
const (
	HorizontalFOV = 60.0
	VerticalFOV   = 45.0
	BucketWidth   = 10.0
)

// Config holds the tunable memory parameters.
type Config struct {
	SightingBoost    float64       // confidence added on each re-sighting
	DecayFactor      float64       // per-second confidence decay while unseen
	TrustedSightings int           // seen more often than this decays slower
	PruneThreshold   float64       // entries below this confidence are removed
	Horizon          time.Duration // entries older than this are removed
	ElevationCue     float64       // elevation delta before above/below is mentioned
}

// DefaultConfig returns the recommended memory parameters.
func DefaultConfig() Config {
	return Config{
		SightingBoost:    0.1,
		DecayFactor:      0.98,
		TrustedSightings: 5,
		PruneThreshold:   0.15,
		Horizon:          60 * time.Second,
		ElevationCue:     10,
	}
}

// Object is one remembered sighting cluster. Owned exclusively by Memory;
// Snapshot returns copies.
type Object struct {
	Label          string    `json:"label"`
	Azimuth        float64   `json:"azimuth"` // degrees, [0,360)
	Pitch          float64   `json:"pitch"`   // degrees
	DistanceBucket int       `json:"distance_bucket"` // 1..5, nearest = 1
	Confidence     float64   `json:"confidence"`
	LastSeen       time.Time `json:"last_seen"`
	Visible        bool      `json:"visible"`
	Sightings      int       `json:"sightings"`
}

type bucketKey struct {
	label  string
	bucket int
}

// Memory is the spatial object registry. Safe for concurrent use; the
// caller rate-limits Observe and DecayAndPrune to a fixed cadence, Query
// and Snapshot are cheap enough for every cycle.
type Memory struct {
	mu      sync.RWMutex
	cfg     Config
	objects map[bucketKey]*Object
}

// New creates an empty memory.
func New(cfg Config) *Memory {
	return &Memory{
		cfg:     cfg,
		objects: make(map[bucketKey]*Object),
	}
}

// Observe folds one cycle's detections into the registry. Every existing
// entry is first marked invisible; entries re-observed this call come back
// visible with boosted confidence and a refreshed timestamp.
func (m *Memory) Observe(dets []perception.Detection, imgW, imgH int, orient orientation.Sample, now time.Time) {
	if imgW <= 0 || imgH <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.objects {
		o.Visible = false
	}

	for _, d := range dets {
		c := d.Center()
		relBearing := (float64(c.X)/float64(imgW) - 0.5) * HorizontalFOV
		relElev := (0.5 - float64(c.Y)/float64(imgH)) * VerticalFOV

		azimuth := geom.Normalize(orient.Azimuth + relBearing)
		pitch := orient.Pitch + relElev
		bucket := azimuthBucket(azimuth)
		key := bucketKey{label: strings.ToLower(d.Label), bucket: bucket}

		if o, ok := m.objects[key]; ok {
			o.Sightings++
			o.Confidence = math.Min(1, o.Confidence+m.cfg.SightingBoost)
			o.Azimuth = azimuth
			o.Pitch = pitch
			o.DistanceBucket = distanceBucket(d.Box.Dy(), imgH)
			o.LastSeen = now
			o.Visible = true
			continue
		}

		m.objects[key] = &Object{
			Label:          d.Label,
			Azimuth:        azimuth,
			Pitch:          pitch,
			DistanceBucket: distanceBucket(d.Box.Dy(), imgH),
			Confidence:     geom.Clamp(d.Confidence, 0, 1),
			LastSeen:       now,
			Visible:        true,
			Sightings:      1,
		}
	}
}

// DecayAndPrune decays the confidence of every invisible entry and removes
// entries that fell below the prune threshold or aged past the horizon.
// Entries confirmed more than TrustedSightings times decay at a slower,
// square-root rate; repeated confirmation is stronger evidence than a
// single sighting.
func (m *Memory) DecayAndPrune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, o := range m.objects {
		age := now.Sub(o.LastSeen)
		if age > m.cfg.Horizon {
			delete(m.objects, key)
			continue
		}

		if !o.Visible {
			elapsed := age.Seconds()
			if elapsed > 0 {
				exponent := elapsed
				if o.Sightings > m.cfg.TrustedSightings {
					exponent = math.Sqrt(elapsed)
				}
				o.Confidence *= math.Pow(m.cfg.DecayFactor, exponent)
			}
		}

		if o.Confidence < m.cfg.PruneThreshold {
			delete(m.objects, key)
		}
	}
}

// Query returns directional guidance toward the highest-confidence entry
// matching label, relative to the current heading.
func (m *Memory) Query(label string, heading orientation.Sample) (Guidance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *Object
	for _, o := range m.objects {
		if !strings.EqualFold(o.Label, label) {
			continue
		}
		if best == nil || o.Confidence > best.Confidence {
			best = o
		}
	}
	if best == nil {
		return Guidance{}, false
	}

	azDiff := geom.SignedDelta(heading.Azimuth, best.Azimuth)
	elevDiff := best.Pitch - heading.Pitch
	return Guidance{
		Label:          best.Label,
		AzimuthDiff:    azDiff,
		ElevationDiff:  elevDiff,
		Description:    describe(azDiff, elevDiff, m.cfg.ElevationCue),
		Visible:        best.Visible,
		Confidence:     best.Confidence,
		DistanceBucket: best.DistanceBucket,
	}, true
}

// Snapshot returns copies of all tracked objects, highest confidence
// first, for display.
func (m *Memory) Snapshot() []Object {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Object, 0, len(m.objects))
	for _, o := range m.objects {
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Confidence > result[j].Confidence
	})
	return result
}

// Len returns the number of tracked objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Clear empties all state. Called when navigation stops.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = make(map[bucketKey]*Object)
}

// azimuthBucket rounds an azimuth to the nearest 10-degree bucket index.
func azimuthBucket(azimuth float64) int {
	buckets := int(360 / BucketWidth)
	return int(math.Round(azimuth/BucketWidth)) % buckets
}

// distanceBucket estimates coarse distance from the apparent height of the
// bounding box: 1 (nearest) through 5 (farthest).
func distanceBucket(boxH, imgH int) int {
	if imgH <= 0 || boxH <= 0 {
		return 5
	}
	frac := float64(boxH) / float64(imgH)
	switch {
	case frac >= 0.5:
		return 1
	case frac >= 0.35:
		return 2
	case frac >= 0.2:
		return 3
	case frac >= 0.1:
		return 4
	default:
		return 5
	}
}
