// Package steering chooses a travel bearing from the obstacle histogram,
// the target bearing, and the previous cycle's choice. Hysteresis and
// exponential smoothing keep the decision stable across cycles even when
// the histogram flickers.
package steering

import (
	"github.com/pathsense/go-pathsense/pkg/geom"
	"github.com/pathsense/go-pathsense/pkg/occupancy"
)

// Danger levels reported alongside the chosen bearing.
const (
	DangerNone    = 0
	DangerCaution = 1
	DangerBlocked = 2
)

// Config holds the tunable parameters of the selector. The defaults are
// empirically chosen; validate changes against the selector tests rather
// than treating the literals as invariants.
type Config struct {
	FreeThreshold   float64 // occupancy below this makes a sector a candidate
	TargetWeight    float64 // weight of angular distance to target in the cost
	HysteresisBonus float64 // cost discount for keeping the previous sector
	SmoothingAlpha  float64 // exponential filter weight on the new bearing
	DangerHigh      float64 // mean neighborhood occupancy above this = blocked
	DangerLow       float64 // above this = caution
}

// DefaultConfig returns the recommended selector parameters.
func DefaultConfig() Config {
	return Config{
		FreeThreshold:   0.3,
		TargetWeight:    2.0,
		HysteresisBonus: 0.5,
		SmoothingAlpha:  0.3,
		DangerHigh:      0.2,
		DangerLow:       0.1,
	}
}

// State is the cross-cycle mutable state of direction selection: the
// previously chosen sector (hysteresis) and the smoothed bearing. It must
// be reset whenever navigation stops or the user arrives, or stale values
// will bias the first decisions of the next session.
type State struct {
	PrevSector      int // -1 = none
	SmoothedBearing float64
	HasSmoothed     bool
}

// NewState returns a fresh selection state.
func NewState() *State {
	return &State{PrevSector: -1}
}

// Reset returns the state to its initial values.
func (s *State) Reset() {
	s.PrevSector = -1
	s.SmoothedBearing = 0
	s.HasSmoothed = false
}

// Clone returns an independent copy. The engine selects into a copy and
// commits it only when the whole cycle succeeds.
func (s *State) Clone() *State {
	c := *s
	return &c
}

// Selector picks steering bearings. It is stateless; all cross-cycle state
// lives in the State value passed to Select.
type Selector struct {
	cfg Config
}

// NewSelector creates a selector with the given parameters.
func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg}
}

// Select chooses a bearing toward targetBearing that avoids occupied
// sectors, applies hysteresis against st.PrevSector, smooths the result,
// and mutates st. Returns the smoothed bearing and a danger level.
//
// When every sector is at or above the free threshold there is no
// candidate: the least-occupied sector is returned raw (no hysteresis, no
// smoothing) with DangerBlocked so the command layer can react instantly.
func (sel *Selector) Select(h *occupancy.Histogram, targetBearing float64, st *State) (float64, int) {
	best := -1
	bestCost := 0.0
	for i, score := range h {
		if score >= sel.cfg.FreeThreshold {
			continue
		}
		cost := sel.cfg.TargetWeight*(geom.AngularDistance(occupancy.SectorCenter(i), targetBearing)/180) + score
		if i == st.PrevSector {
			cost -= sel.cfg.HysteresisBonus
		}
		if best == -1 || cost < bestCost {
			best = i
			bestCost = cost
		}
	}

	if best == -1 {
		least := 0
		for i := 1; i < occupancy.Sectors; i++ {
			if h[i] < h[least] {
				least = i
			}
		}
		bearing := occupancy.SectorCenter(least)
		st.PrevSector = least
		st.SmoothedBearing = bearing
		st.HasSmoothed = true
		return bearing, DangerBlocked
	}

	st.PrevSector = best
	bearing := sel.smooth(occupancy.SectorCenter(best), st)
	return bearing, sel.danger(h, best)
}

// danger derives the danger level from the mean occupancy of the chosen
// sector and its two angular neighbors.
func (sel *Selector) danger(h *occupancy.Histogram, sector int) int {
	mean := (h[sector] + h[occupancy.Neighbor(sector, -1)] + h[occupancy.Neighbor(sector, 1)]) / 3
	switch {
	case mean > sel.cfg.DangerHigh:
		return DangerBlocked
	case mean > sel.cfg.DangerLow:
		return DangerCaution
	default:
		return DangerNone
	}
}

// smooth low-pass-filters the chosen bearing along the shortest angular
// path, avoiding wraparound discontinuities at 0/360.
func (sel *Selector) smooth(bearing float64, st *State) float64 {
	if !st.HasSmoothed {
		st.SmoothedBearing = bearing
		st.HasSmoothed = true
		return bearing
	}
	st.SmoothedBearing = geom.Normalize(
		st.SmoothedBearing + sel.cfg.SmoothingAlpha*geom.SignedDelta(st.SmoothedBearing, bearing))
	return st.SmoothedBearing
}
