// Package nav orchestrates the per-cycle navigation decision: it picks
// between on-screen visual servoing and off-screen spatial-memory
// guidance, detects arrival, and degrades failures to status commands so
// the announcement layer always has something sayable.
package nav

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pathsense/go-pathsense/internal/log"
	"github.com/pathsense/go-pathsense/pkg/geom"
	"github.com/pathsense/go-pathsense/pkg/guidance"
	"github.com/pathsense/go-pathsense/pkg/occupancy"
	"github.com/pathsense/go-pathsense/pkg/orientation"
	"github.com/pathsense/go-pathsense/pkg/perception"
	"github.com/pathsense/go-pathsense/pkg/spatial"
	"github.com/pathsense/go-pathsense/pkg/steering"
)

// State is the coordinator state machine.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateOffScreen
	StateOnScreen
	StateArrived
)

// String returns the state name for logs and the dashboard.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateOffScreen:
		return "offscreen"
	case StateOnScreen:
		return "onscreen"
	case StateArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// Config holds engine-level parameters. Component parameters live in the
// respective package configs.
type Config struct {
	MemoryInterval time.Duration // spatial memory Observe/DecayAndPrune cadence

	Memory    spatial.Config
	Histogram occupancy.Config
	Steering  steering.Config
	Guidance  guidance.Config
}

// DefaultConfig returns the recommended engine configuration.
func DefaultConfig() Config {
	return Config{
		MemoryInterval: 500 * time.Millisecond,
		Memory:         spatial.DefaultConfig(),
		Histogram:      occupancy.DefaultConfig(),
		Steering:       steering.DefaultConfig(),
		Guidance:       guidance.DefaultConfig(),
	}
}

// CycleInput is one cycle's worth of sensing data, produced by the
// perception pipeline.
type CycleInput struct {
	Detections []perception.Detection
	Mask       *occupancy.Mask // nil when not yet computed
	Width      int
	Height     int
	Now        time.Time
}

// Result is the engine's per-cycle output.
type Result struct {
	State    State
	Command  string
	Path     []Point
	Danger   int
	Centered bool
	Arrived  bool // one-shot arrival signal
	Session  string
}

// Point aliases image points for JSON-friendly path output.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Engine fuses one cycle of sensing into a steering decision. At most one
// cycle is in flight at a time; cycles arriving while one runs are dropped
// rather than queued, because stale frames are worse than missed ones.
type Engine struct {
	cfg Config

	orient   *orientation.Estimator
	memory   *spatial.Memory
	builder  *occupancy.Builder
	selector *steering.Selector
	gen      *guidance.Generator

	inFlight atomic.Bool

	mu             sync.Mutex
	state          State
	target         string
	session        string
	selState       *steering.State
	lastMemoryTick time.Time
	arrivedLatch   bool
}

// New creates an engine reading orientation from the given estimator.
func New(cfg Config, orient *orientation.Estimator) *Engine {
	if cfg.MemoryInterval <= 0 {
		cfg.MemoryInterval = 500 * time.Millisecond
	}
	return &Engine{
		cfg:      cfg,
		orient:   orient,
		memory:   spatial.New(cfg.Memory),
		builder:  occupancy.NewBuilder(cfg.Histogram),
		selector: steering.NewSelector(cfg.Steering),
		gen:      guidance.NewGenerator(cfg.Guidance),
		state:    StateIdle,
		selState: steering.NewState(),
	}
}

// Memory exposes the spatial registry for display snapshots.
func (e *Engine) Memory() *spatial.Memory {
	return e.memory
}

// State returns the current coordinator state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Target returns the active target label, empty when idle.
func (e *Engine) Target() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// Start begins a navigation session toward the given target label and
// returns the session ID. Restarting replaces the current session and
// resets all selection state.
func (e *Engine) Start(target string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.target = target
	e.session = uuid.NewString()
	e.state = StateSearching
	e.selState.Reset()
	e.arrivedLatch = false
	e.lastMemoryTick = time.Time{}

	log.Info("navigation started", "target", target, "session", e.session)
	return e.session
}

// Stop ends navigation immediately. Idempotent: memory is cleared and
// selection state reset synchronously, so a later restart never observes
// residual state.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		log.Info("navigation stopped", "session", e.session)
	}
	e.state = StateIdle
	e.target = ""
	e.session = ""
	e.arrivedLatch = false
	e.selState.Reset()
	e.memory.Clear()
}

// Cycle runs one decision cycle. ok is false when the cycle was dropped:
// the engine is idle or a previous cycle is still in flight.
func (e *Engine) Cycle(in CycleInput) (res Result, ok bool) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return Result{}, false
	}
	defer e.inFlight.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle {
		return Result{}, false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("navigation cycle failed", "panic", r, "session", e.session)
			res = e.resultFrom(guidance.Decision{Mode: guidance.ModeSearching, Command: guidance.CmdError})
			res.State = e.state
			ok = true
		}
	}()

	return e.cycleLocked(in), true
}

func (e *Engine) cycleLocked(in CycleInput) Result {
	heading := e.orient.Current()

	// Spatial memory bookkeeping runs on its own, slower cadence so high
	// frame rates do not inflate its cost.
	if in.Now.Sub(e.lastMemoryTick) >= e.cfg.MemoryInterval {
		e.memory.Observe(in.Detections, in.Width, in.Height, heading, in.Now)
		e.memory.DecayAndPrune(in.Now)
		e.lastMemoryTick = in.Now
	}

	if det := perception.SelectTarget(in.Detections, e.target); det != nil {
		return e.onScreen(in, det)
	}

	// Target out of view: release the arrival latch and fall back to
	// spatial memory.
	e.arrivedLatch = false

	if gd, found := e.memory.Query(e.target, heading); found {
		e.state = StateOffScreen
		return e.resultFrom(e.gen.OffScreen(gd))
	}

	e.state = StateSearching
	return e.resultFrom(e.gen.Searching())
}

func (e *Engine) onScreen(in CycleInput, det *perception.Detection) Result {
	center := det.Center()

	if e.gen.WithinArrival(center, in.Width, in.Height) {
		first := !e.arrivedLatch
		e.arrivedLatch = true
		e.state = StateArrived
		if first {
			e.selState.Reset()
		}
		res := e.resultFrom(e.gen.Arrived(center, in.Width, in.Height))
		res.Arrived = first
		return res
	}

	// Moved back out of arrival range: the latch re-arms.
	e.arrivedLatch = false
	e.state = StateOnScreen

	if in.Mask == nil {
		return e.resultFrom(e.gen.AnalyzingFloor())
	}

	anchor := e.gen.UserAnchor(in.Width, in.Height)
	hist, err := e.builder.Build(in.Mask, anchor)
	if err != nil {
		log.Warn("histogram build failed", "error", err, "session", e.session)
		res := e.resultFrom(guidance.Decision{Mode: guidance.ModeOnScreen, Command: guidance.CmdError})
		return res
	}

	targetBearing := geom.VectorToBearing(
		float64(center.X-anchor.X), float64(center.Y-anchor.Y))

	// Select into a copy; commit only if the rest of the cycle succeeds,
	// so a failure cannot leave half-updated hysteresis state behind.
	st := e.selState.Clone()
	steered, danger := e.selector.Select(hist, targetBearing, st)
	dec := e.gen.OnScreen(center, in.Width, in.Height, steered, danger)
	e.selState = st

	return e.resultFrom(dec)
}

func (e *Engine) resultFrom(dec guidance.Decision) Result {
	path := make([]Point, len(dec.Path))
	for i, p := range dec.Path {
		path[i] = Point{X: p.X, Y: p.Y}
	}
	return Result{
		State:    e.state,
		Command:  dec.Command,
		Path:     path,
		Danger:   dec.Danger,
		Centered: dec.Centered,
		Session:  e.session,
	}
}
