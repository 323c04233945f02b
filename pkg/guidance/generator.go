package guidance

import (
	"image"
	"math"

	"github.com/pathsense/go-pathsense/pkg/geom"
	"github.com/pathsense/go-pathsense/pkg/spatial"
)

// Decision is the output of one guidance cycle.
type Decision struct {
	Mode     Mode
	Command  string
	Path     []image.Point // empty when no path applies
	Danger   int
	Centered bool
}

// Config holds the tunable command-generation parameters.
type Config struct {
	ArrivalRadius float64 // pixel distance to the target that counts as arrival
	UserAnchorY   float64 // user position as a fraction of frame height

	// Horizontal centering thresholds, as fractions of half-image-width.
	TurnRatio   float64 // beyond this, turn toward the target
	BearRatio   float64 // beyond this, bear toward the target
	CenterRatio float64 // beyond this, nudge; below it, forward progress

	// Off-screen turn-angle bands in degrees.
	StraightBand float64
	BearBand     float64
	TurnBand     float64
	SharpBand    float64

	PathPoints int // polyline resolution
}

// DefaultConfig returns the recommended command parameters.
func DefaultConfig() Config {
	return Config{
		ArrivalRadius: 150,
		UserAnchorY:   0.85,
		TurnRatio:     0.15,
		BearRatio:     0.05,
		CenterRatio:   0.02,
		StraightBand:  10,
		BearBand:      30,
		TurnBand:      90,
		SharpBand:     135,
		PathPoints:    12,
	}
}

// Generator renders guidance decisions. Stateless; arrival latching lives
// in the coordinator.
type Generator struct {
	cfg Config
}

// NewGenerator creates a generator with the given parameters.
func NewGenerator(cfg Config) *Generator {
	if cfg.PathPoints < 2 {
		cfg.PathPoints = 2
	}
	return &Generator{cfg: cfg}
}

// UserAnchor returns the assumed user position in the frame: horizontal
// center, near the bottom.
func (g *Generator) UserAnchor(imgW, imgH int) image.Point {
	return image.Pt(imgW/2, int(float64(imgH)*g.cfg.UserAnchorY))
}

// WithinArrival reports whether a target center is inside arrival range of
// the user anchor.
func (g *Generator) WithinArrival(target image.Point, imgW, imgH int) bool {
	anchor := g.UserAnchor(imgW, imgH)
	dx := float64(target.X - anchor.X)
	dy := float64(target.Y - anchor.Y)
	return math.Hypot(dx, dy) < g.cfg.ArrivalRadius
}

// Searching returns the non-actionable searching status.
func (g *Generator) Searching() Decision {
	return Decision{Mode: ModeSearching, Command: CmdSearching}
}

// AnalyzingFloor returns the status for an on-screen target whose
// walkability mask has not arrived yet. Not an error; the next cycle will
// have a mask.
func (g *Generator) AnalyzingFloor() Decision {
	return Decision{Mode: ModeOnScreen, Command: CmdAnalyzing}
}

// Error returns the degraded decision for an internal cycle failure.
func (g *Generator) Error() Decision {
	return Decision{Mode: ModeSearching, Command: CmdError}
}

// Arrived returns the arrival decision with a direct two-point path.
func (g *Generator) Arrived(target image.Point, imgW, imgH int) Decision {
	return Decision{
		Mode:     ModeArrived,
		Command:  CmdArrived,
		Path:     []image.Point{g.UserAnchor(imgW, imgH), target},
		Centered: true,
	}
}

// OffScreen derives a command purely from the remembered turn angle. No
// obstacle reasoning applies: there is no mask for an unseen bearing.
func (g *Generator) OffScreen(gd spatial.Guidance) Decision {
	abs := math.Abs(gd.AzimuthDiff)
	var cmd string
	switch {
	case abs < g.cfg.StraightBand:
		cmd = CmdGoStraight
	case abs < g.cfg.BearBand:
		cmd = bearCmd(gd.AzimuthDiff)
	case abs <= g.cfg.TurnBand:
		cmd = turnCmd(gd.AzimuthDiff)
	case abs <= g.cfg.SharpBand:
		cmd = sharpCmd(gd.AzimuthDiff)
	default:
		cmd = CmdTurnAround
	}
	return Decision{Mode: ModeOffScreen, Command: cmd}
}

// OnScreen derives a command for a currently visible target. Centering the
// target takes priority over forward progress; once centered the command
// is keyed by danger level alone. steered is the obstacle-avoiding bearing
// chosen by the direction selector, used to curve the visualized path.
func (g *Generator) OnScreen(target image.Point, imgW, imgH int, steered float64, danger int) Decision {
	anchor := g.UserAnchor(imgW, imgH)
	halfW := float64(imgW) / 2
	err := (float64(target.X) - halfW) / halfW

	d := Decision{
		Mode:     ModeOnScreen,
		Danger:   danger,
		Path:     g.synthesizePath(anchor, target, steered),
		Centered: math.Abs(err) <= g.cfg.BearRatio,
	}

	switch {
	case math.Abs(err) > g.cfg.TurnRatio:
		d.Command = dangerPrefix(danger) + turnCmd(err)
	case math.Abs(err) > g.cfg.BearRatio:
		d.Command = dangerPrefix(danger) + bearCmd(err)
	case math.Abs(err) > g.cfg.CenterRatio:
		d.Command = dangerPrefix(danger) + CmdCenter
	default:
		switch danger {
		case 2:
			d.Command = CmdPathBlocked
		case 1:
			d.Command = CmdGoForwardCarefully
		default:
			d.Command = CmdGoForward
		}
	}
	return d
}

// synthesizePath interpolates a polyline from the user anchor toward the
// target. Over the first half it blends the selector's steered bearing
// into the direct bearing, so the rendered path visibly curves around the
// suggested heading before converging on the target.
func (g *Generator) synthesizePath(anchor, target image.Point, steered float64) []image.Point {
	dx := float64(target.X - anchor.X)
	dy := float64(target.Y - anchor.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return []image.Point{anchor, target}
	}
	direct := geom.VectorToBearing(dx, dy)

	n := g.cfg.PathPoints
	step := length / float64(n)
	path := make([]image.Point, 0, n+1)
	path = append(path, anchor)

	x, y := float64(anchor.X), float64(anchor.Y)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		bearing := direct
		if t < 0.5 {
			w := (0.5 - t) / 0.5 // weight of the steered bearing, 1 -> 0
			bearing = geom.Normalize(direct + w*geom.SignedDelta(direct, steered))
		}
		vx, vy := geom.BearingToVector(bearing)
		x += vx * step
		y += vy * step
		path = append(path, image.Pt(int(math.Round(x)), int(math.Round(y))))
	}
	// Pin the endpoint to the target so the path always converges.
	path[len(path)-1] = target
	return path
}
