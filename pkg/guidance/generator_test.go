package guidance

import (
	"image"
	"testing"

	"github.com/pathsense/go-pathsense/pkg/spatial"
)

func gen() *Generator {
	return NewGenerator(DefaultConfig())
}

func TestOffScreen_Bands(t *testing.T) {
	cases := []struct {
		diff float64
		want string
	}{
		{0, CmdGoStraight},
		{9.9, CmdGoStraight},
		{-9.9, CmdGoStraight},
		{15, "Bear right."},
		{-15, "Bear left."},
		{45, "Turn right."},
		{-45, "Turn left."},
		{90, "Turn right."}, // 90 inclusive
		{-90, "Turn left."},
		{120, "Sharp right."},
		{-120, "Sharp left."},
		{135, "Sharp right."},
		{170, CmdTurnAround},
		{-170, CmdTurnAround},
		{180, CmdTurnAround},
	}
	for _, c := range cases {
		d := gen().OffScreen(spatial.Guidance{AzimuthDiff: c.diff})
		if d.Command != c.want {
			t.Errorf("diff %v: got %q, want %q", c.diff, d.Command, c.want)
		}
		if d.Mode != ModeOffScreen {
			t.Errorf("diff %v: mode %v", c.diff, d.Mode)
		}
		if len(d.Path) != 0 {
			t.Errorf("off-screen guidance must not carry a path")
		}
	}
}

func TestOnScreen_CenteredGoForward(t *testing.T) {
	// Target exactly on the screen center, no danger.
	d := gen().OnScreen(image.Pt(500, 300), 1000, 1000, 0, 0)
	if d.Command != CmdGoForward {
		t.Errorf("command: got %q, want %q", d.Command, CmdGoForward)
	}
	if !d.Centered {
		t.Error("target on center must report centered")
	}
}

func TestOnScreen_ForwardProgressByDanger(t *testing.T) {
	cases := []struct {
		danger int
		want   string
	}{
		{0, CmdGoForward},
		{1, CmdGoForwardCarefully},
		{2, CmdPathBlocked},
	}
	for _, c := range cases {
		d := gen().OnScreen(image.Pt(500, 300), 1000, 1000, 0, c.danger)
		if d.Command != c.want {
			t.Errorf("danger %d: got %q, want %q", c.danger, d.Command, c.want)
		}
	}
}

func TestOnScreen_FarRightTurns(t *testing.T) {
	// Box center at 95% of a 1000px frame: error 0.9 of half-width.
	d := gen().OnScreen(image.Pt(950, 300), 1000, 1000, 0, 0)
	if d.Command != "Turn right." {
		t.Errorf("command: got %q, want %q", d.Command, "Turn right.")
	}
	if d.Centered {
		t.Error("far-right target must not report centered")
	}
}

func TestOnScreen_CenteringLadder(t *testing.T) {
	cases := []struct {
		x    int
		want string
	}{
		{950, "Turn right."}, // error 0.90
		{50, "Turn left."},   // error -0.90
		{550, "Bear right."}, // error 0.10
		{450, "Bear left."},  // error -0.10
		{515, CmdCenter},     // error 0.03
		{505, CmdGoForward},  // error 0.01
	}
	for _, c := range cases {
		d := gen().OnScreen(image.Pt(c.x, 300), 1000, 1000, 0, 0)
		if d.Command != c.want {
			t.Errorf("x=%d: got %q, want %q", c.x, d.Command, c.want)
		}
	}
}

func TestOnScreen_DangerPrefix(t *testing.T) {
	d := gen().OnScreen(image.Pt(950, 300), 1000, 1000, 0, 2)
	if d.Command != PrefixBlocked+"Turn right." {
		t.Errorf("got %q", d.Command)
	}
	d = gen().OnScreen(image.Pt(950, 300), 1000, 1000, 0, 1)
	if d.Command != PrefixCareful+"Turn right." {
		t.Errorf("got %q", d.Command)
	}
}

func TestOnScreen_PathShape(t *testing.T) {
	g := gen()
	target := image.Pt(500, 200)
	d := g.OnScreen(target, 1000, 1000, 0, 0)

	if len(d.Path) < 3 {
		t.Fatalf("expected polyline, got %d points", len(d.Path))
	}
	if d.Path[0] != g.UserAnchor(1000, 1000) {
		t.Errorf("path must start at the user anchor, got %v", d.Path[0])
	}
	if d.Path[len(d.Path)-1] != target {
		t.Errorf("path must end at the target, got %v", d.Path[len(d.Path)-1])
	}
}

func TestOnScreen_PathCurvesTowardSteeredBearing(t *testing.T) {
	g := gen()
	target := image.Pt(500, 200) // straight ahead of the anchor

	straight := g.OnScreen(target, 1000, 1000, 0, 0)
	steered := g.OnScreen(target, 1000, 1000, 45, 0) // selector says bear right

	mid := len(steered.Path) / 4
	if steered.Path[mid].X <= straight.Path[mid].X {
		t.Errorf("path should bow toward the steered bearing: steered x=%d straight x=%d",
			steered.Path[mid].X, straight.Path[mid].X)
	}
	// Both end at the target regardless of curvature.
	if steered.Path[len(steered.Path)-1] != target {
		t.Error("curved path must still converge on the target")
	}
}

func TestArrived(t *testing.T) {
	g := gen()
	target := image.Pt(510, 840)
	d := g.Arrived(target, 1000, 1000)
	if d.Command != CmdArrived || d.Mode != ModeArrived {
		t.Errorf("unexpected decision %+v", d)
	}
	if len(d.Path) != 2 || d.Path[0] != g.UserAnchor(1000, 1000) || d.Path[1] != target {
		t.Errorf("expected direct two-point path, got %v", d.Path)
	}
}

func TestWithinArrival(t *testing.T) {
	g := gen()
	// Anchor is (500, 850) on a 1000x1000 frame.
	if !g.WithinArrival(image.Pt(500, 710), 1000, 1000) {
		t.Error("140px away must be within arrival range")
	}
	if g.WithinArrival(image.Pt(500, 450), 1000, 1000) {
		t.Error("400px away must not be within arrival range")
	}
	if g.WithinArrival(image.Pt(500, 700), 1000, 1000) {
		t.Error("exactly 150px must not count as arrival")
	}
}

func TestIsStatus(t *testing.T) {
	for _, cmd := range []string{CmdSearching, CmdAnalyzing, CmdError, ""} {
		if !IsStatus(cmd) {
			t.Errorf("%q must be a status", cmd)
		}
	}
	for _, cmd := range []string{CmdGoForward, CmdArrived, "Turn left.", PrefixBlocked + "Turn right."} {
		if IsStatus(cmd) {
			t.Errorf("%q must be actionable", cmd)
		}
	}
}

func TestModeString(t *testing.T) {
	if ModeSearching.String() != "searching" || ModeArrived.String() != "arrived" {
		t.Error("unexpected mode names")
	}
	if Mode(99).String() != "unknown" {
		t.Error("unknown mode name")
	}
}

func TestSynthesizePath_ZeroLength(t *testing.T) {
	g := gen()
	p := g.synthesizePath(image.Pt(500, 850), image.Pt(500, 850), 0)
	if len(p) != 2 {
		t.Errorf("degenerate path: got %d points", len(p))
	}
}
