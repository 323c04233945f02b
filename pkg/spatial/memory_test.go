package spatial

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/pathsense/go-pathsense/pkg/orientation"
	"github.com/pathsense/go-pathsense/pkg/perception"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func centered(label string, conf float64) perception.Detection {
	// Box centered on a 1000x1000 frame: zero bearing/elevation offset.
	return perception.Detection{
		Label:      label,
		Box:        image.Rect(400, 400, 600, 600),
		Confidence: conf,
	}
}

func heading(azimuth float64) orientation.Sample {
	return orientation.Sample{Azimuth: azimuth}
}

func TestObserve_CreatesEntry(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("door", 0.8)}, 1000, 1000, heading(0), t0)

	objs := m.Snapshot()
	if len(objs) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objs))
	}
	o := objs[0]
	if o.Label != "door" || o.Sightings != 1 || !o.Visible {
		t.Errorf("unexpected entry: %+v", o)
	}
	if !floatClose(o.Confidence, 0.8) {
		t.Errorf("confidence: got %v, want detection confidence 0.8", o.Confidence)
	}
	if !floatClose(o.Azimuth, 0) {
		t.Errorf("azimuth: got %v, want 0", o.Azimuth)
	}
}

func TestObserve_ReSightingBoosts(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("door", 0.6)}, 1000, 1000, heading(0), t0)
	m.Observe([]perception.Detection{centered("door", 0.6)}, 1000, 1000, heading(0), t0.Add(time.Second))

	objs := m.Snapshot()
	if len(objs) != 1 {
		t.Fatalf("expected jittered sightings to merge, got %d entries", len(objs))
	}
	o := objs[0]
	if o.Sightings != 2 {
		t.Errorf("sightings: got %d, want 2", o.Sightings)
	}
	if o.Confidence < 0.6 {
		t.Errorf("confidence after re-sighting %v must not be below single sighting", o.Confidence)
	}
	if !floatClose(o.Confidence, 0.7) {
		t.Errorf("confidence: got %v, want 0.7", o.Confidence)
	}
}

func TestObserve_JitterMergesIntoOneBucket(t *testing.T) {
	m := New(DefaultConfig())
	// Two sightings 3 degrees apart (small heading jitter).
	m.Observe([]perception.Detection{centered("door", 0.6)}, 1000, 1000, heading(0), t0)
	m.Observe([]perception.Detection{centered("door", 0.6)}, 1000, 1000, heading(3), t0.Add(time.Second))

	if m.Len() != 1 {
		t.Errorf("expected merge across 3 degree jitter, got %d entries", m.Len())
	}
}

func TestObserve_DistinctBearingsCoexist(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("door", 0.6)}, 1000, 1000, heading(0), t0)
	m.Observe([]perception.Detection{centered("door", 0.6)}, 1000, 1000, heading(90), t0.Add(time.Second))

	if m.Len() != 2 {
		t.Errorf("expected two same-label objects at different bearings, got %d", m.Len())
	}
}

func TestObserve_MarksUnseenInvisible(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("door", 0.8)}, 1000, 1000, heading(0), t0)
	m.Observe(nil, 1000, 1000, heading(0), t0.Add(time.Second))

	o := m.Snapshot()[0]
	if o.Visible {
		t.Error("entry not re-observed must be invisible")
	}
}

func TestDecayAndPrune_HorizonRemoval(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("door", 1.0)}, 1000, 1000, heading(0), t0)

	m.DecayAndPrune(t0.Add(61 * time.Second))
	if _, ok := m.Query("door", heading(0)); ok {
		t.Error("entry past the 60s horizon must be gone")
	}
}

func TestDecayAndPrune_ConfidenceFloor(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("door", 0.3)}, 1000, 1000, heading(0), t0)
	m.Observe(nil, 1000, 1000, heading(0), t0) // mark invisible

	// 0.3 * 0.98^40 = 0.133 < 0.15
	m.DecayAndPrune(t0.Add(40 * time.Second))
	if m.Len() != 0 {
		t.Errorf("entry below confidence floor must be pruned, %d left", m.Len())
	}
}

func TestDecayAndPrune_TrustedObjectsDecaySlower(t *testing.T) {
	cfg := DefaultConfig()
	fresh := New(cfg)
	trusted := New(cfg)

	fresh.Observe([]perception.Detection{centered("door", 0.9)}, 1000, 1000, heading(0), t0)
	for i := 0; i < 7; i++ {
		trusted.Observe([]perception.Detection{centered("door", 0.9)}, 1000, 1000, heading(0), t0)
	}
	// Both invisible from here on.
	fresh.Observe(nil, 1000, 1000, heading(0), t0)
	trusted.Observe(nil, 1000, 1000, heading(0), t0)

	later := t0.Add(30 * time.Second)
	fresh.DecayAndPrune(later)
	trusted.DecayAndPrune(later)

	fg, fok := fresh.Query("door", heading(0))
	tg, tok := trusted.Query("door", heading(0))
	if !tok {
		t.Fatal("trusted entry must survive 30s")
	}
	if fok && fg.Confidence >= tg.Confidence {
		t.Errorf("trusted entry should retain more confidence: fresh %v vs trusted %v",
			fg.Confidence, tg.Confidence)
	}
}

func TestQuery_AzimuthDifferenceAndDescription(t *testing.T) {
	m := New(DefaultConfig())
	// Object at azimuth 90 while the user now faces 0.
	m.Observe([]perception.Detection{centered("door", 0.9)}, 1000, 1000, heading(90), t0)

	g, ok := m.Query("door", heading(0))
	if !ok {
		t.Fatal("expected guidance")
	}
	if !floatClose(g.AzimuthDiff, 90) {
		t.Errorf("AzimuthDiff: got %v, want 90", g.AzimuthDiff)
	}
	if g.Description != "to your right" {
		t.Errorf("Description: got %q, want %q", g.Description, "to your right")
	}
}

func TestQuery_CaseInsensitiveAndBestConfidence(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("Door", 0.5)}, 1000, 1000, heading(0), t0)
	m.Observe([]perception.Detection{centered("door", 0.9)}, 1000, 1000, heading(90), t0)

	g, ok := m.Query("DOOR", heading(0))
	if !ok {
		t.Fatal("expected guidance")
	}
	if !floatClose(g.AzimuthDiff, 90) {
		t.Errorf("expected the higher-confidence entry at 90, got diff %v", g.AzimuthDiff)
	}
}

func TestQuery_ElevationCue(t *testing.T) {
	m := New(DefaultConfig())
	// Detection near the top of the frame: elevation well above center.
	d := perception.Detection{Label: "exit sign", Box: image.Rect(450, 0, 550, 100), Confidence: 0.9}
	m.Observe([]perception.Detection{d}, 1000, 1000, heading(0), t0)

	g, ok := m.Query("exit sign", heading(0))
	if !ok {
		t.Fatal("expected guidance")
	}
	if g.Description != "ahead and above" {
		t.Errorf("Description: got %q, want %q", g.Description, "ahead and above")
	}
}

func TestClear(t *testing.T) {
	m := New(DefaultConfig())
	m.Observe([]perception.Detection{centered("door", 0.9)}, 1000, 1000, heading(0), t0)
	m.Clear()
	if m.Len() != 0 {
		t.Error("Clear must empty the registry")
	}
	if _, ok := m.Query("door", heading(0)); ok {
		t.Error("Query must miss after Clear")
	}
}

func TestDescribe_Bands(t *testing.T) {
	cases := []struct {
		az   float64
		want string
	}{
		{0, "ahead"},
		{-20, "slightly left"},
		{20, "slightly right"},
		{90, "to your right"},
		{-90, "to your left"},
		{130, "behind right"},
		{-130, "behind left"},
		{175, "behind you"},
		{180, "behind you"},
	}
	for _, c := range cases {
		if got := describe(c.az, 0, 10); got != c.want {
			t.Errorf("describe(%v): got %q, want %q", c.az, got, c.want)
		}
	}
}

func floatClose(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
