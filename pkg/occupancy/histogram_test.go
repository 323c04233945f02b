package occupancy

import (
	"image"
	"testing"
)

func anchor(w, h int) image.Point {
	return image.Pt(w/2, h*85/100)
}

func TestBuild_OpenFloorScoresZero(t *testing.T) {
	m := NewMask(640, 480)
	m.Fill(1, 1)

	b := NewBuilder(DefaultConfig())
	hist, err := b.Build(m, anchor(640, 480))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, score := range hist {
		if score != 0 {
			t.Errorf("sector %d: got %v, want 0 on open floor", i, score)
		}
	}
}

func TestBuild_FullyBlockedScoresOne(t *testing.T) {
	m := NewMask(640, 480)
	m.Fill(0, 1)

	b := NewBuilder(DefaultConfig())
	hist, err := b.Build(m, anchor(640, 480))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	sampled := 0
	for i, score := range hist {
		if score == 0 {
			continue // sector out of image bounds, keeps zero by contract
		}
		sampled++
		if score != 1 {
			t.Errorf("sector %d: got %v, want 1 on blocked floor", i, score)
		}
	}
	if sampled == 0 {
		t.Fatal("no sector received samples")
	}
	// The forward sector must be sampled from the user anchor.
	if hist[SectorFor(0)] != 1 {
		t.Errorf("forward sector: got %v, want 1", hist[SectorFor(0)])
	}
}

func TestBuild_UncoveredPixelsCountAsBlocked(t *testing.T) {
	m := NewMask(640, 480)
	m.Fill(1, 0) // walkable but zero coverage = no opinion

	b := NewBuilder(DefaultConfig())
	hist, err := b.Build(m, anchor(640, 480))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if hist[SectorFor(0)] != 1 {
		t.Errorf("uncovered forward sector: got %v, want 1", hist[SectorFor(0)])
	}
}

func TestBuild_ObstacleOnOneSide(t *testing.T) {
	m := NewMask(640, 480)
	m.Fill(1, 1)
	// Block the right half of the frame above the user.
	m.FillRect(image.Rect(340, 0, 640, 480), 0, 1)

	b := NewBuilder(DefaultConfig())
	hist, err := b.Build(m, anchor(640, 480))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	right := hist[SectorFor(45)]
	left := hist[SectorFor(315)]
	if right <= left {
		t.Errorf("expected right sector more occupied: right=%v left=%v", right, left)
	}
	if left > 0.2 {
		t.Errorf("left sector should stay mostly free, got %v", left)
	}
}

func TestBuild_SmoothsTextureNoise(t *testing.T) {
	m := NewMask(640, 480)
	// Checkerboard of walkable / barely-walkable pixels: a textured but
	// contiguous floor. After bilinear downsampling the average should read
	// walkable nearly everywhere.
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			if (x+y)%2 == 0 {
				m.Set(x, y, 1, 1)
			} else {
				m.Set(x, y, 0.45, 1)
			}
		}
	}

	b := NewBuilder(DefaultConfig())
	hist, err := b.Build(m, anchor(640, 480))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if score := hist[SectorFor(0)]; score > 0.1 {
		t.Errorf("textured floor read as obstacle: forward score %v", score)
	}
}

func TestBuild_MalformedMask(t *testing.T) {
	m := &Mask{Width: 640, Height: 480, Walkability: make([]float32, 10), Coverage: make([]float32, 10)}
	b := NewBuilder(DefaultConfig())
	if _, err := b.Build(m, image.Pt(320, 400)); err == nil {
		t.Fatal("expected error for malformed mask")
	}

	empty := &Mask{}
	if _, err := b.Build(empty, image.Pt(0, 0)); err == nil {
		t.Fatal("expected error for empty mask")
	}
}

func TestSectorHelpers(t *testing.T) {
	if SectorFor(0) != 0 {
		t.Errorf("SectorFor(0) = %d", SectorFor(0))
	}
	if SectorFor(359.9) != Sectors-1 {
		t.Errorf("SectorFor(359.9) = %d", SectorFor(359.9))
	}
	if SectorCenter(0) != SectorWidth/2 {
		t.Errorf("SectorCenter(0) = %v", SectorCenter(0))
	}
	if Neighbor(0, -1) != Sectors-1 {
		t.Errorf("Neighbor(0,-1) = %d", Neighbor(0, -1))
	}
	if Neighbor(Sectors-1, 1) != 0 {
		t.Errorf("Neighbor(35,1) = %d", Neighbor(Sectors-1, 1))
	}
}
