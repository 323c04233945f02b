// Simulator: replays a synthetic walk toward a target through the full
// decision engine and prints the command stream. Useful for tuning
// thresholds without a camera or models.
package main

import (
	"flag"
	"fmt"
	"image"
	"time"

	"github.com/pathsense/go-pathsense/internal/log"
	"github.com/pathsense/go-pathsense/pkg/nav"
	"github.com/pathsense/go-pathsense/pkg/occupancy"
	"github.com/pathsense/go-pathsense/pkg/orientation"
	"github.com/pathsense/go-pathsense/pkg/perception"
)

const (
	frameW = 1000
	frameH = 1000
)

// step is one simulated frame.
type step struct {
	note string
	dets []perception.Detection
	mask *occupancy.Mask
}

func main() {
	target := flag.String("target", "door", "Target label to navigate toward")
	interval := flag.Duration("interval", 200*time.Millisecond, "Simulated cycle interval")
	flag.Parse()

	log.Init("warn")

	estimator := orientation.New(orientation.ModeRotationVector)
	engine := nav.New(nav.DefaultConfig(), estimator)
	engine.Start(*target)

	now := time.Now()
	for i, s := range script(*target) {
		res, ok := engine.Cycle(nav.CycleInput{
			Detections: s.dets,
			Mask:       s.mask,
			Width:      frameW,
			Height:     frameH,
			Now:        now,
		})
		now = now.Add(*interval)
		if !ok {
			continue
		}

		arrived := ""
		if res.Arrived {
			arrived = "  <- arrived"
		}
		fmt.Printf("%2d %-28s %-10s danger=%d  %q%s\n",
			i, s.note, res.State, res.Danger, res.Command, arrived)
	}

	engine.Stop()
}

// script builds the simulated walk: search, first sighting far right,
// centering, an obstacle forcing a detour, then arrival.
func script(label string) []step {
	det := func(cx, cy int) []perception.Detection {
		return []perception.Detection{{
			Label:      label,
			Box:        image.Rect(cx-80, cy-80, cx+80, cy+80),
			Confidence: 0.9,
		}}
	}

	open := occupancy.NewMask(frameW, frameH)
	open.Fill(1, 1)

	// A cabinet juts into the path ahead of the user anchor.
	blocked := occupancy.NewMask(frameW, frameH)
	blocked.Fill(1, 1)
	blocked.FillRect(image.Rect(380, 500, 620, 700), 0, 1)

	steps := []step{
		{note: "empty hallway", mask: open},
		{note: "still searching", mask: open},
	}
	for i := 0; i < 3; i++ {
		steps = append(steps, step{note: "door far right", dets: det(900, 400), mask: open})
	}
	for i := 0; i < 3; i++ {
		steps = append(steps, step{note: "door right of center", dets: det(650, 400), mask: open})
	}
	for i := 0; i < 4; i++ {
		steps = append(steps, step{note: "centered, cabinet ahead", dets: det(510, 400), mask: blocked})
	}
	for i := 0; i < 3; i++ {
		steps = append(steps, step{note: "clear approach", dets: det(500, 500), mask: open})
	}
	steps = append(steps,
		step{note: "close", dets: det(500, 650), mask: open},
		step{note: "at the door", dets: det(500, 780), mask: open},
		step{note: "standing at the door", dets: det(500, 800), mask: open},
	)
	return steps
}
