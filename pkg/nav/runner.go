package nav

import (
	"context"
	"time"

	"github.com/pathsense/go-pathsense/internal/log"
	"github.com/pathsense/go-pathsense/pkg/perception"
)

// Frame is one camera frame handed to the runner.
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
}

// FrameSource supplies camera frames. Next blocks until a frame is
// available or the context is cancelled.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// Runner drives the engine at a fixed cadence: it pulls frames, runs
// detection and segmentation, and feeds the results into Cycle. Perception
// failures degrade the cycle instead of stopping it.
type Runner struct {
	Engine    *Engine
	Source    FrameSource
	Detector  perception.Detector
	Segmenter perception.Segmenter
	Interval  time.Duration

	// OnResult receives every completed cycle result. Optional.
	OnResult func(Result)
}

// Run loops until the context is cancelled. Frames arriving while the
// engine is idle are discarded without perception work.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if r.Engine.State() == StateIdle {
			continue
		}

		frame, err := r.Source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("frame source failed", "error", err)
			continue
		}

		in := CycleInput{
			Width:  frame.Width,
			Height: frame.Height,
			Now:    time.Now(),
		}

		if dets, err := r.Detector.Detect(frame.JPEG); err != nil {
			log.Warn("detection failed", "error", err)
		} else {
			in.Detections = dets
		}

		if mask, err := r.Segmenter.Segment(frame.JPEG); err != nil {
			log.Warn("segmentation failed", "error", err)
		} else {
			in.Mask = mask
		}

		res, ok := r.Engine.Cycle(in)
		if ok && r.OnResult != nil {
			r.OnResult(res)
		}
	}
}
