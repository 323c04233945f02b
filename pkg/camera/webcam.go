package camera

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/pathsense/go-pathsense/pkg/nav"
)

// Webcam captures frames from a local video device. It implements
// nav.FrameSource.
type Webcam struct {
	cfg Config

	mu   sync.Mutex
	cap  *gocv.VideoCapture
	mat  gocv.Mat
	open bool
}

// Open opens the capture device.
func Open(cfg Config) (*Webcam, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cap, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	return &Webcam{cfg: cfg, cap: cap, mat: gocv.NewMat(), open: true}, nil
}

// Next grabs one frame and encodes it as JPEG.
func (w *Webcam) Next(ctx context.Context) (nav.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nav.Frame{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open {
		return nav.Frame{}, fmt.Errorf("camera closed")
	}
	if !w.cap.Read(&w.mat) || w.mat.Empty() {
		return nav.Frame{}, fmt.Errorf("camera %d read failed", w.cfg.Device)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.mat,
		[]int{gocv.IMWriteJpegQuality, w.cfg.Quality})
	if err != nil {
		return nav.Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())

	return nav.Frame{
		JPEG:   jpeg,
		Width:  w.mat.Cols(),
		Height: w.mat.Rows(),
	}, nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return nil
	}
	w.open = false
	w.mat.Close()
	return w.cap.Close()
}
