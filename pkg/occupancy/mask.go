// Package occupancy converts a probabilistic floor-walkability mask into a
// polar obstacle histogram around the user's position.
package occupancy

import (
	"fmt"
	"image"
	"image/color"
)

// Mask is a per-pixel walkability estimate in image space, produced by the
// external floor segmenter once per cycle. Walkability is the probability a
// pixel is walkable floor; Coverage is how much of the pixel the
// segmentation actually covered (0 = no opinion, e.g. outside the model's
// crop). Masks are ephemeral and owned by the cycle that produced them.
type Mask struct {
	Width  int
	Height int

	Walkability []float32
	Coverage    []float32
}

// NewMask allocates a zeroed mask of the given dimensions.
func NewMask(w, h int) *Mask {
	return &Mask{
		Width:       w,
		Height:      h,
		Walkability: make([]float32, w*h),
		Coverage:    make([]float32, w*h),
	}
}

// Validate checks that the channel buffers match the declared dimensions.
func (m *Mask) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("mask dimensions %dx%d invalid", m.Width, m.Height)
	}
	if want := m.Width * m.Height; len(m.Walkability) != want || len(m.Coverage) != want {
		return fmt.Errorf("mask buffers %d/%d do not match %dx%d",
			len(m.Walkability), len(m.Coverage), m.Width, m.Height)
	}
	return nil
}

// Set writes one pixel of the mask.
func (m *Mask) Set(x, y int, walkability, coverage float32) {
	m.Walkability[y*m.Width+x] = walkability
	m.Coverage[y*m.Width+x] = coverage
}

// Fill sets every pixel to the given walkability and coverage.
func (m *Mask) Fill(walkability, coverage float32) {
	for i := range m.Walkability {
		m.Walkability[i] = walkability
		m.Coverage[i] = coverage
	}
}

// FillRect sets every pixel inside r, clipped to the mask bounds.
func (m *Mask) FillRect(r image.Rectangle, walkability, coverage float32) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, walkability, coverage)
		}
	}
}

// toImage encodes the mask as an NRGBA image (walkability in the green
// channel, coverage in alpha) so it can be resampled with a standard
// bilinear filter.
func (m *Mask) toImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			img.SetNRGBA(x, y, color.NRGBA{
				G: uint8(clamp01(m.Walkability[i]) * 255),
				A: uint8(clamp01(m.Coverage[i]) * 255),
			})
		}
	}
	return img
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
