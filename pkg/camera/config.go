// Package camera captures JPEG frames from a local video device for the
// navigation loop.
package camera

import "fmt"

// Config holds capture parameters.
type Config struct {
	Device  int `json:"device"`  // V4L2 device index
	Width   int `json:"width"`   // requested capture width
	Height  int `json:"height"`  // requested capture height
	Quality int `json:"quality"` // JPEG quality, 1-100
}

// DefaultConfig returns capture defaults suitable for the navigation loop.
// Detection and segmentation both downscale internally, so capturing above
// 720p only adds latency.
func DefaultConfig() Config {
	return Config{
		Device:  0,
		Width:   1280,
		Height:  720,
		Quality: 85,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Device < 0 {
		return fmt.Errorf("camera device %d invalid", c.Device)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("camera resolution %dx%d invalid", c.Width, c.Height)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("jpeg quality %d out of range", c.Quality)
	}
	return nil
}
