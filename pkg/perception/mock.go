package perception

import (
	"sync"

	"github.com/pathsense/go-pathsense/pkg/occupancy"
)

// MockDetector replays a scripted sequence of detection frames. Used by
// tests and the offline simulator; the final frame repeats once the script
// runs out.
type MockDetector struct {
	mu     sync.Mutex
	frames [][]Detection
	index  int
}

// NewMockDetector creates a detector replaying the given frames.
func NewMockDetector(frames ...[]Detection) *MockDetector {
	return &MockDetector{frames: frames}
}

// Detect returns the next scripted frame.
func (m *MockDetector) Detect(_ []byte) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil, nil
	}
	f := m.frames[m.index]
	if m.index < len(m.frames)-1 {
		m.index++
	}
	return f, nil
}

// Close implements Detector.
func (m *MockDetector) Close() error { return nil }

// MockSegmenter returns a fixed mask for every frame.
type MockSegmenter struct {
	Mask *occupancy.Mask
}

// Segment returns the configured mask.
func (m *MockSegmenter) Segment(_ []byte) (*occupancy.Mask, error) {
	return m.Mask, nil
}

// Close implements Segmenter.
func (m *MockSegmenter) Close() error { return nil }
