package perception

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/pathsense/go-pathsense/pkg/occupancy"
)

// DNNConfig holds detector model configuration.
type DNNConfig struct {
	ModelPath        string  // ONNX or frozen graph
	ConfigPath       string  // optional graph config
	LabelsPath       string  // one class name per line
	ConfidenceThresh float64 // minimum confidence (default 0.5)
	InputSize        int     // square model input (default 320)
}

// DefaultDNNConfig returns production defaults for an SSD-style detector.
func DefaultDNNConfig() DNNConfig {
	return DNNConfig{
		ModelPath:        "models/detector.onnx",
		LabelsPath:       "models/labels.txt",
		ConfidenceThresh: 0.5,
		InputSize:        320,
	}
}

// DNNDetector runs an SSD-style object detection network via OpenCV.
type DNNDetector struct {
	net    gocv.Net
	labels []string
	cfg    DNNConfig
	mu     sync.Mutex // protects inference
}

// NewDNNDetector loads the model and class labels.
func NewDNNDetector(cfg DNNConfig) (*DNNDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	labels, err := loadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	if cfg.ConfidenceThresh <= 0 {
		cfg.ConfidenceThresh = 0.5
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = 320
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &DNNDetector{net: net, labels: labels, cfg: cfg}, nil
}

// Detect finds objects in the JPEG image.
func (d *DNNDetector) Detect(jpeg []byte) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	blob := gocv.BlobFromImage(img, 1.0/127.5,
		image.Pt(d.cfg.InputSize, d.cfg.InputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	// SSD output: [1,1,N,7] rows of (batch, classID, score, x1, y1, x2, y2)
	// with normalized coordinates.
	rows := out.Total() / 7
	flat := out.Reshape(1, rows)
	defer flat.Close()

	var detections []Detection
	for r := 0; r < rows; r++ {
		score := float64(flat.GetFloatAt(r, 2))
		if score < d.cfg.ConfidenceThresh {
			continue
		}
		classID := int(flat.GetFloatAt(r, 1))
		x1 := float64(flat.GetFloatAt(r, 3)) * imgW
		y1 := float64(flat.GetFloatAt(r, 4)) * imgH
		x2 := float64(flat.GetFloatAt(r, 5)) * imgW
		y2 := float64(flat.GetFloatAt(r, 6)) * imgH

		detections = append(detections, Detection{
			Label:      d.labelFor(classID),
			Box:        image.Rect(int(x1), int(y1), int(x2), int(y2)),
			Confidence: score,
		})
	}
	return detections, nil
}

func (d *DNNDetector) labelFor(classID int) string {
	if classID >= 0 && classID < len(d.labels) {
		return d.labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// SegmenterConfig holds floor segmentation model configuration.
type SegmenterConfig struct {
	ModelPath string
	InputSize int // square model input (default 256)
}

// DNNSegmenter runs a floor segmentation network producing a per-pixel
// walkability probability map.
type DNNSegmenter struct {
	net gocv.Net
	cfg SegmenterConfig
	mu  sync.Mutex
}

// NewDNNSegmenter loads the segmentation model.
func NewDNNSegmenter(cfg SegmenterConfig) (*DNNSegmenter, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = 256
	}

	net := gocv.ReadNet(cfg.ModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &DNNSegmenter{net: net, cfg: cfg}, nil
}

// Segment produces a walkability mask at the full image resolution.
func (s *DNNSegmenter) Segment(jpeg []byte) (*occupancy.Mask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(s.cfg.InputSize, s.cfg.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	defer out.Close()

	// Model output: [1,1,H,W] sigmoid walkability map. Upsample back to
	// the camera resolution so mask coordinates match detections.
	probs := out.Reshape(1, s.cfg.InputSize)
	defer probs.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(probs, &resized, image.Pt(img.Cols(), img.Rows()), 0, 0, gocv.InterpolationLinear)

	data, err := resized.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read segmentation output: %w", err)
	}

	mask := occupancy.NewMask(img.Cols(), img.Rows())
	copy(mask.Walkability, data)
	for i := range mask.Coverage {
		mask.Coverage[i] = 1
	}
	return mask, nil
}

// Close releases the network.
func (s *DNNSegmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}

func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		labels = append(labels, sc.Text())
	}
	return labels, sc.Err()
}
