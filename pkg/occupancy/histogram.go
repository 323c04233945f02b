package occupancy

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/pathsense/go-pathsense/pkg/geom"
)

// Sectors is the number of angular sectors in the obstacle histogram.
const (
	Sectors     = 36
	SectorWidth = 360.0 / Sectors
)

// Histogram scores each 10-degree sector around the user with the fraction
// of sampled rays judged non-walkable, in [0,1]. Sector 0 starts straight
// ahead (up the image) and sectors advance clockwise. Recomputed fully
// every cycle; never persisted.
type Histogram [Sectors]float64

// SectorFor returns the sector index containing a bearing.
func SectorFor(bearing float64) int {
	return int(geom.Normalize(bearing)/SectorWidth) % Sectors
}

// SectorCenter returns the center bearing of a sector.
func SectorCenter(i int) float64 {
	return geom.Normalize(float64(i)*SectorWidth + SectorWidth/2)
}

// Neighbor returns the sector index offset steps away, wrapping.
func Neighbor(i, steps int) int {
	return ((i+steps)%Sectors + Sectors) % Sectors
}

// Config holds the tunable parameters of the histogram builder.
type Config struct {
	Downsample        int     // mask downsampling factor
	AngleStep         float64 // degrees between cast rays
	RadialStep        float64 // pixels between samples along a ray (full resolution)
	WalkableThreshold float64 // walkability above this counts as floor
	CoverageThreshold float64 // coverage below this means no opinion
}

// DefaultConfig returns the recommended builder parameters.
func DefaultConfig() Config {
	return Config{
		Downsample:        4,
		AngleStep:         5,
		RadialStep:        8,
		WalkableThreshold: 0.5,
		CoverageThreshold: 0.3,
	}
}

// Builder discretizes a walkability mask into a polar obstacle histogram.
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder with the given parameters.
func NewBuilder(cfg Config) *Builder {
	if cfg.Downsample < 1 {
		cfg.Downsample = 1
	}
	if cfg.AngleStep <= 0 {
		cfg.AngleStep = 5
	}
	if cfg.RadialStep <= 0 {
		cfg.RadialStep = 8
	}
	return &Builder{cfg: cfg}
}

// Build casts rays outward from the user position and scores each sector by
// the fraction of sample points classified non-walkable. The mask is first
// downsampled with a bilinear filter; nearest-neighbor sampling of a raw
// mask reads texture noise on multi-colored floors as phantom obstacles.
// Sectors whose rays never land inside the image keep score 0.
func (b *Builder) Build(mask *Mask, user image.Point) (*Histogram, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}

	ds := b.cfg.Downsample
	smallW := mask.Width / ds
	smallH := mask.Height / ds
	if smallW < 1 || smallH < 1 {
		smallW, smallH = mask.Width, mask.Height
		ds = 1
	}
	small := imaging.Resize(mask.toImage(), smallW, smallH, imaging.Linear)

	radius := float64(min(mask.Width, mask.Height)) / 3

	var hist Histogram
	var samples [Sectors]int
	var blocked [Sectors]int

	for bearing := 0.0; bearing < 360; bearing += b.cfg.AngleStep {
		dx, dy := geom.BearingToVector(bearing)
		sector := SectorFor(bearing)

		for r := b.cfg.RadialStep; r <= radius; r += b.cfg.RadialStep {
			px := float64(user.X) + dx*r
			py := float64(user.Y) + dy*r
			sx := int(px) / ds
			sy := int(py) / ds
			if px < 0 || py < 0 || sx >= smallW || sy >= smallH {
				break
			}

			c := small.NRGBAAt(sx, sy)
			walk := float64(c.G) / 255
			cover := float64(c.A) / 255

			samples[sector]++
			if cover < b.cfg.CoverageThreshold || walk < b.cfg.WalkableThreshold {
				blocked[sector]++
			}
		}
	}

	for i := range hist {
		if samples[i] > 0 {
			hist[i] = float64(blocked[i]) / float64(samples[i])
		}
	}
	return &hist, nil
}
