package detector

import "math"

// Legal ranges for the detection parameters.
const (
	MinScaleFactor = 1.01
	MaxScaleFactor = 2.00

	MinNeighborsFloor = 1
	MaxNeighbors      = 20

	MinFaceSize = 20
	MaxFaceSize = 300
)

// Params are the tunable knobs of a cascade detection pass.
type Params struct {
	// ScaleFactor is how much the search window grows per pyramid level.
	// Larger is faster and misses more faces.
	ScaleFactor float64
	// MinNeighbors is how many overlapping hits a region needs to be kept.
	// Larger suppresses false positives.
	MinNeighbors int
	// MinSize is the side, in pixels, of the smallest square window searched.
	MinSize int
}

// DefaultParams returns the slider defaults.
func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.10,
		MinNeighbors: 5,
		MinSize:      40,
	}
}

// Clamp returns p with every field forced into its legal range.
func (p Params) Clamp() Params {
	if math.IsNaN(p.ScaleFactor) {
		p.ScaleFactor = MinScaleFactor
	}
	p.ScaleFactor = math.Min(math.Max(p.ScaleFactor, MinScaleFactor), MaxScaleFactor)
	p.MinNeighbors = min(max(p.MinNeighbors, MinNeighborsFloor), MaxNeighbors)
	p.MinSize = min(max(p.MinSize, MinFaceSize), MaxFaceSize)
	return p
}
