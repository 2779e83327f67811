package panel

import (
	"math"

	"github.com/ayusman/presenca/internal/detector"
	"gocv.io/x/gocv"
)

// Slider names, maxima and default positions.
const (
	ScaleSlider     = "scale x100"
	NeighborsSlider = "minNeighbors"
	MinSizeSlider   = "minSize"

	scaleMax     = 200
	neighborsMax = detector.MaxNeighbors
	minSizeMax   = detector.MaxFaceSize
)

// positioner is the read side of a gocv trackbar.
type positioner interface {
	GetPos() int
}

// Trackbars reads detection parameters from three sliders on a HighGUI window.
type Trackbars struct {
	scale     positioner
	neighbors positioner
	minSize   positioner
}

// NewTrackbars attaches the three sliders to w, positioned at initial.
// A zero initial value means the detector defaults.
func NewTrackbars(w *gocv.Window, initial detector.Params) *Trackbars {
	scalePos, neighborsPos, minSizePos := Positions(initial)

	scale := w.CreateTrackbar(ScaleSlider, scaleMax)
	scale.SetPos(scalePos)

	neighbors := w.CreateTrackbar(NeighborsSlider, neighborsMax)
	neighbors.SetPos(neighborsPos)

	minSize := w.CreateTrackbar(MinSizeSlider, minSizeMax)
	minSize.SetPos(minSizePos)

	return &Trackbars{
		scale:     scale,
		neighbors: neighbors,
		minSize:   minSize,
	}
}

// Positions is the inverse of FromPositions.
func Positions(p detector.Params) (scaleX100, neighbors, minSize int) {
	if p == (detector.Params{}) {
		p = detector.DefaultParams()
	}
	p = p.Clamp()
	return int(math.Round(p.ScaleFactor * 100)), p.MinNeighbors, p.MinSize
}

// Read implements Panel.
func (t *Trackbars) Read() detector.Params {
	return FromPositions(t.scale.GetPos(), t.neighbors.GetPos(), t.minSize.GetPos())
}

// FromPositions converts raw slider positions into clamped parameters.
// The scale slider is in hundredths.
func FromPositions(scaleX100, neighbors, minSize int) detector.Params {
	return detector.Params{
		ScaleFactor:  float64(scaleX100) / 100.0,
		MinNeighbors: neighbors,
		MinSize:      minSize,
	}.Clamp()
}
