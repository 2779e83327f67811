// Package render draws detection overlays on frames, shows them in a
// preview window and records them to a video file.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/presenca/internal/detector"
	"gocv.io/x/gocv"
)

// Overlay text.
const (
	FaceLabel   = "Face Detected"
	BannerLabel = "Access Granted"
)

// Colors are RGBA; gocv converts them to BGR scalars.
var (
	faceColor   = color.RGBA{R: 255}
	bannerColor = color.RGBA{G: 255}
	statusColor = color.RGBA{R: 255, G: 255, B: 255}
)

// Overlay positions.
var (
	bannerOrigin = image.Pt(50, 80)
	statusOrigin = image.Pt(10, 30)
)

// StatusLine formats the parameter and FPS readout.
func StatusLine(p detector.Params, fps float64) string {
	return fmt.Sprintf("scale=%.2f  neighbors=%d  minSize=%dpx  FPS=%.1f",
		p.ScaleFactor, p.MinNeighbors, p.MinSize, fps)
}

// labelOrigin places a face label just above its box.
func labelOrigin(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X, r.Min.Y-10)
}

// Annotate draws one box and label per face, the banner when any face is
// present, and the status line. It draws in place.
func Annotate(frame *gocv.Mat, faces []image.Rectangle, p detector.Params, fps float64) {
	if len(faces) > 0 {
		gocv.PutTextWithParams(frame, BannerLabel, bannerOrigin,
			gocv.FontHersheySimplex, 1.2, bannerColor, 3, gocv.LineAA, false)
	}

	for _, r := range faces {
		gocv.Rectangle(frame, r, faceColor, 2)
		gocv.PutTextWithParams(frame, FaceLabel, labelOrigin(r),
			gocv.FontHersheySimplex, 0.7, faceColor, 2, gocv.LineAA, false)
	}

	gocv.PutTextWithParams(frame, StatusLine(p, fps), statusOrigin,
		gocv.FontHersheySimplex, 0.65, statusColor, 2, gocv.LineAA, false)
}
