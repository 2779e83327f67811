// Package detector finds frontal faces in grayscale frames.
package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Detect runs against a grayscale frame and returns the face regions found.
	// Returns an empty slice if no faces are detected.
	Detect(gray *gocv.Mat, params Params) ([]image.Rectangle, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Grayscale converts a BGR frame into dst. Single-channel frames are copied as-is.
func Grayscale(frame *gocv.Mat, dst *gocv.Mat) {
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, dst, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(dst)
	}
}
