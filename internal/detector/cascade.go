package detector

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
)

// ErrAssetMissing is returned when the cascade model file is absent or cannot be loaded.
var ErrAssetMissing = errors.New("face cascade asset missing")

// CascadeDirs are the OpenCV install locations searched by ResolveCascade.
var CascadeDirs = []string{
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
	"/usr/share/opencv/haarcascades",
	`C:\opencv\build\etc\haarcascades`,
}

// ResolveCascade returns path when it exists. Otherwise it looks for a file
// with the same name in CascadeDirs, which is where OpenCV installs the
// stock cascades that gocv builds against.
func ResolveCascade(path string) (string, error) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}

	name := filepath.Base(path)
	for _, dir := range CascadeDirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s not found (also searched %d OpenCV data dirs)", ErrAssetMissing, path, len(CascadeDirs))
}

// CascadeDetector implements Detector with an OpenCV Haar cascade.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
	path       string
	mu         sync.Mutex
	closed     bool
}

// NewCascadeDetector loads the cascade at path.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrAssetMissing, path)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: cannot load %s", ErrAssetMissing, path)
	}

	return &CascadeDetector{
		classifier: classifier,
		path:       path,
	}, nil
}

// Detect runs a multi-scale pass with a square minimum window and no maximum.
func (d *CascadeDetector) Detect(gray *gocv.Mat, params Params) ([]image.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errors.New("detector is closed")
	}
	if gray == nil || gray.Empty() {
		return nil, errors.New("empty frame")
	}

	p := params.Clamp()
	faces := d.classifier.DetectMultiScaleWithParams(
		*gray,
		p.ScaleFactor,
		p.MinNeighbors,
		0,
		image.Pt(p.MinSize, p.MinSize),
		image.Pt(0, 0),
	)

	return faces, nil
}

// Path returns the cascade file the detector was loaded from.
func (d *CascadeDetector) Path() string {
	return d.path
}

// Close releases the classifier. It is safe to call more than once.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
