package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces    []image.Rectangle
	sequence [][]image.Rectangle
	err      error
	calls    int
	last     Params
	mu       sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by every Detect call.
func (m *MockDetector) SetFaces(faces []image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetSequence scripts per-call results. Call i returns sequence[i];
// once the script runs out, the faces set by SetFaces are returned.
func (m *MockDetector) SetSequence(sequence [][]image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = sequence
	m.calls = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(gray *gocv.Mat, params Params) ([]image.Rectangle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	m.last = params

	if m.err != nil {
		return nil, m.err
	}
	if i < len(m.sequence) {
		return m.sequence[i], nil
	}
	return m.faces, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastParams returns the params passed to the most recent Detect call.
func (m *MockDetector) LastParams() Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FaceAt returns a square face region of the given side at (x, y).
func FaceAt(x, y, side int) image.Rectangle {
	return image.Rect(x, y, x+side, y+side)
}
