// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 30.0
	// DefaultSettle is how long a freshly opened device is given before it is re-checked.
	DefaultSettle = 200 * time.Millisecond
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoCamera is returned by Open when no candidate device could be opened.
	ErrNoCamera = errors.New("no camera available")
	// ErrEndOfStream is returned by ReadFrame when the device stops producing frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	Size() (width, height int)
	FPS() float64
	IsOpen() bool
}

// Candidate is a (device index, backend) pair tried when opening a camera.
type Candidate struct {
	DeviceID int
	API      gocv.VideoCaptureAPI
}

func (c Candidate) String() string {
	return fmt.Sprintf("device %d (api %d)", c.DeviceID, int(c.API))
}

// DefaultCandidates returns the ordered list of devices tried by Open:
// indices 0-2 on DirectShow, then Media Foundation, then any backend.
func DefaultCandidates() []Candidate {
	apis := []gocv.VideoCaptureAPI{gocv.VideoCaptureDshow, gocv.VideoCaptureMSMF, gocv.VideoCaptureAny}

	candidates := make([]Candidate, 0, len(apis)*3)
	for _, api := range apis {
		for id := 0; id < 3; id++ {
			candidates = append(candidates, Candidate{DeviceID: id, API: api})
		}
	}
	return candidates
}

// videoSource is the subset of *gocv.VideoCapture used by cameraImpl.
type videoSource interface {
	IsOpened() bool
	Set(prop gocv.VideoCaptureProperties, param float64)
	Get(prop gocv.VideoCaptureProperties) float64
	Read(m *gocv.Mat) bool
	Close() error
}

type openFunc func(c Candidate) (videoSource, error)

func openDevice(c Candidate) (videoSource, error) {
	vc, err := gocv.VideoCaptureDeviceWithAPI(c.DeviceID, c.API)
	if err != nil {
		if vc != nil {
			vc.Close()
		}
		return nil, err
	}
	return vc, nil
}

// Options configures a camera.
type Options struct {
	Candidates []Candidate
	Width      int
	Height     int
	Settle     time.Duration
}

// cameraImpl manages video capture from the first working device using GoCV.
type cameraImpl struct {
	opts    Options
	open    openFunc
	sleep   func(time.Duration)
	capture videoSource
	active  Candidate
	mu      sync.Mutex
	running bool
}

// NewCamera creates a new Camera that walks opts.Candidates on Open.
// Zero-valued options fall back to the defaults.
func NewCamera(opts Options) Camera {
	return newCamera(opts, openDevice)
}

func newCamera(opts Options, open openFunc) *cameraImpl {
	if len(opts.Candidates) == 0 {
		opts.Candidates = DefaultCandidates()
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}

	return &cameraImpl{
		opts:  opts,
		open:  open,
		sleep: time.Sleep,
	}
}

// Open tries every candidate once, in order, and keeps the first device
// that is still open after the resolution hint and settle delay.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	for _, cand := range c.opts.Candidates {
		src, err := c.open(cand)
		if err != nil {
			log.WithField("candidate", cand.String()).Debugf("open failed: %v", err)
			continue
		}

		if src.IsOpened() {
			src.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
			src.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
			c.sleep(c.opts.Settle)

			if src.IsOpened() {
				c.capture = src
				c.active = cand
				c.running = true
				log.WithField("candidate", cand.String()).Info("camera opened")
				return nil
			}
		}

		src.Close()
	}

	return fmt.Errorf("%w: tried %d candidates", ErrNoCamera, len(c.opts.Candidates))
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("%w: read failed", ErrEndOfStream)
	}

	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: captured frame is empty", ErrEndOfStream)
	}

	return &mat, nil
}

// Size returns the resolution reported by the device, or the requested
// resolution when the device reports nothing.
func (c *cameraImpl) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, h := c.opts.Width, c.opts.Height
	if c.capture == nil {
		return w, h
	}

	if v := int(c.capture.Get(gocv.VideoCaptureFrameWidth)); v > 0 {
		w = v
	}
	if v := int(c.capture.Get(gocv.VideoCaptureFrameHeight)); v > 0 {
		h = v
	}
	return w, h
}

// FPS returns the native frame rate of the device, or DefaultFPS when unavailable.
func (c *cameraImpl) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return DefaultFPS
	}
	if fps := c.capture.Get(gocv.VideoCaptureFPS); fps > 0 {
		return fps
	}
	return DefaultFPS
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
