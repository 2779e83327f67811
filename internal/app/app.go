// Package app runs the capture, detect, log, render and record loop.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayusman/presenca/internal/capture"
	"github.com/ayusman/presenca/internal/detector"
	"github.com/ayusman/presenca/internal/panel"
	"github.com/ayusman/presenca/internal/presence"
	"github.com/ayusman/presenca/internal/render"
	log "github.com/sirupsen/logrus"
)

// StopReason says why the loop ended.
type StopReason int

const (
	// StopNone means the loop never ran.
	StopNone StopReason = iota
	// StopEndOfStream means the camera stopped producing frames.
	StopEndOfStream
	// StopQuitKey means the user pressed the quit key.
	StopQuitKey
	// StopCancelled means the run context was cancelled.
	StopCancelled
	// StopError means a component failed and the error was returned.
	StopError
)

func (r StopReason) String() string {
	switch r {
	case StopEndOfStream:
		return "end of stream"
	case StopQuitKey:
		return "quit key"
	case StopCancelled:
		return "cancelled"
	case StopError:
		return "error"
	default:
		return "none"
	}
}

// Result summarizes a run.
type Result struct {
	Frames    int
	Events    int
	Reason    StopReason
	LogPath   string
	VideoPath string
}

// Config holds configuration options for the application.
type Config struct {
	Camera    capture.Camera
	Detector  detector.Detector
	Presence  *presence.Logger
	VideoPath string
	Codec     string
	// WindowName is the preview window title. Ignored when Headless is set.
	WindowName string
	QuitKey    rune
	// Headless skips the preview window. Panel must then be set.
	Headless bool
	// Panel overrides the trackbars. Required when Headless is set.
	Panel panel.Panel
	// InitialParams positions the trackbars. Zero means detector defaults.
	InitialParams detector.Params
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// displayOpener builds the preview surface and the panel read each frame.
type displayOpener func() (render.Display, panel.Panel, error)

// recorderOpener builds the video artifact once the frame size is known.
type recorderOpener func(path, codec string, fps float64, width, height int) (render.Recorder, error)

// App is the main application that sequences capture, detection, presence
// logging and rendering.
type App struct {
	config       Config
	camera       capture.Camera
	detector     detector.Detector
	presence     *presence.Logger
	openDisplay  displayOpener
	openRecorder recorderOpener
	now          func() time.Time
	log          *log.Entry
	out          io.Writer
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, fmt.Errorf("app: camera is required")
	}
	if config.Detector == nil {
		return nil, fmt.Errorf("app: detector is required")
	}
	if config.Presence == nil {
		return nil, fmt.Errorf("app: presence logger is required")
	}
	if config.Headless && config.Panel == nil {
		return nil, fmt.Errorf("app: headless mode needs a parameter panel")
	}

	now := config.Clock
	if now == nil {
		now = time.Now
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		presence: config.Presence,
		now:      now,
		log:      log.NewEntry(log.StandardLogger()),
		out:      os.Stdout,
	}
	a.openDisplay = a.defaultDisplay
	a.openRecorder = openVideoRecorder

	return a, nil
}

// SetLogger sets the entry used for loop diagnostics, e.g. one carrying a session field.
func (a *App) SetLogger(entry *log.Entry) {
	if entry != nil {
		a.log = entry
	}
}

// openVideoRecorder opens the gocv recorder. A failed open yields a nil
// Recorder, never a typed nil.
func openVideoRecorder(path, codec string, fps float64, width, height int) (render.Recorder, error) {
	r, err := render.NewVideoRecorder(path, codec, fps, width, height)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// defaultDisplay opens the HighGUI window with trackbars, or a headless surface.
func (a *App) defaultDisplay() (render.Display, panel.Panel, error) {
	if a.config.Headless {
		return render.Headless{}, a.config.Panel, nil
	}

	w := render.NewWindow(a.config.WindowName, a.config.QuitKey)
	p := a.config.Panel
	if p == nil {
		p = panel.NewTrackbars(w.GoCV(), a.config.InitialParams)
	}
	return w, p, nil
}
