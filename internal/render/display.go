package render

import (
	"gocv.io/x/gocv"
)

// DefaultQuitKey ends the session when pressed in the preview window.
const DefaultQuitKey = 'q'

// Display shows annotated frames and reports a quit request.
type Display interface {
	Show(frame *gocv.Mat)
	// QuitRequested waits briefly for a key and reports whether it was the quit key.
	QuitRequested() bool
	Close() error
}

// Window is a HighGUI preview window.
type Window struct {
	window  *gocv.Window
	quitKey int
}

// NewWindow opens a preview window with the given title.
func NewWindow(title string, quitKey rune) *Window {
	if quitKey == 0 {
		quitKey = DefaultQuitKey
	}
	return &Window{
		window:  gocv.NewWindow(title),
		quitKey: int(quitKey),
	}
}

// GoCV exposes the underlying window, for attaching trackbars.
func (w *Window) GoCV() *gocv.Window {
	return w.window
}

// Show implements Display.
func (w *Window) Show(frame *gocv.Mat) {
	w.window.IMShow(*frame)
}

// QuitRequested implements Display. It waits at most 1 ms.
func (w *Window) QuitRequested() bool {
	key := w.window.WaitKey(1)
	return key >= 0 && key&0xFF == w.quitKey
}

// Close implements Display.
func (w *Window) Close() error {
	return w.window.Close()
}

// Headless is a Display for runs without a screen. It never requests quit.
type Headless struct{}

func (Headless) Show(*gocv.Mat)      {}
func (Headless) QuitRequested() bool { return false }
func (Headless) Close() error        { return nil }
