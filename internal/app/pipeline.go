package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/presenca/internal/capture"
	"github.com/ayusman/presenca/internal/detector"
	"github.com/ayusman/presenca/internal/panel"
	"github.com/ayusman/presenca/internal/render"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Run opens the camera, display and recorder and processes frames until the
// stream ends, the quit key is pressed, ctx is cancelled or a component fails.
//
// Per frame:
// 1. Read a frame (end of stream stops the loop without error)
// 2. Convert to grayscale
// 3. Read the parameter panel
// 4. Detect faces
// 5. Feed the presence logger (a write failure stops the loop with error)
// 6. Annotate with boxes, banner and status line
// 7. Show and record the frame
// 8. Poll the quit key
//
// Once the camera is open, every exit path releases the camera, finalizes
// the video, closes the display and reports both artifact paths.
func (a *App) Run(ctx context.Context) (Result, error) {
	res := Result{
		LogPath:   a.presence.Path(),
		VideoPath: a.config.VideoPath,
	}

	if err := a.camera.Open(); err != nil {
		return res, fmt.Errorf("open camera: %w", err)
	}

	var (
		display render.Display
		rec     render.Recorder
	)
	defer func() {
		a.cleanup(display, rec)
		a.report(res)
	}()

	display, params, err := a.openDisplay()
	if err != nil {
		res.Reason = StopError
		return res, fmt.Errorf("open display: %w", err)
	}

	width, height := a.camera.Size()
	fps := a.camera.FPS()
	rec, err = a.openRecorder(a.config.VideoPath, a.config.Codec, fps, width, height)
	if err != nil {
		res.Reason = StopError
		return res, fmt.Errorf("open recorder: %w", err)
	}
	a.log.WithFields(log.Fields{
		"width":  width,
		"height": height,
		"fps":    fps,
		"video":  a.config.VideoPath,
	}).Info("recording started")

	res.Reason, err = a.loop(ctx, display, params, rec, &res)
	return res, err
}

func (a *App) loop(ctx context.Context, display render.Display, params panel.Panel, rec render.Recorder, res *Result) (StopReason, error) {
	meter := render.NewFPSMeter(a.now)

	gray := gocv.NewMat()
	defer gray.Close()

	recordFailures := 0

	for {
		select {
		case <-ctx.Done():
			a.log.Info("cancelled, stopping")
			return StopCancelled, nil
		default:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				a.log.Warnf("frame not read from camera, stopping: %v", err)
				return StopEndOfStream, nil
			}
			return StopError, fmt.Errorf("read frame: %w", err)
		}

		detector.Grayscale(frame, &gray)
		p := params.Read()

		faces, err := a.detector.Detect(&gray, p)
		if err != nil {
			frame.Close()
			return StopError, fmt.Errorf("detect faces: %w", err)
		}

		_, emitted, err := a.presence.Observe(len(faces) > 0)
		if err != nil {
			frame.Close()
			return StopError, fmt.Errorf("log presence: %w", err)
		}
		if emitted {
			res.Events++
		}

		render.Annotate(frame, faces, p, meter.Tick())
		display.Show(frame)

		if err := rec.Write(frame); err != nil {
			if recordFailures == 0 {
				a.log.Warnf("recording frame failed: %v", err)
			}
			recordFailures++
		}

		frame.Close()
		res.Frames++

		if display.QuitRequested() {
			a.log.Info("quit key pressed, stopping")
			return StopQuitKey, nil
		}
	}
}

// cleanup releases the camera, finalizes the video and closes the display.
func (a *App) cleanup(display render.Display, rec render.Recorder) {
	if err := a.camera.Close(); err != nil {
		a.log.Errorf("Error closing camera: %v", err)
	}

	if rec != nil {
		if err := rec.Close(); err != nil {
			a.log.Errorf("Error finalizing video: %v", err)
		}
	}

	if display != nil {
		if err := display.Close(); err != nil {
			a.log.Errorf("Error closing display: %v", err)
		}
	}
}

// report prints where the artifacts went.
func (a *App) report(res Result) {
	a.log.WithFields(log.Fields{
		"frames": res.Frames,
		"events": res.Events,
		"reason": res.Reason.String(),
	}).Info("session finished")

	fmt.Fprintf(a.out, "Annotated video output: %s\n", res.VideoPath)
	fmt.Fprintf(a.out, "Presence log: %s\n", res.LogPath)
}
