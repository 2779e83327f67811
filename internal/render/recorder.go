package render

import (
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// DefaultCodec is the FourCC used for the annotated video.
const DefaultCodec = "mp4v"

// Recorder appends frames to a persistent video artifact.
type Recorder interface {
	Write(frame *gocv.Mat) error
	Close() error
	Path() string
}

// VideoRecorder writes frames with a gocv VideoWriter.
type VideoRecorder struct {
	writer *gocv.VideoWriter
	path   string
	frames int
}

// NewVideoRecorder creates path and opens it for writing at fps with the
// given frame size.
func NewVideoRecorder(path, codec string, fps float64, width, height int) (*VideoRecorder, error) {
	if codec == "" {
		codec = DefaultCodec
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %v", fps)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create video directory: %w", err)
		}
	}

	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer %s: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("open video writer %s: codec %q not available", path, codec)
	}

	return &VideoRecorder{writer: writer, path: path}, nil
}

// Write implements Recorder.
func (r *VideoRecorder) Write(frame *gocv.Mat) error {
	if err := r.writer.Write(*frame); err != nil {
		return fmt.Errorf("write frame %d: %w", r.frames, err)
	}
	r.frames++
	return nil
}

// Frames returns how many frames were written.
func (r *VideoRecorder) Frames() int {
	return r.frames
}

// Close finalizes the file.
func (r *VideoRecorder) Close() error {
	return r.writer.Close()
}

// Path implements Recorder.
func (r *VideoRecorder) Path() string {
	return r.path
}
