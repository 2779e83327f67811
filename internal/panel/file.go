package panel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/presenca/internal/detector"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// fileParams is the on-disk shape of a parameters file.
type fileParams struct {
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	MinSize      int     `yaml:"min_size"`
}

// File is a Panel backed by a YAML file, for runs without a preview window.
// Edits are picked up on the next Read after fsnotify reports them.
type File struct {
	path    string
	watcher *fsnotify.Watcher
	current detector.Params
	dirty   bool
}

// NewFile loads path and starts watching it. A missing file is not an
// error: the defaults are used until the file appears.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve params file: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are still seen.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	f := &File{
		path:    abs,
		watcher: w,
		current: detector.DefaultParams(),
	}
	if err := f.reload(); err != nil && !os.IsNotExist(err) {
		log.WithField("path", abs).Warnf("params file ignored: %v", err)
	}

	return f, nil
}

// Read implements Panel.
func (f *File) Read() detector.Params {
	f.drain()

	if f.dirty {
		f.dirty = false
		if err := f.reload(); err != nil {
			log.WithField("path", f.path).Warnf("keeping previous params: %v", err)
		}
	}

	return f.current
}

// drain consumes pending watcher events without blocking.
func (f *File) drain() {
	for {
		select {
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				f.dirty = true
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("params watch error: %v", err)
		default:
			return
		}
	}
}

// reload reads the file over the current values; fields the file omits keep their value.
func (f *File) reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}

	fp := fileParams{
		ScaleFactor:  f.current.ScaleFactor,
		MinNeighbors: f.current.MinNeighbors,
		MinSize:      f.current.MinSize,
	}
	if err := yaml.Unmarshal(data, &fp); err != nil {
		return fmt.Errorf("parse %s: %w", f.path, err)
	}

	f.current = detector.Params{
		ScaleFactor:  fp.ScaleFactor,
		MinNeighbors: fp.MinNeighbors,
		MinSize:      fp.MinSize,
	}.Clamp()

	log.WithFields(log.Fields{
		"scale":     f.current.ScaleFactor,
		"neighbors": f.current.MinNeighbors,
		"minSize":   f.current.MinSize,
	}).Info("detection params loaded")
	return nil
}

// Close stops watching the file.
func (f *File) Close() error {
	return f.watcher.Close()
}
