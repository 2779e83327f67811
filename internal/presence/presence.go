// Package presence appends a debounced, timestamped line to a text log
// whenever a face is seen.
package presence

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultDebounce is the minimum time between two logged events.
	DefaultDebounce = 2 * time.Second
	// DefaultMessage is the text written for every presence event.
	DefaultMessage = "face detected → primary-system action (presence registered)"
	// TimeLayout renders DD/MM/YYYY HH:MM:SS.
	TimeLayout = "02/01/2006 15:04:05"
)

// ErrLogWrite is returned when an event cannot be appended to the log file.
var ErrLogWrite = errors.New("presence log write failed")

// Event is one line of the presence log.
type Event struct {
	Time    time.Time
	Message string
}

// Line renders the event as it is stored, newline included.
func (e Event) Line() string {
	return fmt.Sprintf("%s - %s\n", e.Time.Format(TimeLayout), e.Message)
}

// ParseLine is the inverse of Event.Line. Times are read in local time.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSuffix(line, "\n")

	ts, msg, ok := strings.Cut(line, " - ")
	if !ok {
		return Event{}, fmt.Errorf("malformed log line %q", line)
	}

	t, err := time.ParseInLocation(TimeLayout, ts, time.Local)
	if err != nil {
		return Event{}, fmt.Errorf("malformed timestamp in %q: %w", line, err)
	}

	return Event{Time: t, Message: msg}, nil
}

// Option configures a Logger.
type Option func(*Logger)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(l *Logger) {
		if d >= 0 {
			l.debounce = d
		}
	}
}

// WithMessage overrides DefaultMessage.
func WithMessage(msg string) Option {
	return func(l *Logger) {
		if msg != "" {
			l.message = msg
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// WithConsole sets where emitted events are echoed. nil disables the echo.
func WithConsole(w io.Writer) Option {
	return func(l *Logger) {
		l.console = w
	}
}

// Logger gates presence events behind a debounce window and appends them to a file.
//
// It has two states: idle, and gated (an event was logged less than the debounce
// window ago). Only a successful append moves the window; frames without faces
// and gated frames leave it untouched.
type Logger struct {
	path     string
	debounce time.Duration
	message  string
	now      func() time.Time
	console  io.Writer

	mu     sync.Mutex
	last   time.Time
	events int
}

// New creates a Logger that appends to path.
func New(path string, opts ...Option) *Logger {
	l := &Logger{
		path:     path,
		debounce: DefaultDebounce,
		message:  DefaultMessage,
		now:      time.Now,
		console:  os.Stdout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Observe feeds one frame's outcome to the logger. It reports whether an event
// was emitted. A write failure leaves the debounce state unchanged.
func (l *Logger) Observe(facePresent bool) (Event, bool, error) {
	if !facePresent {
		return Event{}, false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.last.IsZero() && now.Sub(l.last) < l.debounce {
		return Event{}, false, nil
	}

	ev := Event{Time: now, Message: l.message}
	if err := l.append(ev); err != nil {
		return Event{}, false, err
	}

	l.last = now
	l.events++

	if l.console != nil {
		fmt.Fprintf(l.console, "[LOG] %s", ev.Line())
	}
	return ev, true, nil
}

// append opens the file for each write so nothing is held between events.
func (l *Logger) append(ev Event) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrLogWrite, err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}

	if _, err := f.WriteString(ev.Line()); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrLogWrite, err)
	}

	log.WithField("path", l.path).Debug("presence event appended")
	return nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.path
}

// LastLogged returns the time of the last emitted event, zero if none.
func (l *Logger) LastLogged() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Events returns how many events this Logger has emitted.
func (l *Logger) Events() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}
