package presence

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

var lineRE = regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2} - .+$`)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLogger(t *testing.T, clock *fakeClock, opts ...Option) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "presenca.txt")
	opts = append([]Option{WithClock(clock.now), WithConsole(nil)}, opts...)
	return New(path, opts...), path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan log: %v", err)
	}
	return lines
}

func TestEvent_Line(t *testing.T) {
	ev := Event{
		Time:    time.Date(2024, time.March, 7, 9, 5, 3, 0, time.Local),
		Message: DefaultMessage,
	}

	want := "07/03/2024 09:05:03 - face detected → primary-system action (presence registered)\n"
	if got := ev.Line(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestParseLine_RoundTrip(t *testing.T) {
	ev := Event{
		Time:    time.Date(2025, time.December, 31, 23, 59, 59, 0, time.Local),
		Message: "custom - message with dash",
	}

	got, err := ParseLine(ev.Line())
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if !got.Time.Equal(ev.Time) || got.Message != ev.Message {
		t.Errorf("ParseLine() = %+v, want %+v", got, ev)
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{"", "no separator", "2024-01-01 10:00:00 - iso date"} {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) should fail", line)
		}
	}
}

func TestLogger_FirstFaceLogsImmediately(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)}
	l, path := newTestLogger(t, clock)

	ev, emitted, err := l.Observe(true)
	if err != nil {
		t.Fatalf("Observe() error = %v", err)
	}
	if !emitted {
		t.Fatal("first face should be logged")
	}
	if !ev.Time.Equal(clock.t) || ev.Message != DefaultMessage {
		t.Errorf("event = %+v", ev)
	}

	lines := readLines(t, path)
	if len(lines) != 1 || lines[0] != "01/01/2024 12:00:00 - "+DefaultMessage {
		t.Errorf("log lines = %q", lines)
	}
}

func TestLogger_NoFaceNeverLogs(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l, path := newTestLogger(t, clock)

	for i := 0; i < 10; i++ {
		if _, emitted, err := l.Observe(false); emitted || err != nil {
			t.Fatalf("Observe(false) = %v, %v", emitted, err)
		}
		clock.advance(time.Second)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("log file should not exist, stat err = %v", err)
	}
	if !l.LastLogged().IsZero() {
		t.Error("debounce state should be untouched by absent faces")
	}
}

func TestLogger_Debounce(t *testing.T) {
	tests := []struct {
		name     string
		faces    []bool
		interval time.Duration
		want     []int // indices of frames that emit
	}{
		{
			name:     "continuous presence at 0.5s",
			faces:    []bool{true, true, true, true, true, true, true, true, true},
			interval: 500 * time.Millisecond,
			want:     []int{0, 4, 8},
		},
		{
			name:     "exactly the debounce apart",
			faces:    []bool{true, true, true},
			interval: 2 * time.Second,
			want:     []int{0, 1, 2},
		},
		{
			name:     "just under the debounce",
			faces:    []bool{true, true, true},
			interval: 1999 * time.Millisecond,
			want:     []int{0, 2},
		},
		{
			name:     "absence does not re-arm",
			faces:    []bool{true, false, true, false, true},
			interval: 600 * time.Millisecond,
			want:     []int{0, 4},
		},
		{
			name:     "gap longer than debounce",
			faces:    []bool{false, false, false, false, false, true},
			interval: time.Second,
			want:     []int{5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)}
			l, _ := newTestLogger(t, clock)

			var got []int
			for i, face := range tt.faces {
				_, emitted, err := l.Observe(face)
				if err != nil {
					t.Fatalf("frame %d: Observe() error = %v", i, err)
				}
				if emitted {
					got = append(got, i)
				}
				clock.advance(tt.interval)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("emitted at %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("emitted at %v, want %v", got, tt.want)
				}
			}
			if l.Events() != len(tt.want) {
				t.Errorf("Events() = %d, want %d", l.Events(), len(tt.want))
			}
		})
	}
}

// Frames 1-3 face, 4 empty, 5-10 face, 0.5s apart. The window only moves on
// a successful log, so events land on frames 1, 5 and 9.
func TestLogger_TenFrameSequence(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)}
	l, path := newTestLogger(t, clock)

	faces := []bool{true, true, true, false, true, true, true, true, true, true}
	var frames []int
	for i, face := range faces {
		if _, emitted, err := l.Observe(face); err != nil {
			t.Fatalf("Observe() error = %v", err)
		} else if emitted {
			frames = append(frames, i+1)
		}
		clock.advance(500 * time.Millisecond)
	}

	want := []int{1, 5, 9}
	if len(frames) != len(want) || frames[0] != 1 || frames[1] != 5 || frames[2] != 9 {
		t.Errorf("events at frames %v, want %v", frames, want)
	}
	for _, f := range frames {
		if f == 4 {
			t.Error("frame 4 has no face and must not log")
		}
	}
	if n := len(readLines(t, path)); n != 3 {
		t.Errorf("log has %d lines, want 3", n)
	}
}

func TestLogger_DebounceStateMonotonic(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)}
	l, _ := newTestLogger(t, clock)

	l.Observe(true)
	first := l.LastLogged()

	// Clock steps backwards; the gate holds and the state does not regress.
	clock.advance(-time.Minute)
	if _, emitted, _ := l.Observe(true); emitted {
		t.Error("event emitted with clock behind last log")
	}
	if !l.LastLogged().Equal(first) {
		t.Errorf("LastLogged() = %v, want %v", l.LastLogged(), first)
	}
}

func TestLogger_AppendOnlyAcrossRuns(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)}
	path := filepath.Join(t.TempDir(), "presenca.txt")

	if err := os.WriteFile(path, []byte("01/06/2024 07:00:00 - earlier run\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for run := 0; run < 2; run++ {
		l := New(path, WithClock(clock.now), WithConsole(nil))
		if _, emitted, err := l.Observe(true); !emitted || err != nil {
			t.Fatalf("run %d: Observe() = %v, %v", run, emitted, err)
		}
		clock.advance(time.Minute)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("log has %d lines, want 3: %q", len(lines), lines)
	}
	if lines[0] != "01/06/2024 07:00:00 - earlier run" {
		t.Errorf("first line rewritten: %q", lines[0])
	}

	var prev time.Time
	for i, line := range lines {
		if !lineRE.MatchString(line) {
			t.Errorf("line %d malformed: %q", i, line)
		}
		ev, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error = %v", line, err)
		}
		if ev.Time.Before(prev) {
			t.Errorf("line %d out of order", i)
		}
		prev = ev.Time
	}
}

func TestLogger_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "logs")
	if err := os.WriteFile(blocker, []byte("a file where the directory should be"), 0644); err != nil {
		t.Fatal(err)
	}

	clock := &fakeClock{t: time.Now()}
	l := New(filepath.Join(blocker, "presenca.txt"), WithClock(clock.now), WithConsole(nil))

	_, emitted, err := l.Observe(true)
	if !errors.Is(err, ErrLogWrite) {
		t.Fatalf("Observe() error = %v, want ErrLogWrite", err)
	}
	if emitted {
		t.Error("failed write must not count as emitted")
	}
	if !l.LastLogged().IsZero() || l.Events() != 0 {
		t.Error("failed write must not move the debounce state")
	}
}

func TestLogger_ConsoleEcho(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 2, 29, 18, 30, 0, 0, time.Local)}
	var buf bytes.Buffer
	l, _ := newTestLogger(t, clock, WithConsole(&buf), WithMessage("hello"))

	l.Observe(true)

	want := "[LOG] 29/02/2024 18:30:00 - hello\n"
	if buf.String() != want {
		t.Errorf("console = %q, want %q", buf.String(), want)
	}
}

func TestLogger_CustomDebounce(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l, path := newTestLogger(t, clock, WithDebounce(0))

	for i := 0; i < 3; i++ {
		l.Observe(true)
	}

	if n := len(readLines(t, path)); n != 3 {
		t.Errorf("zero debounce logged %d lines, want 3", n)
	}
	if !strings.HasSuffix(l.Path(), "presenca.txt") {
		t.Errorf("Path() = %q", l.Path())
	}
}
