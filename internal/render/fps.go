package render

import "time"

// minFrameInterval keeps the FPS estimate finite.
const minFrameInterval = time.Microsecond

// FPSMeter estimates the instantaneous frame rate from the wall time
// between consecutive ticks.
type FPSMeter struct {
	now  func() time.Time
	prev time.Time
}

// NewFPSMeter starts a meter at the current time. A nil clock means time.Now.
func NewFPSMeter(now func() time.Time) *FPSMeter {
	if now == nil {
		now = time.Now
	}
	return &FPSMeter{now: now, prev: now()}
}

// Tick records a frame and returns 1 / elapsed since the previous tick.
func (m *FPSMeter) Tick() float64 {
	now := m.now()
	elapsed := max(now.Sub(m.prev), minFrameInterval)
	m.prev = now
	return 1.0 / elapsed.Seconds()
}
