// Package panel exposes the live detection parameters the main loop reads every frame.
package panel

import (
	"github.com/ayusman/presenca/internal/detector"
)

// Panel returns the current detection parameters. Implementations always
// return clamped values and have no side effects beyond reading input state.
type Panel interface {
	Read() detector.Params
}

// Static is a Panel that always returns the same parameters.
type Static detector.Params

// Read implements Panel.
func (s Static) Read() detector.Params {
	return detector.Params(s).Clamp()
}
