// Package pulse defines the Signal type, the integer pulse that
// propagates through the neural network. Signals are plain values:
// they carry an intensity and their creation time and are copied
// freely between channels.
package pulse

import (
	"time"

	"github.com/greyshaman/runen/common"
)

// Signal is an individual pulse travelling between components.
type Signal struct {
	// CreatedAt is the emission time of the pulse.
	CreatedAt time.Time
	// Intensity is the signed value of the pulse.
	Intensity common.Intensity
}

// New creates a signal with the given intensity, stamped now.
func New(intensity common.Intensity) Signal {
	return Signal{
		CreatedAt: time.Now(),
		Intensity: intensity,
	}
}

// Age returns the time elapsed since the signal was created.
func (s Signal) Age() time.Duration {
	return time.Since(s.CreatedAt)
}

// IsPositive reports whether the signal carries a positive intensity.
// Only positive pulses are emitted by axons; everything else is
// suppressed at the firing stage.
func (s Signal) IsPositive() bool {
	return s.Intensity > 0
}
