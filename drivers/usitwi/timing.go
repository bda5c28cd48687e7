package usitwi

import (
	"time"

	"usitwi-go/x/mathx"
	"usitwi-go/x/timex"
)

// Timing holds the clock periods used between line transitions.
type Timing struct {
	Low   time.Duration // minimum SCL low period (tLOW)
	High  time.Duration // minimum SCL high period (tHIGH)
	Setup time.Duration // hold between SCL observed high and SDA falling at START
}

// IsZero reports whether no period is set.
func (t Timing) IsZero() bool { return t == Timing{} }

// DefaultTiming returns the periods selected at build time: standard mode by
// default, fast mode with -tags twi_fast.
func DefaultTiming() Timing {
	return Timing{Low: tLow, High: tHigh, Setup: tSetup}
}

// Fast-mode limits are the floor for any derived timing.
const (
	minLow  = 1300 * time.Nanosecond
	minHigh = 600 * time.Nanosecond
	maxHold = 4700 * time.Nanosecond
)

// TimingForHz derives periods for an arbitrary bus frequency. The period is
// split 53/47 between low and high; neither half drops below the fast-mode
// minimums, so frequencies above 400 kHz are effectively capped.
func TimingForHz(hz uint32) Timing {
	period := timex.PeriodFromHz(hz)
	low := mathx.CeilDiv(period*53, 100)
	high := period - low
	low = mathx.Max(low, minLow)
	high = mathx.Max(high, minHigh)
	return Timing{
		Low:   low,
		High:  high,
		Setup: mathx.Clamp(high, minHigh, maxHold),
	}
}
