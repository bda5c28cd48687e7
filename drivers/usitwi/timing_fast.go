//go:build twi_fast

package usitwi

import "time"

// Fast mode (400 kHz) limits, I2C specification v2.1.
const (
	FastMode = true

	tLow   = 1300 * time.Nanosecond
	tHigh  = 600 * time.Nanosecond
	tSetup = tHigh
)
