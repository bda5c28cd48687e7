//go:build !twi_fast

package usitwi

import "time"

// Standard mode (100 kHz) limits, I2C specification v2.1.
const (
	FastMode = false

	tLow   = 4700 * time.Nanosecond
	tHigh  = 4000 * time.Nanosecond
	tSetup = tLow
)
