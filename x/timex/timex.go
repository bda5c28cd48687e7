package timex

import "time"

// PeriodFromHz returns the period of a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Duration(uint64(time.Second) / uint64(freqHz))
}

// HzFromPeriod is the inverse of PeriodFromHz, rounding down.
func HzFromPeriod(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(time.Second / d)
}
