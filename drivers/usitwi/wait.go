package usitwi

import "time"

// Waiter is the blocking-wait strategy used by the master. Delays are fixed
// busy-waits between line transitions; Until blocks until ready reports true
// and is only used for the SCL-high (clock stretching) synchronisation point.
// Neither can be cancelled. Swapping the Waiter is the hook for targets where
// waits should yield instead of spin.
type Waiter interface {
	Delay(d time.Duration)
	Until(ready func() bool) error
}

// Spin busy-waits without any bound. A slave that never releases SCL blocks
// Until forever.
type Spin struct{}

func (Spin) Delay(d time.Duration) { spin(d) }

func (Spin) Until(ready func() bool) error {
	for !ready() {
	}
	return nil
}

// Bounded busy-waits like Spin but gives up on the SCL-high wait after Limit
// and returns ErrTimeout. The bus is left released; no recovery is attempted.
type Bounded struct {
	Limit time.Duration
}

func (Bounded) Delay(d time.Duration) { spin(d) }

func (b Bounded) Until(ready func() bool) error {
	if ready() {
		return nil
	}
	deadline := time.Now().Add(b.Limit)
	for !ready() {
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}
	return nil
}

func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
