//go:build !avr && !(attiny25 || attiny45 || attiny85)

package platform

import (
	"usitwi-go/drivers/usitwi"
	"usitwi-go/drivers/usitwi/usisim"
)

// NewPort returns a simulated bus with a 24C02 at 0x50 and an 8-bit
// expander at 0x20.
func NewPort() usitwi.Port {
	return usisim.New(
		usisim.NewMemory(0x50, 256, 8),
		usisim.NewExpander(0x20),
	)
}
