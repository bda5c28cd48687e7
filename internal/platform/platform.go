// Package platform binds the USI master to hardware. ATtiny25/45/85 builds
// drive the real USI registers; non-AVR builds get a simulated bus with demo
// slaves. Other AVR chips have no binding and do not build.
package platform

import "usitwi-go/internal/platform/boards"

// Family returns the chip family selected at build time.
func Family() boards.Family { return boards.Selected }
