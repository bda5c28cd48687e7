//go:build !(attiny25 || attiny45 || attiny85 || attiny24 || attiny44 || attiny84 || attiny2313 || attiny4313)

package boards

// Host builds use the ATtiny85 wiring for the simulator.
var Selected = Family{Name: "host", Port: tiny85.Port, SDA: tiny85.SDA, SCL: tiny85.SCL}
