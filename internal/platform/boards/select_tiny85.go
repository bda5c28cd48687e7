//go:build attiny25 || attiny45 || attiny85

package boards

var Selected = tiny85
