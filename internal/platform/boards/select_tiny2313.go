//go:build attiny2313 || attiny4313

package boards

var Selected = tiny2313
