//go:build attiny24 || attiny44 || attiny84

package boards

var Selected = tiny84
