//go:build !avr

package strconvx

import "strconv"

// Host builds delegate to strconv.

func Itoa(i int) string                    { return strconv.Itoa(i) }
func FormatUint(u uint64, base int) string { return strconv.FormatUint(u, base) }
func ParseUint(s string, base, bitSize int) (uint64, error) {
	return strconv.ParseUint(s, base, bitSize)
}
