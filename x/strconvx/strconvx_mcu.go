//go:build avr

package strconvx

// AVR builds avoid strconv's tables. Bases 2..36; ParseUint rejects values
// that do not fit bitSize.

func Itoa(i int) string {
	if i < 0 {
		return "-" + formatUint(uint64(-i), 10)
	}
	return formatUint(uint64(i), 10)
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	return formatUint(u, base)
}

func formatUint(u uint64, base int) string {
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [20]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 && i > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return string(buf[i:])
}

const maxUint64 = 1<<64 - 1

type numError string

func (e numError) Error() string { return "strconvx: " + string(e) }

func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base == 0 {
		base = detectBase(&s)
	}
	if base < 2 || base > 36 || len(s) == 0 {
		return 0, numError("invalid syntax")
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d byte
		switch {
		case '0' <= c && c <= '9':
			d = c - '0'
		case 'a' <= c && c <= 'z':
			d = c - 'a' + 10
		case 'A' <= c && c <= 'Z':
			d = c - 'A' + 10
		default:
			return 0, numError("invalid syntax")
		}
		if int(d) >= base {
			return 0, numError("invalid syntax")
		}
		if v > (maxUint64-uint64(d))/uint64(base) {
			return 0, numError("value out of range")
		}
		v = v*uint64(base) + uint64(d)
	}
	if bitSize < 64 && v >= 1<<uint(bitSize) {
		return 0, numError("value out of range")
	}
	return v, nil
}

func detectBase(ps *string) int {
	s := *ps
	if len(s) >= 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			*ps = s[2:]
			return 16
		case 'b', 'B':
			*ps = s[2:]
			return 2
		case 'o', 'O':
			*ps = s[2:]
			return 8
		}
	}
	return 10
}
