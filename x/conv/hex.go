package conv

const hexd = "0123456789ABCDEF"

// U8Hex writes 2-digit uppercase hex without 0x into the tail of buf.
func U8Hex(buf []byte, n uint8) []byte {
	if len(buf) < 2 {
		return buf[:0]
	}
	i := len(buf) - 2
	buf[i] = hexd[n>>4]
	buf[i+1] = hexd[n&0xF]
	return buf[i:]
}

// AppendHex appends "0x"-prefixed hex of each byte in p to dst, space separated.
// No fmt dependency, so it is usable on AVR targets.
func AppendHex(dst []byte, p []byte) []byte {
	var b [2]byte
	for i, v := range p {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, '0', 'x')
		dst = append(dst, U8Hex(b[:], v)...)
	}
	return dst
}
