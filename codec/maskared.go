package codec

// Mask (MASKARED) drops the bit positions that never change across the
// buffer.
//
// Layout: [mask][bit stream...]. A set mask bit marks a position that
// varies somewhere in the buffer. The bit stream starts with the first
// byte's value at every constant position (msb-first), directly followed
// by the varying bits of every byte. Trailing zero bytes are trimmed, down
// to two bytes.
type Mask struct{}

func (Mask) Tag() Tag { return TagMask }

func (Mask) Append(dst, src []byte) ([]byte, error) {
	if err := checkInput(TagMask, src); err != nil {
		return dst, err
	}

	first := src[0]
	var mask byte
	for _, b := range src {
		if mask == 0xFF {
			break
		}
		mask |= first ^ b
	}

	var accum byte
	step := 0
	for bit := byte(0x80); bit != 0; bit >>= 1 {
		if mask&bit == 0 {
			if first&bit != 0 {
				accum |= 0x80 >> step
			}
			step++
		}
	}

	size := (step + len(src)*(8-step) + 15) >> 3
	base := len(dst)
	dst, out := extend(dst, size)
	out[0] = mask
	stream := out[1:]
	stream[0] = accum

	if mask != 0 {
		for _, b := range src {
			for bit := byte(0x80); bit != 0; bit >>= 1 {
				if mask&bit == 0 {
					continue
				}
				if b&bit != 0 {
					setBit(stream, step)
				}
				step++
			}
		}
	}

	for size > 2 && out[size-1] == 0 {
		size--
	}
	return dst[:base+size], nil
}

// DecodeInto always fills dst. Once the bit stream is exhausted the
// remaining bytes carry only the constant bits.
func (Mask) DecodeInto(dst, src []byte) (int, error) {
	if err := checkDecode(TagMask, dst, src); err != nil {
		return 0, err
	}

	mask := src[0]
	stream := src[1:]
	var accum byte
	if len(stream) > 0 {
		accum = stream[0]
	}

	var fixed byte
	step := 0
	for bit := byte(0x80); bit != 0; bit >>= 1 {
		if mask&bit == 0 {
			if (accum<<step)&0x80 != 0 {
				fixed |= bit
			}
			step++
		}
	}

	for i := range dst {
		v := fixed
		for bit := byte(0x80); bit != 0 && step>>3 < len(stream); bit >>= 1 {
			if mask&bit == 0 {
				continue
			}
			if bitAt(stream, step) {
				v |= bit
			}
			step++
		}
		dst[i] = v
	}
	return len(dst), nil
}
