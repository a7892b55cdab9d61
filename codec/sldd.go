package codec

// DualMask (SLDD) drops a constant run of high bits and a constant run of
// low bits shared by every byte of the buffer.
//
// Header byte: bits 7..5 left run length, bits 4..2 right run length,
// bit 1 left polarity, bit 0 right polarity. Polarities are the first
// byte's MSB and LSB. The middle 8-left-right bits of every byte follow,
// msb-first. Trailing zero bytes are trimmed, down to the header byte.
type DualMask struct{}

func (DualMask) Tag() Tag { return TagDualMask }

// edgeRuns returns the number of leading bits of b equal to left and the
// number of trailing bits equal to right.
func edgeRuns(b, left, right byte) (int, int) {
	l, r := 0, 0
	lopen, ropen := true, true
	for i := 0; i < 8; i++ {
		if lopen {
			if (b>>(7-i))&1 == left {
				l++
			} else {
				lopen = false
			}
		}
		if ropen {
			if (b>>i)&1 == right {
				r++
			} else {
				ropen = false
			}
		}
	}
	return l, r
}

// middleBits returns the highest middle bit and the exclusive lower bound
// of the middle run.
func middleBits(left, right int) (byte, byte) {
	return byte(0x80) >> left, byte(0x80) >> (8 - right)
}

func (DualMask) Append(dst, src []byte) ([]byte, error) {
	if err := checkInput(TagDualMask, src); err != nil {
		return dst, err
	}

	first := src[0]
	leftc := (first >> 7) & 1
	rightc := first & 1

	left, right := 7, 7
	for _, b := range src {
		l, r := edgeRuns(b, leftc, rightc)
		left = min(left, l)
		right = min(right, r)
		if left == 0 && right == 0 {
			break
		}
	}
	if left+right > 8 {
		right = max(right-(left+right-8), 0)
	}

	size := (len(src)*(8-left-right) + 15) >> 3
	base := len(dst)
	dst, out := extend(dst, size)
	out[0] = byte(left<<5|right<<2) | leftc<<1 | rightc
	stream := out[1:]

	start, end := middleBits(left, right)
	step := 0
	for _, b := range src {
		for bit := start; bit > end; bit >>= 1 {
			if b&bit != 0 {
				setBit(stream, step)
			}
			step++
		}
	}

	for size > 1 && out[size-1] == 0 {
		size--
	}
	return dst[:base+size], nil
}

// DecodeInto always fills dst. Middle bits are read only while the packed
// stream lasts; past its end bytes carry just the two edge runs.
func (DualMask) DecodeInto(dst, src []byte) (int, error) {
	if err := checkDecode(TagDualMask, dst, src); err != nil {
		return 0, err
	}

	header := src[0]
	stream := src[1:]
	left := int(header>>5) & 7
	right := int(header>>2) & 7
	leftc := (header>>1)&1 != 0
	rightc := header&1 != 0

	var fixed byte
	if left > 0 && leftc {
		fixed |= byte((1<<left)-1) << (8 - left)
	}
	if right > 0 && rightc {
		fixed |= byte((1 << right) - 1)
	}

	start, end := middleBits(left, right)
	step := 0
	for i := range dst {
		v := fixed
		for bit := start; bit > end && step>>3 < len(stream); bit >>= 1 {
			if bitAt(stream, step) {
				v |= bit
			}
			step++
		}
		dst[i] = v
	}
	return len(dst), nil
}
