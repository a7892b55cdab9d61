package codec

import (
	"math"
)

// maxRiceK caps the remainder width so a sample never needs more than a
// byte of remainder bits.
const maxRiceK = 7

// Rice is a Golomb-Rice codec with one parameter k per buffer.
//
// Byte 0 holds k. Each sample v is then written as v>>k in unary (ones
// terminated by a zero) followed by the low k bits of v, msb-first.
type Rice struct{}

func (Rice) Tag() Tag { return TagRice }

// riceParameter returns floor(log2(mean(src))) clamped to [0, maxRiceK].
func riceParameter(src []byte) uint8 {
	var sum float64
	for _, v := range src {
		sum += float64(v)
	}
	avg := sum / float64(len(src))
	if avg < 1 {
		return 0
	}
	k := math.Floor(math.Log2(avg))
	if k > maxRiceK {
		return maxRiceK
	}
	return uint8(k)
}

func (Rice) Append(dst, src []byte) ([]byte, error) {
	if err := checkInput(TagRice, src); err != nil {
		return dst, err
	}

	k := riceParameter(src)
	bw := newBitWriter(append(dst, k))
	for _, v := range src {
		bw.writeUnary(uint32(v) >> k)
		bw.writeBits(uint32(v), k)
	}
	return bw.flush(), nil
}

// DecodeInto stops at the first sample the bit stream cannot complete.
func (Rice) DecodeInto(dst, src []byte) (int, error) {
	if err := checkDecode(TagRice, dst, src); err != nil {
		return 0, err
	}

	k := uint32(src[0])
	br := newBitReader(src[1:])
	for i := range dst {
		var q uint32
		for {
			bit, err := br.readBit()
			if err != nil {
				return i, nil
			}
			if !bit {
				break
			}
			q++
		}

		var r uint32
		for b := uint32(0); b < k; b++ {
			bit, err := br.readBit()
			if err != nil {
				return i, nil
			}
			r <<= 1
			if bit {
				r |= 1
			}
		}
		dst[i] = byte(q<<k | r)
	}
	return len(dst), nil
}
