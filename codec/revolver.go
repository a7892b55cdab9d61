package codec

import (
	"github.com/pkg/errors"
)

// candidates is the revolver's trial order. Raw is the baseline, so a
// transform is chosen only when it is strictly smaller, and ties resolve
// to the lower tag.
var candidates = [...]Codec{Raw{}, RunLength{}, Rice{}, DualMask{}, Mask{}}

// Revolver runs every codec against a buffer and keeps the smallest
// result. It reuses its scratch buffers between calls and is not safe for
// concurrent use.
type Revolver struct {
	scratch [len(candidates)][]byte
}

// Select returns the tag and encoding of the smallest candidate for src.
// The returned slice is owned by r and is overwritten by the next call.
func (r *Revolver) Select(src []byte) (Tag, []byte, error) {
	if len(src) == 0 {
		return TagReuse, nil, errors.Wrap(ErrInvalidParameter, "revolver: empty input")
	}

	best := -1
	for i, c := range candidates {
		enc, err := c.Append(r.scratch[i][:0], src)
		if err != nil {
			return TagReuse, nil, err
		}
		r.scratch[i] = enc
		if best < 0 || len(enc) < len(r.scratch[best]) {
			best = i
		}
	}
	return candidates[best].Tag(), r.scratch[best], nil
}

// SelectBest is the allocating form of Revolver.Select.
func SelectBest(src []byte) (Tag, []byte, error) {
	var r Revolver
	return r.Select(src)
}

// DecodeByTag decodes src into dst with the codec named by t and returns
// the number of bytes written. TagReuse leaves dst untouched: the caller
// already holds the value.
func DecodeByTag(t Tag, dst, src []byte) (int, error) {
	if t == TagReuse {
		return 0, nil
	}
	c, ok := ForTag(t)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidParameter, "revolver: unknown tag %d", uint8(t))
	}
	return c.DecodeInto(dst, src)
}
