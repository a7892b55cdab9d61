// Package codec implements the four byte-oriented bit codecs used by SLIM
// tiles (run-length, Rice, MASKARED and SLDD) and the revolver that picks
// the smallest of them for every stream.
//
// The codecs are special purpose: they work on short buffers of 8-bit
// samples (palettes and index arrays of at most 256 entries) and carry no
// integrity checks. A corrupted encoding decodes to wrong bytes, not to an
// error.
package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidParameter is returned for empty input or an empty destination.
var ErrInvalidParameter = errors.New("codec: invalid parameter")

// Tag identifies how a tile stream was stored.
type Tag uint8

const (
	TagReuse     Tag = iota // stream equals the previous tile's, nothing stored
	TagRaw                  // stored verbatim
	TagRunLength            // RunLength
	TagRice                 // Rice
	TagDualMask             // DualMask (SLDD)
	TagMask                 // Mask (MASKARED)

	// NumTags is the radix of one metadata digit.
	NumTags = 6
)

func (t Tag) String() string {
	switch t {
	case TagReuse:
		return "reuse"
	case TagRaw:
		return "raw"
	case TagRunLength:
		return "rle"
	case TagRice:
		return "rice"
	case TagDualMask:
		return "sldd"
	case TagMask:
		return "maskared"
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Codec is a reversible transform of a short byte buffer.
type Codec interface {
	// Tag identifies the codec in tile metadata.
	Tag() Tag
	// Append appends the encoding of src to dst.
	Append(dst, src []byte) ([]byte, error)
	// DecodeInto fills dst from the encoding in src and returns the
	// number of bytes written. Bytes past that count are left as they were.
	DecodeInto(dst, src []byte) (int, error)
}

// Encode returns the encoding of src under c.
func Encode(c Codec, src []byte) ([]byte, error) {
	return c.Append(nil, src)
}

// Decode decodes n bytes from src under c. Bytes the encoding does not
// cover are zero.
func Decode(c Codec, src []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: decode length %d", c.Tag(), n)
	}
	dst := make([]byte, n)
	if _, err := c.DecodeInto(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// ForTag returns the codec registered under t. Reuse has no codec.
func ForTag(t Tag) (Codec, bool) {
	switch t {
	case TagRaw:
		return Raw{}, true
	case TagRunLength:
		return RunLength{}, true
	case TagRice:
		return Rice{}, true
	case TagDualMask:
		return DualMask{}, true
	case TagMask:
		return Mask{}, true
	}
	return nil, false
}

func checkInput(t Tag, src []byte) error {
	if len(src) == 0 {
		return errors.Wrapf(ErrInvalidParameter, "%s: empty input", t)
	}
	return nil
}

func checkDecode(t Tag, dst, src []byte) error {
	if len(dst) == 0 {
		return errors.Wrapf(ErrInvalidParameter, "%s: empty destination", t)
	}
	return checkInput(t, src)
}

// Raw stores the buffer as is.
type Raw struct{}

func (Raw) Tag() Tag { return TagRaw }

func (Raw) Append(dst, src []byte) ([]byte, error) {
	if err := checkInput(TagRaw, src); err != nil {
		return dst, err
	}
	return append(dst, src...), nil
}

func (Raw) DecodeInto(dst, src []byte) (int, error) {
	if err := checkDecode(TagRaw, dst, src); err != nil {
		return 0, err
	}
	return copy(dst, src), nil
}
