package slim

import (
	"github.com/pkg/errors"

	"github.com/VERTEXSoftware/toSLIM/codec"
)

// Stream slots of a tile, in file order.
const (
	streamCh0 = iota
	streamCh1
	streamCh2
	streamCh3
	streamIndex

	numStreams
)

// maxQuant is the largest quantization index; the divisor is twice it.
const maxQuant = 7

// Selection holds the tag chosen for each stream of a tile: ch0, ch1, ch2,
// ch3 and the index array.
type Selection [numStreams]codec.Tag

// Pack builds the 16-bit tile metadata word: the five tags as base-6
// digits, most significant first, shifted left by three, with the
// quantization index in the low three bits.
func (s Selection) Pack(quant uint8) uint16 {
	var v uint16
	for _, t := range s {
		v = v*codec.NumTags + uint16(t)
	}
	return v<<3 | uint16(quant&maxQuant)
}

// UnpackSelection splits a metadata word into tags and quantization index.
func UnpackSelection(code uint16) (Selection, uint8, error) {
	var s Selection
	quant := uint8(code & maxQuant)
	v := code >> 3
	for i := numStreams - 1; i >= 0; i-- {
		s[i] = codec.Tag(v % codec.NumTags)
		v /= codec.NumTags
	}
	if v != 0 {
		return s, quant, errors.Wrapf(ErrMalformedBlock, "metadata %#04x: digit out of range", code)
	}
	return s, quant, nil
}

// Original reports how many streams carry a payload.
func (s Selection) Original() int {
	n := 0
	for _, t := range s {
		if t != codec.TagReuse {
			n++
		}
	}
	return n
}

func (s Selection) validFor(layout Layout) error {
	if layout == LayoutRGB && s[streamCh3] != codec.TagReuse {
		return errors.Wrapf(ErrMalformedBlock, "rgb tile stores a fourth channel (%s)", s[streamCh3])
	}
	return nil
}
