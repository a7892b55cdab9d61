package codec

import (
	"io"
	"slices"
)

// bitWriter appends bits to a byte slice (msb-first in each byte).
type bitWriter struct {
	buf  []byte
	byte byte
	n    uint8 // number of bits written (0..8)
}

func newBitWriter(buf []byte) bitWriter {
	return bitWriter{buf: buf}
}

// writeBit writes a single bit (msb-first in byte).
func (bw *bitWriter) writeBit(bit bool) {
	bw.byte <<= 1
	if bit {
		bw.byte |= 1
	}
	bw.n++
	if bw.n == 8 {
		bw.buf = append(bw.buf, bw.byte)
		bw.byte = 0
		bw.n = 0
	}
}

// writeUnary writes n one-bits followed by a terminating zero bit.
func (bw *bitWriter) writeUnary(n uint32) {
	for ; n > 0; n-- {
		bw.writeBit(true)
	}
	bw.writeBit(false)
}

// writeBits writes the low n bits of v, msb-first.
// For example, if n=4 and v=0b1011, this writes: 1,0,1,1.
func (bw *bitWriter) writeBits(v uint32, n uint8) {
	for n > 0 {
		n--
		bw.writeBit((v>>n)&1 != 0)
	}
}

// flush writes any remaining bits, padded with zeros, and returns the buffer.
func (bw *bitWriter) flush() []byte {
	if bw.n > 0 {
		bw.byte <<= 8 - bw.n
		bw.buf = append(bw.buf, bw.byte)
		bw.byte = 0
		bw.n = 0
	}
	return bw.buf
}

// bitReader reads bits from a byte slice (msb-first in each byte).
type bitReader struct {
	data []byte
	idx  int
	bit  uint8 // bit position in current byte (0..7), msb-first
}

func newBitReader(data []byte) bitReader {
	return bitReader{data: data}
}

// readBit returns the next bit, or io.EOF if out of data.
func (br *bitReader) readBit() (bool, error) {
	if br.idx >= len(br.data) {
		return false, io.EOF
	}
	b := br.data[br.idx]
	isSet := (b & (1 << (7 - br.bit))) != 0
	br.bit++
	if br.bit == 8 {
		br.bit = 0
		br.idx++
	}
	return isSet, nil
}

// extend grows dst by n zeroed bytes and returns the whole slice
// together with the new tail.
func extend(dst []byte, n int) ([]byte, []byte) {
	l := len(dst)
	dst = slices.Grow(dst, n)[:l+n]
	tail := dst[l:]
	clear(tail)
	return dst, tail
}

// bitAt reports whether bit pos (msb-first, counted from the start of p) is set.
func bitAt(p []byte, pos int) bool {
	return p[pos>>3]&(0x80>>(pos&7)) != 0
}

// setBit sets bit pos (msb-first, counted from the start of p).
func setBit(p []byte, pos int) {
	p[pos>>3] |= 0x80 >> (pos & 7)
}
