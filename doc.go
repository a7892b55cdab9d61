// Package slim reads and writes SLIM ("miniSLIM") still images.
//
// An image is cut into 16x16 tiles in row-major order. Each tile is
// quantized by a divisor picked from its colour count and the file's
// quality level, then stored as up to four channel palettes plus one index
// array. A stream identical to the previous tile's is marked as reused and
// costs nothing; any other stream is stored with whichever bit codec from
// package codec gives the smallest result.
//
// File layout, little-endian:
//
//	magic      "miniSLIM"
//	descriptor version u32, width u16, height u16, layout u8, filter u8, level u8
//	tiles      per tile: metadata u16, one size byte (len-1) per stored
//	           stream, then the stored payloads in order ch0 ch1 ch2 [ch3] index
//
// There is no end marker and no checksum.
package slim
