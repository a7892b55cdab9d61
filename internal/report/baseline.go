package report

import (
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{
	New: func() any {
		return mustNewZstdEncoder()
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

func compressZstd(data []byte) []byte {
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, nil)
	zstdEncPool.Put(enc)
	return out
}

func decompressZstd(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	return out, err
}

// Baseline holds general-purpose compressed sizes of a raw raster, the
// yardstick the SLIM size is reported against.
type Baseline struct {
	Raw  int `json:"raw"`
	Zstd int `json:"zstd"`
	S2   int `json:"s2"`
}

// Baselines compresses pix with zstd and s2 and checks both round trip.
func Baselines(pix []byte) (Baseline, error) {
	b := Baseline{Raw: len(pix)}
	if len(pix) == 0 {
		return b, nil
	}

	z := compressZstd(pix)
	if plain, err := decompressZstd(z); err != nil || len(plain) != len(pix) {
		return b, errors.Errorf("zstd baseline did not round trip: %v", err)
	}
	b.Zstd = len(z)

	s := s2.EncodeBetter(nil, pix)
	if n, err := s2.DecodedLen(s); err != nil || n != len(pix) {
		return b, errors.Errorf("s2 baseline did not round trip: %v", err)
	}
	b.S2 = len(s)
	return b, nil
}
