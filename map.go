package slim

import (
	"bufio"
	"io"
)

// DecodeMap reads only the tile metadata of a SLIM file and returns a
// one-channel LayoutMap raster holding each pixel's quantization divisor.
// Payloads are seeked over when r is an io.Seeker and discarded otherwise.
func DecodeMap(r io.Reader) (*Raster, Descriptor, error) {
	if _, ok := r.(io.Seeker); !ok {
		r = bufio.NewReader(r)
	}
	desc, err := ReadDescriptor(r)
	if err != nil {
		return nil, Descriptor{}, err
	}

	out := NewRaster(int(desc.Width), int(desc.Height), LayoutMap)
	var tr tileReader
	tr.reset(r, desc.Layout)

	var h tileHeader
	for y0 := 0; y0 < out.Height; y0 += TileSize {
		for x0 := 0; x0 < out.Width; x0 += TileSize {
			if err := tr.header(&h); err != nil {
				return nil, desc, err
			}
			if err := tr.skip(&h); err != nil {
				return nil, desc, err
			}

			div := byte(h.divisor())
			w := min(TileSize, out.Width-x0)
			for y := y0; y < min(y0+TileSize, out.Height); y++ {
				row := out.Pix[y*out.Width+x0:]
				for x := range row[:w] {
					row[x] = div
				}
			}
		}
	}
	return out, desc, nil
}
