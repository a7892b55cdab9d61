package slim

import (
	"bufio"
	"io"

	"github.com/VERTEXSoftware/toSLIM/codec"
)

// Stats summarises how a SLIM file was coded.
type Stats struct {
	Descriptor Descriptor `json:"descriptor"`

	Tiles         int `json:"tiles"`
	TilesWithData int `json:"tiles_with_data"`
	EmptyTiles    int `json:"empty_tiles"`

	// Streams counts every stream slot, five per tile; Tags splits them
	// by the tag they were stored with.
	Streams int                `json:"streams"`
	Tags    [codec.NumTags]int `json:"tags"`

	// Palette sizes are the highest index a tile's pixels use, plus one.
	PaletteMin int     `json:"palette_min"`
	PaletteMax int     `json:"palette_max"`
	PaletteAvg float64 `json:"palette_avg"`

	QuantMin int     `json:"quant_min"`
	QuantMax int     `json:"quant_max"`
	QuantAvg float64 `json:"quant_avg"`
}

// Count returns the number of streams stored with tag t.
func (s *Stats) Count(t codec.Tag) int {
	if int(t) >= len(s.Tags) {
		return 0
	}
	return s.Tags[t]
}

// Inspect walks every tile of a SLIM file without building pixels. Index
// streams are still decoded, so palette sizes account for reused streams.
func Inspect(r io.Reader) (*Stats, error) {
	br := bufio.NewReader(r)
	desc, err := ReadDescriptor(br)
	if err != nil {
		return nil, err
	}

	st := &Stats{Descriptor: desc}
	var tr tileReader
	tr.reset(br, desc.Layout)
	var state tileState
	var h tileHeader

	var paletteSum, quantSum int
	width, height := int(desc.Width), int(desc.Height)
	for y0 := 0; y0 < height; y0 += TileSize {
		for x0 := 0; x0 < width; x0 += TileSize {
			if err := tr.header(&h); err != nil {
				return nil, err
			}
			payload, err := tr.payloads(&h)
			if err != nil {
				return nil, err
			}
			if err := state.apply(&h, payload); err != nil {
				return nil, err
			}

			pixels := min(TileSize, width-x0) * min(TileSize, height-y0)
			var maxIndex byte
			for _, ix := range state.streams[streamIndex][:pixels] {
				maxIndex = max(maxIndex, ix)
			}
			colors := int(maxIndex) + 1
			quant := int(h.quant)

			if st.Tiles == 0 {
				st.PaletteMin, st.PaletteMax = colors, colors
				st.QuantMin, st.QuantMax = quant, quant
			}
			st.PaletteMin = min(st.PaletteMin, colors)
			st.PaletteMax = max(st.PaletteMax, colors)
			st.QuantMin = min(st.QuantMin, quant)
			st.QuantMax = max(st.QuantMax, quant)
			paletteSum += colors
			quantSum += quant

			st.Tiles++
			if h.sel.Original() > 0 {
				st.TilesWithData++
			} else {
				st.EmptyTiles++
			}
			for _, t := range h.sel {
				st.Tags[t]++
				st.Streams++
			}
		}
	}

	if st.Tiles > 0 {
		st.PaletteAvg = float64(paletteSum) / float64(st.Tiles)
		st.QuantAvg = float64(quantSum) / float64(st.Tiles)
	}
	return st, nil
}
