package slim

import (
	"bytes"

	"github.com/VERTEXSoftware/toSLIM/codec"
)

const maxTilePixels = TileSize * TileSize

// tileState is the previous tile as the decoder sees it: every stream slot
// holds what the last original stream of that slot decoded to, zero padded
// to 256 entries. Encoder and decoder both start from all zeros.
type tileState struct {
	streams [numStreams][maxTilePixels]byte
}

// matches reports whether src equals the retained prefix of slot s.
func (st *tileState) matches(s int, src []byte) bool {
	return bytes.Equal(st.streams[s][:len(src)], src)
}

// retain replaces slot s with the decoding of enc.
func (st *tileState) retain(s int, tag codec.Tag, enc []byte) error {
	clear(st.streams[s][:])
	_, err := codec.DecodeByTag(tag, st.streams[s][:], enc)
	return err
}

// tile is one 16x16 window, clipped at the right and bottom edges, with
// its quantized palettes and index array.
type tile struct {
	x0, y0 int
	w, h   int

	quant  uint8
	colors int

	palette [4][maxTilePixels]byte
	index   [maxTilePixels]byte
}

func (t *tile) pixels() int { return t.w * t.h }

func (t *tile) divisor() int { return int(t.quant) << 1 }

// stream returns the live prefix of slot s.
func (t *tile) stream(s int) []byte {
	if s == streamIndex {
		return t.index[:t.pixels()]
	}
	return t.palette[s][:t.colors]
}

func (t *tile) place(x0, y0, width, height int) {
	t.x0, t.y0 = x0, y0
	t.w = min(TileSize, width-x0)
	t.h = min(TileSize, height-y0)
	t.colors = 0
	t.quant = 0
}

// analyzeTile estimates how coarsely the tile can be quantized at the
// given level. It counts the tile's distinct colours, derives a candidate
// index from the count, scores the error of that candidate and scales it
// by the level; the result is in [0, maxQuant] and never grows with level.
func analyzeTile(r *Raster, t *tile, level uint8) uint8 {
	ch := r.Channels()
	stride := r.Stride()

	var seen [maxTilePixels]uint32
	count := 0
	for y := 0; y < t.h; y++ {
		row := r.Pix[(t.y0+y)*stride+t.x0*ch:]
		for x := 0; x < t.w; x++ {
			p := row[x*ch:]
			c := uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8
			if ch > 3 {
				c |= uint32(p[3])
			}
			found := false
			for _, s := range seen[:count] {
				if s == c {
					found = true
					break
				}
			}
			if !found {
				seen[count] = c
				count++
			}
		}
	}

	levelq := uint32(float64(count) * 0.0274509803) // 7/255
	inv := 1.0
	if levelq != 0 {
		inv = 1.0 / float64(levelq) * 2.0
	}

	var mse float64
	samples := 0
	for y := 0; y < t.h; y++ {
		row := r.Pix[(t.y0+y)*stride+t.x0*ch:]
		for _, v := range row[:t.w*ch] {
			c := float64(v)
			d := c - c*inv
			mse += d * d
		}
		samples += t.w * ch
	}

	score := 1.0 - mse/float64(samples)/65025.0
	score = min(max(score, 0), 1)
	factor := (255.0 - float64(level)) * 0.0156862745 // 4/255

	return uint8(min(uint32(float64(levelq)*score*factor), maxQuant))
}

// insertColor places c in the palette, kept ascending by packed value, and
// records its position for pixel k. Inserting shifts later entries right,
// so indices already recorded at or past the insert point move with them.
func (t *tile) insertColor(k int, c [4]byte, ch int) {
	key := func(i int) uint32 {
		v := uint32(t.palette[0][i])<<24 | uint32(t.palette[1][i])<<16 | uint32(t.palette[2][i])<<8
		if ch > 3 {
			v |= uint32(t.palette[3][i])
		}
		return v
	}
	want := uint32(c[0])<<24 | uint32(c[1])<<16 | uint32(c[2])<<8
	if ch > 3 {
		want |= uint32(c[3])
	}

	pos := 0
	for ; pos < t.colors; pos++ {
		cur := key(pos)
		if cur == want {
			t.index[k] = byte(pos)
			return
		}
		if cur > want {
			break
		}
	}

	for i := 0; i < k; i++ {
		if int(t.index[i]) >= pos {
			t.index[i]++
		}
	}
	for i := 0; i < ch; i++ {
		p := &t.palette[i]
		copy(p[pos+1:t.colors+1], p[pos:t.colors])
		p[pos] = c[i]
	}
	t.index[k] = byte(pos)
	t.colors++
}

// buildTile quantizes the tile at (x0, y0) and fills its palettes and
// index array. It only reads r, so tiles may be built concurrently.
func buildTile(r *Raster, t *tile, x0, y0 int, level uint8) {
	t.place(x0, y0, r.Width, r.Height)
	t.quant = analyzeTile(r, t, level)
	div := t.divisor()

	ch := r.Channels()
	stride := r.Stride()
	k := 0
	for y := 0; y < t.h; y++ {
		row := r.Pix[(t.y0+y)*stride+t.x0*ch:]
		for x := 0; x < t.w; x++ {
			var c [4]byte
			copy(c[:ch], row[x*ch:])
			if ch == 4 && c[3] == 0 {
				c[0], c[1], c[2] = 0, 0, 0
			}
			if div > 0 {
				for i := 0; i < ch; i++ {
					c[i] = byte(int(c[i]) / div)
				}
			}
			t.insertColor(k, c, ch)
			k++
		}
	}
}
