package slim

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"github.com/VERTEXSoftware/toSLIM/codec"
)

func init() {
	image.RegisterFormat("slim", Magic, DecodeImage, DecodeConfig)
}

// tileHeader is the parsed metadata word and size bytes of one tile.
type tileHeader struct {
	sel   Selection
	quant uint8
	sizes [numStreams]int // payload length per slot, 0 for reused slots
}

func (h *tileHeader) payloadLen() int {
	n := 0
	for _, s := range h.sizes {
		n += s
	}
	return n
}

func (h *tileHeader) divisor() int { return int(h.quant) << 1 }

// tileReader walks the tile records that follow the descriptor.
type tileReader struct {
	r      io.Reader
	layout Layout

	buf     [2 + numStreams]byte
	payload [numStreams * maxTilePixels]byte
}

func (tr *tileReader) reset(r io.Reader, layout Layout) {
	tr.r = r
	tr.layout = layout
}

func (tr *tileReader) header(h *tileHeader) error {
	if _, err := io.ReadFull(tr.r, tr.buf[:2]); err != nil {
		return readErr(err, "tile metadata")
	}
	sel, quant, err := UnpackSelection(binary.LittleEndian.Uint16(tr.buf[:2]))
	if err != nil {
		return err
	}
	if err := sel.validFor(tr.layout); err != nil {
		return err
	}
	h.sel, h.quant = sel, quant

	sizes := tr.buf[2 : 2+sel.Original()]
	if _, err := io.ReadFull(tr.r, sizes); err != nil {
		return readErr(err, "tile sizes")
	}
	for s, t := range sel {
		h.sizes[s] = 0
		if t != codec.TagReuse {
			h.sizes[s] = int(sizes[0]) + 1
			sizes = sizes[1:]
		}
	}
	return nil
}

// payloads reads the tile's payload bytes into the reader's scratch.
func (tr *tileReader) payloads(h *tileHeader) ([]byte, error) {
	p := tr.payload[:h.payloadLen()]
	if _, err := io.ReadFull(tr.r, p); err != nil {
		return nil, readErr(err, "tile payload")
	}
	return p, nil
}

// skip moves past the tile's payload without decoding it.
func (tr *tileReader) skip(h *tileHeader) error {
	n := int64(h.payloadLen())
	if n == 0 {
		return nil
	}
	if s, ok := tr.r.(io.Seeker); ok {
		if _, err := s.Seek(n, io.SeekCurrent); err != nil {
			return errors.Wrap(err, "skip tile payload")
		}
		return nil
	}
	if _, err := io.CopyN(io.Discard, tr.r, n); err != nil {
		return readErr(err, "tile payload")
	}
	return nil
}

// apply decodes every original stream of the tile into st. Reused slots
// keep their previous contents.
func (st *tileState) apply(h *tileHeader, payload []byte) error {
	for s, t := range h.sel {
		if t == codec.TagReuse {
			continue
		}
		n := h.sizes[s]
		if err := st.retain(s, t, payload[:n]); err != nil {
			return errors.Wrapf(ErrMalformedBlock, "stream %d: %v", s, err)
		}
		payload = payload[n:]
	}
	return nil
}

// Decoder reuses its tile scratch and read buffer across Decode calls. It
// is not safe for concurrent use.
type Decoder struct {
	br    *bufio.Reader
	tiles tileReader
	state tileState
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) reader(r io.Reader) io.Reader {
	if d.br == nil {
		d.br = bufio.NewReader(r)
	} else {
		d.br.Reset(r)
	}
	return d.br
}

// Decode reads a whole SLIM file. Header errors are reported before any
// pixel memory is allocated; any later error discards the partial raster.
func (d *Decoder) Decode(r io.Reader) (*Raster, Descriptor, error) {
	br := d.reader(r)
	desc, err := ReadDescriptor(br)
	if err != nil {
		return nil, Descriptor{}, err
	}

	out := NewRaster(int(desc.Width), int(desc.Height), desc.Layout)
	d.tiles.reset(br, desc.Layout)
	d.state = tileState{}

	var h tileHeader
	for y0 := 0; y0 < out.Height; y0 += TileSize {
		for x0 := 0; x0 < out.Width; x0 += TileSize {
			if err := d.tiles.header(&h); err != nil {
				return nil, desc, err
			}
			payload, err := d.tiles.payloads(&h)
			if err != nil {
				return nil, desc, err
			}
			if err := d.state.apply(&h, payload); err != nil {
				return nil, desc, err
			}
			d.paint(out, x0, y0, h.divisor())
		}
	}
	return out, desc, nil
}

// paint writes the tile at (x0, y0) from the retained palettes and index.
func (d *Decoder) paint(out *Raster, x0, y0, div int) {
	ch := out.Channels()
	stride := out.Stride()
	w := min(TileSize, out.Width-x0)
	h := min(TileSize, out.Height-y0)

	k := 0
	for y := 0; y < h; y++ {
		row := out.Pix[(y0+y)*stride+x0*ch:]
		for x := 0; x < w; x++ {
			ix := d.state.streams[streamIndex][k]
			p := row[x*ch : x*ch+ch]
			for c := range p {
				v := int(d.state.streams[c][ix])
				if div > 0 {
					v = min(v*div, 0xFF)
				}
				p[c] = byte(v)
			}
			k++
		}
	}
}

// Decode reads a SLIM file with a fresh Decoder.
func Decode(r io.Reader) (*Raster, Descriptor, error) {
	return NewDecoder().Decode(r)
}

// DecodeImage decodes a SLIM file into an *image.NRGBA.
func DecodeImage(r io.Reader) (image.Image, error) {
	out, _, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return out.Image(), nil
}

// DecodeConfig returns the image size without decoding any tile.
func DecodeConfig(r io.Reader) (image.Config, error) {
	d, err := ReadDescriptor(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(d.Width),
		Height:     int(d.Height),
	}, nil
}
