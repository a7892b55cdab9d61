package slim

import (
	"bufio"
	"encoding/binary"
	"image"
	"io"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/VERTEXSoftware/toSLIM/codec"
)

// Encoder reuses its tile scratch, revolver buffers and output buffer
// across Encode calls. It is not safe for concurrent use.
type Encoder struct {
	// Parallel builds the palettes of one tile row on several goroutines.
	// The output is identical either way.
	Parallel bool

	rev   codec.Revolver
	state tileState
	row   []tile

	bw      *bufio.Writer
	payload []byte
}

func NewEncoder() *Encoder {
	return &Encoder{Parallel: true}
}

// Encode writes r as a SLIM file at the given quality level.
func (e *Encoder) Encode(w io.Writer, r *Raster, level uint8) error {
	if err := r.validate(); err != nil {
		return err
	}
	d, err := NewDescriptor(r.Width, r.Height, r.Layout, level)
	if err != nil {
		return err
	}
	return e.EncodeDescriptor(w, r, d)
}

// EncodeDescriptor writes r under an explicit descriptor, which must match
// the raster's size and layout.
func (e *Encoder) EncodeDescriptor(w io.Writer, r *Raster, d Descriptor) error {
	if err := r.validate(); err != nil {
		return err
	}
	if err := d.validate(); err != nil {
		return err
	}
	if int(d.Width) != r.Width || int(d.Height) != r.Height || d.Layout != r.Layout {
		return errors.Wrapf(ErrInvalidParameter, "descriptor %dx%d %s does not match raster %dx%d %s",
			d.Width, d.Height, d.Layout, r.Width, r.Height, r.Layout)
	}

	if e.bw == nil {
		e.bw = bufio.NewWriter(w)
	} else {
		e.bw.Reset(w)
	}
	e.state = tileState{}

	if err := writeHeader(e.bw, d); err != nil {
		return err
	}

	cols, rows := d.Tiles()
	if cap(e.row) < cols {
		e.row = make([]tile, cols)
	}
	e.row = e.row[:cols]

	for ty := 0; ty < rows; ty++ {
		e.buildRow(r, ty*TileSize, d.Level)
		for i := range e.row {
			if err := e.writeTile(&e.row[i], r.Layout); err != nil {
				return err
			}
		}
	}
	if err := e.bw.Flush(); err != nil {
		return writeErr(err, "tiles")
	}
	return nil
}

// buildRow fills e.row with the tiles whose top edge is y0.
func (e *Encoder) buildRow(r *Raster, y0 int, level uint8) {
	workers := 1
	if e.Parallel {
		workers = min(runtime.GOMAXPROCS(0), len(e.row))
	}
	if workers <= 1 {
		for i := range e.row {
			buildTile(r, &e.row[i], i*TileSize, y0, level)
		}
		return
	}

	// Each worker owns a disjoint run of tiles.
	var wg sync.WaitGroup
	per := (len(e.row) + workers - 1) / workers
	for start := 0; start < len(e.row); start += per {
		end := min(start+per, len(e.row))
		wg.Add(1)
		go buildTileRun(r, e.row[start:end], start, y0, level, &wg)
	}
	wg.Wait()
}

func buildTileRun(r *Raster, tiles []tile, first, y0 int, level uint8, wg *sync.WaitGroup) {
	defer wg.Done()
	for i := range tiles {
		buildTile(r, &tiles[i], (first+i)*TileSize, y0, level)
	}
}

// writeTile compares every stream with the retained state, runs the
// revolver over the ones that changed and writes metadata, size bytes and
// payloads.
func (e *Encoder) writeTile(t *tile, layout Layout) error {
	var sel Selection
	var sizes [numStreams]byte
	n := 0
	e.payload = e.payload[:0]

	for s := 0; s < numStreams; s++ {
		if s == streamCh3 && layout == LayoutRGB {
			continue
		}
		src := t.stream(s)
		if e.state.matches(s, src) {
			continue
		}
		tag, enc, err := e.rev.Select(src)
		if err != nil {
			return err
		}
		sel[s] = tag
		sizes[n] = byte(len(enc) - 1)
		n++
		e.payload = append(e.payload, enc...)
		if err := e.state.retain(s, tag, enc); err != nil {
			return err
		}
	}

	var meta [2]byte
	binary.LittleEndian.PutUint16(meta[:], sel.Pack(t.quant))
	if _, err := e.bw.Write(meta[:]); err != nil {
		return writeErr(err, "tile metadata")
	}
	if _, err := e.bw.Write(sizes[:n]); err != nil {
		return writeErr(err, "tile sizes")
	}
	if _, err := e.bw.Write(e.payload); err != nil {
		return writeErr(err, "tile payload")
	}
	return nil
}

// Encode writes r with a fresh serial Encoder.
func Encode(w io.Writer, r *Raster, level uint8) error {
	var e Encoder
	return e.Encode(w, r, level)
}

// EncodeImage converts img with FromImage and encodes it.
func EncodeImage(w io.Writer, img image.Image, level uint8) error {
	r, err := FromImage(img, LayoutNone)
	if err != nil {
		return err
	}
	return Encode(w, r, level)
}
