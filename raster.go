package slim

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

// Raster is an interleaved 8-bit image: Layout.Channels() samples per
// pixel, row-major, no row padding.
type Raster struct {
	Pix    []byte
	Width  int
	Height int
	Layout Layout
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int, layout Layout) *Raster {
	return &Raster{
		Pix:    make([]byte, width*height*layout.Channels()),
		Width:  width,
		Height: height,
		Layout: layout,
	}
}

// Channels returns the number of samples per pixel.
func (r *Raster) Channels() int { return r.Layout.Channels() }

// Stride returns the length of one row in bytes.
func (r *Raster) Stride() int { return r.Width * r.Channels() }

func (r *Raster) validate() error {
	if r == nil {
		return errors.Wrap(ErrInvalidParameter, "nil raster")
	}
	if r.Layout != LayoutRGB && r.Layout != LayoutRGBA {
		return errors.Wrapf(ErrUnsupportedLayout, "raster layout %s", r.Layout)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "raster size %dx%d", r.Width, r.Height)
	}
	if want := r.Width * r.Height * r.Channels(); len(r.Pix) != want {
		return errors.Wrapf(ErrInvalidParameter, "raster holds %d bytes, want %d", len(r.Pix), want)
	}
	return nil
}

// toNRGBA copies any image.Image into an *image.NRGBA with bounds starting
// at (0,0). Straight alpha is what the container stores.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if m, ok := src.(*image.NRGBA); ok {
		// row copy; draw would round translucent pixels through premultiplied alpha
		for y := 0; y < b.Dy(); y++ {
			i := m.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], m.Pix[i:i+4*b.Dx()])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// FromImage converts img into a raster. LayoutNone picks RGBA when the
// image has any transparent pixel and RGB otherwise.
func FromImage(img image.Image, layout Layout) (*Raster, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidParameter, "nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Wrapf(ErrInvalidParameter, "empty image %v", b)
	}
	src := toNRGBA(img)
	if layout == LayoutNone {
		layout = LayoutRGB
		if !src.Opaque() {
			layout = LayoutRGBA
		}
	}
	if layout != LayoutRGB && layout != LayoutRGBA {
		return nil, errors.Wrapf(ErrUnsupportedLayout, "layout %s", layout)
	}

	w, h := b.Dx(), b.Dy()
	r := NewRaster(w, h, layout)
	if layout == LayoutRGBA {
		copy(r.Pix, src.Pix)
		return r, nil
	}
	for i, j := 0, 0; i < len(src.Pix); i, j = i+4, j+3 {
		r.Pix[j] = src.Pix[i]
		r.Pix[j+1] = src.Pix[i+1]
		r.Pix[j+2] = src.Pix[i+2]
	}
	return r, nil
}

// Image returns the raster as an *image.NRGBA. RGB rasters come out
// opaque; a quantization map is rendered as gray levels.
func (r *Raster) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	switch r.Layout {
	case LayoutRGBA:
		copy(img.Pix, r.Pix)
	case LayoutRGB:
		for i, j := 0, 0; j+2 < len(r.Pix); i, j = i+4, j+3 {
			img.Pix[i] = r.Pix[j]
			img.Pix[i+1] = r.Pix[j+1]
			img.Pix[i+2] = r.Pix[j+2]
			img.Pix[i+3] = 0xFF
		}
	case LayoutMap:
		for k, v := range r.Pix {
			img.SetNRGBA(k%r.Width, k/r.Width, color.NRGBA{R: v, G: v, B: v, A: 0xFF})
		}
	}
	return img
}
