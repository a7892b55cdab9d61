// Package imageio loads and saves rasters in the foreign formats the
// toslim tool converts between, picking the codec from the file extension.
package imageio

import (
	"bufio"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"

	slim "github.com/VERTEXSoftware/toSLIM"
	"github.com/VERTEXSoftware/toSLIM/internal/stream"
)

// Format is an image file format.
type Format uint8

const (
	Unknown Format = iota
	PNG
	JPEG
	GIF
	BMP
	QOI
	SLIM
)

var ErrUnknownFormat = errors.New("imageio: unknown format")

var formatNames = [...]string{
	Unknown: "unknown",
	PNG:     "png",
	JPEG:    "jpeg",
	GIF:     "gif",
	BMP:     "bmp",
	QOI:     "qoi",
	SLIM:    "slim",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return formatNames[Unknown]
}

// Detect returns the format named by the extension of path.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG
	case ".jpg", ".jpeg":
		return JPEG
	case ".gif":
		return GIF
	case ".bmp":
		return BMP
	case ".qoi":
		return QOI
	case ".slim":
		return SLIM
	}
	return Unknown
}

// Decode reads one image of format f.
func Decode(r io.Reader, f Format) (*slim.Raster, error) {
	var (
		img image.Image
		err error
	)
	switch f {
	case SLIM:
		out, _, err := slim.Decode(r)
		return out, err
	case PNG:
		img, err = png.Decode(r)
	case JPEG:
		img, err = jpeg.Decode(r)
	case GIF:
		img, err = gif.Decode(r)
	case BMP:
		img, err = bmp.Decode(r)
	case QOI:
		img, err = qoi.Decode(r)
	default:
		return nil, errors.Wrap(ErrUnknownFormat, f.String())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", f)
	}
	return slim.FromImage(img, slim.LayoutNone)
}

// Encode writes r in format f. Quality applies to SLIM as the level and to
// JPEG scaled to 0..100; the other formats are lossless and ignore it.
func Encode(w io.Writer, f Format, r *slim.Raster, quality uint8) error {
	var err error
	switch f {
	case SLIM:
		return slim.Encode(w, r, quality)
	case PNG:
		err = png.Encode(w, r.Image())
	case JPEG:
		err = jpeg.Encode(w, r.Image(), &jpeg.Options{Quality: JPEGQuality(quality)})
	case BMP:
		err = bmp.Encode(w, r.Image())
	case QOI:
		err = qoi.Encode(w, r.Image())
	case GIF:
		return errors.Wrap(ErrUnknownFormat, "gif is read-only")
	default:
		return errors.Wrap(ErrUnknownFormat, f.String())
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", f)
	}
	return nil
}

// JPEGQuality maps a 0..255 level onto the 0..100 JPEG scale.
func JPEGQuality(level uint8) int {
	return int(level) * 100 / 255
}

// Load reads the image at path.
func Load(path string) (*slim.Raster, Format, error) {
	f := Detect(path)
	if f == Unknown {
		return nil, f, errors.Wrap(ErrUnknownFormat, path)
	}
	s, err := stream.Open(path, stream.Read)
	if err != nil {
		return nil, f, err
	}
	defer s.Close()

	r, err := Decode(bufio.NewReader(s), f)
	if err != nil {
		return nil, f, errors.Wrap(err, path)
	}
	return r, f, nil
}

// Save writes r to path in the format named by its extension.
func Save(path string, r *slim.Raster, quality uint8) error {
	f := Detect(path)
	if f == Unknown {
		return errors.Wrap(ErrUnknownFormat, path)
	}
	s, err := stream.Open(path, stream.Write)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(s)
	if err := Encode(bw, f, r, quality); err != nil {
		s.Close()
		return errors.Wrap(err, path)
	}
	if err := bw.Flush(); err != nil {
		s.Close()
		return errors.Wrap(err, path)
	}
	return s.Close()
}
