package slim

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	// Magic opens every SLIM file.
	Magic = "miniSLIM"

	// Version is the only format revision this package reads and writes:
	// 1.2.0.0, one byte per component from the most significant.
	Version uint32 = 1<<24 | 2<<16

	descriptorSize = 11

	// HeaderSize is the magic plus the packed descriptor.
	HeaderSize = len(Magic) + descriptorSize

	// TileSize is the edge of a tile in pixels.
	TileSize = 16
)

// Layout is the channel layout code of an image.
type Layout uint8

const (
	LayoutNone Layout = 0
	LayoutRGB  Layout = 3
	LayoutRGBA Layout = 4
	// LayoutMap marks a one-channel quantization map; it never appears in
	// a file.
	LayoutMap Layout = 5
)

// Channels returns the number of samples per pixel, 0 for unknown codes.
func (l Layout) Channels() int {
	switch l {
	case LayoutRGB:
		return 3
	case LayoutRGBA:
		return 4
	case LayoutMap:
		return 1
	}
	return 0
}

func (l Layout) String() string {
	switch l {
	case LayoutNone:
		return "none"
	case LayoutRGB:
		return "rgb"
	case LayoutRGBA:
		return "rgba"
	case LayoutMap:
		return "map"
	}
	return fmt.Sprintf("layout(%d)", uint8(l))
}

// Filter is the quantization scheme code. Only FilterColorDiv is
// implemented; the others are reserved.
type Filter uint8

const (
	FilterNone      Filter = 0
	FilterYCbCrDiv  Filter = 1
	FilterYCbCrStep Filter = 2
	FilterColorDiv  Filter = 3
	FilterStep      Filter = 4
)

// Descriptor is the fixed image header that follows the magic.
type Descriptor struct {
	Version uint32 `json:"version"`
	Width   uint16 `json:"width"`
	Height  uint16 `json:"height"`
	Layout  Layout `json:"layout"`
	Filter  Filter `json:"filter"`
	// Level is the quality level: 255 keeps every tile lossless, lower
	// values allow coarser quantization.
	Level uint8 `json:"level"`
}

// NewDescriptor returns the descriptor the encoder writes for an image.
func NewDescriptor(width, height int, layout Layout, level uint8) (Descriptor, error) {
	if width <= 0 || height <= 0 || width > 0xFFFF || height > 0xFFFF {
		return Descriptor{}, errors.Wrapf(ErrInvalidParameter, "image size %dx%d", width, height)
	}
	d := Descriptor{
		Version: Version,
		Width:   uint16(width),
		Height:  uint16(height),
		Layout:  layout,
		Filter:  FilterColorDiv,
		Level:   level,
	}
	return d, d.validate()
}

func (d Descriptor) validate() error {
	if d.Version != Version {
		return errors.Wrapf(ErrUnsupportedVersion, "version %s", versionString(d.Version))
	}
	if d.Width == 0 || d.Height == 0 {
		return errors.Wrapf(ErrInvalidParameter, "image size %dx%d", d.Width, d.Height)
	}
	if d.Layout != LayoutRGB && d.Layout != LayoutRGBA {
		return errors.Wrapf(ErrUnsupportedLayout, "layout %s", d.Layout)
	}
	if d.Filter != FilterColorDiv {
		return errors.Wrapf(ErrUnsupportedLayout, "filter %d", d.Filter)
	}
	return nil
}

// Tiles returns the number of tile columns and rows.
func (d Descriptor) Tiles() (int, int) {
	return (int(d.Width) + TileSize - 1) / TileSize, (int(d.Height) + TileSize - 1) / TileSize
}

// VersionString renders the version as major.minor.patch.build.
func (d Descriptor) VersionString() string {
	return versionString(d.Version)
}

func versionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", v>>24, (v>>16)&0xFF, (v>>8)&0xFF, v&0xFF)
}

func writeHeader(w io.Writer, d Descriptor) error {
	var buf [HeaderSize]byte
	copy(buf[:], Magic)
	p := buf[len(Magic):]
	binary.LittleEndian.PutUint32(p[0:4], d.Version)
	binary.LittleEndian.PutUint16(p[4:6], d.Width)
	binary.LittleEndian.PutUint16(p[6:8], d.Height)
	p[8] = byte(d.Layout)
	p[9] = byte(d.Filter)
	p[10] = d.Level
	if _, err := w.Write(buf[:]); err != nil {
		return writeErr(err, "header")
	}
	return nil
}

// ReadDescriptor reads and validates the magic and descriptor at the start
// of r, leaving r positioned at the first tile.
func ReadDescriptor(r io.Reader) (Descriptor, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:len(Magic)]); err != nil {
		return Descriptor{}, readErr(err, "magic")
	}
	if string(buf[:len(Magic)]) != Magic {
		return Descriptor{}, errors.Wrapf(ErrMalformedBlock, "bad magic %q", buf[:len(Magic)])
	}
	p := buf[len(Magic):]
	if _, err := io.ReadFull(r, p); err != nil {
		return Descriptor{}, readErr(err, "descriptor")
	}
	d := Descriptor{
		Version: binary.LittleEndian.Uint32(p[0:4]),
		Width:   binary.LittleEndian.Uint16(p[4:6]),
		Height:  binary.LittleEndian.Uint16(p[6:8]),
		Layout:  Layout(p[8]),
		Filter:  Filter(p[9]),
		Level:   p[10],
	}
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}
