package report

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	slim "github.com/VERTEXSoftware/toSLIM"
	"github.com/VERTEXSoftware/toSLIM/codec"
)

// Info is the report toslim -i prints for one file.
type Info struct {
	File     string   `json:"file"`
	Format   string   `json:"format"`
	Version  string   `json:"version,omitempty"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Channels int      `json:"channels"`
	Size     int64    `json:"size"`
	Ratio    string   `json:"ratio"`
	Baseline Baseline `json:"baseline"`

	Tiles   *TileInfo   `json:"tiles,omitempty"`
	Streams *StreamInfo `json:"streams,omitempty"`
}

// TileInfo is the per-tile part of a SLIM report.
type TileInfo struct {
	Total      int     `json:"total"`
	WithData   int     `json:"with_data"`
	Empty      int     `json:"empty"`
	PaletteMin int     `json:"palette_min"`
	PaletteMax int     `json:"palette_max"`
	PaletteAvg float64 `json:"palette_avg"`
	QuantMin   int     `json:"quant_min"`
	QuantMax   int     `json:"quant_max"`
	QuantAvg   float64 `json:"quant_avg"`
}

// StreamInfo counts stream slots by how they were stored.
type StreamInfo struct {
	Total    int      `json:"total"`
	Reuse    TagShare `json:"reuse"`
	Raw      TagShare `json:"raw"`
	RLE      TagShare `json:"rle"`
	Rice     TagShare `json:"rice"`
	SLDD     TagShare `json:"sldd"`
	Maskared TagShare `json:"maskared"`
}

type TagShare struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// NewInfo fills the common fields from a decoded raster and the file size.
func NewInfo(file, format string, r *slim.Raster, size int64) (*Info, error) {
	b, err := Baselines(r.Pix)
	if err != nil {
		return nil, err
	}
	return &Info{
		File:     file,
		Format:   format,
		Width:    r.Width,
		Height:   r.Height,
		Channels: r.Channels(),
		Size:     size,
		Ratio:    CompressionRatio(int64(len(r.Pix)), size),
		Baseline: b,
	}, nil
}

// AddStats attaches the SLIM tile walk to the report.
func (in *Info) AddStats(st *slim.Stats) {
	in.Version = st.Descriptor.VersionString()
	in.Tiles = &TileInfo{
		Total:      st.Tiles,
		WithData:   st.TilesWithData,
		Empty:      st.EmptyTiles,
		PaletteMin: st.PaletteMin,
		PaletteMax: st.PaletteMax,
		PaletteAvg: st.PaletteAvg,
		QuantMin:   st.QuantMin,
		QuantMax:   st.QuantMax,
		QuantAvg:   st.QuantAvg,
	}
	share := func(t codec.Tag) TagShare {
		return TagShare{Count: st.Count(t), Percent: Percent(st.Count(t), st.Streams)}
	}
	in.Streams = &StreamInfo{
		Total:    st.Streams,
		Reuse:    share(codec.TagReuse),
		Raw:      share(codec.TagRaw),
		RLE:      share(codec.TagRunLength),
		Rice:     share(codec.TagRice),
		SLDD:     share(codec.TagDualMask),
		Maskared: share(codec.TagMask),
	}
}

// YAML renders any report value.
func YAML(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "render report")
	}
	return out, nil
}

// Percent returns value as a share of total, 0 when total is 0.
func Percent(value, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(value) * 100 / float64(total)
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	v := float64(size)
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}

// CompressionRatio describes how compressed relates to original.
func CompressionRatio(original, compressed int64) string {
	if original <= 0 || compressed <= 0 {
		return "incorrect data"
	}
	ratio := float64(original) / float64(compressed)
	percent := (1 - float64(compressed)/float64(original)) * 100
	if compressed <= original {
		return fmt.Sprintf("%.2f (%.2f%% economy)", ratio, percent)
	}
	return fmt.Sprintf("%.2f (%.2f%% inflation)", ratio, -percent)
}

var magma = [8]color.NRGBA{
	{0, 0, 4, 255},
	{36, 0, 68, 255},
	{80, 18, 100, 255},
	{140, 40, 120, 255},
	{191, 65, 90, 255},
	{220, 100, 60, 255},
	{246, 180, 80, 255},
	{255, 245, 220, 255},
}

// MapImage colours a quantization map: one magma shade per quantization
// index, dark for lossless tiles.
func MapImage(m *slim.Raster) (*image.NRGBA, error) {
	if m == nil || m.Layout != slim.LayoutMap {
		return nil, errors.Wrap(slim.ErrUnsupportedLayout, "not a quantization map")
	}
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for k, div := range m.Pix {
		img.SetNRGBA(k%m.Width, k/m.Width, magma[min(int(div>>1), len(magma)-1)])
	}
	return img, nil
}
