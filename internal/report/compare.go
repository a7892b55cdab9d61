// Package report computes the numbers toslim prints: quality metrics
// between two rasters, baseline compressed sizes and the info report.
package report

import (
	"math"

	"github.com/pkg/errors"

	slim "github.com/VERTEXSoftware/toSLIM"
)

var ErrMismatch = errors.New("report: images differ in size or layout")

// Quality holds the metrics of a decoded image against its original.
type Quality struct {
	PSNR  float64 `json:"psnr"`
	PSQNR float64 `json:"psqnr"`
	SSIM  float64 `json:"ssim"`
	MAE   float64 `json:"mae"`
}

// Compare measures b against the reference a. PSNR is +Inf for identical
// images.
func Compare(a, b *slim.Raster) (Quality, error) {
	if a == nil || b == nil || a.Width != b.Width || a.Height != b.Height || a.Layout != b.Layout || len(a.Pix) != len(b.Pix) {
		return Quality{}, ErrMismatch
	}
	if len(a.Pix) == 0 {
		return Quality{}, errors.Wrap(slim.ErrInvalidParameter, "empty image")
	}
	return Quality{
		PSNR:  PSNR(a.Pix, b.Pix),
		PSQNR: PSQNR(a.Pix, b.Pix),
		SSIM:  SSIM(a, b),
		MAE:   MAE(a.Pix, b.Pix),
	}, nil
}

// PSNR is the peak signal-to-noise ratio over all samples, in dB.
func PSNR(a, b []byte) float64 {
	var mse float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		mse += d * d
	}
	mse /= float64(len(a))
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}

// PSQNR weights every squared error down by the brightness of the
// reference sample, so errors in dark areas count more.
func PSQNR(a, b []byte) float64 {
	var sum, weights float64
	for i := range a {
		p := float64(a[i])
		d := p - float64(b[i])
		w := 1 / (1 + 0.003*p*p)
		sum += d * d * w
		weights += w
	}
	mse := sum / weights
	if mse <= 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}

// MAE is the mean absolute sample difference.
func MAE(a, b []byte) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum / float64(len(a))
}

// SSIM is a single-window structural similarity over luma.
func SSIM(a, b *slim.Raster) float64 {
	ya, yb := luma(a), luma(b)
	n := float64(len(ya))

	var mu1, mu2 float64
	for i := range ya {
		mu1 += ya[i]
		mu2 += yb[i]
	}
	mu1 /= n
	mu2 /= n

	var s1, s2, s12 float64
	for i := range ya {
		d1, d2 := ya[i]-mu1, yb[i]-mu2
		s1 += d1 * d1
		s2 += d2 * d2
		s12 += d1 * d2
	}
	if n > 1 {
		s1 /= n - 1
		s2 /= n - 1
		s12 /= n - 1
	}

	const (
		c1 = (0.01 * 255) * (0.01 * 255)
		c2 = (0.03 * 255) * (0.03 * 255)
	)
	return ((2*mu1*mu2 + c1) * (2*s12 + c2)) / ((mu1*mu1 + mu2*mu2 + c1) * (s1 + s2 + c2))
}

func luma(r *slim.Raster) []float64 {
	ch := r.Channels()
	out := make([]float64, r.Width*r.Height)
	for i := range out {
		p := r.Pix[i*ch:]
		if ch >= 3 {
			out[i] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		} else {
			out[i] = float64(p[0])
		}
	}
	return out
}
