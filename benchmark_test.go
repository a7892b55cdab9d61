package slim

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/xfmoulet/qoi"
)

// loadBenchImage prefers testdata/benchmark.png and falls back to a
// synthetic picture with flat areas and gradients.
func loadBenchImage(t testing.TB) image.Image {
	t.Helper()
	if f, err := os.Open("testdata/benchmark.png"); err == nil {
		defer f.Close()
		img, err := png.Decode(f)
		if err != nil {
			t.Fatalf("failed to decode benchmark image: %v", err)
		}
		return img
	}
	r := blockyRaster(512, 384, LayoutRGB, 99)
	g := gradientRaster(256, 192, LayoutRGB)
	for y := 0; y < g.Height; y++ {
		copy(r.Pix[y*r.Stride():], g.Pix[y*g.Stride():(y+1)*g.Stride()])
	}
	return r.Image()
}

func benchmarkEncodeDecode(b *testing.B, encode func() ([]byte, error), decode func([]byte) error) {
	// Warm-up outside timed section.
	enc, err := encode()
	if err != nil {
		b.Fatalf("encode failed: %v", err)
	}
	if err := decode(enc); err != nil {
		b.Fatalf("decode failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc, err := encode()
		if err != nil {
			b.Fatalf("encode failed: %v", err)
		}
		if err := decode(enc); err != nil {
			b.Fatalf("decode failed: %v", err)
		}
	}
}

// BenchmarkCodecs runs the same encode/decode loop for every codec; each
// one reuses its buffers (and SLIM its Encoder/Decoder) between iterations.
func BenchmarkCodecs(b *testing.B) {
	img := loadBenchImage(b)

	b.Run("PNG", func(b *testing.B) {
		var buf bytes.Buffer
		var r bytes.Reader
		benchmarkEncodeDecode(b,
			func() ([]byte, error) {
				buf.Reset()
				if err := png.Encode(&buf, img); err != nil {
					return nil, err
				}
				return buf.Bytes(), nil
			},
			func(enc []byte) error {
				r.Reset(enc)
				_, err := png.Decode(&r)
				return err
			},
		)
	})

	for _, level := range []uint8{255, 128} {
		b.Run(fmt.Sprintf("SLIM_%d", level), func(b *testing.B) {
			raster, err := FromImage(img, LayoutNone)
			if err != nil {
				b.Fatal(err)
			}
			enc := NewEncoder()
			dec := NewDecoder()
			var buf bytes.Buffer
			var r bytes.Reader

			if testing.Verbose() {
				b.Logf("cpus=%d gomaxprocs=%d goroutines=%d", runtime.NumCPU(), runtime.GOMAXPROCS(0), runtime.NumGoroutine())
			}

			benchmarkEncodeDecode(b,
				func() ([]byte, error) {
					buf.Reset()
					if err := enc.Encode(&buf, raster, level); err != nil {
						return nil, err
					}
					return buf.Bytes(), nil
				},
				func(data []byte) error {
					r.Reset(data)
					_, _, err := dec.Decode(&r)
					return err
				},
			)
		})
	}

	b.Run("QOI", func(b *testing.B) {
		var buf bytes.Buffer
		var r bytes.Reader
		benchmarkEncodeDecode(b,
			func() ([]byte, error) {
				buf.Reset()
				if err := qoi.Encode(&buf, img); err != nil {
					return nil, err
				}
				return buf.Bytes(), nil
			},
			func(enc []byte) error {
				r.Reset(enc)
				_, err := qoi.Decode(&r)
				return err
			},
		)
	})
}

type summaryRow struct {
	name   string
	result testing.BenchmarkResult
	sizeB  int
	encNS  int64
	decNS  int64
}

type summaryBenchFn func(*testing.B) (sizeB int, encTotal, decTotal time.Duration)

// Run with:
//
//	go test -run TestBenchmarkSummary -v
func TestBenchmarkSummary(t *testing.T) {
	if testing.Short() || !testing.Verbose() {
		t.Skip("summary only runs with -v")
	}
	img := loadBenchImage(t)
	raster, err := FromImage(img, LayoutNone)
	if err != nil {
		t.Fatal(err)
	}

	rows := []summaryRow{
		runSummaryBench("PNG", benchStd(
			func(buf *bytes.Buffer) error { return png.Encode(buf, img) },
			func(r *bytes.Reader) error { _, err := png.Decode(r); return err },
		)),
		runSummaryBench("SLIM", benchSLIM(raster, 255)),
		runSummaryBench("SLIM_q0", benchSLIM(raster, 0)),
		runSummaryBench("QOI", benchStd(
			func(buf *bytes.Buffer) error { return qoi.Encode(buf, img) },
			func(r *bytes.Reader) error { _, err := qoi.Decode(r); return err },
		)),
	}

	fmt.Println()
	fmt.Printf("%-8s  %10s  %10s  %12s  %12s  %9s  %10s\n", "codec", "enc_ms", "dec_ms", "ns/op", "B/op", "allocs/op", "size(B)")
	fmt.Printf("%-8s  %10s  %10s  %12s  %12s  %9s  %10s\n", "--------", "----------", "----------", "------------", "------------", "---------", "----------")
	for _, r := range rows {
		fmt.Printf("%-8s  %10.3f  %10.3f  %12d  %12d  %9d  %10d\n",
			r.name,
			float64(r.encNS)/1e6,
			float64(r.decNS)/1e6,
			r.result.NsPerOp(),
			r.result.AllocedBytesPerOp(),
			r.result.AllocsPerOp(),
			r.sizeB,
		)
	}
}

func runSummaryBench(name string, fn summaryBenchFn) summaryRow {
	sizeB, encTotal, decTotal := 0, time.Duration(0), time.Duration(0)
	res := testing.Benchmark(func(b *testing.B) {
		sizeB, encTotal, decTotal = fn(b)
	})

	encNS := int64(0)
	decNS := int64(0)
	if res.N > 0 {
		encNS = encTotal.Nanoseconds() / int64(res.N)
		decNS = decTotal.Nanoseconds() / int64(res.N)
	}
	return summaryRow{name: name, result: res, sizeB: sizeB, encNS: encNS, decNS: decNS}
}

func benchStd(encode func(*bytes.Buffer) error, decode func(*bytes.Reader) error) summaryBenchFn {
	return func(b *testing.B) (int, time.Duration, time.Duration) {
		var buf bytes.Buffer
		var r bytes.Reader
		sizeB := 0
		var encTotal, decTotal time.Duration

		for i := 0; i < b.N; i++ {
			buf.Reset()
			startEnc := time.Now()
			if err := encode(&buf); err != nil {
				b.Fatalf("encode failed: %v", err)
			}
			encTotal += time.Since(startEnc)
			sizeB = buf.Len()

			r.Reset(buf.Bytes())
			startDec := time.Now()
			if err := decode(&r); err != nil {
				b.Fatalf("decode failed: %v", err)
			}
			decTotal += time.Since(startDec)
		}
		return sizeB, encTotal, decTotal
	}
}

func benchSLIM(raster *Raster, level uint8) summaryBenchFn {
	enc := NewEncoder()
	dec := NewDecoder()
	return benchStd(
		func(buf *bytes.Buffer) error { return enc.Encode(buf, raster, level) },
		func(r *bytes.Reader) error { _, _, err := dec.Decode(r); return err },
	)
}
