package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	slim "github.com/VERTEXSoftware/toSLIM"
	"github.com/VERTEXSoftware/toSLIM/internal/imageio"
)

func TestParseArgs(t *testing.T) {
	for _, tc := range []struct {
		name    string
		args    []string
		mode    mode
		quality uint8
		files   int
		yes     bool
		wantErr string
	}{
		{name: "convert", args: []string{"-c", "a.png", "b.slim"}, mode: modeConvert, quality: 255, files: 2},
		{name: "quality_any_order", args: []string{"a.png", "-q", "128", "-c", "b.slim", "-y"}, mode: modeConvert, quality: 128, files: 2, yes: true},
		{name: "info", args: []string{"-i", "a.slim"}, mode: modeInfo, quality: 255, files: 1},
		{name: "analyze", args: []string{"-a", "a.png", "b.slim", "c.slim"}, mode: modeAnalyze, quality: 255, files: 3},
		{name: "map", args: []string{"-m", "a.slim"}, mode: modeMap, quality: 255, files: 1},
		{name: "default_view", args: []string{"a.slim"}, mode: modeView, quality: 255, files: 1},
		{name: "help_wins", args: []string{"-c", "-h"}, mode: modeHelp, quality: 255},
		{name: "quality_zero", args: []string{"-q", "0", "-c", "a.png", "b.slim"}, mode: modeConvert, quality: 0, files: 2},
		{name: "quality_range", args: []string{"-q", "256", "-c", "a", "b"}, wantErr: "invalid quality"},
		{name: "quality_text", args: []string{"-q", "hi", "a"}, wantErr: "invalid quality"},
		{name: "quality_missing", args: []string{"a", "-q"}, wantErr: "requires"},
		{name: "convert_one_file", args: []string{"-c", "a.png"}, wantErr: "expected at least 2"},
		{name: "same_file", args: []string{"-c", "a.png", "./a.png"}, wantErr: "same file"},
		{name: "unknown_flag", args: []string{"-x", "a.png"}, wantErr: "unknown option"},
		{name: "no_files", args: []string{"-i"}, wantErr: "expected at least 1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := parseArgs(tc.args)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("error %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if opts.mode != tc.mode || opts.quality != tc.quality || len(opts.files) != tc.files || opts.overwrite != tc.yes {
				t.Fatalf("got %+v", opts)
			}
		})
	}
}

func writePNG(t *testing.T, path string, w, h int) *slim.Raster {
	t.Helper()
	r := slim.NewRaster(w, h, slim.LayoutRGB)
	for i := range r.Pix {
		r.Pix[i] = byte(i * 7 / 3)
	}
	if err := imageio.Save(path, r, 255); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestConvertInfoAnalyze(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.slim")
	orig := writePNG(t, src, 40, 24)

	var out bytes.Buffer
	if err := run(options{mode: modeConvert, quality: 255, files: []string{src, dst}}, strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Converted") {
		t.Fatalf("output %q", out.String())
	}
	back, _, err := imageio.Load(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back.Pix, orig.Pix) {
		t.Fatal("lossless conversion changed pixels")
	}

	out.Reset()
	if err := run(options{mode: modeInfo, files: []string{dst}}, nil, &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"format: slim", "width: 40", "tiles:", "streams:"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("info lacks %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := run(options{mode: modeAnalyze, files: []string{src, dst}}, nil, &out); err != nil {
		t.Fatal(err)
	}
	// lossless round trip: infinite PSNR, perfect SSIM
	if !strings.Contains(out.String(), "psnr: +Inf dB") || !strings.Contains(out.String(), "ssim: 1.000000") {
		t.Fatalf("analyze output:\n%s", out.String())
	}
}

func TestConvertOverwritePrompt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.slim")
	writePNG(t, src, 16, 16)
	if err := os.WriteFile(dst, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := options{mode: modeConvert, quality: 255, files: []string{src, dst}}

	var out bytes.Buffer
	if err := run(opts, strings.NewReader("n\n"), &out); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "keep" {
		t.Fatal("declined prompt still overwrote the file")
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Fatalf("no prompt: %q", out.String())
	}

	if err := run(opts, strings.NewReader("y\n"), &out); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(dst); !bytes.HasPrefix(got, []byte(slim.Magic)) {
		t.Fatal("accepted prompt did not write a SLIM file")
	}
}

func TestMapMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "in.slim")
	writePNG(t, src, 32, 32)
	if err := run(options{mode: modeConvert, quality: 100, overwrite: true, files: []string{src, dst}}, nil, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	if err := run(options{mode: modeMap, overwrite: true, files: []string{dst}}, nil, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	m, f, err := imageio.Load(filepath.Join(dir, "in.map.png"))
	if err != nil {
		t.Fatal(err)
	}
	if f != imageio.PNG || m.Width != 32 || m.Height != 32 {
		t.Fatalf("map %v %dx%d", f, m.Width, m.Height)
	}

	if err := run(options{mode: modeMap, overwrite: true, files: []string{src}}, nil, &bytes.Buffer{}); err == nil {
		t.Fatal("map of a PNG should fail")
	}
}

func TestViewUnavailable(t *testing.T) {
	if err := run(options{mode: modeView, files: []string{"a.slim"}}, nil, &bytes.Buffer{}); err == nil {
		t.Fatal("view should report that no viewer exists")
	}
}
