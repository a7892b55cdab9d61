package main

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	slim "github.com/VERTEXSoftware/toSLIM"
	"github.com/VERTEXSoftware/toSLIM/internal/imageio"
	"github.com/VERTEXSoftware/toSLIM/internal/report"
	"github.com/VERTEXSoftware/toSLIM/internal/stream"
)

const usage = `toslim: SLIM image converter (format 1.2.0.0)

Usage:
  toslim [options] <image_a> [image_b ...]

Options:
  -c          Convert image_a to image_b (format from the extension)
  -i          Print information about image_a
  -a          Compare image_b... against image_a (PSNR/PSQNR/SSIM)
  -m          Write the quantization map of a SLIM file as a PNG
  -v          Display an image (not available in this build)
  -q <0-255>  Quality level for SLIM and JPEG output (default 255)
  -y          Overwrite the output file without asking
  -h          Show this help

Examples:
  toslim -c image.png image.slim
  toslim -c -q 128 image.png image.slim
  toslim -c image.slim image.png
  toslim -a image.png image.slim
  toslim -m image.slim map.png
`

type mode int

const (
	modeNone mode = iota
	modeView
	modeConvert
	modeAnalyze
	modeInfo
	modeMap
	modeHelp
)

type options struct {
	mode      mode
	quality   uint8
	overwrite bool
	files     []string
}

// parseArgs reads flags in any order; the last mode flag wins.
func parseArgs(args []string) (options, error) {
	opts := options{quality: 255}
	for i := 0; i < len(args); i++ {
		switch a := args[i]; a {
		case "-h":
			opts.mode = modeHelp
			return opts, nil
		case "-v":
			opts.mode = modeView
		case "-m":
			opts.mode = modeMap
		case "-c":
			opts.mode = modeConvert
		case "-i":
			opts.mode = modeInfo
		case "-a":
			opts.mode = modeAnalyze
		case "-y":
			opts.overwrite = true
		case "-q":
			if i+1 >= len(args) {
				return opts, errors.New("-q requires a quality value (0-255)")
			}
			i++
			q, err := strconv.Atoi(args[i])
			if err != nil || q < 0 || q > 255 {
				return opts, errors.Errorf("invalid quality %q: must be an integer between 0 and 255", args[i])
			}
			opts.quality = uint8(q)
		default:
			if strings.HasPrefix(a, "-") {
				return opts, errors.Errorf("unknown option %s", a)
			}
			opts.files = append(opts.files, a)
		}
	}
	if opts.mode == modeNone {
		opts.mode = modeView
	}

	need := 1
	switch opts.mode {
	case modeConvert, modeAnalyze:
		need = 2
	}
	if len(opts.files) < need {
		return opts, errors.Errorf("expected at least %d file(s), got %d", need, len(opts.files))
	}
	if opts.mode == modeConvert && filepath.Clean(opts.files[0]) == filepath.Clean(opts.files[1]) {
		return opts, errors.New("input and output are the same file")
	}
	return opts, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "toslim:", err)
		os.Exit(1)
	}
	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "toslim:", err)
		os.Exit(1)
	}
}

func run(opts options, stdin io.Reader, stdout io.Writer) error {
	switch opts.mode {
	case modeHelp:
		fmt.Fprint(stdout, usage)
		return nil
	case modeView:
		return errors.Errorf("cannot display %s: no viewer in this build; use -c or -i", opts.files[0])
	case modeConvert:
		return convert(opts, stdin, stdout)
	case modeInfo:
		return info(opts.files[0], stdout)
	case modeAnalyze:
		return analyze(opts.files, stdout)
	case modeMap:
		out := strings.TrimSuffix(opts.files[0], filepath.Ext(opts.files[0])) + ".map.png"
		if len(opts.files) > 1 {
			out = opts.files[1]
		}
		if !opts.overwrite && !confirmOverwrite(out, stdin, stdout) {
			return nil
		}
		return writeMap(opts.files[0], out)
	}
	return errors.Errorf("unknown mode %d", opts.mode)
}

// confirmOverwrite asks before replacing an existing file.
func confirmOverwrite(path string, stdin io.Reader, stdout io.Writer) bool {
	if _, err := os.Stat(path); err != nil {
		return true
	}
	fmt.Fprintf(stdout, "File %q already exists. Overwrite? [y/N]: ", path)
	answer, _ := bufio.NewReader(stdin).ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "y" || answer == "Y" {
		return true
	}
	fmt.Fprintln(stdout, "Aborted. File will not be overwritten.")
	return false
}

func convert(opts options, stdin io.Reader, stdout io.Writer) error {
	in, out := opts.files[0], opts.files[1]
	if !opts.overwrite && !confirmOverwrite(out, stdin, stdout) {
		return nil
	}
	r, _, err := imageio.Load(in)
	if err != nil {
		return err
	}
	if err := imageio.Save(out, r, opts.quality); err != nil {
		return err
	}
	size, err := stream.Size(out)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Converted %s -> %s (quality=%d, %s)\n", in, out, opts.quality, report.FormatSize(size))
	return nil
}

func info(path string, stdout io.Writer) error {
	r, f, err := imageio.Load(path)
	if err != nil {
		return err
	}
	size, err := stream.Size(path)
	if err != nil {
		return err
	}
	in, err := report.NewInfo(path, f.String(), r, size)
	if err != nil {
		return err
	}

	if f == imageio.SLIM {
		s, err := stream.Open(path, stream.Read)
		if err != nil {
			return err
		}
		defer s.Close()
		st, err := slim.Inspect(s)
		if err != nil {
			return err
		}
		in.AddStats(st)
	}

	out, err := report.YAML(in)
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

func analyze(files []string, stdout io.Writer) error {
	orig, _, err := imageio.Load(files[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "original: %s\n", files[0])
	for _, path := range files[1:] {
		r, _, err := imageio.Load(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nfile: %s\n", path)
		q, err := report.Compare(orig, r)
		if errors.Is(err, report.ErrMismatch) {
			fmt.Fprintln(stdout, "the image sizes do not match")
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "psnr: %.4f dB\npsqnr: %.4f dB\nssim: %.6f\nmae: %.4f\n", q.PSNR, q.PSQNR, q.SSIM, q.MAE)
	}
	return nil
}

func writeMap(in, out string) error {
	if imageio.Detect(in) != imageio.SLIM {
		return errors.Errorf("%s: quantization maps exist only for SLIM files", in)
	}
	s, err := stream.Open(in, stream.Read)
	if err != nil {
		return err
	}
	defer s.Close()

	m, _, err := slim.DecodeMap(s)
	if err != nil {
		return errors.Wrap(err, in)
	}
	img, err := report.MapImage(m)
	if err != nil {
		return err
	}

	f, err := stream.Open(out, stream.Write)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrap(err, out)
	}
	return f.Close()
}
