// Package stream opens files as random-access byte streams in the five
// modes the SLIM tools use.
package stream

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Mode selects how a file is opened.
type Mode uint8

const (
	// Write creates or truncates the file for writing.
	Write Mode = iota
	// Read opens an existing file read-only.
	Read
	// Append writes at the end of the file, creating it if needed.
	Append
	// CRW creates or truncates the file for reading and writing.
	CRW
	// ORW opens an existing file for reading and writing.
	ORW
)

var ErrMode = errors.New("stream: unknown mode")

func (m Mode) String() string {
	switch m {
	case Write:
		return "write"
	case Read:
		return "read"
	case Append:
		return "append"
	case CRW:
		return "crw"
	case ORW:
		return "orw"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func (m Mode) flags() (int, error) {
	switch m {
	case Write:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case Read:
		return os.O_RDONLY, nil
	case Append:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case CRW:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case ORW:
		return os.O_RDWR, nil
	}
	return 0, errors.Wrapf(ErrMode, "%d", uint8(m))
}

// File is an open stream. It is an io.ReadWriteSeeker, so SLIM readers
// can skip payloads with Seek.
type File struct {
	f    *os.File
	mode Mode
}

var _ io.ReadWriteSeeker = (*File)(nil)

// Open opens path in the given mode.
func Open(path string, mode Mode) (*File, error) {
	flag, err := mode.flags()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s (%s)", path, mode)
	}
	return &File{f: f, mode: mode}, nil
}

func (s *File) Mode() Mode { return s.mode }

func (s *File) Name() string { return s.f.Name() }

func (s *File) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *File) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *File) Seek(offset int64, whence int) (int64, error) { return s.f.Seek(offset, whence) }

// Pos returns the current offset.
func (s *File) Pos() (int64, error) { return s.f.Seek(0, io.SeekCurrent) }

// Size returns the file length in bytes without moving the offset.
func (s *File) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", s.f.Name())
	}
	return fi.Size(), nil
}

// Close syncs written data for the writable modes and closes the file.
func (s *File) Close() error {
	if s.mode != Read {
		if err := s.f.Sync(); err != nil {
			s.f.Close()
			return errors.Wrapf(err, "sync %s", s.f.Name())
		}
	}
	return s.f.Close()
}

// Size returns the length of the file at path.
func Size(path string) (int64, error) {
	s, err := Open(path, Read)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return s.Size()
}
