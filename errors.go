package slim

import (
	"io"

	"github.com/pkg/errors"

	"github.com/VERTEXSoftware/toSLIM/codec"
)

var (
	// ErrInvalidParameter is shared with the codec package so callers can
	// match either layer with one sentinel.
	ErrInvalidParameter   = codec.ErrInvalidParameter
	ErrUnsupportedVersion = errors.New("slim: unsupported version")
	ErrMalformedBlock     = errors.New("slim: malformed block")
	ErrUnexpectedEOF      = errors.New("slim: unexpected end of file")
	ErrUnsupportedLayout  = errors.New("slim: unsupported layout")
)

// readErr maps a failed read of the named part to ErrUnexpectedEOF when the
// input simply ran out.
func readErr(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrUnexpectedEOF, "read %s", what)
	}
	return errors.Wrapf(err, "read %s", what)
}

func writeErr(err error, what string) error {
	if err == io.ErrShortWrite {
		return errors.Wrapf(ErrUnexpectedEOF, "write %s", what)
	}
	return errors.Wrapf(err, "write %s", what)
}
