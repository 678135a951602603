package nbs

import (
	"errors"
	"fmt"
)

// Error kinds returned by the decoder and encoder. Stage errors wrap one of these together
// with the underlying cause, so callers can check either with errors.Is.
var (
	// The declared OpenNoteBlockStudio version is outside 1..4.
	ErrUnsupportedVersion = errors.New("unsupported nbs version")
	// A header field is truncated or inconsistent.
	ErrMalformedHeader = errors.New("malformed nbs header")
	// The jump sequence is truncated, or a tick/layer index grew past its bound.
	ErrMalformedGrid = errors.New("malformed note grid")
	// A custom instrument entry is truncated.
	ErrMalformedInstrumentTable = errors.New("malformed custom instrument table")
	// The stream ended in the middle of a field.
	ErrUnexpectedEOF = errors.New("unexpected end of nbs stream")
	// The underlying reader or writer failed. The cause is wrapped alongside.
	ErrIO = errors.New("nbs i/o failure")
)

// malformed attaches a stage's error kind to a failed read.
// I/O failures only get the context; their kind stays ErrIO.
func malformed(kind, err error, format string, args ...any) error {
	context := fmt.Sprintf(format, args...)
	if errors.Is(err, ErrIO) {
		return fmt.Errorf("%s: %w", context, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, context, err)
}
