package nbs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxStringLength bounds length-prefixed strings so a corrupt prefix can't force a huge allocation.
const maxStringLength = 1 << 24

var errStringLength = errors.New("invalid string length")

// reader reads the little-endian primitives the format is built from.
// It keeps track of how many bytes have been consumed so errors can point at an offset.
type reader struct {
	r      io.Reader
	offset int64
	buf    [4]byte
}

func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

// fill reads exactly n bytes into the scratch buffer.
func (r *reader) fill(n int) ([]byte, error) {
	b := r.buf[:n]
	read, err := io.ReadFull(r.r, b)
	r.offset += int64(read)
	if err != nil {
		return nil, r.translate(err)
	}
	return b, nil
}

// translate maps short reads onto ErrUnexpectedEOF and any other failure onto ErrIO.
func (r *reader) translate(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w at offset %d", ErrUnexpectedEOF, r.offset)
	}
	return fmt.Errorf("%w at offset %d: %w", ErrIO, r.offset, err)
}

func (r *reader) u8() (uint8, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// optionalU8 reads a byte that may legitimately be missing at the end of the stream.
// ok is false when the stream ended cleanly before the byte.
func (r *reader) optionalU8() (v uint8, ok bool, err error) {
	b := r.buf[:1]
	read, err := io.ReadFull(r.r, b)
	r.offset += int64(read)
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, r.translate(err)
	}
	return b[0], true, nil
}

func (r *reader) i8() (int8, error) {
	v, err := r.u8()
	return int8(v), err
}

func (r *reader) bool() (bool, error) {
	v, err := r.u8()
	return v == 1, err
}

func (r *reader) u16() (uint16, error) {
	b, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) i16() (int16, error) {
	v, err := r.u16()
	return int16(v), err
}

func (r *reader) u32() (uint32, error) {
	b, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// str reads a string prefixed by its signed 32-bit byte length. No terminator follows.
// The bytes are kept as-is; nothing is validated as UTF-8.
func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	length := int32(n)
	if length < 0 || length > maxStringLength {
		return "", fmt.Errorf("%w %d at offset %d", errStringLength, length, r.offset-4)
	}
	if length == 0 {
		return "", nil
	}
	b := make([]byte, length)
	read, err := io.ReadFull(r.r, b)
	r.offset += int64(read)
	if err != nil {
		return "", r.translate(err)
	}
	return string(b), nil
}

// writer is the encoding counterpart of reader. The first error sticks and
// every later write becomes a no-op, so callers can check once per stage.
type writer struct {
	w   io.Writer
	n   int64
	err error
	buf [4]byte
}

func newWriter(w io.Writer) *writer {
	return &writer{w: w}
}

func (w *writer) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	if err != nil {
		w.err = fmt.Errorf("%w at offset %d: %w", ErrIO, w.n+int64(n), err)
	}
	w.n += int64(n)
}

func (w *writer) u8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

func (w *writer) i8(v int8) {
	w.u8(uint8(v))
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.write(w.buf[:2])
}

func (w *writer) i16(v int16) {
	w.u16(uint16(v))
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

func (w *writer) str(s string) {
	if w.err != nil {
		return
	}
	if len(s) > maxStringLength {
		w.err = fmt.Errorf("%w %d", errStringLength, len(s))
		return
	}
	w.u32(uint32(len(s)))
	if len(s) > 0 {
		w.write([]byte(s))
	}
}
