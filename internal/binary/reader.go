// Package binary provides the positional little-endian field reads used to
// decode RiDat files.
package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrNilStream is returned when a Reader is built over a nil stream.
var ErrNilStream = errors.New("nil stream")

// Reader reads fixed-width fields from an io.ReadSeeker and tracks the
// absolute position of the next byte.
type Reader struct {
	rs    io.ReadSeeker
	order binary.ByteOrder
	pos   int64
}

// NewReader creates a little-endian reader. The reader assumes the stream
// is at offset 0; call SeekTo to reposition it.
func NewReader(rs io.ReadSeeker) *Reader {
	return &Reader{
		rs:    rs,
		order: binary.LittleEndian,
		pos:   0,
	}
}

// Pos returns the absolute position of the next byte to be read.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ErrNegativeOffset is returned by SeekTo for offsets before the start of
// the stream.
var ErrNegativeOffset = errors.New("negative offset")

// SeekTo moves to an absolute offset from the start of the stream.
func (r *Reader) SeekTo(offset int64) error {
	if r.rs == nil {
		return ErrNilStream
	}
	if offset < 0 {
		return ErrNegativeOffset
	}
	pos, err := r.rs.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	r.pos = pos
	return nil
}

// ReadFull fills p completely. It returns io.EOF when no byte could be read
// and io.ErrUnexpectedEOF when only part of p was filled.
func (r *Reader) ReadFull(p []byte) error {
	if r.rs == nil {
		return ErrNilStream
	}
	n, err := io.ReadFull(r.rs, p)
	r.pos += int64(n)
	return err
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	var buf [4]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return int32(r.order.Uint32(buf[:])), nil
}

// ReadFloat32 reads an IEEE-754 single-precision value.
func (r *Reader) ReadFloat32() (float32, error) {
	var buf [4]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(r.order.Uint32(buf[:])), nil
}

// ReadFloat64 reads an IEEE-754 double-precision value.
func (r *Reader) ReadFloat64() (float64, error) {
	var buf [8]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(buf[:])), nil
}

// ReadText reads a fixed-width text field of width bytes and returns its
// content up to the first NUL byte, or the whole field when there is none.
func (r *Reader) ReadText(width int) (string, error) {
	if width <= 0 {
		return "", nil
	}
	buf := make([]byte, width)
	if err := r.ReadFull(buf); err != nil {
		return "", err
	}
	return Text(buf), nil
}

// Float32At decodes a single-precision value from b[off:off+4].
func (r *Reader) Float32At(b []byte, off int) float32 {
	return math.Float32frombits(r.order.Uint32(b[off : off+4]))
}

// Float64At decodes a double-precision value from b[off:off+8].
func (r *Reader) Float64At(b []byte, off int) float64 {
	return math.Float64frombits(r.order.Uint64(b[off : off+8]))
}

// Text truncates a fixed-width field at its first NUL byte.
func Text(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
