// Package region provides bounds-checked read-only views over raw image
// bytes. All parsing layers go through a Region so that a malformed
// offset or length surfaces as an error instead of a panic.
package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ErrOutOfBounds is returned when a requested range does not fit inside
// the region.
var ErrOutOfBounds = fmt.Errorf("requested range is outside the region")

// ErrInvalidString is returned by CString when the region ends before a
// NUL terminator is found.
var ErrInvalidString = fmt.Errorf("unterminated string")

// Region is an immutable window over a byte slice. The zero value is an
// empty region.
type Region struct {
	data []byte
}

// New wraps data in a Region. The region aliases data; callers must not
// mutate it afterwards.
func New(data []byte) Region {
	return Region{data: data}
}

// Len returns the number of bytes in the region.
func (r Region) Len() uint64 {
	return uint64(len(r.data))
}

// Bytes returns the underlying bytes. Treat the result as read-only.
func (r Region) Bytes() []byte {
	return r.data
}

func (r Region) check(off, n uint64) error {
	if off > r.Len() || n > r.Len()-off {
		return fmt.Errorf("%w: offset=%#x length=%#x region=%#x", ErrOutOfBounds, off, n, r.Len())
	}
	return nil
}

// Slice returns a sub-region of n bytes starting at off.
func (r Region) Slice(off, n uint64) (Region, error) {
	if err := r.check(off, n); err != nil {
		return Region{}, err
	}
	return Region{data: r.data[off : off+n]}, nil
}

// ReaderAt returns an io.SectionReader over n bytes at off, for use with
// binary.Read and friends.
func (r Region) ReaderAt(off, n uint64) (*io.SectionReader, error) {
	if err := r.check(off, n); err != nil {
		return nil, err
	}
	return io.NewSectionReader(bytes.NewReader(r.data), int64(off), int64(n)), nil
}

// Reader returns a bytes.Reader over n bytes at off.
func (r Region) Reader(off, n uint64) (*bytes.Reader, error) {
	if err := r.check(off, n); err != nil {
		return nil, err
	}
	return bytes.NewReader(r.data[off : off+n]), nil
}

// Uint8 reads a single byte at off.
func (r Region) Uint8(off uint64) (uint8, error) {
	if err := r.check(off, 1); err != nil {
		return 0, err
	}
	return r.data[off], nil
}

// Uint16 reads a 16-bit value at off with the given byte order.
func (r Region) Uint16(off uint64, bo binary.ByteOrder) (uint16, error) {
	if err := r.check(off, 2); err != nil {
		return 0, err
	}
	return bo.Uint16(r.data[off:]), nil
}

// Uint32 reads a 32-bit value at off with the given byte order.
func (r Region) Uint32(off uint64, bo binary.ByteOrder) (uint32, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	return bo.Uint32(r.data[off:]), nil
}

// Uint64 reads a 64-bit value at off with the given byte order.
func (r Region) Uint64(off uint64, bo binary.ByteOrder) (uint64, error) {
	if err := r.check(off, 8); err != nil {
		return 0, err
	}
	return bo.Uint64(r.data[off:]), nil
}

// CString reads a NUL-terminated string starting at off. The terminator
// must lie inside the region.
func (r Region) CString(off uint64) (string, error) {
	if err := r.check(off, 0); err != nil {
		return "", err
	}
	i := bytes.IndexByte(r.data[off:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w at %#x", ErrInvalidString, off)
	}
	return string(r.data[off : off+uint64(i)]), nil
}
