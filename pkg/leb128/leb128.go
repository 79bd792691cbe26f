// Package leb128 implements the variable-length integer codec used by
// dyld opcode streams, export tries and DWARF sections.
package leb128

import (
	"bytes"
	"fmt"
)

// ErrULEBDecode and ErrSLEBDecode are returned when a varint is
// malformed, most commonly truncated mid-value.
var (
	ErrULEBDecode = fmt.Errorf("malformed ULEB128 value")
	ErrSLEBDecode = fmt.Errorf("malformed SLEB128 value")
)

// ReadUleb128 decodes an unsigned LEB128 value from r. Little-endian
// groups of 7 bits; a clear high bit ends the value.
func ReadUleb128(r *bytes.Reader) (uint64, error) {
	var result uint64
	var shift uint64

	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrULEBDecode, err)
		}

		result |= uint64((uint(b) & 0x7f) << shift)

		// If high order bit is 1.
		if (b & 0x80) == 0 {
			break
		}

		shift += 7
	}

	return result, nil
}

// ReadSleb128 decodes a signed LEB128 value from r. The sign bit of the
// final group is extended across the remaining high bits.
func ReadSleb128(r *bytes.Reader) (int64, error) {
	var result int64
	var shift uint64
	var b byte

	for {
		var err error
		b, err = r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrSLEBDecode, err)
		}

		result |= int64(uint64(b&0x7f) << shift)
		shift += 7

		if (b & 0x80) == 0 {
			break
		}
	}

	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}

	return result, nil
}

// WriteUleb128 appends the unsigned LEB128 encoding of v to dst.
func WriteUleb128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// WriteSleb128 appends the signed LEB128 encoding of v to dst.
func WriteSleb128(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
