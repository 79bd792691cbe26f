package leb128

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadUleb128(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint64
	}{
		{"zero", []byte{0x00}, 0},
		{"single byte", []byte{0x7f}, 127},
		{"two bytes", []byte{0x80, 0x01}, 128},
		{"dwarf example", []byte{0xE5, 0x8E, 0x26}, 624485},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadUleb128(bytes.NewReader(tt.in))
			if err != nil {
				t.Fatalf("ReadUleb128(%#v) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ReadUleb128(%#v) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadSleb128(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int64
	}{
		{"zero", []byte{0x00}, 0},
		{"positive", []byte{0x3f}, 63},
		{"negative one", []byte{0x7f}, -1},
		{"negative two bytes", []byte{0x80, 0x7f}, -128},
		{"dwarf example", []byte{0x9B, 0xF1, 0x59}, -624485},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadSleb128(bytes.NewReader(tt.in))
			if err != nil {
				t.Fatalf("ReadSleb128(%#v) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ReadSleb128(%#v) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadTruncated(t *testing.T) {
	// Continuation bit set with no following byte.
	if _, err := ReadUleb128(bytes.NewReader([]byte{0x80})); !errors.Is(err, ErrULEBDecode) {
		t.Errorf("ReadUleb128 on truncated input: got %v; want ErrULEBDecode", err)
	}
	if _, err := ReadUleb128(bytes.NewReader(nil)); !errors.Is(err, ErrULEBDecode) {
		t.Errorf("ReadUleb128 on empty input: got %v; want ErrULEBDecode", err)
	}
	if _, err := ReadSleb128(bytes.NewReader([]byte{0x80})); !errors.Is(err, ErrSLEBDecode) {
		t.Errorf("ReadSleb128 on truncated input: got %v; want ErrSLEBDecode", err)
	}
}

func TestRoundTrip(t *testing.T) {
	uvals := []uint64{0, 1, 127, 128, 624485, 1<<32 - 1, 1<<63 + 42}
	for _, v := range uvals {
		got, err := ReadUleb128(bytes.NewReader(WriteUleb128(nil, v)))
		if err != nil {
			t.Fatalf("round trip %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
	svals := []int64{0, 1, -1, 63, -64, 624485, -624485, -1 << 40}
	for _, v := range svals {
		got, err := ReadSleb128(bytes.NewReader(WriteSleb128(nil, v)))
		if err != nil {
			t.Fatalf("round trip %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}
