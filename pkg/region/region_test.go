package region

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestReads(t *testing.T) {
	r := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 'h', 'i', 0x00})

	if got, _ := r.Uint8(0); got != 0x01 {
		t.Errorf("Uint8(0) = %#x; want 0x01", got)
	}
	if got, _ := r.Uint16(0, binary.LittleEndian); got != 0x0201 {
		t.Errorf("Uint16 LE = %#x; want 0x0201", got)
	}
	if got, _ := r.Uint16(0, binary.BigEndian); got != 0x0102 {
		t.Errorf("Uint16 BE = %#x; want 0x0102", got)
	}
	if got, _ := r.Uint32(0, binary.LittleEndian); got != 0x04030201 {
		t.Errorf("Uint32 LE = %#x; want 0x04030201", got)
	}
	if got, _ := r.Uint64(0, binary.LittleEndian); got != 0x0807060504030201 {
		t.Errorf("Uint64 LE = %#x; want 0x0807060504030201", got)
	}
	if got, _ := r.CString(8); got != "hi" {
		t.Errorf("CString(8) = %q; want %q", got, "hi")
	}
}

func TestBounds(t *testing.T) {
	r := New(make([]byte, 8))

	if _, err := r.Uint64(1, binary.LittleEndian); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Uint64 past end: got %v; want ErrOutOfBounds", err)
	}
	if _, err := r.Slice(4, 5); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Slice past end: got %v; want ErrOutOfBounds", err)
	}
	// Offset+length overflow must not wrap around.
	if _, err := r.Slice(2, ^uint64(0)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Slice with huge length: got %v; want ErrOutOfBounds", err)
	}
}

func TestCStringUnterminated(t *testing.T) {
	// In bounds but no NUL before the region ends.
	if _, err := New([]byte("abc")).CString(0); !errors.Is(err, ErrInvalidString) {
		t.Errorf("CString without terminator: got %v; want ErrInvalidString", err)
	}
	// Offset past the end is still a bounds error, not a string error.
	if _, err := New([]byte("abc")).CString(4); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("CString past end: got %v; want ErrOutOfBounds", err)
	}
}

func TestSliceIsView(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	sub, err := r.Slice(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 2 {
		t.Fatalf("sub.Len() = %d; want 2", sub.Len())
	}
	if got, _ := sub.Uint8(0); got != 2 {
		t.Errorf("sub.Uint8(0) = %d; want 2", got)
	}
	if _, err := sub.Uint8(2); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("read past sub-region: got %v; want ErrOutOfBounds", err)
	}
}

func TestReaderAt(t *testing.T) {
	r := New([]byte{0xde, 0xad, 0xbe, 0xef})
	sr, err := r.ReaderAt(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	var v uint16
	if err := binary.Read(sr, binary.BigEndian, &v); err != nil {
		t.Fatal(err)
	}
	if v != 0xadbe {
		t.Errorf("read %#x; want 0xadbe", v)
	}
}
