package classdump

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"
)

func TestDWARFNoDebugSections(t *testing.T) {
	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	f := ti.open()

	d, err := f.DWARF()
	if err != nil {
		t.Fatalf("DWARF() error = %v", err)
	}
	if d == nil {
		t.Fatal("DWARF() = nil, want empty debug data")
	}
	entry, err := d.Reader().Next()
	if err != nil {
		t.Fatalf("Reader().Next() error = %v", err)
	}
	if entry != nil {
		t.Errorf("Reader().Next() = %v, want no entries", entry)
	}
}

// zdebugBlob wraps payload in the ZLIB section header the linker emits
// for __zdebug_* sections.
func zdebugBlob(t *testing.T, payload []byte) []byte {
	t.Helper()
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("failed to compress payload: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to compress payload: %v", err)
	}
	blob := make([]byte, 12, 12+zbuf.Len())
	copy(blob, "ZLIB")
	binary.BigEndian.PutUint64(blob[4:], uint64(len(payload)))
	return append(blob, zbuf.Bytes()...)
}

func TestDWARFZlibSection(t *testing.T) {
	blob := zdebugBlob(t, []byte("main\x00"))

	ti := newTestImage(t, 0x2000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	ti.segment("__DWARF", 0x100001000, 0x1000, 0x1000, 0x1000,
		fixSection("__DWARF", "__zdebug_str", 0x100001400, uint64(len(blob)), 0x1400, 0),
	)
	ti.place(0x1400, blob)
	f := ti.open()

	d, err := f.DWARF()
	if err != nil {
		t.Fatalf("DWARF() error = %v", err)
	}
	if d == nil {
		t.Fatal("DWARF() = nil, want debug data")
	}
}

func TestDWARFCorruptZlibSection(t *testing.T) {
	// Valid ZLIB header but the compressed stream is garbage.
	blob := append([]byte("ZLIB\x00\x00\x00\x00\x00\x00\x00\x05"), 0xde, 0xad, 0xbe, 0xef)

	ti := newTestImage(t, 0x2000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	ti.segment("__DWARF", 0x100001000, 0x1000, 0x1000, 0x1000,
		fixSection("__DWARF", "__zdebug_str", 0x100001400, uint64(len(blob)), 0x1400, 0),
	)
	ti.place(0x1400, blob)
	f := ti.open()

	if _, err := f.DWARF(); err == nil {
		t.Error("DWARF() error = nil, want decompression failure")
	}
}
