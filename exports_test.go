package classdump

import (
	"errors"
	"testing"

	"github.com/appsworld/go-classdump/pkg/leb128"
	"github.com/appsworld/go-classdump/types"
)

// exportTrieBlob encodes a two node trie exporting _foo at base+0x100.
func exportTrieBlob() []byte {
	// root: no terminal, one child reached over the edge "_foo"
	blob := []byte{0x00, 0x01}
	blob = append(blob, []byte("_foo\x00")...)
	blob = leb128.WriteUleb128(blob, 8) // child node offset

	// child: terminal payload is flags + address, no children
	var payload []byte
	payload = leb128.WriteUleb128(payload, 0) // regular kind
	payload = leb128.WriteUleb128(payload, 0x100)
	blob = leb128.WriteUleb128(blob, uint64(len(payload)))
	blob = append(blob, payload...)
	blob = append(blob, 0x00)
	return blob
}

func exportTestImage(t *testing.T, useTrieCmd bool) *File {
	t.Helper()
	blob := exportTrieBlob()

	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	if useTrieCmd {
		ti.cmd(types.LinkEditDataCmd{
			LoadCmd: types.LC_DYLD_EXPORTS_TRIE,
			Len:     16,
			Offset:  0x800,
			Size:    uint32(len(blob)),
		})
	} else {
		ti.cmd(types.DyldInfoCmd{
			LoadCmd:    types.LC_DYLD_INFO_ONLY,
			Len:        48,
			ExportOff:  0x800,
			ExportSize: uint32(len(blob)),
		})
	}
	ti.place(0x800, blob)
	return ti.open()
}

func TestDyldExports(t *testing.T) {
	tests := []struct {
		name       string
		useTrieCmd bool
	}{
		{"exports trie command", true},
		{"dyld info export blob", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := exportTestImage(t, tt.useTrieCmd)
			exports, err := f.DyldExports()
			if err != nil {
				t.Fatalf("DyldExports() error = %v", err)
			}
			if len(exports) != 1 {
				t.Fatalf("got %d exports, want 1", len(exports))
			}
			e := exports[0]
			if e.Name != "_foo" {
				t.Errorf("name = %q, want _foo", e.Name)
			}
			if want := uint64(0x100000100); e.Address != want {
				t.Errorf("address = %#x, want %#x", e.Address, want)
			}
		})
	}
}

func TestFindExportedSymbol(t *testing.T) {
	f := exportTestImage(t, true)

	e, err := f.FindExportedSymbol("_foo")
	if err != nil {
		t.Fatalf("FindExportedSymbol(_foo) error = %v", err)
	}
	if e.Address != 0x100000100 {
		t.Errorf("address = %#x, want 0x100000100", e.Address)
	}

	if _, err := f.FindExportedSymbol("_missing"); err == nil {
		t.Error("FindExportedSymbol(_missing) = nil error, want not found")
	}
}

func TestDyldExportsMissingInfo(t *testing.T) {
	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	f := ti.open()

	if _, err := f.DyldExports(); err == nil {
		t.Error("DyldExports() = nil error, want missing export info error")
	}
}

func TestDyldExportsCorruptBlob(t *testing.T) {
	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	ti.cmd(types.LinkEditDataCmd{
		LoadCmd: types.LC_DYLD_EXPORTS_TRIE,
		Len:     16,
		Offset:  0xff0,
		Size:    0x100, // overruns the file
	})
	f := ti.open()

	if _, err := f.DyldExports(); !errors.Is(err, ErrFileCorrupt) {
		t.Errorf("DyldExports() error = %v, want ErrFileCorrupt", err)
	}
}
