package trie

import (
	"errors"
	"testing"
)

// buildTestTrie lays out a two-symbol export trie:
//
//	""      -> "_foo" (regular, 0x100)
//	"_foo"  -> "_foobar" (regular, 0x200) via edge "bar"
func buildTestTrie() []byte {
	return []byte{
		// node 0: no terminal, one child "_foo" -> 8
		0x00, 0x01, '_', 'f', 'o', 'o', 0x00, 0x08,
		// node 8: terminal (flags=regular, addr=0x100), one child "bar" -> 18
		0x03, 0x00, 0x80, 0x02, 0x01, 'b', 'a', 'r', 0x00, 0x12,
		// node 18: terminal (flags=regular, addr=0x200), no children
		0x03, 0x00, 0x80, 0x04, 0x00,
	}
}

func TestParse(t *testing.T) {
	entries, err := Parse(buildTestTrie(), 0x100000000)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(entries))
	}

	want := []struct {
		name string
		addr uint64
	}{
		{"_foo", 0x100000100},
		{"_foobar", 0x100000200},
	}
	for i, w := range want {
		if entries[i].Name != w.name {
			t.Errorf("entry %d name = %s, want %s", i, entries[i].Name, w.name)
		}
		if entries[i].Address != w.addr {
			t.Errorf("entry %d address = %#x, want %#x", i, entries[i].Address, w.addr)
		}
		if !entries[i].Flags.Regular() {
			t.Errorf("entry %d flags = %s, want regular", i, entries[i].Flags)
		}
	}
}

func TestParseReExport(t *testing.T) {
	data := []byte{
		// node 0: no terminal, one child "_re" -> 7
		0x00, 0x01, '_', 'r', 'e', 0x00, 0x07,
		// node 7: terminal (flags=reexport, ordinal=1, import "_orig"), no children
		0x08, 0x08, 0x01, '_', 'o', 'r', 'i', 'g', 0x00, 0x00,
	}

	entries, err := Parse(data, 0x100000000)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Parse() returned %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Name != "_re" || e.ReExport != "_orig" || e.Other != 1 {
		t.Errorf("got %+v, want _re re-exported from _orig ordinal 1", e)
	}
	if !e.Flags.ReExport() {
		t.Errorf("flags = %#x, want reexport", uint64(e.Flags))
	}
	if e.Address != 0 {
		t.Errorf("re-export address = %#x, want 0", e.Address)
	}
}

func TestParseSkipsOutOfBoundsChild(t *testing.T) {
	data := []byte{
		// node 0: no terminal, one child "_x" pointing past the blob
		0x00, 0x01, '_', 'x', 0x00, 0x7f,
	}

	entries, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Parse() returned %d entries, want 0", len(entries))
	}
}

func TestParseSkipsCyclicChild(t *testing.T) {
	data := []byte{
		// node 0: no terminal, children "_ok" -> 14 and "_loop" -> 0
		// (back at the root)
		0x00, 0x02,
		'_', 'o', 'k', 0x00, 0x0e,
		'_', 'l', 'o', 'o', 'p', 0x00, 0x00,
		// node 14: terminal (flags=regular, addr=0x100), no children
		0x03, 0x00, 0x80, 0x02, 0x00,
	}

	entries, err := Parse(data, 0x100000000)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Parse() returned %d entries, want 1", len(entries))
	}
	if entries[0].Name != "_ok" || entries[0].Address != 0x100000100 {
		t.Errorf("got %s at %#x, want _ok at 0x100000100", entries[0].Name, entries[0].Address)
	}
}

func TestParseSkipsTruncatedTerminal(t *testing.T) {
	// terminal declares 1 byte but the flags alone leave no room for
	// the address
	data := []byte{0x01, 0x00}

	entries, err := Parse(data, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Parse() returned %d entries, want 0", len(entries))
	}
}

func TestWalk(t *testing.T) {
	data := buildTestTrie()

	off, err := Walk(data, "_foobar")
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if off != 19 {
		t.Errorf("Walk() = %d, want 19", off)
	}

	if _, err := Walk(data, "_missing"); !errors.Is(err, ErrSymbolNotInTrie) {
		t.Errorf("Walk() error = %v, want %v", err, ErrSymbolNotInTrie)
	}
}
