package classdump

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appsworld/go-classdump/pkg/leb128"
	"github.com/appsworld/go-classdump/types"
)

// dyldTestImage builds an image with a __DATA segment and a dyld info
// load command pointing at the given opcode streams.
func dyldTestImage(t *testing.T, rebase, bind, weak, lazy []byte) *File {
	t.Helper()
	ti := newTestImage(t, 0x2000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	ti.segment("__DATA", 0x100001000, 0x1000, 0x1000, 0x1000,
		fixSection("__DATA", "__data", 0x100001000, 0x1000, 0x1000, 0),
	)

	dylib := append([]byte("/usr/lib/libSystem.B.dylib"), 0, 0, 0, 0, 0, 0)
	ti.cmd(types.DylibCmd{
		LoadCmd: types.LC_LOAD_DYLIB,
		Len:     uint32(24 + len(dylib)),
		Name:    24,
	}, dylib)

	info := types.DyldInfoCmd{LoadCmd: types.LC_DYLD_INFO_ONLY, Len: 48}
	streams := []struct {
		data []byte
		off  uint64
		set  func(off, size uint32)
	}{
		{rebase, 0x800, func(o, s uint32) { info.RebaseOff, info.RebaseSize = o, s }},
		{bind, 0x900, func(o, s uint32) { info.BindOff, info.BindSize = o, s }},
		{weak, 0xa00, func(o, s uint32) { info.WeakBindOff, info.WeakBindSize = o, s }},
		{lazy, 0xb00, func(o, s uint32) { info.LazyBindOff, info.LazyBindSize = o, s }},
	}
	for _, s := range streams {
		if len(s.data) == 0 {
			continue
		}
		s.set(uint32(s.off), uint32(len(s.data)))
		ti.place(s.off, s.data)
	}
	ti.cmd(info)

	return ti.open()
}

func TestGetRebases(t *testing.T) {
	stream := []byte{
		byte(types.REBASE_OPCODE_SET_TYPE_IMM) | byte(types.REBASE_TYPE_POINTER),
		byte(types.REBASE_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB) | 1,
	}
	stream = leb128.WriteUleb128(stream, 0x10)
	stream = append(stream,
		byte(types.REBASE_OPCODE_DO_REBASE_IMM_TIMES)|2,
		byte(types.REBASE_OPCODE_DONE),
	)

	want := []Rebase{
		{Type: types.REBASE_TYPE_POINTER, Segment: "__DATA", Section: "__data", Address: 0x100001010},
		{Type: types.REBASE_TYPE_POINTER, Segment: "__DATA", Section: "__data", Address: 0x100001018},
	}

	t.Run("terminated stream", func(t *testing.T) {
		f := dyldTestImage(t, stream, nil, nil, nil)
		got, err := f.GetRebases()
		if err != nil {
			t.Fatalf("GetRebases() error = %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("rebases mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("missing done keeps partial results", func(t *testing.T) {
		f := dyldTestImage(t, stream[:len(stream)-1], nil, nil, nil)
		got, err := f.GetRebases()
		if err != nil {
			t.Fatalf("GetRebases() error = %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("rebases mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("unknown opcode", func(t *testing.T) {
		f := dyldTestImage(t, []byte{0xf5}, nil, nil, nil)
		if _, err := f.GetRebases(); !errors.Is(err, ErrOpcodeInvalid) {
			t.Errorf("GetRebases() error = %v, want ErrOpcodeInvalid", err)
		}
	})
	t.Run("segment index out of range", func(t *testing.T) {
		bad := []byte{byte(types.REBASE_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB) | 7}
		bad = leb128.WriteUleb128(bad, 0)
		bad = append(bad, byte(types.REBASE_OPCODE_DO_REBASE_IMM_TIMES)|1)
		f := dyldTestImage(t, bad, nil, nil, nil)
		if _, err := f.GetRebases(); !errors.Is(err, ErrOpcodeInvalid) {
			t.Errorf("GetRebases() error = %v, want ErrOpcodeInvalid", err)
		}
	})
	t.Run("no dyld info command", func(t *testing.T) {
		ti := newTestImage(t, 0x1000)
		ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
		f := ti.open()
		if _, err := f.GetRebases(); err == nil {
			t.Error("GetRebases() = nil error, want missing load command error")
		}
	})
}

func TestGetBinds(t *testing.T) {
	stream := []byte{byte(types.BIND_OPCODE_SET_DYLIB_ORDINAL_IMM) | 1}
	stream = append(stream, byte(types.BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM))
	stream = append(stream, []byte("_objc_msgSend\x00")...)
	stream = append(stream, byte(types.BIND_OPCODE_SET_TYPE_IMM)|byte(types.BIND_TYPE_POINTER))
	stream = append(stream, byte(types.BIND_OPCODE_SET_ADDEND_SLEB))
	stream = leb128.WriteSleb128(stream, -8)
	stream = append(stream, byte(types.BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB)|1)
	stream = leb128.WriteUleb128(stream, 0x20)
	stream = append(stream, byte(types.BIND_OPCODE_DO_BIND), byte(types.BIND_OPCODE_DONE))

	f := dyldTestImage(t, nil, stream, nil, nil)
	got, err := f.GetBinds()
	if err != nil {
		t.Fatalf("GetBinds() error = %v", err)
	}

	want := []Bind{{
		Type:    types.BIND_TYPE_POINTER,
		Segment: "__DATA",
		Section: "__data",
		Address: 0x100001020,
		Ordinal: 1,
		Dylib:   "/usr/lib/libSystem.B.dylib",
		Name:    "_objc_msgSend",
		Addend:  -8,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("binds mismatch (-want +got):\n%s", diff)
	}
}

func TestGetBindsSpecialOrdinal(t *testing.T) {
	// flat lookup is -2, encoded in the low nibble
	stream := []byte{byte(types.BIND_OPCODE_SET_DYLIB_SPECIAL_IMM) | 0x0e}
	stream = append(stream, byte(types.BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM))
	stream = append(stream, []byte("_printf\x00")...)
	stream = append(stream, byte(types.BIND_OPCODE_SET_TYPE_IMM)|byte(types.BIND_TYPE_POINTER))
	stream = append(stream, byte(types.BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB)|1)
	stream = leb128.WriteUleb128(stream, 0)
	stream = append(stream, byte(types.BIND_OPCODE_DO_BIND), byte(types.BIND_OPCODE_DONE))

	f := dyldTestImage(t, nil, stream, nil, nil)
	got, err := f.GetBinds()
	if err != nil {
		t.Fatalf("GetBinds() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d binds, want 1", len(got))
	}
	if got[0].Ordinal != types.BIND_SPECIAL_DYLIB_FLAT_LOOKUP {
		t.Errorf("ordinal = %d, want %d", got[0].Ordinal, types.BIND_SPECIAL_DYLIB_FLAT_LOOKUP)
	}
	if got[0].Dylib != "flat-namespace" {
		t.Errorf("dylib = %q, want flat-namespace", got[0].Dylib)
	}
}

func TestGetBindsThreadedUnsupported(t *testing.T) {
	f := dyldTestImage(t, nil, []byte{byte(types.BIND_OPCODE_THREADED)}, nil, nil)
	if _, err := f.GetBinds(); !errors.Is(err, ErrOpcodeInvalid) {
		t.Errorf("GetBinds() error = %v, want ErrOpcodeInvalid", err)
	}
}

func TestGetWeakBinds(t *testing.T) {
	stream := []byte{byte(types.BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM)}
	stream = append(stream, []byte("_sharedSym\x00")...)
	stream = append(stream, byte(types.BIND_OPCODE_SET_TYPE_IMM)|byte(types.BIND_TYPE_POINTER))
	stream = append(stream, byte(types.BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB)|1)
	stream = leb128.WriteUleb128(stream, 0x30)
	stream = append(stream, byte(types.BIND_OPCODE_DO_BIND), byte(types.BIND_OPCODE_DONE))

	f := dyldTestImage(t, nil, nil, stream, nil)
	got, err := f.GetWeakBinds()
	if err != nil {
		t.Fatalf("GetWeakBinds() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d weak binds, want 1", len(got))
	}
	if !got[0].Weak || got[0].Lazy {
		t.Errorf("bind kind = weak:%t lazy:%t, want weak only", got[0].Weak, got[0].Lazy)
	}
	if got[0].Name != "_sharedSym" || got[0].Address != 0x100001030 {
		t.Errorf("bind = %s at %#x, want _sharedSym at 0x100001030", got[0].Name, got[0].Address)
	}
}

func TestGetLazyBinds(t *testing.T) {
	// lazy streams separate entries with DONE and never set the type
	stream := []byte{byte(types.BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB) | 1}
	stream = leb128.WriteUleb128(stream, 0)
	stream = append(stream, byte(types.BIND_OPCODE_SET_DYLIB_ORDINAL_IMM)|1)
	stream = append(stream, byte(types.BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM))
	stream = append(stream, []byte("_foo\x00")...)
	stream = append(stream, byte(types.BIND_OPCODE_DO_BIND), byte(types.BIND_OPCODE_DONE))
	stream = append(stream, byte(types.BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB)|1)
	stream = leb128.WriteUleb128(stream, 0x100)
	stream = append(stream, byte(types.BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM))
	stream = append(stream, []byte("_bar\x00")...)
	stream = append(stream, byte(types.BIND_OPCODE_DO_BIND), byte(types.BIND_OPCODE_DONE))

	f := dyldTestImage(t, nil, nil, nil, stream)
	got, err := f.GetLazyBinds()
	if err != nil {
		t.Fatalf("GetLazyBinds() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lazy binds, want 2", len(got))
	}
	for i, b := range got {
		if !b.Lazy || b.Type != types.BIND_TYPE_POINTER {
			t.Errorf("bind[%d] = lazy:%t type:%s, want lazy pointer", i, b.Lazy, b.Type)
		}
	}
	if got[0].Name != "_foo" || got[0].Address != 0x100001000 {
		t.Errorf("bind[0] = %s at %#x, want _foo at 0x100001000", got[0].Name, got[0].Address)
	}
	if got[1].Name != "_bar" || got[1].Address != 0x100001100 {
		t.Errorf("bind[1] = %s at %#x, want _bar at 0x100001100", got[1].Name, got[1].Address)
	}
}
