package classdump

import (
	"bytes"
	"fmt"

	"github.com/apex/log"

	"github.com/appsworld/go-classdump/pkg/leb128"
	"github.com/appsworld/go-classdump/types"
)

// Rebase is one slot the dynamic linker slides at load time.
type Rebase struct {
	Type    types.RebaseType
	Segment string
	Section string
	Address uint64
}

func (r Rebase) String() string {
	return fmt.Sprintf("%-7s %-16s %-16s %#x", r.Type, r.Segment, r.Section, r.Address)
}

// Bind is one symbol reference the dynamic linker resolves at load
// time. Dylib is the resolved name of the library the ordinal points
// at.
type Bind struct {
	Type    types.BindType
	Segment string
	Section string
	Address uint64
	Ordinal int64
	Dylib   string
	Name    string
	Flags   uint8
	Addend  int64
	Weak    bool
	Lazy    bool
}

func (b Bind) String() string {
	var addend string
	if b.Addend != 0 {
		addend = fmt.Sprintf(" + %d", b.Addend)
	}
	return fmt.Sprintf("%-7s %-16s %-16s %#x %s (from %s)%s", b.Type, b.Segment, b.Section, b.Address, b.Name, b.Dylib, addend)
}

// GetRebases interprets the rebase opcode stream of the dyld info
// load command.
func (f *File) GetRebases() ([]Rebase, error) {
	dyldInfo := f.DyldInfo()
	if dyldInfo == nil {
		return nil, fmt.Errorf("macho does not contain a LC_DYLD_INFO(_ONLY) load command")
	}
	if dyldInfo.RebaseSize == 0 {
		return nil, nil
	}

	blob, err := f.r.Slice(uint64(dyldInfo.RebaseOff), uint64(dyldInfo.RebaseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: rebase info overruns the file: %v", ErrFileCorrupt, err)
	}

	r := bytes.NewReader(blob.Bytes())
	segments := f.Segments()

	var rebases []Rebase
	var rebaseType types.RebaseType
	var segIndex int
	var segOffset uint64

	emit := func(count, skip uint64) error {
		if segIndex < 0 || segIndex >= len(segments) {
			return fmt.Errorf("%w: rebase segment index %d out of range", ErrOpcodeInvalid, segIndex)
		}
		seg := segments[segIndex]
		for i := uint64(0); i < count; i++ {
			addr := seg.Addr + segOffset
			rebase := Rebase{Type: rebaseType, Segment: seg.Name, Address: addr}
			if sec := f.FindSectionForVMAddr(addr); sec != nil {
				rebase.Section = sec.Name
			}
			rebases = append(rebases, rebase)
			segOffset += f.pointerSize() + skip
		}
		return nil
	}

	done := false
	for !done && r.Len() > 0 {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		opcode := types.RebaseOpcode(b & types.REBASE_OPCODE_MASK)
		imm := b & types.REBASE_IMMEDIATE_MASK

		switch opcode {
		case types.REBASE_OPCODE_DONE:
			done = true
		case types.REBASE_OPCODE_SET_TYPE_IMM:
			rebaseType = types.RebaseType(imm)
		case types.REBASE_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB:
			segIndex = int(imm)
			segOffset, err = leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
		case types.REBASE_OPCODE_ADD_ADDR_ULEB:
			delta, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			segOffset += delta
		case types.REBASE_OPCODE_ADD_ADDR_IMM_SCALED:
			segOffset += uint64(imm) * f.pointerSize()
		case types.REBASE_OPCODE_DO_REBASE_IMM_TIMES:
			if err := emit(uint64(imm), 0); err != nil {
				return nil, err
			}
		case types.REBASE_OPCODE_DO_REBASE_ULEB_TIMES:
			count, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			if err := emit(count, 0); err != nil {
				return nil, err
			}
		case types.REBASE_OPCODE_DO_REBASE_ADD_ADDR_ULEB:
			if err := emit(1, 0); err != nil {
				return nil, err
			}
			delta, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			segOffset += delta
		case types.REBASE_OPCODE_DO_REBASE_ULEB_TIMES_SKIPPING_ULEB:
			count, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			skip, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			if err := emit(count, skip); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown rebase opcode %#x", ErrOpcodeInvalid, b)
		}
	}

	if !done {
		log.Warn("rebase info ended without REBASE_OPCODE_DONE")
	}

	return rebases, nil
}

// GetBinds interprets the bind opcode stream of the dyld info load
// command.
func (f *File) GetBinds() ([]Bind, error) {
	dyldInfo := f.DyldInfo()
	if dyldInfo == nil {
		return nil, fmt.Errorf("macho does not contain a LC_DYLD_INFO(_ONLY) load command")
	}
	return f.parseBinds(dyldInfo.BindOff, dyldInfo.BindSize, "bind")
}

// GetWeakBinds interprets the weak-bind opcode stream, the symbols
// that may be coalesced across images at load time.
func (f *File) GetWeakBinds() ([]Bind, error) {
	dyldInfo := f.DyldInfo()
	if dyldInfo == nil {
		return nil, fmt.Errorf("macho does not contain a LC_DYLD_INFO(_ONLY) load command")
	}
	return f.parseBinds(dyldInfo.WeakBindOff, dyldInfo.WeakBindSize, "weak")
}

// GetLazyBinds interprets the lazy-bind opcode stream. In a lazy
// stream BIND_OPCODE_DONE only separates entries, so the stream runs
// to the end of the blob.
func (f *File) GetLazyBinds() ([]Bind, error) {
	dyldInfo := f.DyldInfo()
	if dyldInfo == nil {
		return nil, fmt.Errorf("macho does not contain a LC_DYLD_INFO(_ONLY) load command")
	}
	return f.parseBinds(dyldInfo.LazyBindOff, dyldInfo.LazyBindSize, "lazy")
}

func (f *File) parseBinds(off, size uint32, kind string) ([]Bind, error) {
	if size == 0 {
		return nil, nil
	}

	blob, err := f.r.Slice(uint64(off), uint64(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %s info overruns the file: %v", ErrFileCorrupt, kind, err)
	}

	r := bytes.NewReader(blob.Bytes())
	segments := f.Segments()
	lazy := kind == "lazy"
	weak := kind == "weak"

	var binds []Bind
	var bindType types.BindType
	var segIndex int
	var segOffset uint64
	var ordinal int64
	var symbol string
	var symbolFlags uint8
	var addend int64

	if lazy {
		// lazy streams never set the type explicitly
		bindType = types.BIND_TYPE_POINTER
	}

	emit := func(count, skip uint64) error {
		if segIndex < 0 || segIndex >= len(segments) {
			return fmt.Errorf("%w: %s segment index %d out of range", ErrOpcodeInvalid, kind, segIndex)
		}
		seg := segments[segIndex]
		for i := uint64(0); i < count; i++ {
			addr := seg.Addr + segOffset
			bind := Bind{
				Type:    bindType,
				Segment: seg.Name,
				Address: addr,
				Ordinal: ordinal,
				Dylib:   f.LibraryOrdinalName(ordinal),
				Name:    symbol,
				Flags:   symbolFlags,
				Addend:  addend,
				Weak:    weak || symbolFlags&types.BIND_SYMBOL_FLAGS_WEAK_IMPORT != 0,
				Lazy:    lazy,
			}
			if sec := f.FindSectionForVMAddr(addr); sec != nil {
				bind.Section = sec.Name
			}
			binds = append(binds, bind)
			segOffset += f.pointerSize() + skip
		}
		return nil
	}

	done := false
	for !done && r.Len() > 0 {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		opcode := types.BindOpcode(b & types.BIND_OPCODE_MASK)
		imm := b & types.BIND_IMMEDIATE_MASK

		switch opcode {
		case types.BIND_OPCODE_DONE:
			if !lazy {
				done = true
			}
		case types.BIND_OPCODE_SET_DYLIB_ORDINAL_IMM:
			ordinal = int64(imm)
		case types.BIND_OPCODE_SET_DYLIB_ORDINAL_ULEB:
			v, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			ordinal = int64(v)
		case types.BIND_OPCODE_SET_DYLIB_SPECIAL_IMM:
			if imm == 0 {
				ordinal = types.BIND_SPECIAL_DYLIB_SELF
			} else {
				// sign-extend the low nibble
				ordinal = int64(int8(imm | 0xf0))
			}
		case types.BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM:
			symbolFlags = imm
			var name []byte
			for {
				c, err := r.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("%w: unterminated symbol name in %s info", ErrFileCorrupt, kind)
				}
				if c == '\x00' {
					break
				}
				name = append(name, c)
			}
			symbol = string(name)
		case types.BIND_OPCODE_SET_TYPE_IMM:
			bindType = types.BindType(imm)
		case types.BIND_OPCODE_SET_ADDEND_SLEB:
			addend, err = leb128.ReadSleb128(r)
			if err != nil {
				return nil, err
			}
		case types.BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB:
			segIndex = int(imm)
			segOffset, err = leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
		case types.BIND_OPCODE_ADD_ADDR_ULEB:
			delta, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			segOffset += delta
		case types.BIND_OPCODE_DO_BIND:
			if err := emit(1, 0); err != nil {
				return nil, err
			}
		case types.BIND_OPCODE_DO_BIND_ADD_ADDR_ULEB:
			if err := emit(1, 0); err != nil {
				return nil, err
			}
			delta, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			segOffset += delta
		case types.BIND_OPCODE_DO_BIND_ADD_ADDR_IMM_SCALED:
			if err := emit(1, uint64(imm)*f.pointerSize()); err != nil {
				return nil, err
			}
		case types.BIND_OPCODE_DO_BIND_ULEB_TIMES_SKIPPING_ULEB:
			count, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			skip, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			if err := emit(count, skip); err != nil {
				return nil, err
			}
		default:
			// BIND_OPCODE_THREADED streams carry chained-fixup style
			// metadata this interpreter does not model
			return nil, fmt.Errorf("%w: unknown %s opcode %#x", ErrOpcodeInvalid, kind, b)
		}
	}

	if !done && !lazy {
		log.Warnf("%s info ended without BIND_OPCODE_DONE", kind)
	}

	return binds, nil
}
