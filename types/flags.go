package types

import "strings"

/* The following are used to encode rebasing information */

type RebaseType uint8

const (
	REBASE_TYPE_POINTER         RebaseType = 1
	REBASE_TYPE_TEXT_ABSOLUTE32 RebaseType = 2
	REBASE_TYPE_TEXT_PCREL32    RebaseType = 3
)

func (t RebaseType) String() string {
	switch t {
	case REBASE_TYPE_POINTER:
		return "pointer"
	case REBASE_TYPE_TEXT_ABSOLUTE32:
		return "text abs32"
	case REBASE_TYPE_TEXT_PCREL32:
		return "text rel32"
	}
	return "unknown"
}

type RebaseOpcode uint8

const (
	REBASE_OPCODE_MASK    = 0xF0
	REBASE_IMMEDIATE_MASK = 0x0F

	REBASE_OPCODE_DONE                               RebaseOpcode = 0x00
	REBASE_OPCODE_SET_TYPE_IMM                       RebaseOpcode = 0x10
	REBASE_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB        RebaseOpcode = 0x20
	REBASE_OPCODE_ADD_ADDR_ULEB                      RebaseOpcode = 0x30
	REBASE_OPCODE_ADD_ADDR_IMM_SCALED                RebaseOpcode = 0x40
	REBASE_OPCODE_DO_REBASE_IMM_TIMES                RebaseOpcode = 0x50
	REBASE_OPCODE_DO_REBASE_ULEB_TIMES               RebaseOpcode = 0x60
	REBASE_OPCODE_DO_REBASE_ADD_ADDR_ULEB            RebaseOpcode = 0x70
	REBASE_OPCODE_DO_REBASE_ULEB_TIMES_SKIPPING_ULEB RebaseOpcode = 0x80
)

var rebaseOpcodeStrings = []intName{
	{uint32(REBASE_OPCODE_DONE), "REBASE_OPCODE_DONE"},
	{uint32(REBASE_OPCODE_SET_TYPE_IMM), "REBASE_OPCODE_SET_TYPE_IMM"},
	{uint32(REBASE_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB), "REBASE_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB"},
	{uint32(REBASE_OPCODE_ADD_ADDR_ULEB), "REBASE_OPCODE_ADD_ADDR_ULEB"},
	{uint32(REBASE_OPCODE_ADD_ADDR_IMM_SCALED), "REBASE_OPCODE_ADD_ADDR_IMM_SCALED"},
	{uint32(REBASE_OPCODE_DO_REBASE_IMM_TIMES), "REBASE_OPCODE_DO_REBASE_IMM_TIMES"},
	{uint32(REBASE_OPCODE_DO_REBASE_ULEB_TIMES), "REBASE_OPCODE_DO_REBASE_ULEB_TIMES"},
	{uint32(REBASE_OPCODE_DO_REBASE_ADD_ADDR_ULEB), "REBASE_OPCODE_DO_REBASE_ADD_ADDR_ULEB"},
	{uint32(REBASE_OPCODE_DO_REBASE_ULEB_TIMES_SKIPPING_ULEB), "REBASE_OPCODE_DO_REBASE_ULEB_TIMES_SKIPPING_ULEB"},
}

func (op RebaseOpcode) String() string { return stringName(uint32(op), rebaseOpcodeStrings, false) }

/* The following are used to encode binding information */

type BindType uint8

const (
	BIND_TYPE_POINTER         BindType = 1
	BIND_TYPE_TEXT_ABSOLUTE32 BindType = 2
	BIND_TYPE_TEXT_PCREL32    BindType = 3
)

func (t BindType) String() string {
	switch t {
	case BIND_TYPE_POINTER:
		return "pointer"
	case BIND_TYPE_TEXT_ABSOLUTE32:
		return "text abs32"
	case BIND_TYPE_TEXT_PCREL32:
		return "text rel32"
	}
	return "unknown"
}

const (
	BIND_SPECIAL_DYLIB_SELF            = 0
	BIND_SPECIAL_DYLIB_MAIN_EXECUTABLE = -1
	BIND_SPECIAL_DYLIB_FLAT_LOOKUP     = -2
	BIND_SPECIAL_DYLIB_WEAK_LOOKUP     = -3

	BIND_SYMBOL_FLAGS_WEAK_IMPORT         = 0x1
	BIND_SYMBOL_FLAGS_NON_WEAK_DEFINITION = 0x8
)

type BindOpcode uint8

const (
	BIND_OPCODE_MASK    = 0xF0
	BIND_IMMEDIATE_MASK = 0x0F

	BIND_OPCODE_DONE                             BindOpcode = 0x00
	BIND_OPCODE_SET_DYLIB_ORDINAL_IMM            BindOpcode = 0x10
	BIND_OPCODE_SET_DYLIB_ORDINAL_ULEB           BindOpcode = 0x20
	BIND_OPCODE_SET_DYLIB_SPECIAL_IMM            BindOpcode = 0x30
	BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM    BindOpcode = 0x40
	BIND_OPCODE_SET_TYPE_IMM                     BindOpcode = 0x50
	BIND_OPCODE_SET_ADDEND_SLEB                  BindOpcode = 0x60
	BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB      BindOpcode = 0x70
	BIND_OPCODE_ADD_ADDR_ULEB                    BindOpcode = 0x80
	BIND_OPCODE_DO_BIND                          BindOpcode = 0x90
	BIND_OPCODE_DO_BIND_ADD_ADDR_ULEB            BindOpcode = 0xA0
	BIND_OPCODE_DO_BIND_ADD_ADDR_IMM_SCALED      BindOpcode = 0xB0
	BIND_OPCODE_DO_BIND_ULEB_TIMES_SKIPPING_ULEB BindOpcode = 0xC0
	BIND_OPCODE_THREADED                         BindOpcode = 0xD0
)

var bindOpcodeStrings = []intName{
	{uint32(BIND_OPCODE_DONE), "BIND_OPCODE_DONE"},
	{uint32(BIND_OPCODE_SET_DYLIB_ORDINAL_IMM), "BIND_OPCODE_SET_DYLIB_ORDINAL_IMM"},
	{uint32(BIND_OPCODE_SET_DYLIB_ORDINAL_ULEB), "BIND_OPCODE_SET_DYLIB_ORDINAL_ULEB"},
	{uint32(BIND_OPCODE_SET_DYLIB_SPECIAL_IMM), "BIND_OPCODE_SET_DYLIB_SPECIAL_IMM"},
	{uint32(BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM), "BIND_OPCODE_SET_SYMBOL_TRAILING_FLAGS_IMM"},
	{uint32(BIND_OPCODE_SET_TYPE_IMM), "BIND_OPCODE_SET_TYPE_IMM"},
	{uint32(BIND_OPCODE_SET_ADDEND_SLEB), "BIND_OPCODE_SET_ADDEND_SLEB"},
	{uint32(BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB), "BIND_OPCODE_SET_SEGMENT_AND_OFFSET_ULEB"},
	{uint32(BIND_OPCODE_ADD_ADDR_ULEB), "BIND_OPCODE_ADD_ADDR_ULEB"},
	{uint32(BIND_OPCODE_DO_BIND), "BIND_OPCODE_DO_BIND"},
	{uint32(BIND_OPCODE_DO_BIND_ADD_ADDR_ULEB), "BIND_OPCODE_DO_BIND_ADD_ADDR_ULEB"},
	{uint32(BIND_OPCODE_DO_BIND_ADD_ADDR_IMM_SCALED), "BIND_OPCODE_DO_BIND_ADD_ADDR_IMM_SCALED"},
	{uint32(BIND_OPCODE_DO_BIND_ULEB_TIMES_SKIPPING_ULEB), "BIND_OPCODE_DO_BIND_ULEB_TIMES_SKIPPING_ULEB"},
	{uint32(BIND_OPCODE_THREADED), "BIND_OPCODE_THREADED"},
}

func (op BindOpcode) String() string { return stringName(uint32(op), bindOpcodeStrings, false) }

/*
 * The following are used on the flags byte of a terminal node
 * in the export information.
 */

type ExportFlag int

const (
	EXPORT_SYMBOL_FLAGS_KIND_MASK         ExportFlag = 0x03
	EXPORT_SYMBOL_FLAGS_KIND_REGULAR      ExportFlag = 0x00
	EXPORT_SYMBOL_FLAGS_KIND_THREAD_LOCAL ExportFlag = 0x01
	EXPORT_SYMBOL_FLAGS_KIND_ABSOLUTE     ExportFlag = 0x02
	EXPORT_SYMBOL_FLAGS_WEAK_DEFINITION   ExportFlag = 0x04
	EXPORT_SYMBOL_FLAGS_REEXPORT          ExportFlag = 0x08
	EXPORT_SYMBOL_FLAGS_STUB_AND_RESOLVER ExportFlag = 0x10
)

func (f ExportFlag) Regular() bool {
	return (f & EXPORT_SYMBOL_FLAGS_KIND_MASK) == EXPORT_SYMBOL_FLAGS_KIND_REGULAR
}
func (f ExportFlag) ThreadLocal() bool {
	return (f & EXPORT_SYMBOL_FLAGS_KIND_MASK) == EXPORT_SYMBOL_FLAGS_KIND_THREAD_LOCAL
}
func (f ExportFlag) Absolute() bool {
	return (f & EXPORT_SYMBOL_FLAGS_KIND_MASK) == EXPORT_SYMBOL_FLAGS_KIND_ABSOLUTE
}
func (f ExportFlag) WeakDefinition() bool {
	return (f & EXPORT_SYMBOL_FLAGS_WEAK_DEFINITION) != 0
}
func (f ExportFlag) ReExport() bool {
	return (f & EXPORT_SYMBOL_FLAGS_REEXPORT) != 0
}
func (f ExportFlag) StubAndResolver() bool {
	return (f & EXPORT_SYMBOL_FLAGS_STUB_AND_RESOLVER) != 0
}
func (f ExportFlag) String() string {
	var fStr string
	if f.Regular() {
		fStr += "Regular "
		if f.StubAndResolver() {
			fStr += "(Has Resolver Function)"
		} else if f.WeakDefinition() {
			fStr += "(Weak Definition)"
		}
	} else if f.ThreadLocal() {
		fStr += "Thread Local"
	} else if f.Absolute() {
		fStr += "Absolute"
	}
	return strings.TrimSpace(fStr)
}
