package types

import "strings"

// An Nlist32 is a Mach-O 32-bit symbol table entry.
type Nlist32 struct {
	Name  uint32
	Type  NType
	Sect  uint8
	Desc  uint16
	Value uint32
}

// An Nlist64 is a Mach-O 64-bit symbol table entry.
type Nlist64 struct {
	Name  uint32
	Type  NType
	Sect  uint8
	Desc  uint16
	Value uint64
}

type NType uint8

const (
	N_STAB NType = 0xe0 /* if any of these bits set, a symbolic debugging entry */
	N_PEXT NType = 0x10 /* private external symbol bit */
	N_TYPE NType = 0x0e /* mask for the type bits */
	N_EXT  NType = 0x01 /* external symbol bit, set for external symbols */
)

const (
	N_UNDF NType = 0x0 /* undefined, n_sect == NO_SECT */
	N_ABS  NType = 0x2 /* absolute, n_sect == NO_SECT */
	N_SECT NType = 0xe /* defined in section number n_sect */
	N_PBUD NType = 0xc /* prebound undefined (defined in a dylib) */
	N_INDR NType = 0xa /* indirect */
)

func (t NType) IsDebugSym() bool {
	return t&N_STAB != 0
}
func (t NType) IsExternal() bool {
	return t&N_EXT != 0
}
func (t NType) IsUndefined() bool {
	return t&N_TYPE == N_UNDF
}
func (t NType) IsDefinedInSection() bool {
	return t&N_TYPE == N_SECT
}

func (t NType) String() string {
	var out []string
	if t.IsDebugSym() {
		out = append(out, "debug")
	}
	if t&N_PEXT != 0 {
		out = append(out, "private")
	}
	switch t & N_TYPE {
	case N_UNDF:
		out = append(out, "undefined")
	case N_ABS:
		out = append(out, "absolute")
	case N_SECT:
		out = append(out, "section")
	case N_PBUD:
		out = append(out, "prebound")
	case N_INDR:
		out = append(out, "indirect")
	}
	if t.IsExternal() {
		out = append(out, "external")
	}
	return strings.Join(out, "|")
}

const REFERENCED_DYNAMICALLY = 0x0010

// GET_LIBRARY_ORDINAL unpacks the two-level namespace library ordinal
// from an nlist desc field.
func GET_LIBRARY_ORDINAL(desc uint16) uint16 {
	return (desc >> 8) & 0xff
}

const (
	SELF_LIBRARY_ORDINAL   = 0x0
	DYNAMIC_LOOKUP_ORDINAL = 0xfe
	EXECUTABLE_ORDINAL     = 0xff
)
