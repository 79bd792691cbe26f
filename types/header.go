package types

import (
	"fmt"
	"strings"
)

// A FileHeader represents a Mach-O file header.
type FileHeader struct {
	Magic        Magic
	CPU          CPU
	SubCPU       CPUSubtype
	Type         HeaderFileType
	NCommands    uint32
	SizeCommands uint32
	Flags        HeaderFlag
	Reserved     uint32
}

const (
	FileHeaderSize32 = 7 * 4
	FileHeaderSize64 = 8 * 4
)

type Magic uint32

const (
	Magic32  Magic = 0xfeedface
	Magic64  Magic = 0xfeedfacf
	MagicFat Magic = 0xcafebabe
)

var magicStrings = []intName{
	{uint32(Magic32), "32-bit MachO"},
	{uint32(Magic64), "64-bit MachO"},
	{uint32(MagicFat), "Fat MachO"},
}

func (i Magic) Int() uint32      { return uint32(i) }
func (i Magic) String() string   { return stringName(uint32(i), magicStrings, false) }
func (i Magic) GoString() string { return stringName(uint32(i), magicStrings, true) }

// A HeaderFileType is the Mach-O file type, e.g. an object file, executable, or dynamic library.
type HeaderFileType uint32

const (
	MH_OBJECT      HeaderFileType = 0x1 /* relocatable object file */
	MH_EXECUTE     HeaderFileType = 0x2 /* demand paged executable file */
	MH_FVMLIB      HeaderFileType = 0x3 /* fixed VM shared library file */
	MH_CORE        HeaderFileType = 0x4 /* core file */
	MH_PRELOAD     HeaderFileType = 0x5 /* preloaded executable file */
	MH_DYLIB       HeaderFileType = 0x6 /* dynamically bound shared library */
	MH_DYLINKER    HeaderFileType = 0x7 /* dynamic link editor */
	MH_BUNDLE      HeaderFileType = 0x8 /* dynamically bound bundle file */
	MH_DYLIB_STUB  HeaderFileType = 0x9 /* shared library stub for static linking only */
	MH_DSYM        HeaderFileType = 0xa /* companion file with only debug sections */
	MH_KEXT_BUNDLE HeaderFileType = 0xb /* x86_64 kexts */
	MH_FILESET     HeaderFileType = 0xc /* a file composed of other Mach-Os sharing a single linkedit */
)

var headerFileTypeStrings = []intName{
	{uint32(MH_OBJECT), "OBJECT"},
	{uint32(MH_EXECUTE), "EXECUTE"},
	{uint32(MH_FVMLIB), "FVMLIB"},
	{uint32(MH_CORE), "CORE"},
	{uint32(MH_PRELOAD), "PRELOAD"},
	{uint32(MH_DYLIB), "DYLIB"},
	{uint32(MH_DYLINKER), "DYLINKER"},
	{uint32(MH_BUNDLE), "BUNDLE"},
	{uint32(MH_DYLIB_STUB), "DYLIB_STUB"},
	{uint32(MH_DSYM), "DSYM"},
	{uint32(MH_KEXT_BUNDLE), "KEXT_BUNDLE"},
	{uint32(MH_FILESET), "FILESET"},
}

func (t HeaderFileType) String() string   { return stringName(uint32(t), headerFileTypeStrings, false) }
func (t HeaderFileType) GoString() string { return stringName(uint32(t), headerFileTypeStrings, true) }

type HeaderFlag uint32

const (
	None                       HeaderFlag = 0x0
	NoUndefs                   HeaderFlag = 0x1
	IncrLink                   HeaderFlag = 0x2
	DyldLink                   HeaderFlag = 0x4
	BindAtLoad                 HeaderFlag = 0x8
	Prebound                   HeaderFlag = 0x10
	SplitSegs                  HeaderFlag = 0x20
	LazyInit                   HeaderFlag = 0x40
	TwoLevel                   HeaderFlag = 0x80
	ForceFlat                  HeaderFlag = 0x100
	NoMultiDefs                HeaderFlag = 0x200
	NoFixPrebinding            HeaderFlag = 0x400
	Prebindable                HeaderFlag = 0x800
	AllModsBound               HeaderFlag = 0x1000
	SubsectionsViaSymbols      HeaderFlag = 0x2000
	Canonical                  HeaderFlag = 0x4000
	WeakDefines                HeaderFlag = 0x8000
	BindsToWeak                HeaderFlag = 0x10000
	AllowStackExecution        HeaderFlag = 0x20000
	RootSafe                   HeaderFlag = 0x40000
	SetuidSafe                 HeaderFlag = 0x80000
	NoReexportedDylibs         HeaderFlag = 0x100000
	PIE                        HeaderFlag = 0x200000
	DeadStrippableDylib        HeaderFlag = 0x400000
	HasTLVDescriptors          HeaderFlag = 0x800000
	NoHeapExecution            HeaderFlag = 0x1000000
	AppExtensionSafe           HeaderFlag = 0x2000000
	NlistOutofsyncWithDyldinfo HeaderFlag = 0x4000000
	SimSupport                 HeaderFlag = 0x8000000
	DylibInCache               HeaderFlag = 0x80000000
)

var headerFlagNames = []struct {
	flag HeaderFlag
	name string
}{
	{NoUndefs, "NoUndefs"},
	{IncrLink, "IncrLink"},
	{DyldLink, "DyldLink"},
	{BindAtLoad, "BindAtLoad"},
	{Prebound, "Prebound"},
	{SplitSegs, "SplitSegs"},
	{LazyInit, "LazyInit"},
	{TwoLevel, "TwoLevel"},
	{ForceFlat, "ForceFlat"},
	{NoMultiDefs, "NoMultiDefs"},
	{NoFixPrebinding, "NoFixPrebinding"},
	{Prebindable, "Prebindable"},
	{AllModsBound, "AllModsBound"},
	{SubsectionsViaSymbols, "SubsectionsViaSymbols"},
	{Canonical, "Canonical"},
	{WeakDefines, "WeakDefines"},
	{BindsToWeak, "BindsToWeak"},
	{AllowStackExecution, "AllowStackExecution"},
	{RootSafe, "RootSafe"},
	{SetuidSafe, "SetuidSafe"},
	{NoReexportedDylibs, "NoReexportedDylibs"},
	{PIE, "PIE"},
	{DeadStrippableDylib, "DeadStrippableDylib"},
	{HasTLVDescriptors, "HasTLVDescriptors"},
	{NoHeapExecution, "NoHeapExecution"},
	{AppExtensionSafe, "AppExtensionSafe"},
	{NlistOutofsyncWithDyldinfo, "NlistOutofsyncWithDyldinfo"},
	{SimSupport, "SimSupport"},
	{DylibInCache, "DylibInCache"},
}

func (f HeaderFlag) None() bool {
	return f == 0
}
func (f HeaderFlag) DyldLink() bool {
	return (f & DyldLink) != 0
}
func (f HeaderFlag) TwoLevel() bool {
	return (f & TwoLevel) != 0
}
func (f HeaderFlag) PIE() bool {
	return (f & PIE) != 0
}
func (f HeaderFlag) AppExtensionSafe() bool {
	return (f & AppExtensionSafe) != 0
}
func (f HeaderFlag) DylibInCache() bool {
	return (f & DylibInCache) != 0
}

// List returns a string array of flag names
func (f HeaderFlag) List() []string {
	var flags []string
	for _, fn := range headerFlagNames {
		if (f & fn.flag) != 0 {
			flags = append(flags, fn.name)
		}
	}
	return flags
}

func (f HeaderFlag) Flags() string {
	return strings.Join(f.List(), ", ")
}

func (h FileHeader) String() string {
	return fmt.Sprintf(
		"Magic         = %s\n"+
			"Type          = %s\n"+
			"CPU           = %s, %s\n"+
			"Commands      = %d (Size: %d)\n"+
			"Flags         = %s\n",
		h.Magic,
		h.Type,
		h.CPU, h.SubCPU.String(h.CPU),
		h.NCommands,
		h.SizeCommands,
		h.Flags.Flags(),
	)
}
