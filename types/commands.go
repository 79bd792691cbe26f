package types

import "strings"

// A LoadCmd is a Mach-O load command.
type LoadCmd uint32

func (c LoadCmd) Command() LoadCmd { return c }

const (
	LC_REQ_DYLD       LoadCmd = 0x80000000
	LC_SEGMENT        LoadCmd = 0x1  // segment of this file to be mapped
	LC_SYMTAB         LoadCmd = 0x2  // link-edit stab symbol table info
	LC_SYMSEG         LoadCmd = 0x3  // link-edit gdb symbol table info (obsolete)
	LC_THREAD         LoadCmd = 0x4  // thread
	LC_UNIXTHREAD     LoadCmd = 0x5  // thread+stack
	LC_LOADFVMLIB     LoadCmd = 0x6  // load a specified fixed VM shared library
	LC_IDFVMLIB       LoadCmd = 0x7  // fixed VM shared library identification
	LC_IDENT          LoadCmd = 0x8  // object identification info (obsolete)
	LC_FVMFILE        LoadCmd = 0x9  // fixed VM file inclusion (internal use)
	LC_PREPAGE        LoadCmd = 0xa  // prepage command (internal use)
	LC_DYSYMTAB       LoadCmd = 0xb  // dynamic link-edit symbol table info
	LC_LOAD_DYLIB     LoadCmd = 0xc  // load dylib command
	LC_ID_DYLIB       LoadCmd = 0xd  // id dylib command
	LC_LOAD_DYLINKER  LoadCmd = 0xe  // load a dynamic linker
	LC_ID_DYLINKER    LoadCmd = 0xf  // id dylinker command
	LC_PREBOUND_DYLIB LoadCmd = 0x10 // modules prebound for a dynamically linked shared library
	LC_ROUTINES       LoadCmd = 0x11 // image routines
	LC_SUB_FRAMEWORK  LoadCmd = 0x12 // sub framework
	LC_SUB_UMBRELLA   LoadCmd = 0x13 // sub umbrella
	LC_SUB_CLIENT     LoadCmd = 0x14 // sub client
	LC_SUB_LIBRARY    LoadCmd = 0x15 // sub library
	LC_TWOLEVEL_HINTS LoadCmd = 0x16 // two-level namespace lookup hints
	LC_PREBIND_CKSUM  LoadCmd = 0x17 // prebind checksum
	/*
	 * load a dynamically linked shared library that is allowed to be missing
	 * (all symbols are weak imported).
	 */
	LC_LOAD_WEAK_DYLIB          LoadCmd = (0x18 | LC_REQ_DYLD)
	LC_SEGMENT_64               LoadCmd = 0x19                 // 64-bit segment of this file to be mapped
	LC_ROUTINES_64              LoadCmd = 0x1a                 // 64-bit image routines
	LC_UUID                     LoadCmd = 0x1b                 // the uuid
	LC_RPATH                    LoadCmd = (0x1c | LC_REQ_DYLD) // runpath additions
	LC_CODE_SIGNATURE           LoadCmd = 0x1d                 // local of code signature
	LC_SEGMENT_SPLIT_INFO       LoadCmd = 0x1e                 // local of info to split segments
	LC_REEXPORT_DYLIB           LoadCmd = (0x1f | LC_REQ_DYLD) // load and re-export dylib
	LC_LAZY_LOAD_DYLIB          LoadCmd = 0x20                 // delay load of dylib until first use
	LC_ENCRYPTION_INFO          LoadCmd = 0x21                 // encrypted segment information
	LC_DYLD_INFO                LoadCmd = 0x22                 // compressed dyld information
	LC_DYLD_INFO_ONLY           LoadCmd = (0x22 | LC_REQ_DYLD) // compressed dyld information only
	LC_LOAD_UPWARD_DYLIB        LoadCmd = (0x23 | LC_REQ_DYLD) // load upward dylib
	LC_VERSION_MIN_MACOSX       LoadCmd = 0x24                 // build for MacOSX min OS version
	LC_VERSION_MIN_IPHONEOS     LoadCmd = 0x25                 // build for iPhoneOS min OS version
	LC_FUNCTION_STARTS          LoadCmd = 0x26                 // compressed table of function start addresses
	LC_DYLD_ENVIRONMENT         LoadCmd = 0x27                 // string for dyld to treat like environment variable
	LC_MAIN                     LoadCmd = (0x28 | LC_REQ_DYLD) // replacement for LC_UNIXTHREAD
	LC_DATA_IN_CODE             LoadCmd = 0x29                 // table of non-instructions in __text
	LC_SOURCE_VERSION           LoadCmd = 0x2A                 // source version used to build binary
	LC_DYLIB_CODE_SIGN_DRS      LoadCmd = 0x2B                 // Code signing DRs copied from linked dylibs
	LC_ENCRYPTION_INFO_64       LoadCmd = 0x2C                 // 64-bit encrypted segment information
	LC_LINKER_OPTION            LoadCmd = 0x2D                 // linker options in MH_OBJECT files
	LC_LINKER_OPTIMIZATION_HINT LoadCmd = 0x2E                 // optimization hints in MH_OBJECT files
	LC_VERSION_MIN_TVOS         LoadCmd = 0x2F                 // build for AppleTV min OS version
	LC_VERSION_MIN_WATCHOS      LoadCmd = 0x30                 // build for Watch min OS version
	LC_NOTE                     LoadCmd = 0x31                 // arbitrary data included within a Mach-O file
	LC_BUILD_VERSION            LoadCmd = 0x32                 // build for platform min OS version
	LC_DYLD_EXPORTS_TRIE        LoadCmd = (0x33 | LC_REQ_DYLD) // used with linkedit_data_command, payload is trie
	LC_DYLD_CHAINED_FIXUPS      LoadCmd = (0x34 | LC_REQ_DYLD) // used with linkedit_data_command
	LC_FILESET_ENTRY            LoadCmd = (0x35 | LC_REQ_DYLD) // used with fileset_entry_command
)

var loadCmdStrings = []intName{
	{uint32(LC_SEGMENT), "LC_SEGMENT"},
	{uint32(LC_SYMTAB), "LC_SYMTAB"},
	{uint32(LC_SYMSEG), "LC_SYMSEG"},
	{uint32(LC_THREAD), "LC_THREAD"},
	{uint32(LC_UNIXTHREAD), "LC_UNIXTHREAD"},
	{uint32(LC_DYSYMTAB), "LC_DYSYMTAB"},
	{uint32(LC_LOAD_DYLIB), "LC_LOAD_DYLIB"},
	{uint32(LC_ID_DYLIB), "LC_ID_DYLIB"},
	{uint32(LC_LOAD_DYLINKER), "LC_LOAD_DYLINKER"},
	{uint32(LC_ID_DYLINKER), "LC_ID_DYLINKER"},
	{uint32(LC_PREBOUND_DYLIB), "LC_PREBOUND_DYLIB"},
	{uint32(LC_SUB_FRAMEWORK), "LC_SUB_FRAMEWORK"},
	{uint32(LC_SUB_UMBRELLA), "LC_SUB_UMBRELLA"},
	{uint32(LC_SUB_CLIENT), "LC_SUB_CLIENT"},
	{uint32(LC_SUB_LIBRARY), "LC_SUB_LIBRARY"},
	{uint32(LC_TWOLEVEL_HINTS), "LC_TWOLEVEL_HINTS"},
	{uint32(LC_LOAD_WEAK_DYLIB), "LC_LOAD_WEAK_DYLIB"},
	{uint32(LC_SEGMENT_64), "LC_SEGMENT_64"},
	{uint32(LC_UUID), "LC_UUID"},
	{uint32(LC_RPATH), "LC_RPATH"},
	{uint32(LC_CODE_SIGNATURE), "LC_CODE_SIGNATURE"},
	{uint32(LC_SEGMENT_SPLIT_INFO), "LC_SEGMENT_SPLIT_INFO"},
	{uint32(LC_REEXPORT_DYLIB), "LC_REEXPORT_DYLIB"},
	{uint32(LC_LAZY_LOAD_DYLIB), "LC_LAZY_LOAD_DYLIB"},
	{uint32(LC_ENCRYPTION_INFO), "LC_ENCRYPTION_INFO"},
	{uint32(LC_DYLD_INFO), "LC_DYLD_INFO"},
	{uint32(LC_DYLD_INFO_ONLY), "LC_DYLD_INFO_ONLY"},
	{uint32(LC_LOAD_UPWARD_DYLIB), "LC_LOAD_UPWARD_DYLIB"},
	{uint32(LC_VERSION_MIN_MACOSX), "LC_VERSION_MIN_MACOSX"},
	{uint32(LC_VERSION_MIN_IPHONEOS), "LC_VERSION_MIN_IPHONEOS"},
	{uint32(LC_FUNCTION_STARTS), "LC_FUNCTION_STARTS"},
	{uint32(LC_DYLD_ENVIRONMENT), "LC_DYLD_ENVIRONMENT"},
	{uint32(LC_MAIN), "LC_MAIN"},
	{uint32(LC_DATA_IN_CODE), "LC_DATA_IN_CODE"},
	{uint32(LC_SOURCE_VERSION), "LC_SOURCE_VERSION"},
	{uint32(LC_DYLIB_CODE_SIGN_DRS), "LC_DYLIB_CODE_SIGN_DRS"},
	{uint32(LC_ENCRYPTION_INFO_64), "LC_ENCRYPTION_INFO_64"},
	{uint32(LC_LINKER_OPTION), "LC_LINKER_OPTION"},
	{uint32(LC_LINKER_OPTIMIZATION_HINT), "LC_LINKER_OPTIMIZATION_HINT"},
	{uint32(LC_VERSION_MIN_TVOS), "LC_VERSION_MIN_TVOS"},
	{uint32(LC_VERSION_MIN_WATCHOS), "LC_VERSION_MIN_WATCHOS"},
	{uint32(LC_NOTE), "LC_NOTE"},
	{uint32(LC_BUILD_VERSION), "LC_BUILD_VERSION"},
	{uint32(LC_DYLD_EXPORTS_TRIE), "LC_DYLD_EXPORTS_TRIE"},
	{uint32(LC_DYLD_CHAINED_FIXUPS), "LC_DYLD_CHAINED_FIXUPS"},
	{uint32(LC_FILESET_ENTRY), "LC_FILESET_ENTRY"},
}

func (c LoadCmd) String() string   { return stringName(uint32(c), loadCmdStrings, false) }
func (c LoadCmd) GoString() string { return stringName(uint32(c), loadCmdStrings, true) }

type SegFlag uint32

/* Constants for the flags field of the segment_command */
const (
	HighVM            SegFlag = 0x1
	FvmLib            SegFlag = 0x2
	NoReLoc           SegFlag = 0x4
	ProtectedVersion1 SegFlag = 0x8
	ReadOnly          SegFlag = 0x10 /* This segment is made read-only after fixups */
)

func (f SegFlag) String() string {
	var flags []string
	if f&HighVM != 0 {
		flags = append(flags, "HighVM")
	}
	if f&FvmLib != 0 {
		flags = append(flags, "FvmLib")
	}
	if f&NoReLoc != 0 {
		flags = append(flags, "NoReloc")
	}
	if f&ProtectedVersion1 != 0 {
		flags = append(flags, "ProtectedVersion1")
	}
	if f&ReadOnly != 0 {
		flags = append(flags, "ReadOnly")
	}
	return strings.Join(flags, "|")
}

// A Segment32 is a 32-bit Mach-O segment load command.
type Segment32 struct {
	LoadCmd              /* LC_SEGMENT */
	Len     uint32       /* includes sizeof section structs */
	Name    [16]byte     /* segment name */
	Addr    uint32       /* memory address of this segment */
	Memsz   uint32       /* memory size of this segment */
	Offset  uint32       /* file offset of this segment */
	Filesz  uint32       /* amount to map from the file */
	Maxprot VmProtection /* maximum VM protection */
	Prot    VmProtection /* initial VM protection */
	Nsect   uint32       /* number of sections in segment */
	Flag    SegFlag      /* flags */
}

// A Segment64 is a 64-bit Mach-O segment load command.
type Segment64 struct {
	LoadCmd              /* LC_SEGMENT_64 */
	Len     uint32       /* includes sizeof section_64 structs */
	Name    [16]byte     /* segment name */
	Addr    uint64       /* memory address of this segment */
	Memsz   uint64       /* memory size of this segment */
	Offset  uint64       /* file offset of this segment */
	Filesz  uint64       /* amount to map from the file */
	Maxprot VmProtection /* maximum VM protection */
	Prot    VmProtection /* initial VM protection */
	Nsect   uint32       /* number of sections in segment */
	Flag    SegFlag      /* flags */
}

// A Section32 is a 32-bit Mach-O section header.
type Section32 struct {
	Name     [16]byte
	Seg      [16]byte
	Addr     uint32
	Size     uint32
	Offset   uint32
	Align    uint32
	Reloff   uint32
	Nreloc   uint32
	Flags    SectionFlag
	Reserve1 uint32
	Reserve2 uint32
}

// A Section64 is a 64-bit Mach-O section header.
type Section64 struct {
	Name     [16]byte
	Seg      [16]byte
	Addr     uint64
	Size     uint64
	Offset   uint32
	Align    uint32
	Reloff   uint32
	Nreloc   uint32
	Flags    SectionFlag
	Reserve1 uint32
	Reserve2 uint32
	Reserve3 uint32
}

type SectionFlag uint32

const (
	SectionType       SectionFlag = 0x000000ff /* 256 section types */
	SectionAttributes SectionFlag = 0xffffff00 /* 24 section attributes */

	S_REGULAR          SectionFlag = 0x0 /* regular section */
	S_ZEROFILL         SectionFlag = 0x1 /* zero fill on demand section */
	S_CSTRING_LITERALS SectionFlag = 0x2 /* section with only literal C strings */
	S_4BYTE_LITERALS   SectionFlag = 0x3
	S_8BYTE_LITERALS   SectionFlag = 0x4
	S_LITERAL_POINTERS SectionFlag = 0x5

	S_NON_LAZY_SYMBOL_POINTERS   SectionFlag = 0x6
	S_LAZY_SYMBOL_POINTERS       SectionFlag = 0x7
	S_SYMBOL_STUBS               SectionFlag = 0x8
	S_MOD_INIT_FUNC_POINTERS     SectionFlag = 0x9
	S_MOD_TERM_FUNC_POINTERS     SectionFlag = 0xa
	S_COALESCED                  SectionFlag = 0xb
	S_GB_ZEROFILL                SectionFlag = 0xc
	S_INTERPOSING                SectionFlag = 0xd
	S_16BYTE_LITERALS            SectionFlag = 0xe
	S_DTRACE_DOF                 SectionFlag = 0xf
	S_LAZY_DYLIB_SYMBOL_POINTERS SectionFlag = 0x10
	S_THREAD_LOCAL_REGULAR       SectionFlag = 0x11
	S_THREAD_LOCAL_ZEROFILL      SectionFlag = 0x12

	S_ATTR_PURE_INSTRUCTIONS SectionFlag = 0x80000000
	S_ATTR_SOME_INSTRUCTIONS SectionFlag = 0x00000400
)

func (f SectionFlag) Type() SectionFlag {
	return f & SectionType
}
func (f SectionFlag) IsRegular() bool {
	return f.Type() == S_REGULAR
}
func (f SectionFlag) IsZerofill() bool {
	t := f.Type()
	return t == S_ZEROFILL || t == S_GB_ZEROFILL || t == S_THREAD_LOCAL_ZEROFILL
}
func (f SectionFlag) IsCstringLiterals() bool {
	return f.Type() == S_CSTRING_LITERALS
}

// A SymtabCmd is a Mach-O symbol table command.
type SymtabCmd struct {
	LoadCmd // LC_SYMTAB
	Len     uint32
	Symoff  uint32
	Nsyms   uint32
	Stroff  uint32
	Strsize uint32
}

// A DysymtabCmd is a Mach-O dynamic symbol table command.
type DysymtabCmd struct {
	LoadCmd        // LC_DYSYMTAB
	Len            uint32
	Ilocalsym      uint32
	Nlocalsym      uint32
	Iextdefsym     uint32
	Nextdefsym     uint32
	Iundefsym      uint32
	Nundefsym      uint32
	Tocoffset      uint32
	Ntoc           uint32
	Modtaboff      uint32
	Nmodtab        uint32
	Extrefsymoff   uint32
	Nextrefsyms    uint32
	Indirectsymoff uint32
	Nindirectsyms  uint32
	Extreloff      uint32
	Nextrel        uint32
	Locreloff      uint32
	Nlocrel        uint32
}

// A DylibCmd is a Mach-O load dynamic library command.
// LC_ID_DYLIB, LC_LOAD_{,WEAK_}DYLIB, LC_REEXPORT_DYLIB
type DylibCmd struct {
	LoadCmd
	Len            uint32
	Name           uint32
	Time           uint32
	CurrentVersion Version
	CompatVersion  Version
}

// A DylinkerCmd is a Mach-O dynamic load a dynamic linker command.
type DylinkerCmd struct {
	LoadCmd // LC_LOAD_DYLINKER
	Len     uint32
	Name    uint32 // dynamic linker's path name
}

// A UUIDCmd is a Mach-O uuid load command containing a single
// 128-bit unique random number identifying the build.
type UUIDCmd struct {
	LoadCmd // LC_UUID
	Len     uint32
	UUID    UUID
}

// A RpathCmd is a Mach-O rpath command.
type RpathCmd struct {
	LoadCmd // LC_RPATH
	Len     uint32
	Path    uint32
}

// A LinkEditDataCmd is a Mach-O linkedit data command.
// LC_CODE_SIGNATURE, LC_FUNCTION_STARTS, LC_DATA_IN_CODE,
// LC_DYLD_EXPORTS_TRIE, LC_DYLD_CHAINED_FIXUPS
type LinkEditDataCmd struct {
	LoadCmd
	Len    uint32
	Offset uint32
	Size   uint32
}

// A DyldInfoCmd is a Mach-O compressed dyld information command.
// LC_DYLD_INFO, LC_DYLD_INFO_ONLY
type DyldInfoCmd struct {
	LoadCmd
	Len          uint32
	RebaseOff    uint32 // file offset to rebase info
	RebaseSize   uint32 // size of rebase info
	BindOff      uint32 // file offset to binding info
	BindSize     uint32 // size of binding info
	WeakBindOff  uint32 // file offset to weak binding info
	WeakBindSize uint32 // size of weak binding info
	LazyBindOff  uint32 // file offset to lazy binding info
	LazyBindSize uint32 // size of lazy binding info
	ExportOff    uint32 // file offset to export info
	ExportSize   uint32 // size of export info
}

// A VersionMinCmd is a Mach-O version min command.
type VersionMinCmd struct {
	LoadCmd
	Len     uint32
	Version Version
	Sdk     Version
}

// An EntryPointCmd is a Mach-O main command.
type EntryPointCmd struct {
	LoadCmd          // LC_MAIN, only used in MH_EXECUTE filetypes
	Len       uint32 // 24
	Offset    uint64 // file (__TEXT) offset of main()
	StackSize uint64 // if not zero, initial stack size
}

// A SourceVersionCmd is a Mach-O source version command.
type SourceVersionCmd struct {
	LoadCmd // LC_SOURCE_VERSION
	Len     uint32
	Version SrcVersion // A.B.C.D.E packed as a24.b10.c10.d10.e10
}

type EncryptionSystem uint32

const NotEncryptedYet EncryptionSystem = 0

// An EncryptionInfoCmd is a Mach-O encrypted segment information command.
type EncryptionInfoCmd struct {
	LoadCmd // LC_ENCRYPTION_INFO
	Len     uint32
	Offset  uint32           // file offset of encrypted range
	Size    uint32           // file size of encrypted range
	CryptID EncryptionSystem // which encryption system, 0 means not-encrypted yet
}

// An EncryptionInfo64Cmd is a Mach-O 64-bit encrypted segment information command.
type EncryptionInfo64Cmd struct {
	LoadCmd // LC_ENCRYPTION_INFO_64
	Len     uint32
	Offset  uint32
	Size    uint32
	CryptID EncryptionSystem
	Pad     uint32 // padding to make this struct's size a multiple of 8 bytes
}

/*
 * The build_version_command contains the min OS version on which this
 * binary was built to run for its platform. A list of known tool
 * versions follows it.
 */
type BuildVersionCmd struct {
	LoadCmd  // LC_BUILD_VERSION
	Len      uint32
	Platform Platform // platform
	Minos    Version  // X.Y.Z is encoded in nibbles xxxx.yy.zz
	Sdk      Version  // X.Y.Z is encoded in nibbles xxxx.yy.zz
	NumTools uint32   // number of tool entries following this
}
