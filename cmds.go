package classdump

import (
	"fmt"
	"io"

	"github.com/appsworld/go-classdump/types"
)

// A Load represents any Mach-O load command.
type Load interface {
	Raw() []byte
	String() string
	Command() types.LoadCmd
}

// A LoadBytes is the uninterpreted bytes of a Mach-O load command.
type LoadBytes []byte

func (b LoadBytes) String() string {
	s := "["
	for i, a := range b {
		if i > 0 {
			s += " "
			if len(b) > 48 && i >= 16 {
				s += fmt.Sprintf("... (%d bytes)", len(b))
				break
			}
		}
		s += fmt.Sprintf("%x", a)
	}
	s += "]"
	return s
}

func (b LoadBytes) Raw() []byte { return b }

// LoadCmdBytes is a command-tagged sequence of bytes. This is used for
// load commands that are not interesting to the extractor, and to
// common up this behavior for all those that are.
type LoadCmdBytes struct {
	types.LoadCmd
	LoadBytes
}

func (s LoadCmdBytes) String() string {
	return s.LoadCmd.String() + ": " + s.LoadBytes.String()
}

/*******************************************************************************
 * SEGMENT
 *******************************************************************************/

// A SegmentHeader is the header for a Mach-O 32-bit or 64-bit load
// segment command.
type SegmentHeader struct {
	types.LoadCmd
	Len       uint32
	Name      string
	Addr      uint64
	Memsz     uint64
	Offset    uint64
	Filesz    uint64
	Maxprot   types.VmProtection
	Prot      types.VmProtection
	Nsect     uint32
	Flag      types.SegFlag
	Firstsect uint32
}

func (s *SegmentHeader) String() string {
	return fmt.Sprintf(
		"Seg %s, len=%#x, addr=%#x, memsz=%#x, offset=%#x, filesz=%#x, maxprot=%#x, prot=%#x, nsect=%d, flag=%#x, firstsect=%d",
		s.Name, s.Len, s.Addr, s.Memsz, s.Offset, s.Filesz, s.Maxprot, s.Prot, s.Nsect, s.Flag, s.Firstsect)
}

// A Segment represents a Mach-O 32-bit or 64-bit load segment command.
type Segment struct {
	SegmentHeader
	LoadBytes
	// Embed ReaderAt for ReadAt method.
	// Do not embed SectionReader directly
	// to avoid having Read and Seek.
	// If a client wants Read and Seek it must use
	// Open() to avoid fighting over the seek offset
	// with other clients.
	io.ReaderAt
	sr *io.SectionReader
}

func (s *Segment) String() string {
	return fmt.Sprintf("sz=0x%08x off=0x%08x-0x%08x addr=0x%09x-0x%09x %s/%s   %s%s%s",
		s.Filesz, s.Offset, s.Offset+s.Filesz, s.Addr, s.Addr+s.Memsz, s.Prot, s.Maxprot, s.Name, pad(20-len(s.Name)), s.Flag)
}

// Data reads and returns the contents of the segment.
func (s *Segment) Data() ([]byte, error) {
	dat := make([]byte, s.Filesz)
	n, err := s.ReadAt(dat, int64(s.Offset))
	if n == len(dat) {
		err = nil
	}
	return dat[0:n], err
}

// Contains reports whether addr lies inside the segment's VM range.
func (s *Segment) Contains(addr uint64) bool {
	return s.Addr <= addr && addr < s.Addr+s.Memsz
}

// Open returns a new ReadSeeker reading the segment.
func (s *Segment) Open() io.ReadSeeker { return io.NewSectionReader(s.sr, 0, 1<<63-1) }

type Segments []*Segment

func (v Segments) Len() int {
	return len(v)
}

func (v Segments) Less(i, j int) bool {
	return v[i].Addr < v[j].Addr
}

func (v Segments) Swap(i, j int) {
	v[i], v[j] = v[j], v[i]
}

/*******************************************************************************
 * SECTION
 *******************************************************************************/

type SectionHeader struct {
	Name      string
	Seg       string
	Addr      uint64
	Size      uint64
	Offset    uint32
	Align     uint32
	Reloff    uint32
	Nreloc    uint32
	Flags     types.SectionFlag
	Reserved1 uint32
	Reserved2 uint32
	Reserved3 uint32 // only present if original was 64-bit
	Type      uint8
}

type Section struct {
	SectionHeader

	// Embed ReaderAt for ReadAt method.
	// Do not embed SectionReader directly
	// to avoid having Read and Seek.
	// If a client wants Read and Seek it must use
	// Open() to avoid fighting over the seek offset
	// with other clients.
	io.ReaderAt
	sr *io.SectionReader
}

func (s *Section) String() string {
	return fmt.Sprintf("sz=0x%08x off=0x%08x-0x%08x addr=0x%09x-0x%09x    %s.%s", s.Size, s.Offset, uint64(s.Offset)+s.Size, s.Addr, s.Addr+s.Size, s.Seg, s.Name)
}

// Data reads and returns the contents of the Mach-O section.
func (s *Section) Data() ([]byte, error) {
	if s.Flags.IsZerofill() {
		return nil, fmt.Errorf("section %s.%s has no file backing", s.Seg, s.Name)
	}
	dat := make([]byte, s.Size)
	n, err := s.ReadAt(dat, int64(s.Offset))
	if n == len(dat) {
		err = nil
	}
	return dat[0:n], err
}

// Contains reports whether addr lies inside the section's VM range.
func (s *Section) Contains(addr uint64) bool {
	return s.Addr <= addr && addr < s.Addr+s.Size
}

// Open returns a new ReadSeeker reading the Mach-O section.
func (s *Section) Open() io.ReadSeeker { return io.NewSectionReader(s.sr, 0, 1<<63-1) }

/*******************************************************************************
 * LC_SYMTAB
 *******************************************************************************/

// A Symtab represents a Mach-O LC_SYMTAB command.
type Symtab struct {
	LoadBytes
	types.SymtabCmd
	Syms []Symbol
}

func (s *Symtab) String() string {
	if s.Nsyms == 0 && s.Strsize == 0 {
		return "Symbols stripped"
	}
	return fmt.Sprintf("Symbol offset=0x%08X, Num Syms: %d, String offset=0x%08X-0x%08X", s.Symoff, s.Nsyms, s.Stroff, s.Stroff+s.Strsize)
}

// A Symbol is a Mach-O 32-bit or 64-bit symbol table entry.
type Symbol struct {
	Name  string
	Type  types.NType
	Sect  uint8
	Desc  uint16
	Value uint64
}

func (s Symbol) String(m *File) string {
	var sec string
	if s.Sect > 0 && int(s.Sect) <= len(m.Sections) {
		sec = fmt.Sprintf("%s.%s", m.Sections[s.Sect-1].Seg, m.Sections[s.Sect-1].Name)
	}
	return fmt.Sprintf("0x%016X \t <type:%s> \t %s %s", s.Value, s.Type, s.Name, sec)
}

/*******************************************************************************
 * LC_DYSYMTAB
 *******************************************************************************/

// A Dysymtab represents a Mach-O LC_DYSYMTAB command.
type Dysymtab struct {
	LoadBytes
	types.DysymtabCmd
	IndirectSyms []uint32 // indices into Symtab.Syms
}

func (d *Dysymtab) String() string {
	return fmt.Sprintf("local syms: %d at %d, ext syms: %d at %d, undef syms: %d at %d, indirect syms: %d at 0x%08x",
		d.Nlocalsym, d.Ilocalsym,
		d.Nextdefsym, d.Iextdefsym,
		d.Nundefsym, d.Iundefsym,
		d.Nindirectsyms, d.Indirectsymoff)
}

/*******************************************************************************
 * LC_ID_DYLIB, LC_LOAD_{,WEAK_}DYLIB, LC_REEXPORT_DYLIB
 *******************************************************************************/

// A Dylib represents a Mach-O load dynamic library command.
type Dylib struct {
	LoadBytes
	types.DylibCmd
	Name           string
	Time           uint32
	CurrentVersion string
	CompatVersion  string
}

func (d *Dylib) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.CurrentVersion)
}

// A DylibID represents a Mach-O LC_ID_DYLIB command.
type DylibID Dylib

func (d *DylibID) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.CurrentVersion)
}

// A WeakDylib represents a Mach-O LC_LOAD_WEAK_DYLIB command.
type WeakDylib Dylib

func (d *WeakDylib) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.CurrentVersion)
}

// A ReExportDylib represents a Mach-O LC_REEXPORT_DYLIB command.
type ReExportDylib Dylib

func (d *ReExportDylib) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.CurrentVersion)
}

// A UpwardDylib represents a Mach-O LC_LOAD_UPWARD_DYLIB command.
type UpwardDylib Dylib

func (d *UpwardDylib) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.CurrentVersion)
}

// A LazyLoadDylib represents a Mach-O LC_LAZY_LOAD_DYLIB command.
type LazyLoadDylib Dylib

func (d *LazyLoadDylib) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.CurrentVersion)
}

/*******************************************************************************
 * LC_LOAD_DYLINKER
 *******************************************************************************/

// A LoadDylinker represents a Mach-O LC_LOAD_DYLINKER command.
type LoadDylinker struct {
	LoadBytes
	types.DylinkerCmd
	Name string
}

func (d *LoadDylinker) String() string {
	return d.Name
}

/*******************************************************************************
 * LC_UUID
 *******************************************************************************/

// UUID represents a Mach-O LC_UUID command.
type UUID struct {
	LoadBytes
	types.UUIDCmd
	ID string
}

func (s *UUID) String() string {
	return s.ID
}

/*******************************************************************************
 * LC_RPATH
 *******************************************************************************/

// A Rpath represents a Mach-O LC_RPATH command.
type Rpath struct {
	LoadBytes
	types.RpathCmd
	Path string
}

func (r *Rpath) String() string {
	return r.Path
}

/*******************************************************************************
 * LC_DYLD_INFO, LC_DYLD_INFO_ONLY
 *******************************************************************************/

// A DyldInfo represents the compressed dyld information load command.
type DyldInfo struct {
	LoadBytes
	types.DyldInfoCmd
}

func (d *DyldInfo) String() string {
	return fmt.Sprintf(
		"\n"+
			"\t\tRebase info: %5d bytes at offset:  0x%08X -> 0x%08X\n"+
			"\t\tBind info:   %5d bytes at offset:  0x%08X -> 0x%08X\n"+
			"\t\tWeak info:   %5d bytes at offset:  0x%08X -> 0x%08X\n"+
			"\t\tLazy info:   %5d bytes at offset:  0x%08X -> 0x%08X\n"+
			"\t\tExport info: %5d bytes at offset:  0x%08X -> 0x%08X",
		d.RebaseSize, d.RebaseOff, d.RebaseOff+d.RebaseSize,
		d.BindSize, d.BindOff, d.BindOff+d.BindSize,
		d.WeakBindSize, d.WeakBindOff, d.WeakBindOff+d.WeakBindSize,
		d.LazyBindSize, d.LazyBindOff, d.LazyBindOff+d.LazyBindSize,
		d.ExportSize, d.ExportOff, d.ExportOff+d.ExportSize,
	)
}

/*******************************************************************************
 * LC_FUNCTION_STARTS
 *******************************************************************************/

// A FunctionStarts represents a Mach-O function starts command.
type FunctionStarts struct {
	LoadBytes
	types.LinkEditDataCmd
	VMAddrs []uint64
}

func (f *FunctionStarts) String() string {
	return fmt.Sprintf("offset=0x%08x-0x%08x size=%5d", f.Offset, f.Offset+f.Size, f.Size)
}

/*******************************************************************************
 * LC_DATA_IN_CODE
 *******************************************************************************/

// A DataInCode represents a Mach-O LC_DATA_IN_CODE command.
type DataInCode struct {
	LoadBytes
	types.LinkEditDataCmd
	Entries []types.DataInCodeEntry
}

func (d *DataInCode) String() string {
	return fmt.Sprintf("offset=0x%08x-0x%08x size=%5d entries=%d", d.Offset, d.Offset+d.Size, d.Size, len(d.Entries))
}

/*******************************************************************************
 * LC_CODE_SIGNATURE
 *******************************************************************************/

// A CodeSignature represents a Mach-O LC_CODE_SIGNATURE command. The
// signature payload itself is not interpreted.
type CodeSignature struct {
	LoadBytes
	types.LinkEditDataCmd
}

func (c *CodeSignature) String() string {
	return fmt.Sprintf("offset=0x%08x-0x%08x size=%5d", c.Offset, c.Offset+c.Size, c.Size)
}

/*******************************************************************************
 * LC_DYLD_EXPORTS_TRIE
 *******************************************************************************/

// A DyldExportsTrie used with linkedit_data_command, payload is trie.
type DyldExportsTrie struct {
	LoadBytes
	types.LinkEditDataCmd
}

func (t *DyldExportsTrie) String() string {
	return fmt.Sprintf("offset=0x%09x  size=%#x", t.Offset, t.Size)
}

/*******************************************************************************
 * LC_MAIN
 *******************************************************************************/

// EntryPoint represents a Mach-O LC_MAIN command.
type EntryPoint struct {
	LoadBytes
	types.EntryPointCmd
}

func (e *EntryPoint) String() string {
	return fmt.Sprintf("Entry Point: 0x%016x, Stack Size: %#x", e.Offset, e.StackSize)
}

/*******************************************************************************
 * LC_SOURCE_VERSION
 *******************************************************************************/

// A SourceVersion represents a Mach-O LC_SOURCE_VERSION command.
type SourceVersion struct {
	LoadBytes
	types.SourceVersionCmd
	Version string
}

func (s *SourceVersion) String() string {
	return s.Version
}

/*******************************************************************************
 * LC_VERSION_MIN_MACOSX, LC_VERSION_MIN_IPHONEOS,
 * LC_VERSION_MIN_TVOS, LC_VERSION_MIN_WATCHOS
 *******************************************************************************/

// A VersionMin represents any of the Mach-O version-min commands.
type VersionMin struct {
	LoadBytes
	types.VersionMinCmd
	Version string
	Sdk     string
}

func (v *VersionMin) String() string {
	return fmt.Sprintf("Version=%s, SDK=%s", v.Version, v.Sdk)
}

/*******************************************************************************
 * LC_BUILD_VERSION
 *******************************************************************************/

// A BuildVersion represents a Mach-O build for platform min OS version.
type BuildVersion struct {
	LoadBytes
	types.BuildVersionCmd
	Platform    string /* platform */
	Minos       string /* X.Y.Z is encoded in nibbles xxxx.yy.zz */
	Sdk         string /* X.Y.Z is encoded in nibbles xxxx.yy.zz */
	Tool        string
	ToolVersion string
}

func (b *BuildVersion) String() string {
	if b.NumTools > 0 {
		return fmt.Sprintf("Platform: %s, SDK: %s, Tool: %s (%s)",
			b.Platform,
			b.Sdk,
			b.Tool,
			b.ToolVersion)
	}
	return fmt.Sprintf("Platform: %s, SDK: %s",
		b.Platform,
		b.Sdk)
}

/*******************************************************************************
 * LC_ENCRYPTION_INFO
 *******************************************************************************/

// A EncryptionInfo represents a Mach-O 32-bit encrypted segment information.
type EncryptionInfo struct {
	LoadBytes
	types.EncryptionInfoCmd
}

func (e *EncryptionInfo) String() string {
	if e.CryptID == types.NotEncryptedYet {
		return fmt.Sprintf("offset=%#x size=%#x (not-encrypted yet)", e.Offset, e.Size)
	}
	return fmt.Sprintf("offset=%#x size=%#x CryptID: %#x", e.Offset, e.Size, e.CryptID)
}

/*******************************************************************************
 * LC_ENCRYPTION_INFO_64
 *******************************************************************************/

// A EncryptionInfo64 represents a Mach-O 64-bit encrypted segment information.
type EncryptionInfo64 struct {
	LoadBytes
	types.EncryptionInfo64Cmd
}

func (e *EncryptionInfo64) String() string {
	if e.CryptID == types.NotEncryptedYet {
		return fmt.Sprintf("offset=0x%09x  size=%#x (not-encrypted yet)", e.Offset, e.Size)
	}
	return fmt.Sprintf("offset=0x%09x  size=%#x CryptID: %#x", e.Offset, e.Size, e.CryptID)
}

/*******************************************************************************
 * LC_CODE_SIGNATURE, LC_SEGMENT_SPLIT_INFO, LC_FUNCTION_STARTS,
 * LC_DATA_IN_CODE, LC_DYLIB_CODE_SIGN_DRS, LC_LINKER_OPTIMIZATION_HINT,
 * LC_DYLD_EXPORTS_TRIE, or LC_DYLD_CHAINED_FIXUPS
 *******************************************************************************/

// A LinkEditData represents a generic Mach-O linkedit data command.
type LinkEditData struct {
	LoadBytes
	types.LinkEditDataCmd
}

func (l *LinkEditData) String() string {
	return fmt.Sprintf("offset=0x%08x-0x%08x size=%5d", l.Offset, l.Offset+l.Size, l.Size)
}

func pad(n int) string {
	if n > 0 {
		return fmt.Sprintf("%*s", n, "")
	}
	return ""
}
