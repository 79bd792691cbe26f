package classdump

// High level access to low level data structures.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/appsworld/go-classdump/pkg/leb128"
	"github.com/appsworld/go-classdump/pkg/region"
	"github.com/appsworld/go-classdump/types"
)

// A File represents an open Mach-O image.
type File struct {
	FileTOC

	Symtab   *Symtab
	Dysymtab *Dysymtab

	r  region.Region
	sr *io.SectionReader
}

// FileTOC is the parsed table of contents of a Mach-O image: its header
// plus every load command and section in file order.
type FileTOC struct {
	types.FileHeader
	ByteOrder binary.ByteOrder
	Loads     []Load
	Sections  []*Section
}

func (t *FileTOC) String() string {
	return t.FileHeader.String() + t.LoadsString()
}

// LoadsString returns a string representation of all the MachO's load commands
func (t *FileTOC) LoadsString() string {
	var loadsStr string
	for i, l := range t.Loads {
		if s, ok := l.(*Segment); ok {
			loadsStr += fmt.Sprintf("%03d: %s sz=0x%08x off=0x%08x-0x%08x addr=0x%09x-0x%09x %s/%s   %s%s%s\n", i, s.Command(), s.Filesz, s.Offset, s.Offset+s.Filesz, s.Addr, s.Addr+s.Memsz, s.Prot, s.Maxprot, s.Name, pad(20-len(s.Name)), s.Flag)
			for j := uint32(0); j < s.Nsect; j++ {
				if int(j+s.Firstsect) >= len(t.Sections) {
					break
				}
				c := t.Sections[j+s.Firstsect]
				secFlags := ""
				if !c.Flags.IsRegular() {
					secFlags = fmt.Sprintf("(%#x)", uint32(c.Flags.Type()))
				}
				loadsStr += fmt.Sprintf("\tsz=0x%08x off=0x%08x-0x%08x addr=0x%09x-0x%09x\t\t%s.%s%s%s\n", c.Size, c.Offset, uint64(c.Offset)+c.Size, c.Addr, c.Addr+c.Size, s.Name, c.Name, pad(32-(len(s.Name)+len(c.Name)+1)), secFlags)
			}
		} else if l != nil {
			loadsStr += fmt.Sprintf("%03d: %s%s%v\n", i, l.Command(), pad(28-len(l.Command().String())), l)
		}
	}
	return loadsStr
}

// FileConfig controls how an image is parsed.
type FileConfig struct {
	// Arch selects the slice of a universal archive. Zero means the
	// default target (arm64, falling back to the first slice).
	Arch types.CPU

	// LoadFilter limits parsing to the listed load commands. Commands
	// not in the filter are kept as raw bytes.
	LoadFilter []types.LoadCmd
}

func loadInSlice(c types.LoadCmd, list []types.LoadCmd) bool {
	for _, b := range list {
		if b == c {
			return true
		}
	}
	return false
}

// Open reads the named file and prepares it for use as a Mach-O binary.
// Universal archives are thinned to the configured (or default) slice.
func Open(name string, config ...FileConfig) (*File, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return NewFile(data, config...)
}

// NewFile creates a new File for accessing a Mach-O binary held in data.
// The Mach-O image is expected to start at position 0. The data is
// aliased, not copied; callers must not mutate it afterwards.
func NewFile(data []byte, config ...FileConfig) (*File, error) {
	var cfg FileConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	r := region.New(data)

	le, err := r.Uint32(0, binary.LittleEndian)
	if err != nil {
		return nil, formatError(0, ErrInvalidFormat, "file too small for magic", nil)
	}
	be, _ := r.Uint32(0, binary.BigEndian)

	switch {
	case types.Magic(be) == types.MagicFat || types.Magic(le) == types.MagicFat:
		ff, err := NewFatFile(data)
		if err != nil {
			return nil, err
		}
		return NewFile(ff.Slice(cfg.Arch).Data, config...)
	case types.Magic(le) == types.Magic64 || types.Magic(le) == types.Magic32:
		// little-endian thin image, handled below
	case types.Magic(be) == types.Magic64 || types.Magic(be) == types.Magic32:
		return nil, formatError(0, ErrInvalidFormat, "byte-swapped mach-o is not supported", fmt.Sprintf("%#x", be))
	default:
		return nil, formatError(0, ErrInvalidFormat, "invalid magic number", fmt.Sprintf("%#x", le))
	}

	f := new(File)
	f.r = r
	f.ByteOrder = binary.LittleEndian
	f.sr, _ = r.ReaderAt(0, r.Len())

	hdrSize := uint64(types.FileHeaderSize32)
	if types.Magic(le) == types.Magic64 {
		hdrSize = types.FileHeaderSize64
	}
	hr, err := r.ReaderAt(0, hdrSize)
	if err != nil {
		return nil, formatError(0, ErrFileCorrupt, "file too small for mach header", nil)
	}
	if types.Magic(le) == types.Magic64 {
		if err := binary.Read(hr, f.ByteOrder, &f.FileHeader); err != nil {
			return nil, formatError(0, ErrFileCorrupt, "failed to read mach header", err)
		}
	} else {
		var hdr32 struct {
			Magic        types.Magic
			CPU          types.CPU
			SubCPU       types.CPUSubtype
			Type         types.HeaderFileType
			NCommands    uint32
			SizeCommands uint32
			Flags        types.HeaderFlag
		}
		if err := binary.Read(hr, f.ByteOrder, &hdr32); err != nil {
			return nil, formatError(0, ErrFileCorrupt, "failed to read mach header", err)
		}
		f.FileHeader = types.FileHeader{
			Magic:        hdr32.Magic,
			CPU:          hdr32.CPU,
			SubCPU:       hdr32.SubCPU,
			Type:         hdr32.Type,
			NCommands:    hdr32.NCommands,
			SizeCommands: hdr32.SizeCommands,
			Flags:        hdr32.Flags,
		}
	}

	cmds, err := r.Slice(hdrSize, uint64(f.SizeCommands))
	if err != nil {
		return nil, formatError(int64(hdrSize), ErrFileCorrupt, "load commands overrun the file", f.SizeCommands)
	}
	dat := cmds.Bytes()
	f.Loads = make([]Load, 0, f.NCommands)
	bo := f.ByteOrder
	offset := int64(hdrSize)

	for i := uint32(0); i < f.NCommands; i++ {
		// Each load command begins with uint32 command and length.
		if len(dat) < 8 {
			return nil, formatError(offset, ErrFileCorrupt, "command block too small", nil)
		}
		cmd, siz := types.LoadCmd(bo.Uint32(dat[0:4])), bo.Uint32(dat[4:8])
		if siz < 8 || siz > uint32(len(dat)) {
			return nil, formatError(offset, ErrFileCorrupt, "invalid command block size", siz)
		}

		var cmddat []byte
		cmddat, dat = dat[0:siz], dat[siz:]
		offset += int64(siz)

		if len(cfg.LoadFilter) > 0 && !loadInSlice(cmd, cfg.LoadFilter) {
			f.Loads = append(f.Loads, LoadCmdBytes{cmd, LoadBytes(cmddat)})
			continue
		}

		// A declared size too small for the typed payload keeps the
		// command as raw bytes instead of failing the whole parse.
		raw := func(err error) {
			log.WithError(err).Warnf("failed to parse %s, keeping raw bytes", cmd)
			f.Loads = append(f.Loads, LoadCmdBytes{cmd, LoadBytes(cmddat)})
		}

		switch cmd {
		default:
			log.Debugf("found unknown load command: %s", cmd)
			f.Loads = append(f.Loads, LoadCmdBytes{cmd, LoadBytes(cmddat)})
		case types.LC_SEGMENT:
			var seg32 types.Segment32
			b := bytes.NewReader(cmddat)
			if err := binary.Read(b, bo, &seg32); err != nil {
				raw(err)
				break
			}
			s := new(Segment)
			s.LoadBytes = cmddat
			s.LoadCmd = cmd
			s.Len = siz
			s.Name = cstring(seg32.Name[:])
			s.Addr = uint64(seg32.Addr)
			s.Memsz = uint64(seg32.Memsz)
			s.Offset = uint64(seg32.Offset)
			s.Filesz = uint64(seg32.Filesz)
			s.Maxprot = seg32.Maxprot
			s.Prot = seg32.Prot
			s.Nsect = seg32.Nsect
			s.Flag = seg32.Flag
			s.Firstsect = uint32(len(f.Sections))
			s.ReaderAt, s.sr = f.sr, f.sr
			for j := 0; j < int(s.Nsect); j++ {
				var sh32 types.Section32
				if err := binary.Read(b, bo, &sh32); err != nil {
					return nil, formatError(offset, ErrFileCorrupt, "section headers overrun segment command", s.Name)
				}
				sec := new(Section)
				sec.Name = cstring(sh32.Name[:])
				sec.Seg = cstring(sh32.Seg[:])
				sec.Addr = uint64(sh32.Addr)
				sec.Size = uint64(sh32.Size)
				sec.Offset = sh32.Offset
				sec.Align = sh32.Align
				sec.Reloff = sh32.Reloff
				sec.Nreloc = sh32.Nreloc
				sec.Flags = sh32.Flags
				sec.Reserved1 = sh32.Reserve1
				sec.Reserved2 = sh32.Reserve2
				sec.Type = uint8(sh32.Flags.Type())
				sec.ReaderAt, sec.sr = f.sr, f.sr
				f.Sections = append(f.Sections, sec)
			}
			f.Loads = append(f.Loads, s)
		case types.LC_SEGMENT_64:
			var seg64 types.Segment64
			b := bytes.NewReader(cmddat)
			if err := binary.Read(b, bo, &seg64); err != nil {
				raw(err)
				break
			}
			s := new(Segment)
			s.LoadBytes = cmddat
			s.LoadCmd = cmd
			s.Len = siz
			s.Name = cstring(seg64.Name[:])
			s.Addr = seg64.Addr
			s.Memsz = seg64.Memsz
			s.Offset = seg64.Offset
			s.Filesz = seg64.Filesz
			s.Maxprot = seg64.Maxprot
			s.Prot = seg64.Prot
			s.Nsect = seg64.Nsect
			s.Flag = seg64.Flag
			s.Firstsect = uint32(len(f.Sections))
			s.ReaderAt, s.sr = f.sr, f.sr
			for j := 0; j < int(s.Nsect); j++ {
				var sh64 types.Section64
				if err := binary.Read(b, bo, &sh64); err != nil {
					return nil, formatError(offset, ErrFileCorrupt, "section headers overrun segment command", s.Name)
				}
				sec := new(Section)
				sec.Name = cstring(sh64.Name[:])
				sec.Seg = cstring(sh64.Seg[:])
				sec.Addr = sh64.Addr
				sec.Size = sh64.Size
				sec.Offset = sh64.Offset
				sec.Align = sh64.Align
				sec.Reloff = sh64.Reloff
				sec.Nreloc = sh64.Nreloc
				sec.Flags = sh64.Flags
				sec.Reserved1 = sh64.Reserve1
				sec.Reserved2 = sh64.Reserve2
				sec.Reserved3 = sh64.Reserve3
				sec.Type = uint8(sh64.Flags.Type())
				sec.ReaderAt, sec.sr = f.sr, f.sr
				f.Sections = append(f.Sections, sec)
			}
			f.Loads = append(f.Loads, s)
		case types.LC_SYMTAB:
			var hdr types.SymtabCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			st, err := f.parseSymtab(cmddat, &hdr, offset)
			if err != nil {
				return nil, err
			}
			f.Loads = append(f.Loads, st)
			f.Symtab = st
		case types.LC_DYSYMTAB:
			var hdr types.DysymtabCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			st := new(Dysymtab)
			st.LoadBytes = cmddat
			st.DysymtabCmd = hdr
			if hdr.Nindirectsyms > 0 {
				ir, err := f.r.ReaderAt(uint64(hdr.Indirectsymoff), uint64(hdr.Nindirectsyms)*4)
				if err != nil {
					return nil, formatError(offset, ErrFileCorrupt, "indirect symbols overrun the file", hdr.Indirectsymoff)
				}
				st.IndirectSyms = make([]uint32, hdr.Nindirectsyms)
				if err := binary.Read(ir, bo, st.IndirectSyms); err != nil {
					return nil, formatError(offset, ErrFileCorrupt, "failed to read indirect symbols", err)
				}
			}
			f.Loads = append(f.Loads, st)
			f.Dysymtab = st
		case types.LC_LOAD_DYLIB, types.LC_ID_DYLIB, types.LC_LOAD_WEAK_DYLIB,
			types.LC_REEXPORT_DYLIB, types.LC_LOAD_UPWARD_DYLIB, types.LC_LAZY_LOAD_DYLIB:
			var hdr types.DylibCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			if hdr.Name >= siz {
				return nil, formatError(offset, ErrFileCorrupt, "invalid name offset in dylib command", hdr.Name)
			}
			d := &Dylib{
				LoadBytes:      cmddat,
				DylibCmd:       hdr,
				Name:           cstring(cmddat[hdr.Name:]),
				Time:           hdr.Time,
				CurrentVersion: hdr.CurrentVersion.String(),
				CompatVersion:  hdr.CompatVersion.String(),
			}
			switch cmd {
			case types.LC_ID_DYLIB:
				f.Loads = append(f.Loads, (*DylibID)(d))
			case types.LC_LOAD_WEAK_DYLIB:
				f.Loads = append(f.Loads, (*WeakDylib)(d))
			case types.LC_REEXPORT_DYLIB:
				f.Loads = append(f.Loads, (*ReExportDylib)(d))
			case types.LC_LOAD_UPWARD_DYLIB:
				f.Loads = append(f.Loads, (*UpwardDylib)(d))
			case types.LC_LAZY_LOAD_DYLIB:
				f.Loads = append(f.Loads, (*LazyLoadDylib)(d))
			default:
				f.Loads = append(f.Loads, d)
			}
		case types.LC_LOAD_DYLINKER:
			var hdr types.DylinkerCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			if hdr.Name >= siz {
				return nil, formatError(offset, ErrFileCorrupt, "invalid name offset in dylinker command", hdr.Name)
			}
			l := new(LoadDylinker)
			l.LoadBytes = cmddat
			l.DylinkerCmd = hdr
			l.Name = cstring(cmddat[hdr.Name:])
			f.Loads = append(f.Loads, l)
		case types.LC_UUID:
			var hdr types.UUIDCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(UUID)
			l.LoadBytes = cmddat
			l.UUIDCmd = hdr
			l.ID = hdr.UUID.String()
			f.Loads = append(f.Loads, l)
		case types.LC_RPATH:
			var hdr types.RpathCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			if hdr.Path >= siz {
				return nil, formatError(offset, ErrFileCorrupt, "invalid path offset in rpath command", hdr.Path)
			}
			l := new(Rpath)
			l.LoadBytes = cmddat
			l.RpathCmd = hdr
			l.Path = cstring(cmddat[hdr.Path:])
			f.Loads = append(f.Loads, l)
		case types.LC_VERSION_MIN_MACOSX, types.LC_VERSION_MIN_IPHONEOS,
			types.LC_VERSION_MIN_TVOS, types.LC_VERSION_MIN_WATCHOS:
			var hdr types.VersionMinCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(VersionMin)
			l.LoadBytes = cmddat
			l.VersionMinCmd = hdr
			l.Version = hdr.Version.String()
			l.Sdk = hdr.Sdk.String()
			f.Loads = append(f.Loads, l)
		case types.LC_BUILD_VERSION:
			var hdr types.BuildVersionCmd
			b := bytes.NewReader(cmddat)
			if err := binary.Read(b, bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(BuildVersion)
			l.LoadBytes = cmddat
			l.BuildVersionCmd = hdr
			l.Platform = hdr.Platform.String()
			l.Minos = hdr.Minos.String()
			l.Sdk = hdr.Sdk.String()
			if hdr.NumTools > 0 {
				var buildTool types.BuildToolVersion
				if err := binary.Read(b, bo, &buildTool); err != nil {
					raw(err)
					break
				}
				l.Tool = buildTool.Tool.String()
				l.ToolVersion = buildTool.Version.String()
			}
			f.Loads = append(f.Loads, l)
		case types.LC_SOURCE_VERSION:
			var hdr types.SourceVersionCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(SourceVersion)
			l.LoadBytes = cmddat
			l.SourceVersionCmd = hdr
			l.Version = hdr.Version.String()
			f.Loads = append(f.Loads, l)
		case types.LC_FUNCTION_STARTS:
			var hdr types.LinkEditDataCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(FunctionStarts)
			l.LoadBytes = cmddat
			l.LinkEditDataCmd = hdr
			f.Loads = append(f.Loads, l)
		case types.LC_DATA_IN_CODE:
			var hdr types.LinkEditDataCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(DataInCode)
			l.LoadBytes = cmddat
			l.LinkEditDataCmd = hdr
			if hdr.Size > 0 {
				dr, err := f.r.ReaderAt(uint64(hdr.Offset), uint64(hdr.Size))
				if err != nil {
					return nil, formatError(offset, ErrFileCorrupt, "data-in-code table overruns the file", hdr.Offset)
				}
				l.Entries = make([]types.DataInCodeEntry, hdr.Size/8)
				if err := binary.Read(dr, bo, l.Entries); err != nil {
					return nil, formatError(offset, ErrFileCorrupt, "failed to read data-in-code entries", err)
				}
			}
			f.Loads = append(f.Loads, l)
		case types.LC_CODE_SIGNATURE:
			var hdr types.LinkEditDataCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(CodeSignature)
			l.LoadBytes = cmddat
			l.LinkEditDataCmd = hdr
			f.Loads = append(f.Loads, l)
		case types.LC_DYLD_EXPORTS_TRIE:
			var hdr types.LinkEditDataCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(DyldExportsTrie)
			l.LoadBytes = cmddat
			l.LinkEditDataCmd = hdr
			f.Loads = append(f.Loads, l)
		case types.LC_DYLD_INFO, types.LC_DYLD_INFO_ONLY:
			var hdr types.DyldInfoCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(DyldInfo)
			l.LoadBytes = cmddat
			l.DyldInfoCmd = hdr
			f.Loads = append(f.Loads, l)
		case types.LC_MAIN:
			var hdr types.EntryPointCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(EntryPoint)
			l.LoadBytes = cmddat
			l.EntryPointCmd = hdr
			f.Loads = append(f.Loads, l)
		case types.LC_ENCRYPTION_INFO:
			var hdr types.EncryptionInfoCmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(EncryptionInfo)
			l.LoadBytes = cmddat
			l.EncryptionInfoCmd = hdr
			f.Loads = append(f.Loads, l)
		case types.LC_ENCRYPTION_INFO_64:
			var hdr types.EncryptionInfo64Cmd
			if err := binary.Read(bytes.NewReader(cmddat), bo, &hdr); err != nil {
				raw(err)
				break
			}
			l := new(EncryptionInfo64)
			l.LoadBytes = cmddat
			l.EncryptionInfo64Cmd = hdr
			f.Loads = append(f.Loads, l)
		}
	}
	return f, nil
}

func (f *File) parseSymtab(cmddat []byte, hdr *types.SymtabCmd, offset int64) (*Symtab, error) {
	bo := f.ByteOrder

	strtab, err := f.r.Slice(uint64(hdr.Stroff), uint64(hdr.Strsize))
	if err != nil {
		return nil, formatError(offset, ErrFileCorrupt, "symbol string table overruns the file", hdr.Stroff)
	}

	symsz := uint64(12)
	if f.Magic == types.Magic64 {
		symsz = 16
	}
	b, err := f.r.ReaderAt(uint64(hdr.Symoff), uint64(hdr.Nsyms)*symsz)
	if err != nil {
		return nil, formatError(offset, ErrFileCorrupt, "symbol table overruns the file", hdr.Symoff)
	}

	symtab := make([]Symbol, hdr.Nsyms)
	for i := range symtab {
		var n types.Nlist64
		if f.Magic == types.Magic64 {
			if err := binary.Read(b, bo, &n); err != nil {
				return nil, formatError(offset, ErrFileCorrupt, "failed to read nlist64", err)
			}
		} else {
			var n32 types.Nlist32
			if err := binary.Read(b, bo, &n32); err != nil {
				return nil, formatError(offset, ErrFileCorrupt, "failed to read nlist32", err)
			}
			n.Name = n32.Name
			n.Type = n32.Type
			n.Sect = n32.Sect
			n.Desc = n32.Desc
			n.Value = uint64(n32.Value)
		}
		name, err := strtab.CString(uint64(n.Name))
		if err != nil {
			return nil, formatError(offset, ErrFileCorrupt, "invalid name in symbol table", n.Name)
		}
		sym := &symtab[i]
		sym.Name = name
		sym.Type = n.Type
		sym.Sect = n.Sect
		sym.Desc = n.Desc
		sym.Value = n.Value
	}
	st := new(Symtab)
	st.LoadBytes = cmddat
	st.SymtabCmd = *hdr
	st.Syms = symtab
	return st, nil
}

func cstring(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		i = len(b)
	}
	return string(b[0:i])
}

func (f *File) is64bit() bool {
	return f.FileHeader.Magic == types.Magic64
}

func (f *File) pointerSize() uint64 {
	if f.is64bit() {
		return 8
	}
	return 4
}

// ReadAt reads data at offset within the image.
func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	return f.sr.ReadAt(p, off)
}

// GetBaseAddress returns the image's preferred load address, the
// address of its first __TEXT segment.
func (f *File) GetBaseAddress() uint64 {
	for _, s := range f.Segments() {
		if strings.EqualFold(s.Name, "__TEXT") {
			return s.Addr
		}
	}
	return 0
}

// GetOffset returns the file offset for a given virtual address. A
// containing section wins over its segment; the segment mapping is
// only trusted while the computed offset stays inside the segment's
// file size, so zero-fill tails resolve to ErrAddressResolution.
func (f *File) GetOffset(address uint64) (uint64, error) {
	if sec := f.FindSectionForVMAddr(address); sec != nil {
		if sec.Flags.IsZerofill() {
			return 0, fmt.Errorf("%w: address %#x is inside zero-fill section %s.%s", ErrAddressResolution, address, sec.Seg, sec.Name)
		}
		return uint64(sec.Offset) + (address - sec.Addr), nil
	}
	for _, seg := range f.Segments() {
		if seg.Contains(address) {
			off := address - seg.Addr
			if off < seg.Filesz {
				return seg.Offset + off, nil
			}
			return 0, fmt.Errorf("%w: address %#x is in the zero-fill tail of segment %s", ErrAddressResolution, address, seg.Name)
		}
	}
	return 0, fmt.Errorf("%w: address %#x not within any segment's address range", ErrAddressResolution, address)
}

// GetVMAddress returns the virtual address for a given file offset.
func (f *File) GetVMAddress(offset uint64) (uint64, error) {
	for _, seg := range f.Segments() {
		if seg.Offset <= offset && offset < seg.Offset+seg.Filesz {
			return (offset - seg.Offset) + seg.Addr, nil
		}
	}
	return 0, fmt.Errorf("%w: offset %#x not within any segment's file offset range", ErrAddressResolution, offset)
}

// GetPointer reads a pointer-sized little-endian value at a virtual address.
func (f *File) GetPointer(address uint64) (uint64, error) {
	off, err := f.GetOffset(address)
	if err != nil {
		return 0, err
	}
	if f.is64bit() {
		return f.r.Uint64(off, f.ByteOrder)
	}
	v, err := f.r.Uint32(off, f.ByteOrder)
	return uint64(v), err
}

// GetCString returns the NUL-terminated string at a given virtual address.
func (f *File) GetCString(strVMAddr uint64) (string, error) {
	strOffset, err := f.GetOffset(strVMAddr)
	if err != nil {
		return "", fmt.Errorf("failed to get offset for cstring at address %#x: %w", strVMAddr, err)
	}
	return f.GetCStringAtOffset(strOffset)
}

// GetCStringAtOffset returns the NUL-terminated string at a given file offset.
func (f *File) GetCStringAtOffset(strOffset uint64) (string, error) {
	return f.r.CString(strOffset)
}

// Segment returns the first Segment with the given name, or nil if no such segment exists.
func (f *File) Segment(name string) *Segment {
	for _, l := range f.Loads {
		if s, ok := l.(*Segment); ok && s.Name == name {
			return s
		}
	}
	return nil
}

// Segments returns all Segments in load order.
func (f *File) Segments() Segments {
	var segs Segments
	for _, l := range f.Loads {
		if s, ok := l.(*Segment); ok {
			segs = append(segs, s)
		}
	}
	return segs
}

// GetSectionsForSegment returns all the segment's sections or nil if it doesn't have any
func (f *File) GetSectionsForSegment(name string) []*Section {
	var secs []*Section
	if seg := f.Segment(name); seg != nil {
		for i := uint32(0); i < seg.Nsect; i++ {
			if int(i+seg.Firstsect) < len(f.Sections) {
				secs = append(secs, f.Sections[i+seg.Firstsect])
			}
		}
	}
	return secs
}

// Section returns the section with the given name in the given segment,
// or nil if no such section exists.
func (f *File) Section(segment, section string) *Section {
	for _, sec := range f.Sections {
		if sec.Seg == segment && sec.Name == section {
			return sec
		}
	}
	return nil
}

// FindSegmentForVMAddr returns the segment containing a given virtual memory address.
func (f *File) FindSegmentForVMAddr(vmAddr uint64) *Segment {
	for _, seg := range f.Segments() {
		if seg.Contains(vmAddr) {
			return seg
		}
	}
	return nil
}

// FindSectionForVMAddr returns the section containing a given virtual memory address.
func (f *File) FindSectionForVMAddr(vmAddr uint64) *Section {
	for _, sec := range f.Sections {
		if sec.Contains(vmAddr) {
			return sec
		}
	}
	return nil
}

// UUID returns the UUID load command, or nil if no UUID exists.
func (f *File) UUID() *UUID {
	for _, l := range f.Loads {
		if u, ok := l.(*UUID); ok {
			return u
		}
	}
	return nil
}

// DylibID returns the dylib ID load command, or nil if no dylib ID exists.
func (f *File) DylibID() *DylibID {
	for _, l := range f.Loads {
		if s, ok := l.(*DylibID); ok {
			return s
		}
	}
	return nil
}

// DyldInfo returns the dyld info load command, or nil if no dyld info exists.
func (f *File) DyldInfo() *DyldInfo {
	for _, l := range f.Loads {
		if s, ok := l.(*DyldInfo); ok {
			return s
		}
	}
	return nil
}

// DyldExportsTrie returns the dyld exports trie load command, or nil if absent.
func (f *File) DyldExportsTrie() *DyldExportsTrie {
	for _, l := range f.Loads {
		if s, ok := l.(*DyldExportsTrie); ok {
			return s
		}
	}
	return nil
}

// SourceVersion returns the source version load command, or nil if no source version exists.
func (f *File) SourceVersion() *SourceVersion {
	for _, l := range f.Loads {
		if s, ok := l.(*SourceVersion); ok {
			return s
		}
	}
	return nil
}

// BuildVersion returns the build version load command, or nil if no build version exists.
func (f *File) BuildVersion() *BuildVersion {
	for _, l := range f.Loads {
		if s, ok := l.(*BuildVersion); ok {
			return s
		}
	}
	return nil
}

// CodeSignature returns the code signature load command, or nil if absent.
func (f *File) CodeSignature() *CodeSignature {
	for _, l := range f.Loads {
		if s, ok := l.(*CodeSignature); ok {
			return s
		}
	}
	return nil
}

// FunctionStarts returns the function starts load command with its
// address table decoded, or nil if absent.
func (f *File) FunctionStarts() *FunctionStarts {
	for _, l := range f.Loads {
		fs, ok := l.(*FunctionStarts)
		if !ok {
			continue
		}
		if len(fs.VMAddrs) == 0 && fs.Size > 0 {
			r, err := f.r.Reader(uint64(fs.Offset), uint64(fs.Size))
			if err != nil {
				log.WithError(err).Warn("function starts data overruns the file")
				return fs
			}
			addr := f.GetBaseAddress()
			for {
				delta, err := leb128.ReadUleb128(r)
				if err != nil || delta == 0 {
					break
				}
				addr += delta
				fs.VMAddrs = append(fs.VMAddrs, addr)
			}
		}
		return fs
	}
	return nil
}

// IsEncrypted reports whether any encryption info command carries a
// live crypt ID. An id of zero means not encrypted yet.
func (f *File) IsEncrypted() bool {
	for _, l := range f.Loads {
		switch e := l.(type) {
		case *EncryptionInfo:
			if e.CryptID != types.NotEncryptedYet {
				return true
			}
		case *EncryptionInfo64:
			if e.CryptID != types.NotEncryptedYet {
				return true
			}
		}
	}
	return false
}

// Symbols returns the symbol table entries, or nil when stripped.
func (f *File) Symbols() []Symbol {
	if f.Symtab == nil {
		return nil
	}
	return f.Symtab.Syms
}

// ImportedSymbols returns the names of all symbols the binary depends
// on to be satisfied at dynamic load time.
func (f *File) ImportedSymbols() []string {
	var imports []string
	for _, s := range f.Symbols() {
		if s.Type.IsUndefined() && s.Type.IsExternal() {
			imports = append(imports, s.Name)
		}
	}
	return imports
}

// ImportedLibraries returns the paths of all libraries referenced by
// the binary's dylib load commands.
func (f *File) ImportedLibraries() []string {
	var libs []string
	for _, l := range f.Loads {
		switch d := l.(type) {
		case *Dylib:
			libs = append(libs, d.Name)
		case *WeakDylib:
			libs = append(libs, d.Name)
		case *ReExportDylib:
			libs = append(libs, d.Name)
		case *UpwardDylib:
			libs = append(libs, d.Name)
		case *LazyLoadDylib:
			libs = append(libs, d.Name)
		}
	}
	return libs
}

// LibraryOrdinalName resolves a dylib ordinal from the dyld bind info
// into a library path, handling the special negative ordinals.
func (f *File) LibraryOrdinalName(ordinal int64) string {
	switch ordinal {
	case types.BIND_SPECIAL_DYLIB_SELF:
		return "this-image"
	case types.BIND_SPECIAL_DYLIB_MAIN_EXECUTABLE:
		return "main-executable"
	case types.BIND_SPECIAL_DYLIB_FLAT_LOOKUP:
		return "flat-namespace"
	case types.BIND_SPECIAL_DYLIB_WEAK_LOOKUP:
		return "weak-coalesce"
	}
	libs := f.ImportedLibraries()
	if ordinal < 1 || int(ordinal) > len(libs) {
		return fmt.Sprintf("ordinal-%d", ordinal)
	}
	return libs[ordinal-1]
}

// FindSymbolAddress returns the value of the named symbol.
func (f *File) FindSymbolAddress(symbol string) (uint64, error) {
	for _, sym := range f.Symbols() {
		if sym.Name == symbol {
			return sym.Value, nil
		}
	}
	return 0, fmt.Errorf("symbol %s not in symtab", symbol)
}
