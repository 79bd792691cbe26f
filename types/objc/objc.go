// Package objc holds the on-disk and decoded forms of Objective-C
// runtime metadata found in Mach-O images.
package objc

import (
	"fmt"
	"strings"
)

// Toc counts the runtime metadata entries an image carries.
type Toc struct {
	ClassDefs    uint64
	CategoryDefs uint64
	ProtocolDefs uint64
	SelRefs      uint64
}

func (t Toc) String() string {
	return fmt.Sprintf(
		"  classes:    %d\n"+
			"  categories: %d\n"+
			"  protocols:  %d\n"+
			"  selrefs:    %d\n",
		t.ClassDefs,
		t.CategoryDefs,
		t.ProtocolDefs,
		t.SelRefs,
	)
}

type ImageInfoFlag uint32

const (
	DyldCategoriesOptimized    ImageInfoFlag = 1 << 0 // categories were optimized by dyld
	SupportsGC                 ImageInfoFlag = 1 << 1 // image supports GC
	RequiresGC                 ImageInfoFlag = 1 << 2 // image requires GC
	OptimizedByDyld            ImageInfoFlag = 1 << 3 // image is from an optimized shared cache
	SignedClassRO              ImageInfoFlag = 1 << 4 // class_ro_t pointers are signed
	IsSimulated                ImageInfoFlag = 1 << 5 // image compiled for a simulator platform
	HasCategoryClassProperties ImageInfoFlag = 1 << 6 // class properties in category_t
	OptimizedByDyldClosure     ImageInfoFlag = 1 << 7
)

func (f ImageInfoFlag) OptimizedByDyld() bool {
	return f&OptimizedByDyld != 0
}
func (f ImageInfoFlag) HasCategoryClassProperties() bool {
	return f&HasCategoryClassProperties != 0
}

func (f ImageInfoFlag) List() []string {
	var flags []string
	if (f & DyldCategoriesOptimized) != 0 {
		flags = append(flags, "DyldCategoriesOptimized")
	}
	if (f & SupportsGC) != 0 {
		flags = append(flags, "SupportsGC")
	}
	if (f & RequiresGC) != 0 {
		flags = append(flags, "RequiresGC")
	}
	if (f & OptimizedByDyld) != 0 {
		flags = append(flags, "OptimizedByDyld")
	}
	if (f & SignedClassRO) != 0 {
		flags = append(flags, "SignedClassRO")
	}
	if (f & IsSimulated) != 0 {
		flags = append(flags, "IsSimulated")
	}
	if (f & HasCategoryClassProperties) != 0 {
		flags = append(flags, "HasCategoryClassProperties")
	}
	if (f & OptimizedByDyldClosure) != 0 {
		flags = append(flags, "OptimizedByDyldClosure")
	}
	return flags
}

func (f ImageInfoFlag) SwiftVersion() string {
	swiftVersion := (f >> 8) & 0xff
	if swiftVersion != 0 {
		switch swiftVersion {
		case 1:
			return "Swift 1.0"
		case 2:
			return "Swift 1.2"
		case 3:
			return "Swift 2.0"
		case 4:
			return "Swift 3.0"
		case 5:
			return "Swift 4.0"
		case 6:
			return "Swift 4.1/4.2"
		case 7:
			return "Swift 5 or later"
		default:
			return fmt.Sprintf("Unknown future Swift version: %d", swiftVersion)
		}
	}
	return "not swift"
}

func (f ImageInfoFlag) String() string {
	return fmt.Sprintf(
		"Flags = %s\n"+
			"Swift = %s\n",
		strings.Join(f.List(), ", "),
		f.SwiftVersion(),
	)
}

// ImageInfo is the on-disk __objc_imageinfo payload.
type ImageInfo struct {
	Version uint32
	Flags   ImageInfoFlag
}

func (i ImageInfo) HasSwift() bool {
	return (i.Flags>>8)&0xff != 0
}

const (
	// The size is bits 2 through 16 of the entsize field. The low 2
	// bits are uniqued/sorted flags, the upper 16 bits are reserved.
	METHOD_LIST_FLAGS_MASK uint32 = 0xffff0003
	METHOD_LIST_SIZE_MASK  uint32 = 0x0000FFFC

	relativeMethodSelectorsAreDirectFlag uint32 = 0x40000000
	smallMethodListFlag                  uint32 = 0x80000000
)

type MLFlags uint32

const (
	METHOD_LIST_IS_UNIQUED MLFlags = 1
	METHOD_LIST_IS_SORTED  MLFlags = 2
)

// MethodList heads a method_list_t. Each entry occupies EntSize()
// bytes on disk no matter how many bytes the parser consumes.
type MethodList struct {
	EntSizeAndFlags uint32
	Count           uint32
}

func (ml MethodList) IsUniqued() bool {
	return (ml.Flags() & METHOD_LIST_IS_UNIQUED) != 0
}
func (ml MethodList) Sorted() bool {
	return (ml.Flags() & METHOD_LIST_IS_SORTED) != 0
}
func (ml MethodList) UsesDirectOffsetsToSelectors() bool {
	return (ml.EntSizeAndFlags & relativeMethodSelectorsAreDirectFlag) != 0
}
func (ml MethodList) UsesRelativeOffsets() bool {
	return (ml.EntSizeAndFlags & smallMethodListFlag) != 0
}
func (ml MethodList) EntSize() uint32 {
	return ml.EntSizeAndFlags & METHOD_LIST_SIZE_MASK
}
func (ml MethodList) Flags() MLFlags {
	return MLFlags(ml.EntSizeAndFlags & METHOD_LIST_FLAGS_MASK)
}
func (ml MethodList) String() string {
	offType := "direct"
	if ml.UsesRelativeOffsets() {
		offType = "relative"
	}
	return fmt.Sprintf("count=%d, entrysize=%d, sorted=%t, uniqued=%t, type=%s",
		ml.Count,
		ml.EntSize(),
		ml.Sorted(),
		ml.IsUniqued(),
		offType)
}

// MethodT is the on-disk big method_t.
type MethodT struct {
	NameVMAddr  uint64 // SEL
	TypesVMAddr uint64 // const char *
	ImpVMAddr   uint64 // IMP
}

// RelativeMethodT is the on-disk small method_t with 32-bit
// self-relative offsets.
type RelativeMethodT struct {
	NameOffset  int32 // SEL
	TypesOffset int32 // const char *
	ImpOffset   int32 // IMP
}

// Method is a decoded method with its selector and type encoding
// resolved to strings.
type Method struct {
	NameVMAddr  uint64
	TypesVMAddr uint64
	ImpVMAddr   uint64
	Name        string
	Types       string
}

// NumberOfArguments returns the number of method arguments including
// the implicit self and _cmd.
func (m *Method) NumberOfArguments() int {
	if m == nil {
		return 0
	}
	sig, err := DecodeMethodSignature(m.Types)
	if err != nil {
		return 0
	}
	return len(sig.Args)
}

// ReturnType returns the method's rendered return type.
func (m *Method) ReturnType() string {
	sig, err := DecodeMethodSignature(m.Types)
	if err != nil {
		return "?"
	}
	return sig.Return.CType()
}

// EntryList heads property and ivar lists. The cursor advances by
// EntSize per entry, never by the parsed struct size.
type EntryList struct {
	EntSize uint32
	Count   uint32
}

func (el EntryList) String() string {
	return fmt.Sprintf("ent_size: %d, count: %d", el.EntSize, el.Count)
}

type PropertyList = EntryList

type PropertyT struct {
	NameVMAddr       uint64
	AttributesVMAddr uint64
}

type Property struct {
	PropertyT
	Name              string
	EncodedAttributes string
}

func (p *Property) Type() string {
	return getPropertyType(p.EncodedAttributes)
}
func (p *Property) Attributes() (string, bool) {
	return getPropertyAttributeTypes(p.EncodedAttributes)
}

type IvarList = EntryList

const wordShift = 3 // 64-bit pointers

type IvarT struct {
	Offset       uint64 // pointer to the live offset value
	NameVMAddr   uint64 // const char *
	TypesVMAddr  uint64 // const char *
	AlignmentRaw uint32
	Size         uint32
}

func (i IvarT) Alignment() uint32 {
	if i.AlignmentRaw == ^uint32(0) {
		return 1 << wordShift
	}
	return 1 << i.AlignmentRaw
}

type Ivar struct {
	Name   string
	Type   string
	Offset uint32
	IvarT
}

func (i *Ivar) dump(verbose, addrs bool) string {
	var addr string
	if addrs {
		addr = fmt.Sprintf("\t// %-7s %#x", fmt.Sprintf("+%#x", i.Size), i.Offset)
	}
	if verbose {
		return fmt.Sprintf("%s;%s", getIVarType(i.Type, i.Name), addr)
	}
	return fmt.Sprintf("%s %s;%s", i.Type, i.Name, addr)
}

func (i *Ivar) String() string {
	return i.dump(false, false)
}
func (i *Ivar) Verbose() string {
	return i.dump(true, false)
}
func (i *Ivar) WithAddrs() string {
	return i.dump(true, true)
}

// SelectorRef is a resolved __objc_selrefs entry. VMAddr is the
// address of the reference slot, not of the selector string.
type SelectorRef struct {
	VMAddr uint64
	Name   string
}

// Metadata is everything the extractor recovers from an image, in
// the order it was encountered.
type Metadata struct {
	Toc        Toc
	ImageInfo  *ImageInfo
	Classes    []*Class
	Categories []*Category
	Protocols  []*Protocol
	SelRefs    []SelectorRef
}
