package classdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/apex/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/appsworld/go-classdump/types/objc"
)

// Demangler rewrites mangled (Swift) names into something readable.
// A nil Demangler leaves names untouched.
type Demangler func(string) string

// ObjCConfig controls metadata extraction.
type ObjCConfig struct {
	Demangler Demangler
}

// metaClassCacheSize bounds the metaclass descriptor memoization used
// during extraction. Root classes share metaclass chains, so the
// working set stays small even in large images.
const metaClassCacheSize = 256

const externalClassName = "<External>"

// objcSection returns the named section from any __DATA-prefixed
// segment (__DATA, __DATA_CONST, __DATA_DIRTY).
func (f *File) objcSection(name string) *Section {
	for _, s := range f.Segments() {
		if strings.HasPrefix(s.Name, "__DATA") {
			if sec := f.Section(s.Name, name); sec != nil {
				return sec
			}
		}
	}
	return nil
}

// HasObjC reports whether the image carries any Objective-C runtime
// metadata.
func (f *File) HasObjC() bool {
	for _, name := range []string{"__objc_classlist", "__objc_protolist", "__objc_catlist", "__objc_selrefs", "__objc_const"} {
		if sec := f.objcSection(name); sec != nil {
			return true
		}
	}
	return false
}

// GetObjCToc counts the metadata entries the image declares, straight
// from the section sizes.
func (f *File) GetObjCToc() objc.Toc {
	var toc objc.Toc
	for _, sec := range f.FileTOC.Sections {
		if !strings.HasPrefix(sec.Seg, "__DATA") {
			continue
		}
		switch sec.Name {
		case "__objc_classlist":
			toc.ClassDefs += sec.Size / f.pointerSize()
		case "__objc_catlist":
			toc.CategoryDefs += sec.Size / f.pointerSize()
		case "__objc_protolist":
			toc.ProtocolDefs += sec.Size / f.pointerSize()
		case "__objc_selrefs":
			toc.SelRefs += sec.Size / f.pointerSize()
		}
	}
	return toc
}

// GetObjCImageInfo reads the __objc_imageinfo payload.
func (f *File) GetObjCImageInfo() (*objc.ImageInfo, error) {
	sec := f.objcSection("__objc_imageinfo")
	if sec == nil {
		return nil, fmt.Errorf("%w: no __objc_imageinfo section", ErrSectionNotFound)
	}
	if sec.Size == 0 {
		return nil, fmt.Errorf("%w: %s.%s section has size 0", ErrFileCorrupt, sec.Seg, sec.Name)
	}
	dat, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to read __objc_imageinfo: %v", err)
	}
	var imgInfo objc.ImageInfo
	if err := binary.Read(bytes.NewReader(dat), f.ByteOrder, &imgInfo); err != nil {
		return nil, fmt.Errorf("failed to read objc_image_info: %v", err)
	}
	return &imgInfo, nil
}

// ExtractObjC walks the image's Objective-C metadata and returns the
// decoded classes, categories, protocols and selector references.
//
// Extraction is two passes: the first decodes every definition the
// image owns, caching superclass and category-target pointers as
// pending; the second resolves those pointers against the cache, reads
// metaclass descriptors to fill in class methods, and merges categories
// into their target classes. A definition that fails to decode is
// logged and skipped so one bad entry never loses the rest.
func (f *File) ExtractObjC(cfg ObjCConfig) (*objc.Metadata, error) {
	if !f.HasObjC() {
		return nil, ErrNoObjC
	}

	demangle := cfg.Demangler
	if demangle == nil {
		demangle = func(s string) string { return s }
	}

	meta := &objc.Metadata{Toc: f.GetObjCToc()}

	if ii, err := f.GetObjCImageInfo(); err == nil {
		meta.ImageInfo = ii
	} else {
		log.WithError(err).Debug("no objc image info")
	}

	// pass 1: decode what the image owns
	byAddr := make(map[uint64]*objc.Class)
	if sec := f.objcSection("__objc_classlist"); sec != nil {
		ptrs, err := f.readPointerSlots(sec)
		if err != nil {
			log.WithError(err).Warn("failed to read __objc_classlist")
		}
		for _, ptr := range ptrs {
			class, err := f.GetObjCClass(ptr)
			if err != nil {
				log.WithError(err).Warnf("skipping class at %#x", ptr)
				continue
			}
			class.Name = demangle(class.Name)
			byAddr[ptr] = class
			meta.Classes = append(meta.Classes, class)
		}
	}

	if sec := f.objcSection("__objc_protolist"); sec != nil {
		ptrs, err := f.readPointerSlots(sec)
		if err != nil {
			log.WithError(err).Warn("failed to read __objc_protolist")
		}
		for _, ptr := range ptrs {
			proto, err := f.getObjcProtocol(ptr)
			if err != nil {
				log.WithError(err).Warnf("skipping protocol at %#x", ptr)
				continue
			}
			if len(proto.DemangledName) == 0 {
				proto.DemangledName = demangle(proto.Name)
			}
			meta.Protocols = append(meta.Protocols, proto)
		}
	}

	categories, err := f.GetObjCCategories()
	if err != nil {
		log.WithError(err).Warn("failed to read __objc_catlist")
	}

	// pass 2: resolve pending pointers
	metaCache, err := lru.New[uint64, *objc.Class](metaClassCacheSize)
	if err != nil {
		return nil, err
	}
	for _, class := range meta.Classes {
		f.resolveSuperclass(class, byAddr, demangle)
		f.populateMetaClass(class, metaCache, demangle)
	}

	for _, category := range categories {
		if target, ok := byAddr[category.ClsVMAddr]; ok {
			category.Class = target
			category.ClassName = target.Name
			mergeCategory(target, category)
		} else {
			category.ClassName = f.resolveExternalClassName(category.ClsVMAddr, demangle)
		}
		meta.Categories = append(meta.Categories, category)
	}

	selRefs, err := f.GetObjCSelectorReferences()
	if err != nil {
		log.WithError(err).Debug("no selector references")
	}
	meta.SelRefs = selRefs

	return meta, nil
}

// resolveSuperclass fills in the superclass name: image-local classes
// win, then a direct read of the external descriptor, then the
// placeholder name.
func (f *File) resolveSuperclass(c *objc.Class, byAddr map[uint64]*objc.Class, demangle Demangler) {
	if c.ReadOnlyData.Flags.IsRoot() {
		c.SuperClass = "<ROOT>"
		return
	}
	if c.SuperclassVMAddr == 0 {
		return
	}
	if super, ok := byAddr[c.SuperclassVMAddr]; ok {
		c.SuperClass = super.Name
		return
	}
	if super, err := f.GetObjCClass(c.SuperclassVMAddr); err == nil {
		c.SuperClass = demangle(super.Name)
		return
	}
	c.SuperClass = externalClassName
}

// populateMetaClass reads the class's isa (metaclass) descriptor and
// adopts its instance methods and properties as the class-side ones.
// Descriptors are memoized per metaclass address.
func (f *File) populateMetaClass(c *objc.Class, cache *lru.Cache[uint64, *objc.Class], demangle Demangler) {
	if c.IsaVMAddr == 0 || c.ReadOnlyData.Flags.IsMeta() {
		return
	}
	metaCls, ok := cache.Get(c.IsaVMAddr)
	if !ok {
		var err error
		metaCls, err = f.GetObjCClass(c.IsaVMAddr)
		if err != nil {
			log.WithError(err).Debugf("failed to read metaclass at %#x", c.IsaVMAddr)
			return
		}
		cache.Add(c.IsaVMAddr, metaCls)
	}
	if !metaCls.ReadOnlyData.Flags.IsMeta() {
		return
	}
	c.Isa = demangle(metaCls.Name)
	c.ClassMethods = append(c.ClassMethods, metaCls.InstanceMethods...)
	c.Props = append(c.Props, metaCls.Props...)
}

// resolveExternalClassName names a class the image does not own.
func (f *File) resolveExternalClassName(vmaddr uint64, demangle Demangler) string {
	if vmaddr == 0 {
		return externalClassName
	}
	if cls, err := f.GetObjCClass(vmaddr); err == nil {
		return demangle(cls.Name)
	}
	return externalClassName
}

// mergeCategory folds a category's members into its target class.
// Methods and properties append; protocol adoptions dedupe by name.
func mergeCategory(target *objc.Class, c *objc.Category) {
	target.InstanceMethods = append(target.InstanceMethods, c.InstanceMethods...)
	target.ClassMethods = append(target.ClassMethods, c.ClassMethods...)
	target.Props = append(target.Props, c.Properties...)

	adopted := make(map[string]bool, len(target.Protocols))
	for _, prot := range target.Protocols {
		adopted[prot.Name] = true
	}
	for _, prot := range c.Protocols {
		if !adopted[prot.Name] {
			adopted[prot.Name] = true
			target.Protocols = append(target.Protocols, prot)
		}
	}
}

// readPointerSlots decodes a section of raw pointers.
func (f *File) readPointerSlots(sec *Section) ([]uint64, error) {
	if sec.Size == 0 {
		return nil, fmt.Errorf("%w: %s.%s section has size 0", ErrFileCorrupt, sec.Seg, sec.Name)
	}
	dat, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %v", sec.Seg, sec.Name, err)
	}
	ptrs := make([]uint64, sec.Size/f.pointerSize())
	if err := binary.Read(bytes.NewReader(dat), f.ByteOrder, &ptrs); err != nil {
		return nil, fmt.Errorf("failed to read %s.%s pointers: %v", sec.Seg, sec.Name, err)
	}
	return ptrs, nil
}

// readAt decodes one fixed-size value at a file offset.
func (f *File) readAt(off uint64, v any) error {
	r, err := f.r.ReaderAt(off, uint64(binary.Size(v)))
	if err != nil {
		return err
	}
	return binary.Read(r, f.ByteOrder, v)
}

// readAtAddr decodes one fixed-size value at a virtual address.
func (f *File) readAtAddr(vmaddr uint64, v any) error {
	off, err := f.GetOffset(vmaddr)
	if err != nil {
		return fmt.Errorf("failed to convert vmaddr: %w", err)
	}
	return f.readAt(off, v)
}

// GetObjCClass parses the objc_class at a virtual address into a class
// definition. Superclass and isa stay as raw pointers; ExtractObjC
// resolves them once every image-local class is known.
func (f *File) GetObjCClass(vmaddr uint64) (*objc.Class, error) {
	var classPtr objc.SwiftClassMetadata64
	// over-reads SwiftClassFlags for plain ObjC classes; harmless
	if err := f.readAtAddr(vmaddr, &classPtr.ObjcClass64); err != nil {
		return nil, fmt.Errorf("failed to read objc_class_t at %#x: %v", vmaddr, err)
	}

	dataVMAddr := classPtr.DataVMAddrAndFastFlags & objc.FAST_DATA_MASK64

	var info objc.ClassRO64
	if err := f.readAtAddr(dataVMAddr, &info); err != nil {
		return nil, fmt.Errorf("failed to read class_ro_t at %#x: %v", dataVMAddr, err)
	}

	name, err := f.GetCString(info.NameVMAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to read class name: %v", err)
	}

	var methods []objc.Method
	if info.BaseMethodsVMAddr > 0 {
		methods, err = f.GetObjCMethods(info.BaseMethodsVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get methods at %#x: %v", info.BaseMethodsVMAddr, err)
		}
	}

	var prots []objc.Protocol
	if info.BaseProtocolsVMAddr > 0 {
		prots, err = f.parseObjcProtocolList(info.BaseProtocolsVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get protocols at %#x: %v", info.BaseProtocolsVMAddr, err)
		}
	}

	var ivars []objc.Ivar
	if info.IvarsVMAddr > 0 {
		ivars, err = f.GetObjCIvars(info.IvarsVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get ivars at %#x: %v", info.IvarsVMAddr, err)
		}
	}

	var props []objc.Property
	if info.BasePropertiesVMAddr > 0 {
		props, err = f.GetObjCProperties(info.BasePropertiesVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get properties at %#x: %v", info.BasePropertiesVMAddr, err)
		}
	}

	return &objc.Class{
		Name:             name,
		InstanceMethods:  methods,
		Ivars:            ivars,
		Props:            props,
		Protocols:        prots,
		ClassPtr:         vmaddr,
		IsaVMAddr:        classPtr.IsaVMAddr,
		SuperclassVMAddr: classPtr.SuperclassVMAddr,
		DataVMAddr:       dataVMAddr,
		IsSwiftLegacy:    classPtr.DataVMAddrAndFastFlags&objc.FAST_IS_SWIFT_LEGACY != 0,
		IsSwiftStable:    classPtr.DataVMAddrAndFastFlags&objc.FAST_IS_SWIFT_STABLE != 0,
		ReadOnlyData:     info,
	}, nil
}

// GetObjCCategories parses every category the image declares. A
// category that fails to decode is logged and skipped. The category's
// target class stays as the raw ClsVMAddr pointer.
func (f *File) GetObjCCategories() ([]*objc.Category, error) {
	sec := f.objcSection("__objc_catlist")
	if sec == nil {
		return nil, fmt.Errorf("%w: no __objc_catlist section", ErrSectionNotFound)
	}

	ptrs, err := f.readPointerSlots(sec)
	if err != nil {
		return nil, err
	}

	var categories []*objc.Category
	for _, ptr := range ptrs {
		category, err := f.getObjcCategory(ptr)
		if err != nil {
			log.WithError(err).Warnf("skipping category at %#x", ptr)
			continue
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (f *File) getObjcCategory(vmaddr uint64) (*objc.Category, error) {
	var catPtr objc.CategoryT
	if err := f.readAtAddr(vmaddr, &catPtr); err != nil {
		return nil, fmt.Errorf("failed to read objc_category_t at %#x: %v", vmaddr, err)
	}

	category := &objc.Category{VMAddr: vmaddr, CategoryT: catPtr}

	name, err := f.GetCString(catPtr.NameVMAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to read category name: %v", err)
	}
	category.Name = name

	if catPtr.InstanceMethodsVMAddr > 0 {
		category.InstanceMethods, err = f.GetObjCMethods(catPtr.InstanceMethodsVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get instance methods at %#x: %v", catPtr.InstanceMethodsVMAddr, err)
		}
	}
	if catPtr.ClassMethodsVMAddr > 0 {
		category.ClassMethods, err = f.GetObjCMethods(catPtr.ClassMethodsVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get class methods at %#x: %v", catPtr.ClassMethodsVMAddr, err)
		}
	}
	if catPtr.ProtocolsVMAddr > 0 {
		category.Protocols, err = f.parseObjcProtocolList(catPtr.ProtocolsVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get protocols at %#x: %v", catPtr.ProtocolsVMAddr, err)
		}
	}
	if catPtr.InstancePropertiesVMAddr > 0 {
		category.Properties, err = f.GetObjCProperties(catPtr.InstancePropertiesVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to get properties at %#x: %v", catPtr.InstancePropertiesVMAddr, err)
		}
	}

	return category, nil
}

// GetObjCProtocols parses every protocol the image declares.
func (f *File) GetObjCProtocols() ([]*objc.Protocol, error) {
	sec := f.objcSection("__objc_protolist")
	if sec == nil {
		return nil, fmt.Errorf("%w: no __objc_protolist section", ErrSectionNotFound)
	}

	ptrs, err := f.readPointerSlots(sec)
	if err != nil {
		return nil, err
	}

	var protocols []*objc.Protocol
	for _, ptr := range ptrs {
		proto, err := f.getObjcProtocol(ptr)
		if err != nil {
			log.WithError(err).Warnf("skipping protocol at %#x", ptr)
			continue
		}
		protocols = append(protocols, proto)
	}
	return protocols, nil
}

// parseObjcProtocolList reads a protocol_list_t: a bare count followed
// by raw protocol pointers.
func (f *File) parseObjcProtocolList(vmaddr uint64) ([]objc.Protocol, error) {
	off, err := f.GetOffset(vmaddr)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vmaddr: %w", err)
	}

	var protList objc.ProtocolList
	protList.Count, err = f.r.Uint64(off, f.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol_list_t count: %v", err)
	}

	if protList.Count > (f.r.Len()-(off+8))/8 {
		return nil, fmt.Errorf("%w: protocol_list_t count %d overruns the file", ErrFileCorrupt, protList.Count)
	}
	protList.Protocols = make([]uint64, protList.Count)
	if err := f.readAt(off+8, &protList.Protocols); err != nil {
		return nil, fmt.Errorf("failed to read protocol_list_t pointers: %v", err)
	}

	var protocols []objc.Protocol
	for _, protPtr := range protList.Protocols {
		prot, err := f.getObjcProtocol(protPtr)
		if err != nil {
			log.WithError(err).Warnf("skipping protocol at %#x", protPtr)
			continue
		}
		protocols = append(protocols, *prot)
	}
	return protocols, nil
}

// protocolTCore is the always-present prefix of protocol_t; the
// trailing pointers exist only when Size covers them.
type protocolTCore struct {
	IsaVMAddr                     uint64
	NameVMAddr                    uint64
	ProtocolsVMAddr               uint64
	InstanceMethodsVMAddr         uint64
	ClassMethodsVMAddr            uint64
	OptionalInstanceMethodsVMAddr uint64
	OptionalClassMethodsVMAddr    uint64
	InstancePropertiesVMAddr      uint64
	Size                          uint32
	Flags                         objc.ProtocolFlags
}

const protocolTCoreSize = 8*8 + 4 + 4

func (f *File) getObjcProtocol(vmaddr uint64) (*objc.Protocol, error) {
	off, err := f.GetOffset(vmaddr)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vmaddr: %w", err)
	}

	var core protocolTCore
	if err := f.readAt(off, &core); err != nil {
		return nil, fmt.Errorf("failed to read protocol_t at %#x: %v", vmaddr, err)
	}

	proto := &objc.Protocol{
		Ptr: vmaddr,
		ProtocolT: objc.ProtocolT{
			IsaVMAddr:                     core.IsaVMAddr,
			NameVMAddr:                    core.NameVMAddr,
			ProtocolsVMAddr:               core.ProtocolsVMAddr,
			InstanceMethodsVMAddr:         core.InstanceMethodsVMAddr,
			ClassMethodsVMAddr:            core.ClassMethodsVMAddr,
			OptionalInstanceMethodsVMAddr: core.OptionalInstanceMethodsVMAddr,
			OptionalClassMethodsVMAddr:    core.OptionalClassMethodsVMAddr,
			InstancePropertiesVMAddr:      core.InstancePropertiesVMAddr,
			Size:                          core.Size,
			Flags:                         core.Flags,
		},
	}

	// trailing fields appear one at a time as Size grows
	ext := off + protocolTCoreSize
	if core.Size >= protocolTCoreSize+8 {
		proto.ExtendedMethodTypesVMAddr, _ = f.r.Uint64(ext, f.ByteOrder)
	}
	if core.Size >= protocolTCoreSize+16 {
		proto.DemangledNameVMAddr, _ = f.r.Uint64(ext+8, f.ByteOrder)
	}
	if core.Size >= protocolTCoreSize+24 {
		proto.ClassPropertiesVMAddr, _ = f.r.Uint64(ext+16, f.ByteOrder)
	}

	if core.NameVMAddr > 0 {
		proto.Name, err = f.GetCString(core.NameVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read protocol name: %v", err)
		}
	}
	if core.ProtocolsVMAddr > 0 {
		proto.Prots, err = f.parseObjcProtocolList(core.ProtocolsVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read adopted protocols: %v", err)
		}
	}
	if core.InstanceMethodsVMAddr > 0 {
		proto.InstanceMethods, err = f.GetObjCMethods(core.InstanceMethodsVMAddr)
		if err != nil {
			return nil, err
		}
	}
	if core.OptionalInstanceMethodsVMAddr > 0 {
		proto.OptionalInstanceMethods, err = f.GetObjCMethods(core.OptionalInstanceMethodsVMAddr)
		if err != nil {
			return nil, err
		}
	}
	if core.ClassMethodsVMAddr > 0 {
		proto.ClassMethods, err = f.GetObjCMethods(core.ClassMethodsVMAddr)
		if err != nil {
			return nil, err
		}
	}
	if core.OptionalClassMethodsVMAddr > 0 {
		proto.OptionalClassMethods, err = f.GetObjCMethods(core.OptionalClassMethodsVMAddr)
		if err != nil {
			return nil, err
		}
	}
	if core.InstancePropertiesVMAddr > 0 {
		proto.InstanceProperties, err = f.GetObjCProperties(core.InstancePropertiesVMAddr)
		if err != nil {
			return nil, err
		}
	}
	if proto.ExtendedMethodTypesVMAddr > 0 {
		// pointer to a pointer to the types string
		extPtr, err := f.GetPointer(proto.ExtendedMethodTypesVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read extended method types pointer: %v", err)
		}
		proto.ExtendedMethodTypes, err = f.GetCString(extPtr)
		if err != nil {
			return nil, fmt.Errorf("failed to read extended method types: %v", err)
		}
	}
	if proto.DemangledNameVMAddr > 0 {
		proto.DemangledName, err = f.GetCString(proto.DemangledNameVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read demangled name: %v", err)
		}
	}

	return proto, nil
}

// GetObjCMethods parses the method_list_t at a virtual address,
// dispatching on the list's layout flag.
func (f *File) GetObjCMethods(vmaddr uint64) ([]objc.Method, error) {
	off, err := f.GetOffset(vmaddr)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vmaddr: %w", err)
	}

	var methodList objc.MethodList
	if err := f.readAt(off, &methodList); err != nil {
		return nil, fmt.Errorf("failed to read method_list_t: %v", err)
	}

	if methodList.UsesRelativeOffsets() {
		return f.readSmallMethods(off, methodList)
	}
	return f.readBigMethods(off, methodList)
}

// readSmallMethods decodes a relative (small) method list. Each entry
// holds three 32-bit offsets relative to the field's own location; the
// name offset lands on a selector-reference slot, not the string.
func (f *File) readSmallMethods(listOff uint64, methodList objc.MethodList) ([]objc.Method, error) {
	const methodSize = 3 * 4
	entsize := uint64(methodList.EntSize())
	if entsize < methodSize {
		return nil, fmt.Errorf("%w: relative method_t entsize %d below %d", ErrFileCorrupt, entsize, methodSize)
	}

	var methods []objc.Method
	for i := uint64(0); i < uint64(methodList.Count); i++ {
		entryOff := listOff + uint64(binary.Size(methodList)) + i*entsize

		var m objc.RelativeMethodT
		if err := f.readAt(entryOff, &m); err != nil {
			return nil, fmt.Errorf("failed to read method_t (relative): %v", err)
		}

		nameVMAddr, err := f.r.Uint64(uint64(int64(entryOff)+int64(m.NameOffset)), f.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to read selector pointer: %v", err)
		}
		name, err := f.GetCString(nameVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read method name: %v", err)
		}

		typesVMAddr, err := f.GetVMAddress(uint64(int64(entryOff) + 4 + int64(m.TypesOffset)))
		if err != nil {
			return nil, fmt.Errorf("failed to convert types offset %#x: %v", m.TypesOffset, err)
		}
		typ, err := f.GetCString(typesVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read method types: %v", err)
		}

		impVMAddr, err := f.GetVMAddress(uint64(int64(entryOff) + 8 + int64(m.ImpOffset)))
		if err != nil {
			return nil, fmt.Errorf("failed to convert imp offset %#x: %v", m.ImpOffset, err)
		}

		methods = append(methods, objc.Method{
			NameVMAddr:  nameVMAddr,
			TypesVMAddr: typesVMAddr,
			ImpVMAddr:   impVMAddr,
			Name:        name,
			Types:       typ,
		})
	}
	return methods, nil
}

// readBigMethods decodes a classic method list of vmaddr triples. The
// cursor advances by the header's entsize so oversized entries stay
// aligned.
func (f *File) readBigMethods(listOff uint64, methodList objc.MethodList) ([]objc.Method, error) {
	methodSize := uint64(binary.Size(objc.MethodT{}))
	entsize := uint64(methodList.EntSize())
	if entsize < methodSize {
		return nil, fmt.Errorf("%w: method_t entsize %d below %d", ErrFileCorrupt, entsize, methodSize)
	}

	var methods []objc.Method
	for i := uint64(0); i < uint64(methodList.Count); i++ {
		entryOff := listOff + uint64(binary.Size(methodList)) + i*entsize

		var m objc.MethodT
		if err := f.readAt(entryOff, &m); err != nil {
			return nil, fmt.Errorf("failed to read method_t: %v", err)
		}

		name, err := f.GetCString(m.NameVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read method name: %v", err)
		}
		typ, err := f.GetCString(m.TypesVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read method types: %v", err)
		}

		methods = append(methods, objc.Method{
			NameVMAddr:  m.NameVMAddr,
			TypesVMAddr: m.TypesVMAddr,
			ImpVMAddr:   m.ImpVMAddr,
			Name:        name,
			Types:       typ,
		})
	}
	return methods, nil
}

// GetObjCIvars parses the ivar list at a virtual address. The on-disk
// Offset field is a pointer to the live offset slot; the stored value
// is what gets reported.
func (f *File) GetObjCIvars(vmaddr uint64) ([]objc.Ivar, error) {
	off, err := f.GetOffset(vmaddr)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vmaddr: %w", err)
	}

	var ivarList objc.IvarList
	if err := f.readAt(off, &ivarList); err != nil {
		return nil, fmt.Errorf("failed to read ivar_list_t: %v", err)
	}

	ivarSize := uint64(binary.Size(objc.IvarT{}))
	entsize := uint64(ivarList.EntSize)
	if entsize < ivarSize {
		return nil, fmt.Errorf("%w: ivar_t entsize %d below %d", ErrFileCorrupt, entsize, ivarSize)
	}

	var ivars []objc.Ivar
	for i := uint64(0); i < uint64(ivarList.Count); i++ {
		entryOff := off + uint64(binary.Size(ivarList)) + i*entsize

		var iv objc.IvarT
		if err := f.readAt(entryOff, &iv); err != nil {
			return nil, fmt.Errorf("failed to read ivar_t: %v", err)
		}

		var liveOffset uint32
		if iv.Offset > 0 {
			if err := f.readAtAddr(iv.Offset, &liveOffset); err != nil {
				return nil, fmt.Errorf("failed to read ivar offset slot: %v", err)
			}
		}

		name, err := f.GetCString(iv.NameVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read ivar name: %v", err)
		}
		typ, err := f.GetCString(iv.TypesVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read ivar type: %v", err)
		}

		ivars = append(ivars, objc.Ivar{
			Name:   name,
			Type:   typ,
			Offset: liveOffset,
			IvarT:  iv,
		})
	}
	return ivars, nil
}

// GetObjCProperties parses the property list at a virtual address.
func (f *File) GetObjCProperties(vmaddr uint64) ([]objc.Property, error) {
	off, err := f.GetOffset(vmaddr)
	if err != nil {
		return nil, fmt.Errorf("failed to convert vmaddr: %w", err)
	}

	var propList objc.PropertyList
	if err := f.readAt(off, &propList); err != nil {
		return nil, fmt.Errorf("failed to read property_list_t: %v", err)
	}

	propSize := uint64(binary.Size(objc.PropertyT{}))
	entsize := uint64(propList.EntSize)
	if entsize < propSize {
		return nil, fmt.Errorf("%w: property_t entsize %d below %d", ErrFileCorrupt, entsize, propSize)
	}

	var props []objc.Property
	for i := uint64(0); i < uint64(propList.Count); i++ {
		entryOff := off + uint64(binary.Size(propList)) + i*entsize

		var p objc.PropertyT
		if err := f.readAt(entryOff, &p); err != nil {
			return nil, fmt.Errorf("failed to read property_t: %v", err)
		}

		name, err := f.GetCString(p.NameVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read property name: %v", err)
		}
		attrs, err := f.GetCString(p.AttributesVMAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to read property attributes: %v", err)
		}

		props = append(props, objc.Property{
			PropertyT:         p,
			Name:              name,
			EncodedAttributes: attrs,
		})
	}
	return props, nil
}

// GetObjCSelectorReferences resolves every non-null __objc_selrefs
// slot, in file order. A slot whose selector string cannot be read is
// logged and skipped.
func (f *File) GetObjCSelectorReferences() ([]objc.SelectorRef, error) {
	sec := f.objcSection("__objc_selrefs")
	if sec == nil {
		return nil, fmt.Errorf("%w: no __objc_selrefs section", ErrSectionNotFound)
	}

	ptrs, err := f.readPointerSlots(sec)
	if err != nil {
		return nil, err
	}

	var selRefs []objc.SelectorRef
	for idx, sel := range ptrs {
		if sel == 0 {
			continue
		}
		name, err := f.GetCString(sel)
		if err != nil {
			log.WithError(err).Warnf("skipping selector reference at %#x", sel)
			continue
		}
		selRefs = append(selRefs, objc.SelectorRef{
			VMAddr: sec.Addr + uint64(idx)*f.pointerSize(),
			Name:   name,
		})
	}
	return selRefs, nil
}
