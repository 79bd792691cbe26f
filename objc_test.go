package classdump

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appsworld/go-classdump/types/objc"
)

// objcTestImage lays out a tiny image owning one class, one category
// on that class, one protocol and a selector reference section.
//
//	__TEXT  0x100000000  strings at 0x800+
//	__DATA  0x100001000  objc metadata
func objcTestImage(t *testing.T) *testImage {
	t.Helper()
	ti := newTestImage(t, 0x3000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	ti.segment("__DATA", 0x100001000, 0x2000, 0x1000, 0x2000,
		fixSection("__DATA", "__objc_classlist", 0x100001000, 8, 0x1000, 0),
		fixSection("__DATA", "__objc_catlist", 0x100001010, 8, 0x1010, 0),
		fixSection("__DATA", "__objc_protolist", 0x100001020, 8, 0x1020, 0),
		fixSection("__DATA", "__objc_selrefs", 0x100001030, 24, 0x1030, 0),
		fixSection("__DATA", "__objc_imageinfo", 0x100001050, 8, 0x1050, 0),
	)

	strs := make(map[string]uint64)
	off := uint64(0x800)
	for _, s := range []string{
		"MyClass", "MyClassMeta", "init", "copy", "@16@0:8", "shared",
		"extraThing", "Extras", "MyProto", "doIt", "v16@0:8", "_count", "q",
	} {
		ti.placeCString(off, s)
		strs[s] = 0x100000000 + off
		off += 16
	}

	ti.placeU64(0x1000, 0x100001100) // classlist
	ti.placeU64(0x1010, 0x100001500) // catlist
	ti.placeU64(0x1020, 0x100001700) // protolist
	ti.placeU64(0x1030, strs["init"], 0, strs["copy"])
	ti.placeU32(0x1050, 0, 0) // imageinfo

	// class_t: isa -> metaclass, superclass -> unmapped external
	ti.placeU64(0x1100, 0x100001180, 0x100009999, 0, 0, 0x100001200)
	// metaclass_t
	ti.placeU64(0x1180, 0, 0, 0, 0, 0x100001280)

	// class_ro_t
	ti.placeU32(0x1200, 0, 8)
	ti.placeU64(0x1208, 16, 0, strs["MyClass"], 0x100001300, 0x100001600, 0x100001350, 0, 0)
	// metaclass ro, RO_META set
	ti.placeU32(0x1280, 1, 0)
	ti.placeU64(0x1288, 0, 0, strs["MyClassMeta"], 0x100001380, 0, 0, 0, 0)

	// instance methods: entsize 32 over nominal 24 byte entries, the
	// cursor has to follow the declared stride
	ti.placeU32(0x1300, 32, 2)
	ti.placeU64(0x1308, strs["init"], strs["@16@0:8"], 0x100000400)
	ti.placeU64(0x1328, strs["copy"], strs["@16@0:8"], 0x100000410)

	// ivars, offset field points at the live slot
	ti.placeU32(0x1350, 32, 1)
	ti.placeU64(0x1358, 0x100001560, strs["_count"], strs["q"])
	ti.placeU32(0x1370, 3, 8)
	ti.placeU32(0x1560, 8)

	// metaclass instance methods become the class methods
	ti.placeU32(0x1380, 24, 1)
	ti.placeU64(0x1388, strs["shared"], strs["@16@0:8"], 0x100000420)

	// category methods
	ti.placeU32(0x13e0, 24, 1)
	ti.placeU64(0x13e8, strs["extraThing"], strs["v16@0:8"], 0x100000430)

	// category_t, targeting the image-local class and re-adopting the
	// same protocol list the class already carries
	ti.placeU64(0x1500, strs["Extras"], 0x100001100, 0x1000013e0, 0, 0x100001600, 0)

	// protocol_list_t
	ti.placeU64(0x1600, 1, 0x100001700)

	// protocol_t with Size 80, so only the extended method types
	// trailing pointer is present
	ti.placeU64(0x1700, 0, strs["MyProto"], 0, 0x100001760, 0, 0, 0, 0)
	ti.placeU32(0x1740, 80, 0)
	ti.placeU64(0x1748, 0x100001790)

	ti.placeU32(0x1760, 24, 1)
	ti.placeU64(0x1768, strs["doIt"], strs["v16@0:8"], 0x100000440)

	// extended method types: pointer to a pointer to the string
	ti.placeU64(0x1790, strs["v16@0:8"])

	return ti
}

func methodNames(methods []objc.Method) []string {
	var names []string
	for _, m := range methods {
		names = append(names, m.Name)
	}
	return names
}

func TestExtractObjC(t *testing.T) {
	ti := objcTestImage(t)
	f := ti.open()

	if !f.HasObjC() {
		t.Fatal("HasObjC() = false, want true")
	}

	meta, err := f.ExtractObjC(ObjCConfig{})
	if err != nil {
		t.Fatalf("ExtractObjC() error = %v", err)
	}

	wantToc := objc.Toc{ClassDefs: 1, CategoryDefs: 1, ProtocolDefs: 1, SelRefs: 3}
	if diff := cmp.Diff(wantToc, meta.Toc); diff != "" {
		t.Errorf("Toc mismatch (-want +got):\n%s", diff)
	}
	if meta.ImageInfo == nil {
		t.Error("ImageInfo = nil, want parsed image info")
	}

	if len(meta.Classes) != 1 {
		t.Fatalf("got %d classes, want 1", len(meta.Classes))
	}
	c := meta.Classes[0]
	if c.Name != "MyClass" {
		t.Errorf("class name = %q, want MyClass", c.Name)
	}
	if c.SuperClass != "<External>" {
		t.Errorf("superclass = %q, want <External>", c.SuperClass)
	}
	if c.Isa != "MyClassMeta" {
		t.Errorf("isa = %q, want MyClassMeta", c.Isa)
	}
	if diff := cmp.Diff([]string{"init", "copy", "extraThing"}, methodNames(c.InstanceMethods)); diff != "" {
		t.Errorf("instance methods mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"shared"}, methodNames(c.ClassMethods)); diff != "" {
		t.Errorf("class methods mismatch (-want +got):\n%s", diff)
	}
	if len(c.Protocols) != 1 || c.Protocols[0].Name != "MyProto" {
		t.Errorf("class protocols = %v, want exactly MyProto after dedup", c.Protocols)
	}
	if len(c.Ivars) != 1 {
		t.Fatalf("got %d ivars, want 1", len(c.Ivars))
	}
	iv := c.Ivars[0]
	if iv.Name != "_count" || iv.Type != "q" || iv.Offset != 8 {
		t.Errorf("ivar = %s %s offset %d, want _count q offset 8", iv.Name, iv.Type, iv.Offset)
	}

	if len(meta.Categories) != 1 {
		t.Fatalf("got %d categories, want 1", len(meta.Categories))
	}
	cat := meta.Categories[0]
	if cat.Name != "Extras" {
		t.Errorf("category name = %q, want Extras", cat.Name)
	}
	if cat.ClassName != "MyClass" || cat.Class != c {
		t.Errorf("category target = %q (%p), want MyClass (%p)", cat.ClassName, cat.Class, c)
	}

	if len(meta.Protocols) != 1 {
		t.Fatalf("got %d protocols, want 1", len(meta.Protocols))
	}
	p := meta.Protocols[0]
	if p.Name != "MyProto" || p.DemangledName != "MyProto" {
		t.Errorf("protocol = %q (%q), want MyProto", p.Name, p.DemangledName)
	}
	if diff := cmp.Diff([]string{"doIt"}, methodNames(p.InstanceMethods)); diff != "" {
		t.Errorf("protocol methods mismatch (-want +got):\n%s", diff)
	}
	if p.ExtendedMethodTypes != "v16@0:8" {
		t.Errorf("extended method types = %q, want v16@0:8", p.ExtendedMethodTypes)
	}

	wantSelRefs := []objc.SelectorRef{
		{VMAddr: 0x100001030, Name: "init"},
		{VMAddr: 0x100001040, Name: "copy"},
	}
	if diff := cmp.Diff(wantSelRefs, meta.SelRefs); diff != "" {
		t.Errorf("selector refs mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractObjCDemangler(t *testing.T) {
	ti := objcTestImage(t)
	f := ti.open()

	meta, err := f.ExtractObjC(ObjCConfig{
		Demangler: func(s string) string { return "dm:" + s },
	})
	if err != nil {
		t.Fatalf("ExtractObjC() error = %v", err)
	}
	if got := meta.Classes[0].Name; got != "dm:MyClass" {
		t.Errorf("class name = %q, want dm:MyClass", got)
	}
	if got := meta.Protocols[0].DemangledName; got != "dm:MyProto" {
		t.Errorf("protocol demangled name = %q, want dm:MyProto", got)
	}
}

func TestExtractObjCNoMetadata(t *testing.T) {
	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	f := ti.open()

	if f.HasObjC() {
		t.Error("HasObjC() = true, want false")
	}
	if _, err := f.ExtractObjC(ObjCConfig{}); !errors.Is(err, ErrNoObjC) {
		t.Errorf("ExtractObjC() error = %v, want ErrNoObjC", err)
	}
}

func TestGetObjCMethodsRelative(t *testing.T) {
	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)

	// small list: 0x80000000 flag, 12 byte entries of self-relative
	// offsets; the name offset lands on a selector reference slot
	ti.placeU32(0x200, 0x80000000|12, 1)
	ti.placeU32(0x208,
		uint32(0x300-0x208),     // name -> selref slot
		uint32(0x410-(0x208+4)), // types
		uint32(0x500-(0x208+8)), // imp
	)
	ti.placeU64(0x300, 0x100000400)
	ti.placeCString(0x400, "ping")
	ti.placeCString(0x410, "v16@0:8")

	f := ti.open()
	methods, err := f.GetObjCMethods(0x100000200)
	if err != nil {
		t.Fatalf("GetObjCMethods() error = %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(methods))
	}
	m := methods[0]
	if m.Name != "ping" || m.Types != "v16@0:8" {
		t.Errorf("method = %s %q, want ping v16@0:8", m.Name, m.Types)
	}
	if m.ImpVMAddr != 0x100000500 {
		t.Errorf("imp = %#x, want 0x100000500", m.ImpVMAddr)
	}
	if m.NameVMAddr != 0x100000400 {
		t.Errorf("name addr = %#x, want 0x100000400", m.NameVMAddr)
	}
}

func TestGetObjCMethodsBadEntsize(t *testing.T) {
	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	ti.placeU32(0x600, 16, 1)            // big entries below 24 bytes
	ti.placeU32(0x700, 0x80000000|8, 1)  // small entries below 12 bytes
	f := ti.open()

	if _, err := f.GetObjCMethods(0x100000600); !errors.Is(err, ErrFileCorrupt) {
		t.Errorf("GetObjCMethods(big) error = %v, want ErrFileCorrupt", err)
	}
	if _, err := f.GetObjCMethods(0x100000700); !errors.Is(err, ErrFileCorrupt) {
		t.Errorf("GetObjCMethods(small) error = %v, want ErrFileCorrupt", err)
	}
}

func TestParseObjcProtocolListHugeCount(t *testing.T) {
	ti := newTestImage(t, 0x1000)
	ti.segment("__TEXT", 0x100000000, 0x1000, 0, 0x1000)
	// A count this large cannot be backed by the file; it must be
	// rejected before any allocation happens.
	ti.placeU64(0x500, 1<<61)
	f := ti.open()

	if _, err := f.parseObjcProtocolList(0x100000500); !errors.Is(err, ErrFileCorrupt) {
		t.Errorf("parseObjcProtocolList() error = %v, want ErrFileCorrupt", err)
	}
}

func TestExtractObjCHugeProtocolCount(t *testing.T) {
	ti := objcTestImage(t)
	// Corrupt the protocol_list_t count referenced by the class and
	// category; both definitions must be skipped, not crash extraction.
	ti.placeU64(0x1600, 1<<61)
	f := ti.open()

	meta, err := f.ExtractObjC(ObjCConfig{})
	if err != nil {
		t.Fatalf("ExtractObjC() error = %v", err)
	}
	if len(meta.Classes) != 0 {
		t.Errorf("got %d classes, want 0", len(meta.Classes))
	}
	if len(meta.Categories) != 0 {
		t.Errorf("got %d categories, want 0", len(meta.Categories))
	}
	if len(meta.Protocols) != 1 {
		t.Errorf("got %d protocols, want 1", len(meta.Protocols))
	}
}
