package objc

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// ObjcClass64 is the on-disk objc_class layout for 64-bit images.
type ObjcClass64 struct {
	IsaVMAddr              uint64
	SuperclassVMAddr       uint64
	MethodCacheBuckets     uint64
	MethodCacheProperties  uint64
	DataVMAddrAndFastFlags uint64
}

// SwiftClassMetadata64 extends ObjcClass64 for Swift-backed classes.
type SwiftClassMetadata64 struct {
	ObjcClass64
	SwiftClassFlags uint64
}

const (
	FAST_IS_SWIFT_LEGACY = 1 << 0 // pre-stable Swift ABI
	FAST_IS_SWIFT_STABLE = 1 << 1 // stable Swift ABI

	FAST_DATA_MASK64  = 0x00007ffffffffff8
	FAST_FLAGS_MASK64 = 0x0000000000000007
)

type ClassRoFlags uint32

const (
	// class is a metaclass
	RO_META ClassRoFlags = (1 << 0)
	// class is a root class
	RO_ROOT ClassRoFlags = (1 << 1)
	// class has .cxx_construct/destruct implementations
	RO_HAS_CXX_STRUCTORS ClassRoFlags = (1 << 2)
	// class has +load implementation
	RO_HAS_LOAD_METHOD ClassRoFlags = (1 << 3)
	// class has visibility=hidden set
	RO_HIDDEN ClassRoFlags = (1 << 4)
	// class has attribute(objc_exception)
	RO_EXCEPTION ClassRoFlags = (1 << 5)
	// class has ro field for Swift metadata initializer callback
	RO_HAS_SWIFT_INITIALIZER ClassRoFlags = (1 << 6)
	// class compiled with ARC
	RO_IS_ARC ClassRoFlags = (1 << 7)

	// class is in an unloadable bundle - must never be set by compiler
	RO_FROM_BUNDLE ClassRoFlags = (1 << 29)
	// class is unrealized future class - must never be set by compiler
	RO_FUTURE ClassRoFlags = (1 << 30)
	// class is realized - must never be set by compiler
	RO_REALIZED ClassRoFlags = (1 << 31)
)

func (f ClassRoFlags) IsMeta() bool {
	return (f & RO_META) != 0
}
func (f ClassRoFlags) IsRoot() bool {
	return (f & RO_ROOT) != 0
}
func (f ClassRoFlags) IsHidden() bool {
	return (f & RO_HIDDEN) != 0
}
func (f ClassRoFlags) HasLoadMethod() bool {
	return (f & RO_HAS_LOAD_METHOD) != 0
}
func (f ClassRoFlags) String() string {
	var out []string
	if f.IsMeta() {
		out = append(out, "META")
	}
	if f.IsRoot() {
		out = append(out, "ROOT")
	}
	if f.IsHidden() {
		out = append(out, "HIDDEN")
	}
	if f.HasLoadMethod() {
		out = append(out, "HAS_LOAD_METHOD")
	}
	return strings.Join(out, " | ")
}

// ClassRO64 is the on-disk class_ro_t layout for 64-bit images.
type ClassRO64 struct {
	Flags                ClassRoFlags
	InstanceStart        uint32
	InstanceSize         uint64
	IvarLayoutVMAddr     uint64
	NameVMAddr           uint64
	BaseMethodsVMAddr    uint64
	BaseProtocolsVMAddr  uint64
	IvarsVMAddr          uint64
	WeakIvarLayoutVMAddr uint64
	BasePropertiesVMAddr uint64
}

// Class is a fully decoded class definition.
type Class struct {
	Name             string
	SuperClass       string
	Isa              string
	InstanceMethods  []Method
	ClassMethods     []Method
	Ivars            []Ivar
	Props            []Property
	Protocols        []Protocol
	ClassPtr         uint64
	IsaVMAddr        uint64
	SuperclassVMAddr uint64
	DataVMAddr       uint64
	IsSwiftLegacy    bool
	IsSwiftStable    bool
	ReadOnlyData     ClassRO64
}

// IsSwift returns true if the class is a Swift class.
func (c *Class) IsSwift() bool {
	return c.IsSwiftLegacy || c.IsSwiftStable
}

func (c *Class) dump(verbose, addrs bool) string {
	var iVars string
	var props string
	var cMethods string
	var iMethods string

	var subClass string
	if c.ReadOnlyData.Flags.IsRoot() {
		subClass = "<ROOT>"
	} else if len(c.SuperClass) > 0 {
		subClass = c.SuperClass
	}

	class := fmt.Sprintf("@interface %s : %s", c.Name, subClass)

	if len(c.Protocols) > 0 {
		var subProts []string
		for _, prot := range c.Protocols {
			subProts = append(subProts, prot.Name)
		}
		class += fmt.Sprintf(" <%s>", strings.Join(subProts, ", "))
	}
	if len(c.Ivars) > 0 {
		class += " {"
	}
	if verbose {
		var comment string
		if addrs {
			comment += fmt.Sprintf(" // %#x", c.ClassPtr)
		}
		if c.IsSwift() {
			if len(comment) > 0 {
				comment += " (Swift)"
			} else {
				comment += " // (Swift)"
			}
		}
		class += comment
	}
	if len(c.Ivars) > 0 {
		s := bytes.NewBufferString("")
		w := tabwriter.NewWriter(s, 0, 0, 1, ' ', 0)
		if addrs {
			fmt.Fprintf(w, "\n    /* instance variables */\t// +size   offset\n")
		} else {
			fmt.Fprintf(w, "\n    /* instance variables */\n")
		}
		for _, ivar := range c.Ivars {
			if verbose {
				if addrs {
					fmt.Fprintf(w, "    %s\n", ivar.WithAddrs())
				} else {
					fmt.Fprintf(w, "    %s\n", ivar.Verbose())
				}
			} else {
				fmt.Fprintf(w, "    %s\n", &ivar)
			}
		}
		w.Flush()
		s.WriteString("}")
		iVars = s.String()
	}
	if len(c.Props) > 0 {
		for _, prop := range c.Props {
			if verbose {
				attrs, _ := prop.Attributes()
				props += fmt.Sprintf("@property %s%s%s;\n", attrs, prop.Type(), prop.Name)
			} else {
				props += fmt.Sprintf("@property (%s) %s;\n", prop.EncodedAttributes, prop.Name)
			}
		}
		if props != "" {
			props += "\n"
		}
	}
	if len(c.ClassMethods) > 0 {
		s := bytes.NewBufferString("/* class methods */\n")
		for _, meth := range c.ClassMethods {
			if !addrs && strings.HasPrefix(meth.Name, ".cxx_") {
				continue
			}
			if verbose {
				rtype, args := decodeMethodTypes(meth.Types)
				if addrs {
					s.WriteString(fmt.Sprintf("// %#x\n", meth.ImpVMAddr))
				}
				s.WriteString(fmt.Sprintf("+ %s\n", getMethodWithArgs(meth.Name, rtype, args)))
			} else {
				s.WriteString(fmt.Sprintf("+[%s %s];\n", c.Name, meth.Name))
			}
		}
		cMethods = s.String()
		if cMethods != "" {
			cMethods += "\n"
		}
	}
	if len(c.InstanceMethods) > 0 {
		s := bytes.NewBufferString("/* instance methods */\n")
		for _, meth := range c.InstanceMethods {
			if !addrs && strings.HasPrefix(meth.Name, ".cxx_") {
				continue
			}
			if verbose {
				rtype, args := decodeMethodTypes(meth.Types)
				if addrs {
					s.WriteString(fmt.Sprintf("// %#x\n", meth.ImpVMAddr))
				}
				s.WriteString(fmt.Sprintf("- %s\n", getMethodWithArgs(meth.Name, rtype, args)))
			} else {
				s.WriteString(fmt.Sprintf("-[%s %s];\n", c.Name, meth.Name))
			}
		}
		iMethods = s.String()
		if iMethods != "" {
			iMethods += "\n"
		}
	}

	return fmt.Sprintf(
		"%s"+
			"%s\n\n"+
			"%s"+
			"%s"+
			"%s"+
			"@end\n",
		class,
		iVars,
		props,
		cMethods,
		iMethods,
	)
}

func (c *Class) String() string {
	return c.dump(false, false)
}
func (c *Class) Verbose() string {
	return c.dump(true, false)
}
func (c *Class) WithAddrs() string {
	return c.dump(true, true)
}
