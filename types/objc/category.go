package objc

import (
	"fmt"
	"strings"
)

// CategoryT is the on-disk category_t layout for 64-bit images.
type CategoryT struct {
	NameVMAddr               uint64
	ClsVMAddr                uint64
	InstanceMethodsVMAddr    uint64
	ClassMethodsVMAddr       uint64
	ProtocolsVMAddr          uint64
	InstancePropertiesVMAddr uint64
}

// Category is a fully decoded category definition. ClassName may be
// "<External>" when the extended class lives in another image.
type Category struct {
	Name            string
	VMAddr          uint64
	ClassName       string
	Class           *Class
	Protocols       []Protocol
	ClassMethods    []Method
	InstanceMethods []Method
	Properties      []Property
	CategoryT
}

func (c *Category) dump(verbose, addrs bool) string {
	var props string
	var cMethods string
	var iMethods string

	className := c.ClassName
	if c.Class != nil {
		className = c.Class.Name
	}

	cat := fmt.Sprintf("@interface %s (%s)", className, c.Name)

	if len(c.Protocols) > 0 {
		var subProts []string
		for _, prot := range c.Protocols {
			subProts = append(subProts, prot.Name)
		}
		cat += fmt.Sprintf(" <%s>", strings.Join(subProts, ", "))
	}
	if verbose && addrs {
		cat += fmt.Sprintf(" // %#x", c.VMAddr)
	}
	if len(c.Properties) > 0 {
		for _, prop := range c.Properties {
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
		var s strings.Builder
		s.WriteString("/* class methods */\n")
		for _, meth := range c.ClassMethods {
			if verbose {
				rtype, args := decodeMethodTypes(meth.Types)
				if addrs {
					s.WriteString(fmt.Sprintf("// %#x\n", meth.ImpVMAddr))
				}
				s.WriteString(fmt.Sprintf("+ %s\n", getMethodWithArgs(meth.Name, rtype, args)))
			} else {
				s.WriteString(fmt.Sprintf("+[%s(%s) %s];\n", className, c.Name, meth.Name))
			}
		}
		cMethods = s.String()
		if cMethods != "" {
			cMethods += "\n"
		}
	}
	if len(c.InstanceMethods) > 0 {
		var s strings.Builder
		s.WriteString("/* instance methods */\n")
		for _, meth := range c.InstanceMethods {
			if verbose {
				rtype, args := decodeMethodTypes(meth.Types)
				if addrs {
					s.WriteString(fmt.Sprintf("// %#x\n", meth.ImpVMAddr))
				}
				s.WriteString(fmt.Sprintf("- %s\n", getMethodWithArgs(meth.Name, rtype, args)))
			} else {
				s.WriteString(fmt.Sprintf("-[%s(%s) %s];\n", className, c.Name, meth.Name))
			}
		}
		iMethods = s.String()
		if iMethods != "" {
			iMethods += "\n"
		}
	}

	return fmt.Sprintf(
		"%s\n\n"+
			"%s"+
			"%s"+
			"%s"+
			"@end\n",
		cat,
		props,
		cMethods,
		iMethods,
	)
}

func (c *Category) String() string {
	return c.dump(false, false)
}
func (c *Category) Verbose() string {
	return c.dump(true, false)
}
func (c *Category) WithAddrs() string {
	return c.dump(true, true)
}
