package types

import "fmt"

// A CPU is a Mach-O cpu type.
type CPU uint32

const (
	cpuArchMask = 0xff000000 // mask for architecture bits
	cpuArch64   = 0x01000000 // 64 bit ABI
	cpuArch6432 = 0x02000000 // ABI for 64-bit hardware with 32-bit types
)

const (
	CPU386     CPU = 7
	CPUAmd64   CPU = CPU386 | cpuArch64
	CPUArm     CPU = 12
	CPUArm64   CPU = CPUArm | cpuArch64
	CPUArm6432 CPU = CPUArm | cpuArch6432
	CPUPpc     CPU = 18
	CPUPpc64   CPU = CPUPpc | cpuArch64
)

var cpuStrings = []intName{
	{uint32(CPU386), "i386"},
	{uint32(CPUAmd64), "Amd64"},
	{uint32(CPUArm), "ARM"},
	{uint32(CPUArm64), "AARCH64"},
	{uint32(CPUPpc), "PowerPC"},
	{uint32(CPUPpc64), "PowerPC 64"},
}

func (i CPU) String() string   { return stringName(uint32(i), cpuStrings, false) }
func (i CPU) GoString() string { return stringName(uint32(i), cpuStrings, true) }

// Is64bit reports whether the cpu type carries the 64-bit ABI bit.
func (i CPU) Is64bit() bool {
	return i&cpuArch64 != 0
}

type CPUSubtype uint32

// X86 subtypes
const (
	CPUSubtypeX8664All CPUSubtype = 3
	CPUSubtypeX86_64H  CPUSubtype = 8
)

// ARM64 subtypes
const (
	CPUSubtypeArm64All CPUSubtype = 0
	CPUSubtypeArm64V8  CPUSubtype = 1
	CPUSubtypeArm64E   CPUSubtype = 2
)

// Capability bits used in the definition of cpu_subtype.
const (
	CpuSubtypeFeatureMask      CPUSubtype = 0xff000000
	CpuSubtypeMask                        = CPUSubtype(^CpuSubtypeFeatureMask)
	CpuSubtypeLib64                       = 0x80000000
	CpuSubtypePtrauthAbi                  = 0x80000000
	CpuSubtypePtrauthAbiUser              = 0x40000000
	CpuSubtypeArm64PtrAuthMask            = 0x0f000000
)

var cpuSubtypeX86Strings = []intName{
	{uint32(CPUSubtypeX8664All), "x86_64"},
	{uint32(CPUSubtypeX86_64H), "x86_64 (Haswell)"},
}
var cpuSubtypeArm64Strings = []intName{
	{uint32(CPUSubtypeArm64All), "ARM64"},
	{uint32(CPUSubtypeArm64V8), "ARM64 (ARMv8)"},
	{uint32(CPUSubtypeArm64E), "ARM64e (ARMv8.3)"},
}

func (st CPUSubtype) String(cpu CPU) string {
	switch cpu {
	case CPUAmd64:
		return stringName(uint32(st&CpuSubtypeMask), cpuSubtypeX86Strings, false)
	case CPUArm64:
		var feature string
		if caps := st & CpuSubtypeFeatureMask; caps != 0 {
			feature = fmt.Sprintf(" caps: PAC%02d", (caps&CpuSubtypeArm64PtrAuthMask)>>24)
		}
		return stringName(uint32(st&CpuSubtypeMask), cpuSubtypeArm64Strings, false) + feature
	}
	return fmt.Sprintf("%#x", uint32(st))
}
