package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

type VmProtection int32

func (v VmProtection) Read() bool {
	return (v & 0x01) != 0
}

func (v VmProtection) Write() bool {
	return (v & 0x02) != 0
}

func (v VmProtection) Execute() bool {
	return (v & 0x04) != 0
}

func (v VmProtection) String() string {
	var protStr string
	if v.Read() {
		protStr += "r"
	} else {
		protStr += "-"
	}
	if v.Write() {
		protStr += "w"
	} else {
		protStr += "-"
	}
	if v.Execute() {
		protStr += "x"
	} else {
		protStr += "-"
	}
	return protStr
}

// UUID is a macho uuid object
type UUID [16]byte

func (u UUID) String() string {
	return fmt.Sprintf("%02X%02X%02X%02X-%02X%02X-%02X%02X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		u[0], u[1], u[2], u[3], u[4], u[5], u[6], u[7], u[8], u[9], u[10], u[11], u[12], u[13], u[14], u[15])
}

// Platform is a macho platform object
type Platform uint32

const (
	PlatformUnknown          Platform = 0
	PlatformMacOS            Platform = 1
	PlatformIOS              Platform = 2
	PlatformTvOS             Platform = 3
	PlatformWatchOS          Platform = 4
	PlatformBridgeOS         Platform = 5
	PlatformMacCatalyst      Platform = 6
	PlatformIOSSimulator     Platform = 7
	PlatformTvOSSimulator    Platform = 8
	PlatformWatchOSSimulator Platform = 9
	PlatformDriverKit        Platform = 10
)

var platformStrings = []intName{
	{uint32(PlatformMacOS), "macOS"},
	{uint32(PlatformIOS), "iOS"},
	{uint32(PlatformTvOS), "tvOS"},
	{uint32(PlatformWatchOS), "watchOS"},
	{uint32(PlatformBridgeOS), "bridgeOS"},
	{uint32(PlatformMacCatalyst), "macCatalyst"},
	{uint32(PlatformIOSSimulator), "iOS Simulator"},
	{uint32(PlatformTvOSSimulator), "tvOS Simulator"},
	{uint32(PlatformWatchOSSimulator), "watchOS Simulator"},
	{uint32(PlatformDriverKit), "DriverKit"},
}

func (p Platform) String() string { return stringName(uint32(p), platformStrings, false) }

type Version uint32

func (v Version) String() string {
	s := make([]byte, 4)
	binary.BigEndian.PutUint32(s, uint32(v))
	return fmt.Sprintf("%d.%d.%d", binary.BigEndian.Uint16(s[:2]), s[2], s[3])
}

type SrcVersion uint64

func (sv SrcVersion) String() string {
	a := sv >> 40
	b := (sv >> 30) & 0x3ff
	c := (sv >> 20) & 0x3ff
	d := (sv >> 10) & 0x3ff
	e := sv & 0x3ff
	return fmt.Sprintf("%d.%d.%d.%d.%d", a, b, c, d, e)
}

type Tool uint32

const (
	ToolClang Tool = 1
	ToolSwift Tool = 2
	ToolLd    Tool = 3
)

var toolStrings = []intName{
	{uint32(ToolClang), "clang"},
	{uint32(ToolSwift), "swift"},
	{uint32(ToolLd), "ld"},
}

func (t Tool) String() string { return stringName(uint32(t), toolStrings, false) }

type BuildToolVersion struct {
	Tool    Tool
	Version Version
}

type DataInCodeEntry struct {
	Offset uint32
	Length uint16
	Kind   DiceKind
}

type DiceKind uint16

const (
	KindData           DiceKind = 0x0001
	KindJumpTable8     DiceKind = 0x0002
	KindJumpTable16    DiceKind = 0x0003
	KindJumpTable32    DiceKind = 0x0004
	KindAbsJumpTable32 DiceKind = 0x0005
)

var diceKindStrings = []intName{
	{uint32(KindData), "Data"},
	{uint32(KindJumpTable8), "JumpTable8"},
	{uint32(KindJumpTable16), "JumpTable16"},
	{uint32(KindJumpTable32), "JumpTable32"},
	{uint32(KindAbsJumpTable32), "AbsJumpTable32"},
}

func (k DiceKind) String() string { return stringName(uint32(k), diceKindStrings, false) }

type intName struct {
	i uint32
	s string
}

func stringName(i uint32, names []intName, goSyntax bool) string {
	for _, n := range names {
		if n.i == i {
			if goSyntax {
				return "types." + n.s
			}
			return n.s
		}
	}
	return "0x" + strconv.FormatUint(uint64(i), 16)
}

// ExtractBits returns width bits of value starting at bit start.
func ExtractBits(value uint64, start, width int) uint64 {
	return (value >> start) & ((1 << width) - 1)
}

// RoundUp rounds x up to the next multiple of align. align must be a
// power of two.
func RoundUp(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}
