package types

import "fmt"

// A FatHeader is the header of a universal (fat) archive. All fields
// are big-endian on disk regardless of the slices it carries.
type FatHeader struct {
	Magic Magic
	Count uint32
}

// A FatArchHeader describes one slice of a universal archive.
type FatArchHeader struct {
	CPU    CPU
	SubCPU CPUSubtype
	Offset uint32
	Size   uint32
	Align  uint32
}

func (h FatArchHeader) String() string {
	return fmt.Sprintf("%s (%s), offset=%#x size=%#x align=2^%d",
		h.CPU, h.SubCPU.String(h.CPU), h.Offset, h.Size, h.Align)
}
