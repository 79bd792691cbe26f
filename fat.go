package classdump

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/apex/log"

	"github.com/appsworld/go-classdump/pkg/region"
	"github.com/appsworld/go-classdump/types"
)

// A FatArch is one slice of a universal archive together with its
// raw bytes.
type FatArch struct {
	types.FatArchHeader
	Data []byte
}

// A FatFile is a Mach-O universal archive.
type FatFile struct {
	types.FatHeader
	Arches []FatArch
}

// OpenFat reads the named universal archive.
func OpenFat(name string) (*FatFile, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return NewFatFile(data)
}

// NewFatFile parses the headers of a universal archive. The fat header
// and arch descriptors are big-endian on disk; a little-endian magic
// means the descriptors are byte-swapped as well.
func NewFatFile(data []byte) (*FatFile, error) {
	r := region.New(data)

	be, err := r.Uint32(0, binary.BigEndian)
	if err != nil {
		return nil, formatError(0, ErrInvalidFormat, "file too small for magic", nil)
	}
	bo := binary.ByteOrder(binary.BigEndian)
	if types.Magic(be) != types.MagicFat {
		le, _ := r.Uint32(0, binary.LittleEndian)
		if types.Magic(le) != types.MagicFat {
			return nil, formatError(0, ErrInvalidFormat, "invalid fat magic number", fmt.Sprintf("%#x", be))
		}
		bo = binary.LittleEndian
	}

	ff := new(FatFile)
	ff.Magic = types.MagicFat
	count, err := r.Uint32(4, bo)
	if err != nil {
		return nil, formatError(4, ErrFileCorrupt, "file too small for fat header", nil)
	}
	ff.Count = count
	if count == 0 {
		return nil, formatError(4, ErrFileCorrupt, "fat archive has no slices", nil)
	}

	const fatArchSize = 5 * 4
	for i := uint64(0); i < uint64(count); i++ {
		off := 8 + i*fatArchSize
		hr, err := r.ReaderAt(off, fatArchSize)
		if err != nil {
			return nil, formatError(int64(off), ErrFileCorrupt, "fat arch headers overrun the file", count)
		}
		var hdr types.FatArchHeader
		if err := binary.Read(hr, bo, &hdr); err != nil {
			return nil, formatError(int64(off), ErrFileCorrupt, "failed to read fat arch header", err)
		}
		slice, err := r.Slice(uint64(hdr.Offset), uint64(hdr.Size))
		if err != nil {
			return nil, formatError(int64(off), ErrFileCorrupt, "fat arch slice overruns the file", hdr.CPU)
		}
		ff.Arches = append(ff.Arches, FatArch{FatArchHeader: hdr, Data: slice.Bytes()})
	}
	return ff, nil
}

// Slice returns the arch slice matching cpu, defaulting to arm64 when
// cpu is zero. When no slice matches, the first slice is used and a
// warning is logged.
func (ff *FatFile) Slice(cpu types.CPU) FatArch {
	if cpu == 0 {
		cpu = types.CPUArm64
	}
	for _, arch := range ff.Arches {
		if arch.CPU == cpu {
			return arch
		}
	}
	log.WithFields(log.Fields{
		"want": cpu.String(),
		"got":  ff.Arches[0].CPU.String(),
	}).Warn("universal archive has no matching slice, using the first")
	return ff.Arches[0]
}
