package classdump

import (
	"fmt"

	"github.com/appsworld/go-classdump/pkg/trie"
)

// DyldExports returns the exported symbols recovered from the export
// trie. LC_DYLD_EXPORTS_TRIE wins over the older dyld info export
// blob when both are present.
func (f *File) DyldExports() ([]trie.Entry, error) {
	var off, size uint32

	if et := f.DyldExportsTrie(); et != nil {
		off, size = et.Offset, et.Size
	} else if dyldInfo := f.DyldInfo(); dyldInfo != nil {
		off, size = dyldInfo.ExportOff, dyldInfo.ExportSize
	} else {
		return nil, fmt.Errorf("macho does not contain export trie info")
	}

	if size == 0 {
		return nil, nil
	}

	blob, err := f.r.Slice(uint64(off), uint64(size))
	if err != nil {
		return nil, fmt.Errorf("%w: export info overruns the file: %v", ErrFileCorrupt, err)
	}

	return trie.Parse(blob.Bytes(), f.GetBaseAddress())
}

// FindExportedSymbol looks a single symbol up in the export trie
// without walking the whole tree.
func (f *File) FindExportedSymbol(symbol string) (*trie.Entry, error) {
	exports, err := f.DyldExports()
	if err != nil {
		return nil, err
	}
	for i := range exports {
		if exports[i].Name == symbol {
			return &exports[i], nil
		}
	}
	return nil, fmt.Errorf("symbol %s not found in exports", symbol)
}
