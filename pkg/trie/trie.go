// Package trie parses the compact prefix tree the dynamic linker uses
// to encode exported-symbol information.
package trie

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/apex/log"

	"github.com/appsworld/go-classdump/pkg/leb128"
	"github.com/appsworld/go-classdump/types"
)

var (
	// ErrTrieWalkOutOfBounds is returned when a node offset points
	// outside the export blob.
	ErrTrieWalkOutOfBounds = errors.New("trie node offset is outside the export data")
	// ErrInvalidExportInfo is returned when a terminal node's payload
	// does not decode.
	ErrInvalidExportInfo = errors.New("invalid export info")
	// ErrSymbolNotInTrie is returned by Walk when no edge path spells
	// the requested symbol.
	ErrSymbolNotInTrie = errors.New("symbol not in trie")
)

// Entry is one exported symbol recovered from the trie.
type Entry struct {
	Name         string
	ReExport     string
	Flags        types.ExportFlag
	Other        uint64
	Address      uint64
	FoundInDylib string
}

func (e Entry) String() string {
	if e.Flags.ReExport() {
		return fmt.Sprintf("%#016x: %s (%s re-exported from %s)", e.Address, e.Name, e.ReExport, filepath.Base(e.FoundInDylib))
	} else if e.Flags.StubAndResolver() {
		return fmt.Sprintf("%#016x: %s\t(resolver at %#8x)", e.Address, e.Name, e.Other)
	} else if len(e.FoundInDylib) > 0 {
		return fmt.Sprintf("%#016x: %s, %s", e.Address, e.Name, e.FoundInDylib)
	}
	return fmt.Sprintf("%#016x: %s", e.Address, e.Name)
}

type node struct {
	offset uint64
	sym    []byte
}

// readTerminal decodes one terminal payload. The payload occupies
// exactly terminalSize bytes; decoding past that boundary means the
// node is corrupt.
func readTerminal(r *bytes.Reader, sym []byte, terminalSize, loadAddress uint64) (Entry, error) {
	flagInt, err := leb128.ReadUleb128(r)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidExportInfo, err)
	}

	flags := types.ExportFlag(flagInt)
	entry := Entry{Name: string(sym), Flags: flags}

	if flags.ReExport() {
		entry.Other, err = leb128.ReadUleb128(r)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidExportInfo, err)
		}
		var importName []byte
		for {
			s, err := r.ReadByte()
			if err == io.EOF || s == '\x00' {
				break
			}
			importName = append(importName, s)
		}
		entry.ReExport = string(importName)
		return entry, nil
	}

	entry.Address, err = leb128.ReadUleb128(r)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidExportInfo, err)
	}
	if flags.Regular() || flags.ThreadLocal() {
		entry.Address += loadAddress
	}

	if flags.StubAndResolver() {
		entry.Other, err = leb128.ReadUleb128(r)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrInvalidExportInfo, err)
		}
		entry.Other += loadAddress
	}

	return entry, nil
}

// Parse decodes every entry of an export trie blob. loadAddress is
// added to regular and thread-local symbol addresses. Corrupt nodes
// and out-of-bounds branches are logged and skipped so one bad branch
// cannot hide the rest of the exports.
func Parse(trieData []byte, loadAddress uint64) ([]Entry, error) {
	var tNode node
	var entries []Entry

	nodes := []node{{
		offset: 0,
		sym:    make([]byte, 0),
	}}

	r := bytes.NewReader(trieData)
	visited := make(map[uint64]bool)

	for len(nodes) > 0 {
		tNode, nodes = nodes[len(nodes)-1], nodes[:len(nodes)-1]

		if tNode.offset >= uint64(len(trieData)) {
			log.WithFields(log.Fields{
				"offset": fmt.Sprintf("%#x", tNode.offset),
				"symbol": string(tNode.sym),
			}).Warn("export trie branch is out of bounds, skipping")
			continue
		}

		// A child offset pointing back at an already-decoded node would
		// loop forever; visited offsets bound the walk by the blob size.
		if visited[tNode.offset] {
			log.WithFields(log.Fields{
				"offset": fmt.Sprintf("%#x", tNode.offset),
				"symbol": string(tNode.sym),
			}).Warn("export trie branch revisits an earlier node, skipping")
			continue
		}
		visited[tNode.offset] = true

		r.Seek(int64(tNode.offset), io.SeekStart)

		terminalSize, err := leb128.ReadUleb128(r)
		if err != nil {
			return nil, err
		}

		terminalEnd := uint64(r.Size()) - uint64(r.Len()) + terminalSize
		if terminalEnd > uint64(len(trieData)) {
			log.WithFields(log.Fields{
				"offset": fmt.Sprintf("%#x", tNode.offset),
				"symbol": string(tNode.sym),
			}).Warn("export trie terminal overruns the export data, skipping")
			continue
		}

		if terminalSize != 0 {
			entry, err := readTerminal(r, tNode.sym, terminalSize, loadAddress)
			if err != nil {
				log.WithFields(log.Fields{
					"offset": fmt.Sprintf("%#x", tNode.offset),
					"symbol": string(tNode.sym),
				}).Warnf("skipping corrupt export node: %v", err)
			} else if pos := uint64(r.Size()) - uint64(r.Len()); pos > terminalEnd {
				log.WithFields(log.Fields{
					"offset": fmt.Sprintf("%#x", tNode.offset),
					"symbol": string(tNode.sym),
				}).Warn("export node payload overran its declared terminal size, skipping")
			} else {
				entries = append(entries, entry)
			}
		}

		r.Seek(int64(terminalEnd), io.SeekStart)

		childCount, err := r.ReadByte()
		if err == io.EOF {
			break
		}

		for i := 0; i < int(childCount); i++ {
			edge := make([]byte, len(tNode.sym), len(tNode.sym)+32)
			copy(edge, tNode.sym)

			for {
				s, err := r.ReadByte()
				if err == io.EOF || s == '\x00' {
					break
				}
				edge = append(edge, s)
			}

			childOffset, err := leb128.ReadUleb128(r)
			if err != nil {
				return nil, err
			}

			if childOffset >= uint64(len(trieData)) {
				log.WithFields(log.Fields{
					"offset": fmt.Sprintf("%#x", childOffset),
					"symbol": string(edge),
				}).Warnf("skipping export trie child: %v", ErrTrieWalkOutOfBounds)
				continue
			}

			nodes = append(nodes, node{
				offset: childOffset,
				sym:    edge,
			})
		}
	}

	return entries, nil
}

// Walk looks a single symbol up by name and returns the offset of its
// terminal payload within the export blob.
func Walk(data []byte, symbol string) (uint64, error) {
	var strIndex int
	var offset, nodeOffset uint64

	r := bytes.NewReader(data)

	for {
		if offset >= uint64(len(data)) {
			return 0, ErrTrieWalkOutOfBounds
		}

		r.Seek(int64(offset), io.SeekStart)

		terminalSize, err := leb128.ReadUleb128(r)
		if err != nil {
			return 0, err
		}

		if strIndex == len(symbol) && terminalSize != 0 {
			return uint64(r.Size()) - uint64(r.Len()), nil
		}

		r.Seek(int64(uint64(r.Size())-uint64(r.Len())+terminalSize), io.SeekStart)

		childCount, err := r.ReadByte()
		if err == io.EOF {
			break
		}

		nodeOffset = 0

		for i := childCount; i > 0; i-- {
			searchStrIndex := strIndex
			wrongEdge := false

			for {
				c, err := r.ReadByte()
				if err == io.EOF || c == '\x00' {
					break
				}
				if !wrongEdge {
					if searchStrIndex == len(symbol) || c != symbol[searchStrIndex] {
						wrongEdge = true
					}
					searchStrIndex++
				}
			}

			childOffset, err := leb128.ReadUleb128(r)
			if err != nil {
				return 0, err
			}

			if !wrongEdge {
				nodeOffset = childOffset
				strIndex = searchStrIndex
				break
			}
		}

		if nodeOffset == 0 {
			break
		}
		offset = nodeOffset
	}

	return 0, fmt.Errorf("%w: %s", ErrSymbolNotInTrie, symbol)
}
