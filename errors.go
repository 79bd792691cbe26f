package classdump

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when the input is not a Mach-O the
	// parser understands (bad magic, byte-swapped 64-bit image).
	ErrInvalidFormat = errors.New("invalid Mach-O format")

	// ErrFileCorrupt is returned when the header or a load command
	// declares sizes that do not fit the file.
	ErrFileCorrupt = errors.New("file is corrupt")

	// ErrAddressResolution is returned when a virtual address has no
	// file backing (zero-fill, or outside every mapped segment).
	ErrAddressResolution = errors.New("address has no file backing")

	// ErrSectionNotFound is returned when a named section is absent.
	ErrSectionNotFound = errors.New("section not found")

	// ErrNoObjC is returned when an image carries no Objective-C
	// runtime metadata at all.
	ErrNoObjC = errors.New("macho does not contain objc metadata")

	// ErrOpcodeInvalid is returned when a dyld info stream contains an
	// opcode the interpreter does not know.
	ErrOpcodeInvalid = errors.New("invalid dyld info opcode")
)

// FormatError records where in the file a structural fault was found.
// It wraps one of the sentinel errors above so callers can test the
// fault class with errors.Is.
type FormatError struct {
	off int64
	msg string
	val interface{}
	err error
}

func formatError(off int64, err error, msg string, val interface{}) *FormatError {
	return &FormatError{off: off, msg: msg, val: val, err: err}
}

func (e *FormatError) Error() string {
	msg := e.msg
	if e.val != nil {
		msg += fmt.Sprintf(" '%v'", e.val)
	}
	msg += fmt.Sprintf(" in record at byte %#x", e.off)
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.err
}
