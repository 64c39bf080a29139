package stktype

import (
	"errors"
	"fmt"
)

// Configuration errors. These are detected before any archive is finalized.
var (
	// ErrUnknownSignature is returned when the manifest signature is not recognized.
	ErrUnknownSignature = errors.New("stk: unknown format signature")

	// ErrUnsupportedSignature is returned for recognized formats this writer cannot produce.
	ErrUnsupportedSignature = errors.New("stk: unsupported format signature")

	// ErrEmptyManifest is returned when the manifest lacks the archive name or signature.
	ErrEmptyManifest = errors.New("stk: manifest is empty")

	// ErrMissingFlag is returned when a manifest filename has no compression flag.
	ErrMissingFlag = errors.New("stk: missing compression flag")

	// ErrDuplicateName is returned when two entries share a name.
	ErrDuplicateName = errors.New("stk: duplicate entry name")

	// ErrNameTooLong is returned when a name does not fit the 13-byte header field.
	ErrNameTooLong = errors.New("stk: entry name longer than 12 bytes")

	// ErrEmptyName is returned for entries without a name.
	ErrEmptyName = errors.New("stk: empty entry name")

	// ErrTooManyEntries is returned when the entry count does not fit the 16-bit header field.
	ErrTooManyEntries = errors.New("stk: too many entries")
)

// Archive errors.
var (
	// ErrSizeOverflow is returned when a size or offset exceeds the 32-bit header fields.
	ErrSizeOverflow = errors.New("stk: size overflow")

	// ErrInvalidHeader is returned when an archive header cannot be decoded.
	ErrInvalidHeader = errors.New("stk: invalid archive header")

	// ErrVerifyMismatch is returned when a written archive does not match its sources.
	ErrVerifyMismatch = errors.New("stk: archive verification failed")
)

var configErrors = []error{
	ErrUnknownSignature,
	ErrUnsupportedSignature,
	ErrEmptyManifest,
	ErrMissingFlag,
	ErrDuplicateName,
	ErrNameTooLong,
	ErrEmptyName,
	ErrTooManyEntries,
}

// IsConfigError reports whether err stems from an invalid manifest rather
// than from I/O.
func IsConfigError(err error) bool {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// EntryError attaches the offending entry and manifest line to an error.
type EntryError struct {
	Name string
	Line int
	Err  error
}

// Error returns the error message for EntryError.
func (e *EntryError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (manifest line %d): %v", e.Name, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *EntryError) Unwrap() error {
	return e.Err
}
