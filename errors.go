package stk

import "github.com/meigma/stk/internal/stktype"

// Configuration errors.
var (
	// ErrUnknownSignature is returned when the manifest signature is not recognized.
	ErrUnknownSignature = stktype.ErrUnknownSignature

	// ErrUnsupportedSignature is returned for the STK 2.1 signature.
	ErrUnsupportedSignature = stktype.ErrUnsupportedSignature

	// ErrEmptyManifest is returned when the manifest lacks the archive name or signature.
	ErrEmptyManifest = stktype.ErrEmptyManifest

	// ErrMissingFlag is returned when a manifest filename has no compression flag.
	ErrMissingFlag = stktype.ErrMissingFlag

	// ErrDuplicateName is returned when two entries share a name.
	ErrDuplicateName = stktype.ErrDuplicateName

	// ErrNameTooLong is returned when a name does not fit the header.
	ErrNameTooLong = stktype.ErrNameTooLong

	// ErrEmptyName is returned for entries without a name.
	ErrEmptyName = stktype.ErrEmptyName

	// ErrTooManyEntries is returned when the entry count does not fit the header.
	ErrTooManyEntries = stktype.ErrTooManyEntries
)

// Archive errors.
var (
	// ErrSizeOverflow is returned when a size or offset exceeds 32 bits.
	ErrSizeOverflow = stktype.ErrSizeOverflow

	// ErrInvalidHeader is returned when an archive header cannot be decoded.
	ErrInvalidHeader = stktype.ErrInvalidHeader

	// ErrVerifyMismatch is returned when a written archive does not match its sources.
	ErrVerifyMismatch = stktype.ErrVerifyMismatch

	// ErrReaderAtRequired is returned when verification is requested on an
	// output that cannot be read back.
	ErrReaderAtRequired = errReaderAtRequired
)

// IsConfigError reports whether err stems from an invalid manifest rather
// than from I/O. Configuration errors are detected before the archive is
// written.
func IsConfigError(err error) bool {
	return stktype.IsConfigError(err)
}
