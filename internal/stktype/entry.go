package stktype

import "github.com/opencontainers/go-digest"

// NoDuplicate is the DuplicateOf value of entries that own their payload.
const NoDuplicate = -1

// Entry represents one archive member.
type Entry struct {
	// Name is the name stored in the archive header (at most 12 bytes).
	Name string

	// Source is the path the payload is read from.
	Source string

	// Line is the manifest line that declared the entry, for diagnostics.
	Line int

	// RealSize is the uncompressed length of the source file.
	RealSize uint32

	// StoredSize is the number of payload bytes in the archive.
	// For compressed entries this is the chunk length including its size prefix.
	StoredSize uint32

	// Offset is the absolute archive offset of the payload.
	Offset uint32

	// Compression is the payload representation.
	Compression Compression

	// DuplicateOf is the catalog index of the entry whose payload is reused,
	// or NoDuplicate.
	DuplicateOf int

	// Digest is the sha256 digest of the source content.
	Digest digest.Digest

	// Inflated reports that compression was attempted but did not shrink the
	// payload, so the entry fell back to stored.
	Inflated bool
}

// IsDuplicate reports whether the entry reuses another entry's payload.
func (e *Entry) IsDuplicate() bool {
	return e.Compression == CompressionDuplicate
}
