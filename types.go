package stk

import (
	"github.com/meigma/stk/internal/header"
	"github.com/meigma/stk/internal/manifest"
	"github.com/meigma/stk/internal/stktype"
	"github.com/meigma/stk/internal/write"
)

// Entry represents one archive member.
type Entry = stktype.Entry

// Compression records how an entry's payload is represented.
type Compression = stktype.Compression

// EntryError attaches the offending entry and manifest line to an error.
type EntryError = stktype.EntryError

// Manifest is a parsed archive configuration.
type Manifest = manifest.Manifest

// ManifestRow is one entry declared by a manifest.
type ManifestRow = manifest.Row

// HeaderRecord is one decoded archive header record.
type HeaderRecord = header.Record

// SkipCompressionFunc returns true when an entry should be stored uncompressed.
type SkipCompressionFunc = write.SkipCompressionFunc

// Compression constants.
const (
	CompressionStored     = stktype.CompressionStored
	CompressionDictionary = stktype.CompressionDictionary
	CompressionDuplicate  = stktype.CompressionDuplicate
)

// Manifest signatures.
const (
	SignatureSTK10 = manifest.SignatureSTK10
	SignatureSTK21 = manifest.SignatureSTK21
)

// Header layout constants.
const (
	// HeaderRecordSize is the on-disk size of one header record.
	HeaderRecordSize = header.RecordSize

	// MaxNameLen is the longest entry name the header can hold.
	MaxNameLen = header.MaxNameLen
)

var (
	// ParseManifest reads a manifest from a reader.
	ParseManifest = manifest.Parse

	// ReadManifestFile parses the manifest stored at a path.
	ReadManifestFile = manifest.ReadFile

	// ReadHeader decodes the header of an existing archive.
	ReadHeader = header.Decode

	// DefaultSkipCompression skips known already-compressed extensions.
	DefaultSkipCompression = write.DefaultSkipCompression

	// SkipExtensions skips the given extensions.
	SkipExtensions = write.SkipExtensions
)
