package stktype

// Compression records how an entry's payload is represented in the archive.
type Compression uint8

const (
	// CompressionStored writes the source bytes verbatim.
	CompressionStored Compression = iota

	// CompressionDictionary writes a dictionary-compressed chunk.
	CompressionDictionary

	// CompressionDuplicate reuses the payload of an earlier entry.
	CompressionDuplicate
)

// String returns the human-readable name of the representation.
func (c Compression) String() string {
	switch c {
	case CompressionStored:
		return "stored"
	case CompressionDictionary:
		return "compressed"
	case CompressionDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Flag returns the on-disk header flag. Duplicates never reach the header
// directly; their referenced entry's flag is written instead.
func (c Compression) Flag() byte {
	if c == CompressionDictionary {
		return 1
	}
	return 0
}
