// Package codec implements the dictionary compression used by STK/ITK archive
// payloads.
//
// A compressed chunk is a 4-byte little-endian original length followed by a
// stream of command groups. Each group starts with a control byte whose bits,
// read from least to most significant, select the kind of up to eight
// operations:
//   - bit set: literal, one byte copied verbatim
//   - bit clear: match, two bytes holding a 12-bit dictionary position and a
//     4-bit length minus three (lengths 3..18)
//
// Both sides keep a 4096-byte circular dictionary filled with spaces (0x20)
// and start writing at position 4078. These constants are part of the format
// and must not change.
package codec

import "errors"

// Format constants.
const (
	// WindowSize is the number of positions in the circular dictionary.
	WindowSize = 4096

	// SeedPosition is the dictionary write cursor at the start of a chunk.
	SeedPosition = 4078

	// Filler is the initial value of every dictionary cell.
	Filler = 0x20

	// MinMatch is the shortest match the encoder emits.
	MinMatch = 3

	// MaxMatch is the longest match a 4-bit length field can describe.
	MaxMatch = MinMatch + 0x0F

	// MinInputSize is the smallest buffer Encode accepts. The first three
	// bytes are always emitted as literals.
	MinInputSize = 8

	// HeaderSize is the length of the original-size prefix.
	HeaderSize = 4

	// MaxGroupSize is the largest command group: a control byte and eight
	// two-byte match operands.
	MaxGroupSize = 1 + 8*2

	windowMask = WindowSize - 1
	seedLength = 3
)

// Sentinel errors.
var (
	// ErrInputTooSmall is returned when Encode receives fewer than MinInputSize bytes.
	ErrInputTooSmall = errors.New("codec: input shorter than 8 bytes")

	// ErrInputTooLarge is returned when the input length does not fit the 32-bit size prefix.
	ErrInputTooLarge = errors.New("codec: input larger than 4GiB")

	// ErrTruncated is returned when a chunk ends before the declared length is produced.
	ErrTruncated = errors.New("codec: truncated chunk")

	// ErrCorrupt is returned when a chunk is structurally invalid.
	ErrCorrupt = errors.New("codec: corrupt chunk")
)

// newDictionary returns a dictionary in its initial state.
func newDictionary() *[WindowSize]byte {
	var d [WindowSize]byte
	for i := range d {
		d[i] = Filler
	}
	return &d
}
