package codec

import (
	"encoding/binary"
	"fmt"
)

// DecodedLen returns the original length declared by a chunk.
func DecodedLen(src []byte) (int, error) {
	if len(src) < HeaderSize {
		return 0, ErrTruncated
	}
	return int(binary.LittleEndian.Uint32(src)), nil
}

// Decode expands a chunk produced by Encode.
//
// Decoding stops once the declared length has been produced. Bytes left in
// the chunk after that point, or a match running past the declared length,
// are reported as ErrCorrupt.
func Decode(src []byte) ([]byte, error) {
	size, err := DecodedLen(src)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, 0, size)
	dict := newDictionary()
	cursor := SeedPosition
	in := src[HeaderSize:]

	for len(dst) < size {
		if len(in) == 0 {
			return nil, ErrTruncated
		}
		flags := in[0]
		in = in[1:]

		for bit := 0; bit < 8 && len(dst) < size; bit++ {
			if flags&(1<<bit) != 0 {
				if len(in) < 1 {
					return nil, ErrTruncated
				}
				b := in[0]
				in = in[1:]
				dict[cursor] = b
				cursor = (cursor + 1) & windowMask
				dst = append(dst, b)
				continue
			}

			if len(in) < 2 {
				return nil, ErrTruncated
			}
			pos := int(in[0]) | int(in[1]&0xF0)<<4
			length := int(in[1]&0x0F) + MinMatch
			in = in[2:]
			if len(dst)+length > size {
				return nil, fmt.Errorf("%w: match of %d bytes overruns declared length %d", ErrCorrupt, length, size)
			}
			for i := range length {
				b := dict[(pos+i)&windowMask]
				dict[cursor] = b
				cursor = (cursor + 1) & windowMask
				dst = append(dst, b)
			}
		}
	}

	if len(in) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(in))
	}
	return dst, nil
}
