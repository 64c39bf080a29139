package codec

import (
	"encoding/binary"
	"math"
)

// Encode compresses src into a self-describing chunk.
//
// The search is exhaustive over the whole dictionary for every token, so the
// output is fully determined by the input. src must hold at least
// MinInputSize bytes.
func Encode(src []byte) ([]byte, error) {
	if len(src) < MinInputSize {
		return nil, ErrInputTooSmall
	}
	if uint64(len(src)) > math.MaxUint32 {
		return nil, ErrInputTooLarge
	}

	out := make([]byte, HeaderSize, HeaderSize+len(src)+len(src)/8+MaxGroupSize)
	binary.LittleEndian.PutUint32(out, uint32(len(src))) //nolint:gosec // checked above

	e := encoder{dict: newDictionary(), cursor: SeedPosition}

	// The first three bytes are forced literals; group[0] is reserved for the
	// control byte.
	var group [MaxGroupSize]byte
	copy(e.dict[e.cursor:], src[:seedLength])
	copy(group[1:], src[:seedLength])
	e.cursor += seedLength
	flags := byte(1<<seedLength - 1)
	op := seedLength
	n := 1 + seedLength

	read := seedLength
	for read < len(src) {
		pos, length := e.longestMatch(src[read:])
		if length < MinMatch {
			b := src[read]
			e.dict[e.cursor] = b
			e.cursor = (e.cursor + 1) & windowMask
			group[n] = b
			n++
			flags |= 1 << op
			read++
		} else {
			e.copyMatch(pos, length)
			group[n] = byte(pos)
			group[n+1] = byte((pos&0x0F00)>>4) | byte(length-MinMatch)
			n += 2
			read += length
		}

		if op == 7 || read == len(src) {
			group[0] = flags
			out = append(out, group[:n]...)
			n = 1
			flags = 0
			op = 0
		} else {
			op++
		}
	}

	return out, nil
}

type encoder struct {
	dict   *[WindowSize]byte
	cursor int
}

// longestMatch scans every dictionary position for the longest prefix of
// rest, up to MaxMatch bytes. Ties keep the lowest position. The cell under
// the write cursor may only be used as the first byte of a match, since a
// later byte there would not exist yet when a decoder replays the copy.
func (e *encoder) longestMatch(rest []byte) (pos, length int) {
	if len(rest) < MinMatch {
		return 0, 0
	}
	limit := min(MaxMatch, len(rest))

	best := MinMatch - 1
	bestPos := 0
	for p := range WindowSize {
		l := 0
		for l < limit {
			cell := (p + l) & windowMask
			if rest[l] != e.dict[cell] || (cell == e.cursor && l != 0) {
				break
			}
			l++
		}
		if l > best {
			best, bestPos = l, p
			if best == MaxMatch {
				break
			}
		}
	}

	if best < MinMatch {
		return 0, 0
	}
	return bestPos, best
}

// copyMatch replays a match inside the dictionary, one byte at a time, so
// that overlapping source and destination behave exactly as in a decoder.
func (e *encoder) copyMatch(pos, length int) {
	for i := range length {
		e.dict[(e.cursor+i)&windowMask] = e.dict[(pos+i)&windowMask]
	}
	e.cursor = (e.cursor + length) & windowMask
}
