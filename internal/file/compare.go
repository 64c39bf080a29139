package file

import (
	"bytes"
	"io"
)

// BlockSize is the read size used when comparing files.
const BlockSize = 4096

// SameContent reports whether a and b yield identical bytes. Both readers are
// consumed block by block and the first differing block stops the comparison.
func SameContent(a, b io.Reader) (bool, error) {
	bufA := make([]byte, BlockSize)
	bufB := make([]byte, BlockSize)
	for {
		na, errA := io.ReadFull(a, bufA)
		nb, errB := io.ReadFull(b, bufB)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, errA
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return false, errB
		}
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if na < BlockSize {
			return true, nil
		}
	}
}
