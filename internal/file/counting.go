package file

import (
	"errors"
	"io"
)

// ErrOverflow indicates a counter exceeded its maximum value.
var ErrOverflow = errors.New("counter overflow")

// CountingReader counts the bytes read through it. The catalog uses it to
// learn a source's real size while the content is being digested.
type CountingReader struct {
	R io.Reader
	N uint64
}

// Read implements io.Reader.
func (cr *CountingReader) Read(p []byte) (int, error) {
	n, err := cr.R.Read(p)
	if err := add(&cr.N, n); err != nil {
		return n, err
	}
	return n, err
}

// CountingWriter counts the bytes written through it, giving the archive
// writer its current payload offset without seeking.
type CountingWriter struct {
	W io.Writer
	N uint64
}

// Write implements io.Writer.
func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	if err := add(&cw.N, n); err != nil {
		return n, err
	}
	return n, err
}

func add(counter *uint64, n int) error {
	if n <= 0 {
		return nil
	}
	//nolint:gosec // n is positive
	if *counter > ^uint64(0)-uint64(n) {
		return ErrOverflow
	}
	*counter += uint64(n) //nolint:gosec // overflow checked above
	return nil
}
