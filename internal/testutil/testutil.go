// Package testutil provides fixtures shared by the archive tests.
package testutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SeekBuffer is an in-memory io.WriteSeeker that also implements io.ReaderAt,
// standing in for the output archive file.
type SeekBuffer struct {
	data []byte
	pos  int64
}

// NewSeekBuffer returns an empty buffer.
func NewSeekBuffer() *SeekBuffer {
	return &SeekBuffer{}
}

// Write implements io.Writer, overwriting existing bytes at the current position.
func (b *SeekBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (b *SeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("testutil: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("testutil: negative position")
	}
	b.pos = abs
	return abs, nil
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (b *SeekBuffer) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the backing slice.
func (b *SeekBuffer) Bytes() []byte {
	return b.data
}

// Size returns the total size of the backing data.
func (b *SeekBuffer) Size() int64 {
	return int64(len(b.data))
}

// Row is one manifest entry for WriteManifest.
type Row struct {
	Name string
	Flag string
}

// WriteFiles writes each name/content pair into dir.
func WriteFiles(tb testing.TB, dir string, files map[string][]byte) {
	tb.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0o600); err != nil {
			tb.Fatalf("write %s: %v", path, err)
		}
	}
}

// WriteManifest writes a manifest declaring archiveName and rows into dir and
// returns its path.
func WriteManifest(tb testing.TB, dir, archiveName string, rows ...Row) string {
	tb.Helper()
	var sb strings.Builder
	sb.WriteString(archiveName + "\n")
	sb.WriteString("STK10\n")
	for _, r := range rows {
		sb.WriteString(r.Name + "\n" + r.Flag + "\n")
	}
	path := filepath.Join(dir, "archive.gob")
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		tb.Fatalf("write manifest: %v", err)
	}
	return path
}
