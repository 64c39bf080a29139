// Package write holds the per-entry policy decisions of archive creation.
package write

import (
	"path/filepath"
	"strings"

	"github.com/meigma/stk/codec"
)

// MinCompressSize is the smallest file the codec can compress. Smaller files
// are always stored.
const MinCompressSize = codec.MinInputSize

// SkipCompressionFunc returns true when a file should be stored uncompressed.
// It is called once per entry and should be inexpensive.
type SkipCompressionFunc func(name string, size int64) bool

// DefaultSkipCompression returns a SkipCompressionFunc that skips known
// already-compressed extensions.
func DefaultSkipCompression() SkipCompressionFunc {
	return func(name string, _ int64) bool {
		ext := strings.ToLower(filepath.Ext(name))
		_, ok := defaultSkipCompressionExts[ext]
		return ok
	}
}

// SkipExtensions returns a SkipCompressionFunc matching the given extensions,
// case-insensitively. A leading dot is optional.
func SkipExtensions(exts ...string) SkipCompressionFunc {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return func(name string, _ int64) bool {
		_, ok := set[strings.ToLower(filepath.Ext(name))]
		return ok
	}
}

// ShouldSkip checks if any predicate returns true for the given file.
func ShouldSkip(name string, size int64, predicates []SkipCompressionFunc) bool {
	for _, fn := range predicates {
		if fn == nil {
			continue
		}
		if fn(name, size) {
			return true
		}
	}
	return false
}

// Policy decides which entries are compression candidates.
type Policy struct {
	// Force compresses every entry regardless of its manifest flag.
	Force bool

	// Skip lists predicates that keep an entry stored.
	Skip []SkipCompressionFunc
}

// Candidate reports whether an entry should be compressed. requested is the
// manifest flag and size the source length.
func (p Policy) Candidate(name string, requested bool, size int64) bool {
	if !requested && !p.Force {
		return false
	}
	if size < MinCompressSize {
		return false
	}
	return !ShouldSkip(name, size, p.Skip)
}

var defaultSkipCompressionExts = map[string]struct{}{
	".7z":   {},
	".bz2":  {},
	".flac": {},
	".gif":  {},
	".gz":   {},
	".jpeg": {},
	".jpg":  {},
	".mp3":  {},
	".ogg":  {},
	".png":  {},
	".rar":  {},
	".zip":  {},
}
