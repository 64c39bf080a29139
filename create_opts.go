package stk

import (
	"log/slog"

	"github.com/meigma/stk/internal/write"
)

// createConfig holds configuration for archive creation.
type createConfig struct {
	force       bool
	skip        []write.SkipCompressionFunc
	logger      *slog.Logger
	progress    ProgressFunc
	concurrency int
	baseDir     string
	baseDirSet  bool
	verify      bool
}

// CreateOption configures archive creation.
type CreateOption func(*createConfig)

// CreateWithForceCompression tries to compress every entry, ignoring the
// manifest's per-file flags. Files shorter than 8 bytes are still stored.
func CreateWithForceCompression(force bool) CreateOption {
	return func(cfg *createConfig) {
		cfg.force = force
	}
}

// CreateWithSkipCompression adds predicates that decide to store an entry
// uncompressed. If any predicate returns true, compression is skipped.
func CreateWithSkipCompression(fns ...SkipCompressionFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.skip = append(cfg.skip, fns...)
	}
}

// CreateWithLogger sets the logger for diagnostics.
// If not set, logging is disabled.
func CreateWithLogger(logger *slog.Logger) CreateOption {
	return func(cfg *createConfig) {
		cfg.logger = logger
	}
}

// CreateWithProgress sets a callback to receive progress updates.
// The callback is invoked from the goroutine running Create.
func CreateWithProgress(fn ProgressFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.progress = fn
	}
}

// CreateWithConcurrency sets how many entries are compressed in parallel.
// Payloads are still written in manifest order. Values below 2 compress
// sequentially while writing, which keeps one payload in memory at a time.
func CreateWithConcurrency(n int) CreateOption {
	return func(cfg *createConfig) {
		cfg.concurrency = n
	}
}

// CreateWithBaseDir sets the directory that manifest filenames are resolved
// against. CreateFile defaults to the manifest's directory, Create to the
// working directory.
func CreateWithBaseDir(dir string) CreateOption {
	return func(cfg *createConfig) {
		cfg.baseDir = dir
		cfg.baseDirSet = true
	}
}

// CreateWithVerify re-reads the finished archive and checks every header
// record and payload against the sources.
func CreateWithVerify(verify bool) CreateOption {
	return func(cfg *createConfig) {
		cfg.verify = verify
	}
}
