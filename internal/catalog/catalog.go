// Package catalog builds the ordered entry list of an archive from a manifest
// and collapses byte-identical sources onto a single payload.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/stk/internal/file"
	"github.com/meigma/stk/internal/header"
	"github.com/meigma/stk/internal/manifest"
	"github.com/meigma/stk/internal/sizing"
	"github.com/meigma/stk/internal/stktype"
	"github.com/meigma/stk/internal/write"
)

var (
	errPayloadSet    = errors.New("catalog: payload already recorded")
	errDuplicateSlot = errors.New("catalog: duplicate entries own no payload")
	errPayloadMiss   = errors.New("catalog: payload not recorded")
)

// Options configures catalog construction.
type Options struct {
	// Policy selects compression candidates.
	Policy write.Policy

	// BaseDir is the directory source names are resolved against.
	BaseDir string

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger

	// Progress receives per-entry events. Nil disables reporting.
	Progress stktype.ProgressFunc
}

// Catalog is the ordered list of archive entries.
//
// It is append-only while being built. Afterwards only the payload fields of
// non-duplicate entries change, once each, through SetPayload.
type Catalog struct {
	entries []stktype.Entry
	filled  []bool
}

// Build probes every manifest row in order and returns the resulting catalog.
func Build(ctx context.Context, rows []manifest.Row, opts Options) (*Catalog, error) {
	if len(rows) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d entries", stktype.ErrTooManyEntries, len(rows))
	}

	b := builder{
		opts:   opts,
		log:    opts.Logger,
		byName: make(map[string]int, len(rows)),
		cat: &Catalog{
			entries: make([]stktype.Entry, 0, len(rows)),
		},
	}
	if b.log == nil {
		b.log = slog.New(slog.DiscardHandler)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.add(row); err != nil {
			return nil, err
		}
	}

	b.cat.filled = make([]bool, len(b.cat.entries))
	return b.cat, nil
}

type builder struct {
	opts   Options
	log    *slog.Logger
	byName map[string]int
	cat    *Catalog
}

func (b *builder) add(row manifest.Row) error {
	fail := func(err error) error {
		return &stktype.EntryError{Name: row.Name, Line: row.Line, Err: err}
	}

	if err := header.ValidateName(row.Name); err != nil {
		return fail(err)
	}
	if prev, ok := b.byName[row.Name]; ok {
		return fail(fmt.Errorf("%w: first declared on line %d", stktype.ErrDuplicateName, b.cat.entries[prev].Line))
	}

	source := filepath.Join(b.opts.BaseDir, filepath.FromSlash(row.Name))
	size, sum, err := probe(source)
	if err != nil {
		return fail(err)
	}

	entry := stktype.Entry{
		Name:        row.Name,
		Source:      source,
		Line:        row.Line,
		RealSize:    size,
		Compression: stktype.CompressionStored,
		DuplicateOf: stktype.NoDuplicate,
		Digest:      sum,
	}
	if b.opts.Policy.Candidate(row.Name, row.Compress, int64(size)) {
		entry.Compression = stktype.CompressionDictionary
	}

	idx := len(b.cat.entries)
	b.report(stktype.StageCataloging, row.Name, idx)

	dup, err := b.findDuplicate(&entry)
	if err != nil {
		return fail(err)
	}
	if dup != stktype.NoDuplicate {
		orig := &b.cat.entries[dup]
		entry.Compression = stktype.CompressionDuplicate
		entry.DuplicateOf = dup
		b.log.Info("identical files", "name", entry.Name, "original", orig.Name, "size", entry.RealSize)
	}

	b.log.Debug("cataloged entry",
		"name", entry.Name,
		"real_size", entry.RealSize,
		"compression", entry.Compression.String(),
		"digest", entry.Digest.String(),
	)

	b.byName[row.Name] = idx
	b.cat.entries = append(b.cat.entries, entry)
	return nil
}

// findDuplicate compares entry with every earlier payload-owning entry of the
// same size. Digests rule out most candidates; a block-wise comparison of the
// files decides.
func (b *builder) findDuplicate(entry *stktype.Entry) (int, error) {
	for i := range b.cat.entries {
		prior := &b.cat.entries[i]
		if prior.IsDuplicate() || prior.RealSize != entry.RealSize || prior.Digest != entry.Digest {
			continue
		}
		b.report(stktype.StageComparing, entry.Name, len(b.cat.entries))
		same, err := sameFile(entry.Source, prior.Source)
		if err != nil {
			return stktype.NoDuplicate, err
		}
		if same {
			return i, nil
		}
	}
	return stktype.NoDuplicate, nil
}

func (b *builder) report(stage stktype.ProgressStage, name string, done int) {
	if b.opts.Progress == nil {
		return
	}
	b.opts.Progress(stktype.ProgressEvent{
		Stage:       stage,
		Name:        name,
		EntriesDone: done,
	})
}

// probe reads a source file once, returning its length and content digest.
func probe(path string) (uint32, digest.Digest, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from the manifest by design
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	cr := &file.CountingReader{R: f}
	sum, err := digest.Canonical.FromReader(cr)
	if err != nil {
		return 0, "", fmt.Errorf("read %s: %w", path, err)
	}
	size, err := sizing.ToUint32(int64(cr.N), stktype.ErrSizeOverflow) //nolint:gosec // bounded by file size
	if err != nil {
		return 0, "", err
	}
	return size, sum, nil
}

func sameFile(a, b string) (bool, error) {
	fa, err := os.Open(a) //nolint:gosec // Paths come from the manifest by design
	if err != nil {
		return false, err
	}
	defer fa.Close()

	fb, err := os.Open(b) //nolint:gosec // Paths come from the manifest by design
	if err != nil {
		return false, err
	}
	defer fb.Close()

	return file.SameContent(fa, fb)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the entries in archive order. The slice must not be modified.
func (c *Catalog) Entries() []stktype.Entry {
	return c.entries
}

// Entry returns the entry at index i.
func (c *Catalog) Entry(i int) stktype.Entry {
	return c.entries[i]
}

// Resolve returns the entry that owns the payload of entry i: the entry
// itself, or the one it duplicates.
func (c *Catalog) Resolve(i int) stktype.Entry {
	e := c.entries[i]
	if e.IsDuplicate() {
		return c.entries[e.DuplicateOf]
	}
	return e
}

// SetPayload records where the payload of entry i was written and how. It
// may be called once per payload-owning entry.
func (c *Catalog) SetPayload(i int, offset, size uint32, compression stktype.Compression) error {
	e := &c.entries[i]
	switch {
	case e.IsDuplicate():
		return &stktype.EntryError{Name: e.Name, Err: errDuplicateSlot}
	case c.filled[i]:
		return &stktype.EntryError{Name: e.Name, Err: errPayloadSet}
	}
	e.Inflated = e.Compression == stktype.CompressionDictionary && compression == stktype.CompressionStored
	e.Offset = offset
	e.StoredSize = size
	e.Compression = compression
	c.filled[i] = true
	return nil
}

// Records returns the header records of the catalog. Duplicates carry the
// size, offset and flag of the entry they reference.
func (c *Catalog) Records() ([]header.Record, error) {
	records := make([]header.Record, len(c.entries))
	for i, e := range c.entries {
		owner := i
		if e.IsDuplicate() {
			owner = e.DuplicateOf
		}
		if !c.filled[owner] {
			return nil, &stktype.EntryError{Name: e.Name, Err: errPayloadMiss}
		}
		src := c.entries[owner]
		records[i] = header.Record{
			Name:   e.Name,
			Size:   src.StoredSize,
			Offset: src.Offset,
			Flag:   src.Compression.Flag(),
		}
	}
	return records, nil
}
