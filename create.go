package stk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/stk/codec"
	"github.com/meigma/stk/internal/catalog"
	"github.com/meigma/stk/internal/file"
	"github.com/meigma/stk/internal/header"
	"github.com/meigma/stk/internal/manifest"
	"github.com/meigma/stk/internal/sizing"
	"github.com/meigma/stk/internal/write"
)

var errReaderAtRequired = errors.New("stk: verification requires an io.ReaderAt output")

// copyBufferSize is the buffer used to stream stored payloads.
const copyBufferSize = 32 * 1024

// Result describes a written archive.
type Result struct {
	// Path is the archive file path. Empty when the archive was written by Create.
	Path string

	// ArchiveName is the output name declared by the manifest.
	ArchiveName string

	// Entries lists the members in header order with their final payload fields.
	Entries []Entry

	// Size is the archive length in bytes.
	Size uint64
}

// Create builds an archive described by m and writes it to out.
//
// The whole catalog (source probing, name checks and duplicate detection) is
// resolved before the first byte is written, so configuration errors leave
// out untouched. out must be empty: the header is rewritten in place once
// all payloads are written, and nothing past the last payload is truncated.
//
// Create is sequential unless CreateWithConcurrency is set; payload offsets
// always follow manifest order.
func Create(ctx context.Context, m *Manifest, out io.WriteSeeker, opts ...CreateOption) (*Result, error) {
	w := newWriter(opts)
	cat, err := w.catalog(ctx, m)
	if err != nil {
		return nil, err
	}
	return w.write(ctx, m, cat, out)
}

// CreateFile reads the manifest at manifestPath and writes the archive to
// outPath. An empty outPath writes the manifest's declared archive name next
// to the manifest. Source files are resolved against the manifest's
// directory unless CreateWithBaseDir is given.
//
// On error the partially written output file is removed.
func CreateFile(ctx context.Context, manifestPath, outPath string, opts ...CreateOption) (*Result, error) {
	m, err := manifest.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(manifestPath)
	w := newWriter(opts)
	if !w.cfg.baseDirSet {
		w.cfg.baseDir = dir
	}
	if outPath == "" {
		outPath = filepath.Join(dir, m.ArchiveName)
	}

	cat, err := w.catalog(ctx, m)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(outPath) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}

	res, err := w.write(ctx, m, cat, f)
	if err != nil {
		f.Close()
		os.Remove(outPath)
		return nil, fmt.Errorf("create archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("close archive file: %w", err)
	}

	res.Path = outPath
	return res, nil
}

// writer holds state for archive creation.
type writer struct {
	cfg    createConfig
	logger *slog.Logger
}

func newWriter(opts []CreateOption) *writer {
	cfg := createConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &writer{cfg: cfg, logger: cfg.logger}
}

// log returns the logger, falling back to a discard logger if nil.
func (w *writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// reportProgress sends a progress event if a callback is configured.
func (w *writer) reportProgress(stage ProgressStage, name string, bytesDone uint64, done, total int) {
	if w.cfg.progress == nil {
		return
	}
	w.cfg.progress(ProgressEvent{
		Stage:        stage,
		Name:         name,
		BytesDone:    bytesDone,
		EntriesDone:  done,
		EntriesTotal: total,
	})
}

func (w *writer) catalog(ctx context.Context, m *Manifest) (*catalog.Catalog, error) {
	w.log().Info("building catalog", "archive", m.ArchiveName, "entries", len(m.Rows), "force", w.cfg.force)
	return catalog.Build(ctx, m.Rows, catalog.Options{
		Policy:   write.Policy{Force: w.cfg.force, Skip: w.cfg.skip},
		BaseDir:  w.cfg.baseDir,
		Logger:   w.log(),
		Progress: w.cfg.progress,
	})
}

// write emits the placeholder header, every payload and the final header.
func (w *writer) write(ctx context.Context, m *Manifest, cat *catalog.Catalog, out io.WriteSeeker) (*Result, error) {
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek archive start: %w", err)
	}
	placeholder, err := header.Placeholder(cat.Len())
	if err != nil {
		return nil, err
	}
	if _, err := out.Write(placeholder); err != nil {
		return nil, fmt.Errorf("write placeholder header: %w", err)
	}

	var chunks [][]byte
	if w.cfg.concurrency > 1 {
		chunks, err = w.precompress(ctx, cat)
		if err != nil {
			return nil, err
		}
	}

	pos := uint32(len(placeholder)) //nolint:gosec // bounded by the u16 entry count
	buf := make([]byte, copyBufferSize)
	total := cat.Len()
	for i := range total {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var chunk []byte
		if chunks != nil {
			chunk = chunks[i]
			chunks[i] = nil
		}
		pos, err = w.writeEntry(ctx, cat, i, pos, out, chunk, buf)
		if err != nil {
			return nil, err
		}
		w.reportProgress(stageOf(cat.Entry(i)), cat.Entry(i).Name, uint64(pos), i+1, total)
	}

	if err := w.rewriteHeader(out, cat, pos); err != nil {
		return nil, err
	}
	w.reportProgress(StageRewritingHeader, "", uint64(pos), total, total)

	res := &Result{
		ArchiveName: m.ArchiveName,
		Entries:     slices.Clone(cat.Entries()),
		Size:        uint64(pos),
	}
	w.log().Info("archive written", "archive", m.ArchiveName, "entries", total, "size", pos)

	if w.cfg.verify {
		ra, ok := out.(io.ReaderAt)
		if !ok {
			return nil, errReaderAtRequired
		}
		w.reportProgress(StageVerifying, "", res.Size, 0, total)
		if err := Verify(ctx, ra, res); err != nil {
			return nil, err
		}
		w.log().Info("archive verified", "archive", m.ArchiveName)
	}
	return res, nil
}

func stageOf(e Entry) ProgressStage {
	if e.Compression == CompressionDictionary {
		return StageCompressing
	}
	return StageStoring
}

// writeEntry writes the payload of entry i at pos and returns the position
// after it. chunk, when not nil, is the entry's already compressed payload.
func (w *writer) writeEntry(ctx context.Context, cat *catalog.Catalog, i int, pos uint32, out io.Writer, chunk, buf []byte) (uint32, error) {
	e := cat.Entry(i)
	if e.IsDuplicate() {
		orig := cat.Resolve(i)
		w.log().Info("identical file", "name", e.Name, "original", orig.Name, "stored_size", orig.StoredSize)
		return pos, nil
	}

	compression := e.Compression
	var size uint32
	if compression == CompressionDictionary {
		w.log().Debug("compressing entry", "name", e.Name, "real_size", e.RealSize)
		if chunk == nil {
			var err error
			if chunk, err = compressSource(e); err != nil {
				return 0, err
			}
		}
		if len(chunk) < int(e.RealSize) {
			if _, err := out.Write(chunk); err != nil {
				return 0, &EntryError{Name: e.Name, Err: fmt.Errorf("write payload: %w", err)}
			}
			size = uint32(len(chunk)) //nolint:gosec // smaller than RealSize
			w.log().Info("compressed entry", "name", e.Name, "real_size", e.RealSize, "stored_size", size)
		} else {
			w.log().Info("compression did not shrink entry, storing", "name", e.Name, "real_size", e.RealSize, "compressed_size", len(chunk))
			compression = CompressionStored
		}
	}

	if compression == CompressionStored {
		n, err := storeSource(ctx, out, e, buf)
		if err != nil {
			return 0, err
		}
		size = n
		w.log().Info("stored entry", "name", e.Name, "size", size)
	}

	if err := cat.SetPayload(i, pos, size, compression); err != nil {
		return 0, err
	}
	next, ok := sizing.AddUint32(pos, size)
	if !ok {
		return 0, &EntryError{Name: e.Name, Line: e.Line, Err: ErrSizeOverflow}
	}
	return next, nil
}

// precompress encodes every compression candidate concurrently. Each worker
// reads its own source and fills its own slot.
func (w *writer) precompress(ctx context.Context, cat *catalog.Catalog) ([][]byte, error) {
	chunks := make([][]byte, cat.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.concurrency)
	for i, e := range cat.Entries() {
		if e.Compression != CompressionDictionary {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunk, err := compressSource(e)
			if err != nil {
				return err
			}
			chunks[i] = chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (w *writer) rewriteHeader(out io.WriteSeeker, cat *catalog.Catalog, end uint32) error {
	records, err := cat.Records()
	if err != nil {
		return err
	}
	buf, err := header.Encode(records)
	if err != nil {
		return err
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek archive start: %w", err)
	}
	if _, err := out.Write(buf); err != nil {
		return fmt.Errorf("rewrite header: %w", err)
	}
	if _, err := out.Seek(int64(end), io.SeekStart); err != nil {
		return fmt.Errorf("seek archive end: %w", err)
	}
	return nil
}

// openSource opens the source of e and checks it still has its cataloged size.
func openSource(e Entry) (*os.File, error) {
	f, err := os.Open(e.Source) //nolint:gosec // Paths come from the manifest by design
	if err != nil {
		return nil, &EntryError{Name: e.Name, Line: e.Line, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &EntryError{Name: e.Name, Line: e.Line, Err: err}
	}
	if err := write.CheckFileUnchanged(e.Source, info, e.RealSize); err != nil {
		f.Close()
		return nil, &EntryError{Name: e.Name, Line: e.Line, Err: err}
	}
	return f, nil
}

// compressSource reads the source of e and returns its compressed chunk.
func compressSource(e Entry) ([]byte, error) {
	f, err := openSource(e)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := sizing.ReadAllWithLimit(f, uint64(e.RealSize), ErrSizeOverflow)
	if err != nil {
		return nil, &EntryError{Name: e.Name, Line: e.Line, Err: fmt.Errorf("read source: %w", err)}
	}
	if len(data) != int(e.RealSize) {
		return nil, &EntryError{Name: e.Name, Line: e.Line, Err: fmt.Errorf("file changed during archive creation: %s", e.Source)}
	}
	chunk, err := codec.Encode(data)
	if err != nil {
		return nil, &EntryError{Name: e.Name, Line: e.Line, Err: err}
	}
	return chunk, nil
}

// storeSource copies the source of e verbatim and returns the bytes written.
func storeSource(ctx context.Context, out io.Writer, e Entry, buf []byte) (uint32, error) {
	f, err := openSource(e)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cw := &file.CountingWriter{W: out}
	if _, err := file.CopyWithContext(ctx, cw, io.LimitReader(f, int64(e.RealSize)), buf); err != nil {
		return 0, &EntryError{Name: e.Name, Line: e.Line, Err: fmt.Errorf("store payload: %w", err)}
	}
	if cw.N != uint64(e.RealSize) {
		return 0, &EntryError{Name: e.Name, Line: e.Line, Err: fmt.Errorf("file changed during archive creation: expected %d bytes, copied %d", e.RealSize, cw.N)}
	}
	return e.RealSize, nil
}
