package stk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/meigma/stk/codec"
	"github.com/meigma/stk/internal/file"
	"github.com/meigma/stk/internal/header"
)

// Verify checks a written archive against the result of its creation.
//
// It decodes the header and compares every record with the entry it
// describes (duplicates must repeat their original's size, offset and
// flag), checks that payloads are contiguous in manifest order and end
// exactly at res.Size, and compares every payload with its source file,
// decompressing where needed.
func Verify(ctx context.Context, archive io.ReaderAt, res *Result) error {
	records, err := header.Decode(io.NewSectionReader(archive, 0, math.MaxInt64))
	if err != nil {
		return err
	}
	if len(records) != len(res.Entries) {
		return fmt.Errorf("%w: header lists %d entries, expected %d", ErrVerifyMismatch, len(records), len(res.Entries))
	}

	next := uint64(header.Size(len(records)))
	for i, e := range res.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		owner := e
		if e.IsDuplicate() {
			owner = res.Entries[e.DuplicateOf]
		}

		want := HeaderRecord{
			Name:   e.Name,
			Size:   owner.StoredSize,
			Offset: owner.Offset,
			Flag:   owner.Compression.Flag(),
		}
		if records[i] != want {
			return mismatch(e, fmt.Sprintf("header record %+v, expected %+v", records[i], want))
		}
		if e.IsDuplicate() {
			continue
		}

		if uint64(e.Offset) != next {
			return mismatch(e, fmt.Sprintf("payload at offset %d, expected %d", e.Offset, next))
		}
		next += uint64(e.StoredSize)

		if err := verifyPayload(archive, e); err != nil {
			return err
		}
	}

	if next != res.Size {
		return fmt.Errorf("%w: payloads end at %d, archive size is %d", ErrVerifyMismatch, next, res.Size)
	}
	var probe [1]byte
	if n, _ := archive.ReadAt(probe[:], int64(res.Size)); n != 0 { //nolint:gosec // archive sizes fit in 32 bits
		return fmt.Errorf("%w: trailing bytes after offset %d", ErrVerifyMismatch, res.Size)
	}
	return nil
}

func verifyPayload(archive io.ReaderAt, e Entry) error {
	payload := make([]byte, e.StoredSize)
	if n, err := archive.ReadAt(payload, int64(e.Offset)); n != len(payload) {
		return &EntryError{Name: e.Name, Err: fmt.Errorf("%w: read payload: %d of %d bytes: %w", ErrVerifyMismatch, n, len(payload), err)}
	}

	content := payload
	if e.Compression == CompressionDictionary {
		if e.StoredSize >= e.RealSize {
			return mismatch(e, fmt.Sprintf("compressed payload of %d bytes does not shrink %d", e.StoredSize, e.RealSize))
		}
		decoded, err := codec.Decode(payload)
		if err != nil {
			return &EntryError{Name: e.Name, Err: fmt.Errorf("%w: %w", ErrVerifyMismatch, err)}
		}
		content = decoded
	}
	if len(content) != int(e.RealSize) {
		return mismatch(e, fmt.Sprintf("payload holds %d bytes, expected %d", len(content), e.RealSize))
	}

	src, err := os.Open(e.Source) //nolint:gosec // Paths come from the manifest by design
	if err != nil {
		return &EntryError{Name: e.Name, Err: err}
	}
	defer src.Close()

	same, err := file.SameContent(bytes.NewReader(content), src)
	if err != nil {
		return &EntryError{Name: e.Name, Err: err}
	}
	if !same {
		return mismatch(e, "payload differs from source")
	}
	return nil
}

func mismatch(e Entry, msg string) error {
	return &EntryError{Name: e.Name, Line: e.Line, Err: fmt.Errorf("%w: %s", ErrVerifyMismatch, msg)}
}
