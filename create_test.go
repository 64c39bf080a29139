package stk

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/stk/codec"
	"github.com/meigma/stk/internal/testutil"
)

func readArchive(t *testing.T, path string) ([]byte, []HeaderRecord) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)
	return data, records
}

// payloadOf returns the uncompressed content a header record points at.
func payloadOf(t *testing.T, archive []byte, r HeaderRecord) []byte {
	t.Helper()
	require.LessOrEqual(t, int(r.Offset)+int(r.Size), len(archive))
	payload := archive[r.Offset : r.Offset+r.Size]
	if r.Flag == 0 {
		return payload
	}
	out, err := codec.Decode(payload)
	require.NoError(t, err)
	return out
}

func TestCreateFileScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ab := bytes.Repeat([]byte("AB"), 50)
	testutil.WriteFiles(t, dir, map[string][]byte{
		"A.BIN": []byte("sixb.."),
		"B.BIN": ab,
		"C.BIN": ab,
	})
	manifestPath := testutil.WriteManifest(t, dir, "GOB.STK",
		testutil.Row{Name: "A.BIN", Flag: "0"},
		testutil.Row{Name: "B.BIN", Flag: "1"},
		testutil.Row{Name: "C.BIN", Flag: "1"},
	)

	res, err := CreateFile(context.Background(), manifestPath, "", CreateWithVerify(true))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "GOB.STK"), res.Path)
	assert.Equal(t, "GOB.STK", res.ArchiveName)

	a, b, c := res.Entries[0], res.Entries[1], res.Entries[2]
	assert.Equal(t, CompressionStored, a.Compression)
	assert.Equal(t, CompressionDictionary, b.Compression)
	assert.Less(t, b.StoredSize, uint32(100))
	assert.Equal(t, CompressionDuplicate, c.Compression)
	assert.Equal(t, 1, c.DuplicateOf)

	archive, records := readArchive(t, res.Path)
	require.Len(t, records, 3)
	assert.Equal(t, HeaderRecord{Name: "A.BIN", Size: 6, Offset: 2 + 3*22, Flag: 0}, records[0])
	assert.Equal(t, HeaderRecord{Name: "B.BIN", Size: b.StoredSize, Offset: 2 + 3*22 + 6, Flag: 1}, records[1])
	assert.Equal(t, HeaderRecord{Name: "C.BIN", Size: b.StoredSize, Offset: records[1].Offset, Flag: 1}, records[2])

	wantSize := 2 + 3*(13+4+4+1) + 6 + int(b.StoredSize)
	assert.Len(t, archive, wantSize)
	assert.Equal(t, uint64(wantSize), res.Size)

	assert.Equal(t, []byte("sixb.."), payloadOf(t, archive, records[0]))
	assert.Equal(t, ab, payloadOf(t, archive, records[1]))
	assert.Equal(t, ab, payloadOf(t, archive, records[2]))
}

func TestCreateHeaderSelfConsistent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3)) //nolint:gosec // deterministic test data
	noise := make([]byte, 900)
	rng.Read(noise)

	files := map[string][]byte{
		"TEXT.TXT":  []byte(strings.Repeat("Gobliiins text resource. ", 60)),
		"NOISE.BIN": noise,
		"TINY.BIN":  []byte("1234567"),
		"EMPTY.BIN": {},
		"TEXT2.TXT": []byte(strings.Repeat("Gobliiins text resource. ", 60)),
		"MIX.DAT":   append(bytes.Repeat([]byte{0}, 300), noise[:100]...),
	}
	order := []string{"TEXT.TXT", "NOISE.BIN", "TINY.BIN", "EMPTY.BIN", "TEXT2.TXT", "MIX.DAT"}

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)
	rows := make([]testutil.Row, 0, len(order))
	for _, name := range order {
		rows = append(rows, testutil.Row{Name: name, Flag: "1"})
	}
	manifestPath := testutil.WriteManifest(t, dir, "OUT.STK", rows...)

	res, err := CreateFile(context.Background(), manifestPath, filepath.Join(t.TempDir(), "out.stk"))
	require.NoError(t, err)

	archive, records := readArchive(t, res.Path)
	require.Len(t, records, len(order))
	for i, name := range order {
		e := res.Entries[i]
		assert.Equal(t, name, records[i].Name)
		assert.LessOrEqual(t, records[i].Size, e.RealSize, "stored size never exceeds real size: %s", name)
		assert.Equal(t, files[name], payloadOf(t, archive, records[i]), name)
	}

	assert.True(t, res.Entries[1].Inflated, "random data falls back to stored")
	assert.Equal(t, byte(0), records[1].Flag)
	assert.Equal(t, CompressionStored, res.Entries[2].Compression, "below the 8-byte floor")
	assert.Equal(t, CompressionDuplicate, res.Entries[4].Compression)
	assert.Equal(t, records[0].Offset, records[4].Offset)
}

func TestCreateDuplicateNameRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string][]byte{"A.BIN": []byte("0123456789")})
	m := &Manifest{
		ArchiveName: "DUP.STK",
		Signature:   SignatureSTK10,
		Rows: []ManifestRow{
			{Name: "A.BIN", Compress: true, Line: 3},
			{Name: "A.BIN", Compress: true, Line: 5},
		},
	}

	out := testutil.NewSeekBuffer()
	_, err := Create(context.Background(), m, out, CreateWithBaseDir(dir))
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.True(t, IsConfigError(err))
	assert.Zero(t, out.Size(), "configuration errors leave the output untouched")

	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, 5, entryErr.Line)
}

func TestCreateFileRemovesOutputOnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string][]byte{"A.BIN": []byte("0123456789")})
	manifestPath := testutil.WriteManifest(t, dir, "BAD.STK",
		testutil.Row{Name: "A.BIN", Flag: "1"},
		testutil.Row{Name: "A.BIN", Flag: "0"},
	)

	_, err := CreateFile(context.Background(), manifestPath, "")
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.NoFileExists(t, filepath.Join(dir, "BAD.STK"))

	manifestPath = testutil.WriteManifest(t, dir, "MISSING.STK", testutil.Row{Name: "GONE.BIN", Flag: "1"})
	_, err = CreateFile(context.Background(), manifestPath, "")
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, IsConfigError(err))
	assert.NoFileExists(t, filepath.Join(dir, "MISSING.STK"))
}

func TestCreateFileSignatureErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "conf.gob")
	require.NoError(t, os.WriteFile(path, []byte("OUT.ITK\nSTK21\nA.BIN\n1\n"), 0o600))

	_, err := CreateFile(context.Background(), path, "")
	require.ErrorIs(t, err, ErrUnsupportedSignature)
	assert.True(t, IsConfigError(err))

	require.NoError(t, os.WriteFile(path, []byte("OUT.STK\nPAK\nA.BIN\n1\n"), 0o600))
	_, err = CreateFile(context.Background(), path, "")
	require.ErrorIs(t, err, ErrUnknownSignature)
}

func TestCreateConcurrentMatchesSequential(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string][]byte{}
	rows := []testutil.Row{}
	for i, word := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		name := strings.ToUpper(word) + ".TXT"
		files[name] = []byte(strings.Repeat(word+" ", 40+i*10))
		rows = append(rows, testutil.Row{Name: name, Flag: "1"})
	}
	files["RAW.BIN"] = []byte("raw stored payload")
	rows = append(rows, testutil.Row{Name: "RAW.BIN", Flag: "0"})
	testutil.WriteFiles(t, dir, files)
	manifestPath := testutil.WriteManifest(t, dir, "PAR.STK", rows...)

	m, err := ReadManifestFile(manifestPath)
	require.NoError(t, err)

	seq := testutil.NewSeekBuffer()
	_, err = Create(context.Background(), m, seq, CreateWithBaseDir(dir))
	require.NoError(t, err)

	par := testutil.NewSeekBuffer()
	res, err := Create(context.Background(), m, par, CreateWithBaseDir(dir), CreateWithConcurrency(4), CreateWithVerify(true))
	require.NoError(t, err)

	assert.Equal(t, seq.Bytes(), par.Bytes())
	assert.Equal(t, uint64(len(par.Bytes())), res.Size)
}

func TestCreateForceAndSkip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	text := []byte(strings.Repeat("compress me ", 30))
	testutil.WriteFiles(t, dir, map[string][]byte{"A.TXT": text, "B.SND": text[:200]})
	m := &Manifest{
		ArchiveName: "F.STK",
		Signature:   SignatureSTK10,
		Rows:        []ManifestRow{{Name: "A.TXT"}, {Name: "B.SND"}},
	}

	out := testutil.NewSeekBuffer()
	res, err := Create(context.Background(), m, out,
		CreateWithBaseDir(dir),
		CreateWithForceCompression(true),
		CreateWithSkipCompression(SkipExtensions("snd")),
	)
	require.NoError(t, err)
	assert.Equal(t, CompressionDictionary, res.Entries[0].Compression)
	assert.Equal(t, CompressionStored, res.Entries[1].Compression)
	assert.False(t, res.Entries[1].Inflated)
}

func TestCreateProgress(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string][]byte{"A.TXT": []byte(strings.Repeat("progress ", 10))})
	m := &Manifest{ArchiveName: "P.STK", Signature: SignatureSTK10, Rows: []ManifestRow{{Name: "A.TXT", Compress: true}}}

	var events []ProgressEvent
	_, err := Create(context.Background(), m, testutil.NewSeekBuffer(),
		CreateWithBaseDir(dir),
		CreateWithVerify(true),
		CreateWithProgress(func(ev ProgressEvent) { events = append(events, ev) }),
	)
	require.NoError(t, err)

	stages := make([]ProgressStage, 0, len(events))
	for _, ev := range events {
		stages = append(stages, ev.Stage)
	}
	assert.Equal(t, []ProgressStage{StageCataloging, StageCompressing, StageRewritingHeader, StageVerifying}, stages)
	assert.Equal(t, 1, events[1].EntriesDone)
	assert.Equal(t, 1, events[1].EntriesTotal)
}

type writeSeekOnly struct{ buf *testutil.SeekBuffer }

func (w writeSeekOnly) Write(p []byte) (int, error)           { return w.buf.Write(p) }
func (w writeSeekOnly) Seek(off int64, wh int) (int64, error) { return w.buf.Seek(off, wh) }

func TestCreateVerifyNeedsReaderAt(t *testing.T) {
	t.Parallel()

	m := &Manifest{ArchiveName: "E.STK", Signature: SignatureSTK10}
	_, err := Create(context.Background(), m, writeSeekOnly{buf: testutil.NewSeekBuffer()}, CreateWithVerify(true))
	assert.ErrorIs(t, err, ErrReaderAtRequired)
}

func TestCreateEmptyManifest(t *testing.T) {
	t.Parallel()

	out := testutil.NewSeekBuffer()
	res, err := Create(context.Background(), &Manifest{ArchiveName: "E.STK", Signature: SignatureSTK10}, out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, out.Bytes())
	assert.Equal(t, uint64(2), res.Size)
}

func TestCreateCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &Manifest{ArchiveName: "C.STK", Signature: SignatureSTK10, Rows: []ManifestRow{{Name: "A"}}}
	_, err := Create(ctx, m, testutil.NewSeekBuffer())
	assert.ErrorIs(t, err, context.Canceled)
}

var _ io.WriteSeeker = writeSeekOnly{}
