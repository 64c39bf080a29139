// Package manifest reads the archive configuration produced by the STK
// extractor.
//
// A manifest is a sequence of tokens, one per non-blank line: the output
// archive name, a format signature, then alternating filename and
// compression-flag tokens.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meigma/stk/internal/stktype"
)

// Format signatures.
const (
	SignatureSTK10 = "STK10"
	SignatureSTK21 = "STK21"
)

// compressFlag is the only flag value that requests compression.
const compressFlag = "1"

// Row is one archive member declared by the manifest.
type Row struct {
	// Name is the source filename, also used as the archive entry name.
	Name string

	// Compress reports whether the manifest requested compression.
	Compress bool

	// Line is the line the filename appeared on.
	Line int
}

// Manifest is a parsed archive configuration.
type Manifest struct {
	// ArchiveName is the declared output file name.
	ArchiveName string

	// Signature is the format signature token.
	Signature string

	// Rows lists the entries in archive order.
	Rows []Row
}

type token struct {
	text string
	line int
}

// Parse reads a manifest from r.
func Parse(r io.Reader) (*Manifest, error) {
	tokens, err := scanTokens(r)
	if err != nil {
		return nil, err
	}

	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: expected archive name and signature", stktype.ErrEmptyManifest)
	}

	m := &Manifest{
		ArchiveName: tokens[0].text,
		Signature:   tokens[1].text,
	}
	if err := checkSignature(tokens[1]); err != nil {
		return nil, err
	}

	rest := tokens[2:]
	m.Rows = make([]Row, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		name := rest[i]
		if i+1 >= len(rest) {
			return nil, &stktype.EntryError{Name: name.text, Line: name.line, Err: stktype.ErrMissingFlag}
		}
		m.Rows = append(m.Rows, Row{
			Name:     name.text,
			Compress: rest[i+1].text == compressFlag,
			Line:     name.line,
		})
	}
	return m, nil
}

// ReadFile parses the manifest stored at path.
func ReadFile(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func checkSignature(sig token) error {
	switch sig.text {
	case SignatureSTK10:
		return nil
	case SignatureSTK21:
		return fmt.Errorf("%w: %s (line %d)", stktype.ErrUnsupportedSignature, sig.text, sig.line)
	default:
		return fmt.Errorf("%w: %q (line %d)", stktype.ErrUnknownSignature, sig.text, sig.line)
	}
}

func scanTokens(r io.Reader) ([]token, error) {
	var tokens []token
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		tokens = append(tokens, token{text: text, line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return tokens, nil
}
