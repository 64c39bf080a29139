// Package header encodes and decodes the STK/ITK archive header.
//
// The header is a little-endian u16 entry count followed by one 22-byte
// record per entry:
//
//	13 bytes  name, zero padded
//	 4 bytes  payload size (u32)
//	 4 bytes  payload offset (u32)
//	 1 byte   compression flag (0 stored, 1 compressed)
//
// This package is the only place where header fields are serialized.
package header

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/stk/internal/sizing"
	"github.com/meigma/stk/internal/stktype"
)

// Layout constants.
const (
	CountSize  = 2
	NameSize   = 13
	RecordSize = NameSize + 4 + 4 + 1

	// MaxNameLen leaves room for the terminating zero byte.
	MaxNameLen = NameSize - 1
)

// Record is one decoded header record.
type Record struct {
	Name   string
	Size   uint32
	Offset uint32
	Flag   byte
}

// Size returns the header length for count entries.
func Size(count int) int {
	return CountSize + count*RecordSize
}

// Placeholder returns the all-zero header written before payloads, so that
// the body starts at its final offset.
func Placeholder(count int) ([]byte, error) {
	if _, err := sizing.ToUint16(count, stktype.ErrTooManyEntries); err != nil {
		return nil, err
	}
	return make([]byte, Size(count)), nil
}

// ValidateName checks that name fits the fixed-width name field.
func ValidateName(name string) error {
	switch {
	case name == "":
		return stktype.ErrEmptyName
	case len(name) > MaxNameLen:
		return stktype.ErrNameTooLong
	case bytes.IndexByte([]byte(name), 0) >= 0:
		return fmt.Errorf("%w: name contains a zero byte", stktype.ErrInvalidHeader)
	}
	return nil
}

// Encode serializes records into a complete header.
func Encode(records []Record) ([]byte, error) {
	count, err := sizing.ToUint16(len(records), stktype.ErrTooManyEntries)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, Size(len(records)))
	binary.LittleEndian.PutUint16(buf, count)

	for i, r := range records {
		if err := ValidateName(r.Name); err != nil {
			return nil, &stktype.EntryError{Name: r.Name, Err: err}
		}
		if r.Flag > 1 {
			return nil, &stktype.EntryError{Name: r.Name, Err: fmt.Errorf("%w: flag %d", stktype.ErrInvalidHeader, r.Flag)}
		}
		rec := buf[CountSize+i*RecordSize : CountSize+(i+1)*RecordSize]
		copy(rec[:NameSize], r.Name)
		binary.LittleEndian.PutUint32(rec[NameSize:], r.Size)
		binary.LittleEndian.PutUint32(rec[NameSize+4:], r.Offset)
		rec[NameSize+8] = r.Flag
	}
	return buf, nil
}

// Decode reads a header from r.
func Decode(r io.Reader) ([]Record, error) {
	var countBuf [CountSize]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: read entry count: %w", stktype.ErrInvalidHeader, err)
	}
	count := int(binary.LittleEndian.Uint16(countBuf[:]))

	records := make([]Record, count)
	var rec [RecordSize]byte
	for i := range records {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("%w: read record %d: %w", stktype.ErrInvalidHeader, i, err)
		}
		name := rec[:NameSize]
		if n := bytes.IndexByte(name, 0); n >= 0 {
			name = name[:n]
		}
		records[i] = Record{
			Name:   string(name),
			Size:   binary.LittleEndian.Uint32(rec[NameSize:]),
			Offset: binary.LittleEndian.Uint32(rec[NameSize+4:]),
			Flag:   rec[NameSize+8],
		}
	}
	return records, nil
}
