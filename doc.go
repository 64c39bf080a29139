// Package stk builds STK/ITK game-data archives from a manifest of source
// files.
//
// An archive starts with a little-endian u16 entry count and one 22-byte
// record per entry (13-byte name, u32 size, u32 offset, 1-byte compression
// flag), followed by the entry payloads in manifest order. Payloads are stored
// verbatim or compressed with the dictionary codec in the [codec] package.
// Byte-identical sources share one payload: later copies get a header record
// pointing at the first copy's bytes.
//
// # Quick Start
//
// Build an archive from the manifest produced by the extractor:
//
//	res, err := stk.CreateFile(ctx, "gob.gob", "",
//	    stk.CreateWithForceCompression(true),
//	    stk.CreateWithVerify(true),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Path, len(res.Entries))
//
// Creation writes a zeroed placeholder header first, streams the payloads,
// and rewrites the header once every size and offset is known. Any error
// aborts the run; CreateFile removes the partial output.
package stk
