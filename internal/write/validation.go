package write

import (
	"fmt"
	"io/fs"
)

// CheckFileUnchanged verifies a source file still has the size recorded when
// it was cataloged. The header is derived from that size, so a file that
// grew or shrank in between would produce an inconsistent archive.
func CheckFileUnchanged(name string, info fs.FileInfo, want uint32) error {
	if info.Size() != int64(want) {
		return fmt.Errorf("file changed during archive creation: %s: expected %d bytes, found %d", name, want, info.Size())
	}
	return nil
}
