// Package content implements the two content endpoints every patch
// operation reads from and writes to: an on-disk file (loaded by streaming
// mmap, saved atomically) or a raw MTD partition (loaded by the ascending-
// size probe protocol, written via internal/mtd). It corresponds to
// applypatch.c's LoadFileContents/LoadMTDContents/SaveFileContents.
package content

import (
	"os"

	"github.com/distr1/otapatch/internal/hashcodec"
)

// FileContents is a fully loaded content blob together with the file
// metadata needed to restore it faithfully on save.
type FileContents struct {
	Data []byte
	Size int64
	Mode os.FileMode
	UID  int
	GID  int
	SHA1 hashcodec.Digest
}
