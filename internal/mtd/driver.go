// Package mtd implements the raw-flash read/write discipline: streaming,
// length-driven reads of a named partition, erase-before-commit writes, and
// a wait for a partition's device node to appear. The partition-enumeration
// and block read/write/erase primitives are an external collaborator (spec
// §1); this package defines the narrow Driver boundary they must satisfy
// and ships exactly one concrete implementation for Linux.
package mtd

import (
	"io"
	"sync"

	"golang.org/x/xerrors"
)

// ReadContext streams a partition's contents from the beginning. There is
// no end-of-file marker on raw flash; reads are length-driven by the
// caller, exactly as many bytes as it expects to need.
type ReadContext interface {
	io.Reader
	io.Closer
}

// WriteContext streams a full replacement image into a partition.
type WriteContext interface {
	io.Writer
	// EraseTail erases every block from the current write position to the
	// end of the partition (the "erase_blocks(-1)" semantics of spec §4.5),
	// leaving no stale trailing data from a previous, longer image.
	EraseTail() error
	Close() error
}

// Partition is a single named MTD partition, opened for either reading or
// writing.
type Partition interface {
	ReadContext() (ReadContext, error)
	WriteContext() (WriteContext, error)
}

// Driver enumerates and opens named MTD partitions. Partition lookups are
// expected to be preceded by exactly one partition-table scan per process
// (spec §9's "global partition-scanned flag", reimplemented below as a
// sync.Once owned by this package rather than by the engine).
type Driver interface {
	Partition(name string) (Partition, error)
}

var (
	scanOnce   sync.Once
	scanErr    error
	defaultDrv Driver
)

// Default returns the process-wide Driver, scanning the partition table
// exactly once no matter how many callers request it.
func Default() (Driver, error) {
	scanOnce.Do(func() {
		defaultDrv, scanErr = newLinuxDriver()
	})
	if scanErr != nil {
		return nil, xerrors.Errorf("mtd: scanning partitions: %w", scanErr)
	}
	return defaultDrv, nil
}
