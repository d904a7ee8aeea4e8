package mtd

import (
	"log"

	"github.com/distr1/otapatch/internal/mtduri"
	"github.com/distr1/otapatch/internal/oninterrupt"
	"golang.org/x/xerrors"
)

// WriteToPartition streams data into the partition named by targetURI
// (write-path grammar: "MTD:<partition>[:...]", trailing fields discarded)
// and erases any remaining blocks past the written data. A short write, an
// erase failure, or a close failure all leave the partition in an
// indeterminate state, to be recovered by re-invoking the engine with the
// cache copy.
//
// The commit is non-atomic: a SIGINT or power cut partway through leaves
// the partition torn. oninterrupt logs where the recovery copy lives so an
// operator killing the process still knows how to recover, even though the
// actual recovery path is "re-run the engine", not anything this function
// does itself.
func WriteToPartition(drv Driver, data []byte, targetURI string) error {
	partition, err := mtduri.ParseWrite(targetURI)
	if err != nil {
		return xerrors.Errorf("mtd write: %w", err)
	}

	oninterrupt.Register(func() {
		log.Printf("interrupted while writing MTD partition %q; re-run with the cache copy to recover", partition)
	})

	part, err := drv.Partition(partition)
	if err != nil {
		return xerrors.Errorf("mtd write: %w", err)
	}

	ctx, err := part.WriteContext()
	if err != nil {
		return xerrors.Errorf("mtd write: init write context for %q: %w", partition, err)
	}

	done := 0
	for done < len(data) {
		n, werr := ctx.Write(data[done:])
		if n > 0 {
			done += n
		}
		if werr != nil {
			ctx.Close()
			return xerrors.Errorf("mtd write: short write to %q (%d of %d bytes): %w", partition, done, len(data), werr)
		}
		if n <= 0 {
			ctx.Close()
			return xerrors.Errorf("mtd write: write to %q returned 0 bytes with no error", partition)
		}
	}

	if err := ctx.EraseTail(); err != nil {
		ctx.Close()
		return xerrors.Errorf("mtd write: erasing tail of %q: %w", partition, err)
	}

	if err := ctx.Close(); err != nil {
		return xerrors.Errorf("mtd write: closing %q: %w", partition, err)
	}

	return nil
}
