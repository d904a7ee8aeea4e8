package content

import (
	"github.com/distr1/otapatch/internal/errs"
	"github.com/distr1/otapatch/internal/mtd"
	"github.com/distr1/otapatch/internal/mtduri"
	"github.com/google/renameio"
)

// Save writes fc to name. If name uses the "MTD:" scheme, it is written to
// raw flash via drv (no atomicity is possible there: a crash mid-write
// leaves the partition torn, which is why the cache-copy recovery protocol
// exists). Otherwise drv is ignored and name is written to a regular file
// atomically — a temp file on the same filesystem, fsynced, mode and
// ownership restored, then renamed over the destination — so a crash never
// leaves a partially written target in place.
func Save(drv mtd.Driver, name string, fc FileContents) error {
	if mtduri.IsMTD(name) {
		return saveMTD(drv, name, fc)
	}
	return saveFile(name, fc)
}

func saveFile(name string, fc FileContents) error {
	t, err := renameio.TempFile("", name)
	if err != nil {
		return &errs.IOError{Context: "creating temp file for " + name, Err: err}
	}
	defer t.Cleanup()

	if _, err := t.Write(fc.Data); err != nil {
		return &errs.IOError{Context: "writing " + name, Err: err}
	}
	if fc.Mode != 0 {
		if err := t.Chmod(fc.Mode); err != nil {
			return &errs.IOError{Context: "chmod " + name, Err: err}
		}
	}
	if fc.UID != 0 || fc.GID != 0 {
		if err := t.Chown(fc.UID, fc.GID); err != nil {
			return &errs.IOError{Context: "chown " + name, Err: err}
		}
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return &errs.IOError{Context: "committing " + name, Err: err}
	}
	return nil
}

func saveMTD(drv mtd.Driver, name string, fc FileContents) error {
	if err := mtd.WriteToPartition(drv, fc.Data, name); err != nil {
		return &errs.IOError{Context: "saving to " + name, Err: err}
	}
	return nil
}
