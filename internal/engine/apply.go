package engine

import (
	"crypto/sha1"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/distr1/otapatch/internal/cache"
	"github.com/distr1/otapatch/internal/content"
	"github.com/distr1/otapatch/internal/errs"
	"github.com/distr1/otapatch/internal/hashcodec"
	"github.com/distr1/otapatch/internal/mtd"
	"github.com/distr1/otapatch/internal/mtduri"
	"github.com/distr1/otapatch/internal/patchfmt"
	"github.com/distr1/otapatch/internal/sink"
	"github.com/distr1/otapatch/internal/space"
	"golang.org/x/xerrors"
)

// attempt runs the space protocol, decode, verify and commit steps once,
// against an already-selected source. A returned *decodeFailure is the only
// error Run retries; everything else is terminal.
func attempt(drv mtd.Driver, evictor space.CacheEvictor, req Request, target string, sel selection) error {
	if sel.patch.Tag != BlobTag {
		return &errs.FormatError{Context: "patch value", Err: xerrors.Errorf("unsupported tag %q, want %q", sel.patch.Tag, BlobTag)}
	}

	isMTDTarget := mtduri.IsMTD(target)
	isMTDSource := mtduri.IsMTD(req.SourceName)
	cacheDir := filepath.Dir(cache.TempSourcePath())

	var spaceWasShort bool
	if isMTDTarget {
		// The MTD commit is non-atomic: the partition is erased and
		// rewritten in place. A recovery copy must exist before that starts.
		if err := evictor.EnsureFree(cacheDir, uint64(len(sel.content.Data))); err != nil {
			return &errs.SpaceError{Context: "staging cache copy before MTD commit", Err: err}
		}
		if err := content.Save(drv, cache.TempSourcePath(), sel.content); err != nil {
			return &errs.SpaceError{Context: "staging cache copy before MTD commit", Err: err}
		}
	} else {
		dir := filepath.Dir(target)
		free, err := space.FreeSpace(dir)
		if err != nil {
			return &errs.SpaceError{Context: "querying free space on " + dir, Err: err}
		}
		if !space.Sufficient(free, uint64(req.TargetSize)) {
			spaceWasShort = true
			// Relocating by unlinking the source to free space only makes
			// sense when sel came from the real source: if it came from the
			// cache copy already, the cache copy IS the recovery artifact
			// and must not be touched (applypatch.c:659 only relocates when
			// source_patch_value != NULL, i.e. not already using the cache).
			if !sel.fromCache {
				if isMTDSource {
					return &errs.SpaceError{Context: target, Err: xerrors.Errorf("insufficient space and source %q is MTD, cannot unlink to free it", req.SourceName)}
				}
				if err := evictor.EnsureFree(cacheDir, uint64(len(sel.content.Data))); err != nil {
					return &errs.SpaceError{Context: "freeing cache space", Err: err}
				}
				if err := content.Save(drv, cache.TempSourcePath(), sel.content); err != nil {
					return &errs.SpaceError{Context: "staging cache copy", Err: err}
				}
				os.Remove(req.SourceName) // best-effort; freeing the filesystem is the point
			}
			// Whether or not relocation happened, the attempt proceeds
			// without the margin guarantee and gets no further retry for it
			// (spec.md §4.8, applypatch.c's retry=0 on shortage below).
		}
	}

	var sk sink.Sink
	var patchPath string
	var f *os.File
	if isMTDTarget {
		sk = sink.NewMemorySink(req.TargetSize)
	} else {
		patchPath = target + ".patch"
		var err error
		f, err = os.OpenFile(patchPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
		if err != nil {
			return &errs.IOError{Context: "creating " + patchPath, Err: err}
		}
		sk = sink.NewFileSink(f)
	}

	h := sha1.New()
	if err := patchfmt.Apply(sel.content.Data, sel.patch.Data, sk, h); err != nil {
		if f != nil {
			f.Close()
			os.Remove(patchPath)
		}
		var fe *errs.FormatError
		if errors.As(err, &fe) {
			// An unrecognized patch format is terminal, not a decoder failure.
			return err
		}
		if spaceWasShort {
			// No further retry once space was short (spec.md §4.8); wrap as
			// a terminal error instead of *decodeFailure so Run won't retry.
			return &errs.SpaceError{Context: "decoding after space shortage on " + target, Err: err}
		}
		return &decodeFailure{err: err}
	}

	var got hashcodec.Digest
	copy(got[:], h.Sum(nil))
	if !strings.EqualFold(hashcodec.FormatSHA1(got), req.TargetHashHex) {
		if f != nil {
			f.Close()
			os.Remove(patchPath)
		}
		return &errs.VerifyError{Name: target}
	}

	if isMTDTarget {
		ms := sk.(*sink.MemorySink)
		if err := content.Save(drv, target, content.FileContents{Data: ms.Bytes()}); err != nil {
			return &errs.IOError{Context: "committing " + target, Err: err}
		}
	} else {
		if err := f.Sync(); err != nil {
			f.Close()
			return &errs.IOError{Context: "fsync " + patchPath, Err: err}
		}
		if err := f.Close(); err != nil {
			return &errs.IOError{Context: "closing " + patchPath, Err: err}
		}
		if sel.content.Mode != 0 {
			if err := os.Chmod(patchPath, sel.content.Mode); err != nil {
				return &errs.IOError{Context: "chmod " + patchPath, Err: err}
			}
		}
		if sel.content.UID != 0 || sel.content.GID != 0 {
			if err := os.Chown(patchPath, sel.content.UID, sel.content.GID); err != nil {
				return &errs.IOError{Context: "chown " + patchPath, Err: err}
			}
		}
		if err := os.Rename(patchPath, target); err != nil {
			return &errs.IOError{Context: "renaming " + patchPath + " to " + target, Err: err}
		}
	}

	os.Remove(cache.TempSourcePath()) // best-effort cleanup; absence is not an error
	return nil
}
