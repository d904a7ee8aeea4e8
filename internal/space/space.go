// Package space implements the free-space arbiter: querying free space on
// a filesystem path, evicting cache contents to make room, and deciding
// whether a target has enough room with a safety margin.
package space

import (
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// marginMinimum is the two-erase-block floor below which a filesystem
// target is never considered to have enough room, regardless of the
// proportional margin.
const marginMinimum = 256 << 10

// marginFactor is the proportional safety margin: the window during which
// both the source file and the decoded ".patch" file exist on the same
// filesystem, the target filesystem must have at least this many times the
// target size free.
const marginFactor = 1.5

// FreeSpace returns the number of bytes free on the filesystem containing
// path, via statfs. path must exist.
func FreeSpace(path string) (uint64, error) {
	var sf unix.Statfs_t
	if err := unix.Statfs(path, &sf); err != nil {
		return 0, xerrors.Errorf("statfs %q: %w", path, err)
	}
	return uint64(sf.Bsize) * sf.Bfree, nil
}

// Sufficient reports whether free bytes are enough to apply a patch whose
// decoded output will be targetSize bytes: more than the 256KiB floor, and
// more than 1.5x the target size.
func Sufficient(free, targetSize uint64) bool {
	return free > marginMinimum && float64(free) > float64(targetSize)*marginFactor
}

// CacheEvictor is the external collaborator that frees space under the
// cache-copy filesystem when asked. It generalizes spec §4.6's unspecified
// "MakeFreeSpaceOnCache".
type CacheEvictor interface {
	// EnsureFree attempts to make at least bytes available under dir,
	// evicting existing cache contents if necessary. It returns an error if
	// it cannot.
	EnsureFree(dir string, bytes uint64) error
}

// NullEvictor never evicts anything; EnsureFree succeeds only if the
// filesystem already has enough room.
type NullEvictor struct{}

func (NullEvictor) EnsureFree(dir string, bytes uint64) error {
	free, err := FreeSpace(dir)
	if err != nil {
		return err
	}
	if free < bytes {
		return xerrors.Errorf("space: %d bytes requested under %q, only %d free and no evictor configured", bytes, dir, free)
	}
	return nil
}

// DirEvictor frees space by deleting the oldest files directly under a
// directory (by mtime) until the requested amount is free or there is
// nothing left to delete.
type DirEvictor struct {
	// ScanDir is the directory whose contents may be deleted to make room.
	// It is typically a cache directory distinct from CacheRoot itself
	// (e.g. a build- or download-cache), never the cache-copy slot.
	ScanDir string
}

func (e DirEvictor) EnsureFree(dir string, bytes uint64) error {
	free, err := FreeSpace(dir)
	if err != nil {
		return err
	}
	if free >= bytes {
		return nil
	}

	entries, err := os.ReadDir(e.ScanDir)
	if err != nil {
		return xerrors.Errorf("space: listing %q for eviction: %w", e.ScanDir, err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var candidates []candidate
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(e.ScanDir, ent.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime < candidates[j].modTime
	})

	for _, c := range candidates {
		if free >= bytes {
			break
		}
		info, err := os.Stat(c.path)
		if err != nil {
			continue
		}
		if err := os.Remove(c.path); err != nil {
			continue
		}
		free += uint64(info.Size())
	}

	if free < bytes {
		return xerrors.Errorf("space: unable to make %d bytes available on %q after evicting %q", bytes, dir, e.ScanDir)
	}
	return nil
}
