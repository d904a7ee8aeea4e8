// Package checkmode implements the engine's companion read-only check: is
// filename already in one of the expected states, without attempting to
// patch it.
package checkmode

import (
	"strings"

	"github.com/distr1/otapatch/internal/cache"
	"github.com/distr1/otapatch/internal/content"
	"github.com/distr1/otapatch/internal/errs"
	"github.com/distr1/otapatch/internal/hashcodec"
	"github.com/distr1/otapatch/internal/mtd"
)

// Check reports whether filename (or, failing that, the cache copy) loads
// and hashes to one of expectedHashes. An empty expectedHashes accepts any
// successful load — useful for "MTD:" names, which already self-describe
// their acceptable hashes in the URI itself.
func Check(drv mtd.Driver, filename string, expectedHashes []hashcodec.Digest) error {
	if fc, err := content.Load(drv, filename); err == nil {
		if matches(fc.SHA1, expectedHashes) {
			return nil
		}
	}
	if fc, err := content.Load(drv, cache.TempSourcePath()); err == nil {
		if matches(fc.SHA1, expectedHashes) {
			return nil
		}
	}
	return &errs.VerifyError{Name: filename}
}

func matches(got hashcodec.Digest, expected []hashcodec.Digest) bool {
	if len(expected) == 0 {
		return true
	}
	gotHex := hashcodec.FormatSHA1(got)
	for _, e := range expected {
		if strings.EqualFold(gotHex, hashcodec.FormatSHA1(e)) {
			return true
		}
	}
	return false
}
