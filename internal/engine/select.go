package engine

import (
	"strings"

	"github.com/distr1/otapatch/internal/content"
	"github.com/distr1/otapatch/internal/hashcodec"
)

// findPatch returns the index of the first candidate whose SourceHashHex
// matches hash, or -1 if none do.
func findPatch(patches []PatchCandidate, hash hashcodec.Digest) int {
	want := hashcodec.FormatSHA1(hash)
	for i, p := range patches {
		if strings.EqualFold(p.SourceHashHex, want) {
			return i
		}
	}
	return -1
}

// selection is a loaded content candidate together with the patch chosen to
// apply against it.
type selection struct {
	content content.FileContents
	patch   PatchValue
	// fromCache is true when the selected content came from the cache-copy
	// slot rather than the original source path.
	fromCache bool
}

// selectSource implements spec.md §4.8's source-selection rule: try the
// primary source first, then the cache copy. The cache-path lookup uses the
// same >=0 acceptance as the source path unless Options.StrictCacheIndexBug
// reproduces the original's >0-only bug.
func selectSource(sourceFC content.FileContents, sourceErr error, cacheFC content.FileContents, cacheErr error, patches []PatchCandidate, strictCacheBug bool) (selection, bool) {
	if sourceErr == nil {
		if idx := findPatch(patches, sourceFC.SHA1); idx >= 0 {
			return selection{content: sourceFC, patch: patches[idx].Patch}, true
		}
	}
	if cacheErr == nil {
		idx := findPatch(patches, cacheFC.SHA1)
		accept := idx >= 0
		if strictCacheBug {
			accept = idx > 0
		}
		if accept {
			return selection{content: cacheFC, patch: patches[idx].Patch, fromCache: true}, true
		}
	}
	return selection{}, false
}
