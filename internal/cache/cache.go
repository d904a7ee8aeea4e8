// Package cache resolves the well-known cache-copy slot (spec §3,
// CACHE_TEMP_SOURCE) used as a recovery backup of the pre-patch source.
package cache

import (
	"path/filepath"

	"github.com/distr1/otapatch/internal/env"
)

// tempSourceName is the basename of the cache-copy slot, matching the
// original recovery image's "/cache/saved.file".
const tempSourceName = "saved.file"

// TempSourcePath returns the path of the cache-copy slot, rooted under
// env.CacheRoot. Its presence at engine entry indicates a prior
// interrupted run.
func TempSourcePath() string {
	return filepath.Join(env.CacheRoot, tempSourceName)
}
