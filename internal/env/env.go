// Package env captures details about the otapatch runtime environment.
package env

import "os"

// CacheRoot is the root directory of the filesystem used to stage the
// cache-copy recovery backup (spec §3, CACHE_TEMP_SOURCE). It is assumed to
// live on a filesystem distinct from any target the engine writes to.
var CacheRoot = findCacheRoot()

func findCacheRoot() string {
	if v := os.Getenv("OTAPATCH_CACHE_ROOT"); v != "" {
		return v
	}
	return "/cache" // default, matching the recovery image convention
}
