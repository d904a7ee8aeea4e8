// Package otatest holds small test helpers shared across this module's
// package tests.
package otatest

import (
	"os"
	"testing"
)

// RemoveAll wraps os.RemoveAll and fails the test on failure, for cleaning
// up temporary fixture directories (a cache root, a scratch source/target
// dir) at the end of a test.
func RemoveAll(t testing.TB, path string) {
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
