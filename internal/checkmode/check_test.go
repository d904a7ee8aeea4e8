package checkmode

import (
	"crypto/sha1"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/distr1/otapatch/internal/cache"
	"github.com/distr1/otapatch/internal/env"
	"github.com/distr1/otapatch/internal/hashcodec"
)

func withTempCacheRoot(t *testing.T) {
	t.Helper()
	dir, err := ioutil.TempDir("", "cache")
	if err != nil {
		t.Fatal(err)
	}
	prev := env.CacheRoot
	env.CacheRoot = dir
	t.Cleanup(func() {
		env.CacheRoot = prev
		os.RemoveAll(dir)
	})
}

func digestOf(b []byte) hashcodec.Digest {
	sum := sha1.Sum(b)
	return hashcodec.Digest(sum)
}

func TestCheckPassesOnDirectMatch(t *testing.T) {
	withTempCacheRoot(t)
	dir, err := ioutil.TempDir("", "check")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "f")
	data := []byte("current state")
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Check(nil, path, []hashcodec.Digest{digestOf(data)}); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheckFallsBackToCacheCopy(t *testing.T) {
	withTempCacheRoot(t)
	dir, err := ioutil.TempDir("", "check")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "missing")
	backup := []byte("recovery contents")
	if err := ioutil.WriteFile(cache.TempSourcePath(), backup, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Check(nil, path, []hashcodec.Digest{digestOf(backup)}); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheckEmptyExpectedAcceptsAnyLoad(t *testing.T) {
	withTempCacheRoot(t)
	dir, err := ioutil.TempDir("", "check")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "f")
	if err := ioutil.WriteFile(path, []byte("anything"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Check(nil, path, nil); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheckFailsWhenNothingMatches(t *testing.T) {
	withTempCacheRoot(t)
	dir, err := ioutil.TempDir("", "check")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "f")
	if err := ioutil.WriteFile(path, []byte("wrong contents"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Check(nil, path, []hashcodec.Digest{digestOf([]byte("expected contents"))}); err == nil {
		t.Fatalf("expected Check to fail")
	}
}
