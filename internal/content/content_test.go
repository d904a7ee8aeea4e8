package content

import (
	"bytes"
	"crypto/sha1"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/distr1/otapatch/internal/hashcodec"
)

func TestLoadFileHashesContents(t *testing.T) {
	dir, err := ioutil.TempDir("", "content")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "target")
	want := []byte("hello target contents")
	if err := ioutil.WriteFile(path, want, 0640); err != nil {
		t.Fatal(err)
	}

	fc, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(fc.Data, want) {
		t.Fatalf("Data = %q, want %q", fc.Data, want)
	}
	sum := sha1.Sum(want)
	if hashcodec.FormatSHA1(fc.SHA1) != hashcodec.FormatSHA1(hashcodec.Digest(sum)) {
		t.Fatalf("SHA1 mismatch")
	}
}

func TestSaveFileRoundTrips(t *testing.T) {
	dir, err := ioutil.TempDir("", "content")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "out")
	data := []byte("decoded output bytes")
	fc := FileContents{Data: data, Mode: 0600}
	if err := Save(nil, path, fc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("saved contents = %q, want %q", got, data)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0600 {
		t.Fatalf("mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestSaveFileLeavesNoTempOnFailure(t *testing.T) {
	// Saving under a nonexistent directory must fail cleanly with no
	// leftover temp file in a parent that does exist.
	dir, err := ioutil.TempDir("", "content")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	bad := filepath.Join(dir, "missing-subdir", "out")
	if err := Save(nil, bad, FileContents{Data: []byte("x")}); err == nil {
		t.Fatalf("expected error saving under nonexistent directory")
	}
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover entries, got %v", entries)
	}
}
