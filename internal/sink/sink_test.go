package sink

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"
)

func TestFileSinkWritesAllBytes(t *testing.T) {
	f, err := ioutil.TempFile("", "sinktest")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	s := NewFileSink(f)
	want := bytes.Repeat([]byte{'A'}, 1<<16)
	n, err := s.Write(want)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(want) {
		t.Fatalf("wrote %d bytes, want %d", n, len(want))
	}

	got, err := ioutil.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("file contents mismatch")
	}
}

func TestMemorySinkRejectsOverflow(t *testing.T) {
	s := NewMemorySink(4)
	if _, err := s.Write([]byte{1, 2, 3, 4, 5}); err != ErrCapacityExceeded {
		t.Fatalf("got err %v, want ErrCapacityExceeded", err)
	}
}

func TestMemorySinkAppendsAtCursor(t *testing.T) {
	s := NewMemorySink(8)
	if _, err := s.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte{4, 5}); err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5}
	if !bytes.Equal(s.Bytes(), want) {
		t.Fatalf("got %v, want %v", s.Bytes(), want)
	}
}
