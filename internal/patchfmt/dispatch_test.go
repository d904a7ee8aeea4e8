package patchfmt

import (
	"bytes"
	"hash"
	"testing"

	"github.com/distr1/otapatch/internal/sink"
)

func init() {
	Register("TESTFMT1", func(source, patch []byte, s sink.Sink, h hash.Hash) error {
		out := bytes.ToUpper(source)
		if _, err := s.Write(out); err != nil {
			return err
		}
		h.Write(out)
		return nil
	})
}

func TestApplyDispatchesByMagic(t *testing.T) {
	s := sink.NewMemorySink(16)
	h := fakeHash{}
	patch := append([]byte("TESTFMT1"), []byte("ignored body")...)
	if err := Apply([]byte("abc"), patch, s, h); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(s.Bytes(), []byte("ABC")) {
		t.Fatalf("got %q, want ABC", s.Bytes())
	}
}

func TestApplyRejectsUnknownMagic(t *testing.T) {
	s := sink.NewMemorySink(16)
	h := fakeHash{}
	if err := Apply([]byte("abc"), []byte("BOGUSMAG extra"), s, h); err == nil {
		t.Fatalf("expected error for unknown magic")
	}
}

func TestApplyRejectsShortPatch(t *testing.T) {
	s := sink.NewMemorySink(16)
	h := fakeHash{}
	if err := Apply([]byte("abc"), []byte("short"), s, h); err == nil {
		t.Fatalf("expected error for undersized patch")
	}
}

// fakeHash is a no-op hash.Hash sufficient for exercising the Decoder
// contract in tests that don't care about the digest itself.
type fakeHash struct{}

func (fakeHash) Write(p []byte) (int, error) { return len(p), nil }
func (fakeHash) Sum(b []byte) []byte         { return b }
func (fakeHash) Reset()                      {}
func (fakeHash) Size() int                   { return 0 }
func (fakeHash) BlockSize() int              { return 1 }
