// Package patchfmt detects a patch blob's format by its 8-byte magic and
// dispatches to the matching decoder. The decoders themselves (BSDIFF40,
// IMGDIFF2) are out-of-scope external collaborators (spec §1): this package
// defines the contract they must obey and holds a registry the surrounding
// scripting layer populates, rather than implementing the diff algorithms.
package patchfmt

import (
	"hash"

	"github.com/distr1/otapatch/internal/errs"
	"github.com/distr1/otapatch/internal/sink"
	"golang.org/x/xerrors"
)

const magicLen = 8

// Decoder applies a patch blob against source, writing every output byte
// to sink and feeding it to h, in order. It must return a non-nil error on
// any internal failure.
type Decoder func(source []byte, patch []byte, s sink.Sink, h hash.Hash) error

var registry = map[string]Decoder{}

// Register installs d as the decoder for the given 8-byte magic. Intended
// to be called by the surrounding scripting layer during initialization
// (e.g. an init func in a package that links in a real BSDIFF40
// implementation); it is not called anywhere in this module's production
// path.
func Register(magic string, d Decoder) {
	if len(magic) != magicLen {
		panic("patchfmt: magic must be exactly 8 bytes")
	}
	registry[magic] = d
}

// Apply sniffs patch's first 8 bytes and invokes the matching registered
// decoder. It returns a FormatError-flavored error if the magic is
// unrecognized, wrapping that down to the caller; see internal/errs.
func Apply(source []byte, patch []byte, s sink.Sink, h hash.Hash) error {
	if len(patch) < magicLen {
		return &errs.FormatError{Context: "patchfmt", Err: xerrors.Errorf("patch is only %d bytes, too short for a magic", len(patch))}
	}
	magic := string(patch[:magicLen])
	d, ok := registry[magic]
	if !ok {
		return &errs.FormatError{Context: "patchfmt", Err: xerrors.Errorf("unknown patch format %q", magic)}
	}
	return d(source, patch, s, h)
}

// Magics recognized per spec §4.7.
const (
	MagicBSDIFF40 = "BSDIFF40"
	MagicIMGDIFF2 = "IMGDIFF2"
)
