// Package engine implements the update engine: the orchestrator that
// identifies a target's current state, selects a matching patch, decodes it
// through a sink while verifying its hash, and commits the result — either
// atomically (filesystem rename) or, for raw flash, via the cache-copy
// recovery protocol that substitutes for an atomic commit there.
package engine

import (
	"time"

	"github.com/distr1/otapatch/internal/space"
)

// PatchValue is the caller-supplied payload the engine may apply. Only Tag
// "BLOB" is accepted; any other tag is a hard FormatError.
type PatchValue struct {
	Tag  string
	Data []byte
}

// BlobTag is the only PatchValue.Tag the engine accepts.
const BlobTag = "BLOB"

// PatchCandidate pairs a patch with the hex SHA-1 of the source content it
// applies against.
type PatchCandidate struct {
	SourceHashHex string
	Patch         PatchValue
}

// Options tunes engine behavior for cases spec.md leaves as open questions
// or that this expansion adds on top of it.
type Options struct {
	// StrictCacheIndexBug reproduces the original recovery image's bug where
	// the cache-copy patch lookup only accepts indices > 0, silently
	// excluding the first candidate from cache recovery. Leave false (the
	// default, and the corrected behavior) unless bug-for-bug compatibility
	// with an existing recovery image is required.
	StrictCacheIndexBug bool

	// MTDWaitTimeout bounds how long the engine waits for an MTD source or
	// target's device node to appear before giving up. Zero disables the
	// wait entirely (e.g. in tests against an in-memory driver).
	MTDWaitTimeout time.Duration

	// Evictor frees space under the cache-copy filesystem on request. A nil
	// Evictor defaults to space.NullEvictor{}.
	Evictor space.CacheEvictor
}

// Request is one engine invocation's full input.
type Request struct {
	SourceName string
	// TargetName may be "-", meaning "the same path as SourceName".
	TargetName    string
	TargetHashHex string
	TargetSize    int64
	Patches       []PatchCandidate
	Options       Options
}

// Result reports what an engine invocation did.
type Result struct {
	// Applied is false when the target already matched TargetHashHex and no
	// patch was applied (the idempotent no-op path).
	Applied bool
}

func (r Request) resolvedTarget() string {
	if r.TargetName == "-" {
		return r.SourceName
	}
	return r.TargetName
}
