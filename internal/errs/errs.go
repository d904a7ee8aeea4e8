// Package errs defines the typed error kinds the update engine can fail
// with (spec §7). Each kind wraps an underlying cause so callers can use
// errors.As to recover it, while the formatted message remains a
// human-readable diagnostic line, not a machine contract.
package errs

import "fmt"

// LoadError indicates a source, target, or cache file could not be read or
// hashed.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ProbeMiss indicates an MTD partition's contents matched none of the
// supplied (size, sha1) candidates.
type ProbeMiss struct {
	Partition string
}

func (e *ProbeMiss) Error() string {
	return fmt.Sprintf("contents of MTD partition %q matched no candidate", e.Partition)
}

// NoMatchingPatch indicates neither the source nor the cache copy hashed to
// any of the supplied patch keys.
type NoMatchingPatch struct {
	Name string
}

func (e *NoMatchingPatch) Error() string {
	return fmt.Sprintf("%s: no patch matches any available source", e.Name)
}

// FormatError indicates unrecognized patch magic, a non-BLOB patch value, a
// malformed MTD URI, or a malformed hash string.
type FormatError struct {
	Context string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Context, e.Err)
	}
	return e.Context
}

func (e *FormatError) Unwrap() error { return e.Err }

// SpaceError indicates cache cleanup failed, or the target filesystem was
// insufficient and the source could not be unlinked to free it.
type SpaceError struct {
	Context string
	Err     error
}

func (e *SpaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Context, e.Err)
	}
	return e.Context
}

func (e *SpaceError) Unwrap() error { return e.Err }

// IOError indicates a short write, fsync failure, chmod/chown failure,
// rename failure, or MTD write/erase failure.
type IOError struct {
	Context string
	Err     error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// VerifyError indicates the decoded output's SHA-1 did not equal the
// expected target hash.
type VerifyError struct {
	Name string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: decoded output did not produce the expected hash", e.Name)
}
