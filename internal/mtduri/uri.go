// Package mtduri parses the "MTD:" URI grammar used to name raw flash
// partitions on both the read path (a partition plus a set of candidate
// (size, sha1) pairs) and the write path (just a partition name, with any
// further fields discarded).
package mtduri

import (
	"sort"
	"strconv"
	"strings"

	"github.com/distr1/otapatch/internal/hashcodec"
	"golang.org/x/xerrors"
)

// Prefix is the leading magic of every MTD URI.
const Prefix = "MTD:"

// IsMTD reports whether name uses the MTD URI scheme.
func IsMTD(name string) bool {
	return strings.HasPrefix(name, Prefix)
}

// Candidate is one (size, sha1) pair from the read-path grammar.
type Candidate struct {
	Size int64
	SHA1 hashcodec.Digest
}

// ReadURI is a parsed "MTD:<partition>:<size_1>:<sha1_1>:..." read-path
// name. Candidates is sorted by ascending Size (ties broken arbitrarily),
// as required by the probe protocol.
type ReadURI struct {
	Partition  string
	Candidates []Candidate
}

// ParseRead parses the read-path grammar: "MTD:" partition (":" size ":"
// sha1hex){1,}. The total colon count must be >= 3 and odd; any violation,
// any non-positive size, or any malformed hash is a hard parse error (this
// corrects the original implementation's "print a diagnostic and continue
// with undefined parse state" behavior for a malformed URI).
func ParseRead(name string) (ReadURI, error) {
	if !IsMTD(name) {
		return ReadURI{}, xerrors.Errorf("mtduri: %q does not start with %q", name, Prefix)
	}
	colons := strings.Count(name, ":")
	if colons < 3 || colons%2 == 0 {
		return ReadURI{}, xerrors.Errorf("mtduri: %q has %d colons, want an odd number >= 3", name, colons)
	}

	fields := strings.Split(name, ":")
	// fields[0] == "MTD", fields[1] == partition, then (size, sha1) pairs.
	partition := fields[1]
	if partition == "" {
		return ReadURI{}, xerrors.Errorf("mtduri: %q has an empty partition name", name)
	}
	rest := fields[2:]
	pairs := len(rest) / 2
	cands := make([]Candidate, 0, pairs)
	for i := 0; i < pairs; i++ {
		sizeStr := rest[i*2]
		sha1Str := rest[i*2+1]
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil || size <= 0 {
			return ReadURI{}, xerrors.Errorf("mtduri: %q has a bad size %q", name, sizeStr)
		}
		digest, err := hashcodec.ParseSHA1(sha1Str)
		if err != nil {
			return ReadURI{}, xerrors.Errorf("mtduri: %q: %w", name, err)
		}
		cands = append(cands, Candidate{Size: size, SHA1: digest})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Size < cands[j].Size
	})

	return ReadURI{Partition: partition, Candidates: cands}, nil
}

// ParseWrite parses the write-path grammar: "MTD:" partition (":"
// anything)*. Only the partition name is meaningful; everything after the
// second colon is discarded.
func ParseWrite(name string) (partition string, err error) {
	if !IsMTD(name) {
		return "", xerrors.Errorf("mtduri: %q does not start with %q", name, Prefix)
	}
	rest := name[len(Prefix):]
	if rest == "" {
		return "", xerrors.Errorf("mtduri: %q has no partition name", name)
	}
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		rest = rest[:idx]
	}
	if rest == "" {
		return "", xerrors.Errorf("mtduri: %q has an empty partition name", name)
	}
	return rest, nil
}
