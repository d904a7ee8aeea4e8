// Package hashcodec parses and formats the 40-hex-digit SHA-1 strings used
// throughout patch keys, target hashes and MTD URIs.
package hashcodec

import "golang.org/x/xerrors"

// Size is the length of a SHA-1 digest in bytes.
const Size = 20

// Digest is a SHA-1 hash.
type Digest [Size]byte

// ParseSHA1 parses exactly 40 hex digits (upper or lower case) from the
// front of s into a Digest. It succeeds if the 40th digit is followed by
// end-of-string or by ':' — patch-key strings may carry a ":annotation"
// suffix that callers ignore. Any other trailing character is an error.
func ParseSHA1(s string) (Digest, error) {
	var d Digest
	if len(s) < Size*2 {
		return d, xerrors.Errorf("parse sha1 %q: too short", s)
	}
	for i := 0; i < Size*2; i++ {
		c := s[i]
		var digit byte
		switch {
		case c >= '0' && c <= '9':
			digit = c - '0'
		case c >= 'a' && c <= 'f':
			digit = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			digit = c - 'A' + 10
		default:
			return Digest{}, xerrors.Errorf("parse sha1 %q: invalid hex digit %q at offset %d", s, c, i)
		}
		if i%2 == 0 {
			d[i/2] = digit << 4
		} else {
			d[i/2] |= digit
		}
	}
	if rest := s[Size*2:]; rest != "" && rest[0] != ':' {
		return Digest{}, xerrors.Errorf("parse sha1 %q: unexpected trailing character %q", s, rest[0])
	}
	return d, nil
}

// FormatSHA1 renders d as 40 lowercase hex digits.
func FormatSHA1(d Digest) string {
	const hex = "0123456789abcdef"
	var b [Size * 2]byte
	for i, c := range d {
		b[i*2] = hex[c>>4]
		b[i*2+1] = hex[c&0xf]
	}
	return string(b[:])
}

// MustParseSHA1 is ParseSHA1 for literal test fixtures; it panics on error.
func MustParseSHA1(s string) Digest {
	d, err := ParseSHA1(s)
	if err != nil {
		panic(err)
	}
	return d
}
