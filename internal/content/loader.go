package content

import (
	"bytes"
	"crypto/sha1"
	"encoding"
	"hash"
	"io"
	"os"
	"syscall"

	"github.com/distr1/otapatch/internal/errs"
	"github.com/distr1/otapatch/internal/hashcodec"
	"github.com/distr1/otapatch/internal/mtd"
	"github.com/distr1/otapatch/internal/mtduri"
	"golang.org/x/exp/mmap"
	"golang.org/x/xerrors"
)

// Load reads name's full contents and hashes them. If name uses the "MTD:"
// scheme it is read off raw flash via drv, using the ascending-size probe
// protocol; otherwise drv is ignored and name is read as a regular file via
// a single streaming mmap pass.
func Load(drv mtd.Driver, name string) (FileContents, error) {
	if mtduri.IsMTD(name) {
		return loadMTD(drv, name)
	}
	return loadFile(name)
}

func loadFile(name string) (FileContents, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return FileContents{}, &errs.LoadError{Name: name, Err: err}
	}

	r, err := mmap.Open(name)
	if err != nil {
		return FileContents{}, &errs.LoadError{Name: name, Err: err}
	}
	defer r.Close()

	size := r.Len()
	buf := make([]byte, size)
	if size > 0 {
		n, err := r.ReadAt(buf, 0)
		if err != nil && err != io.EOF {
			return FileContents{}, &errs.LoadError{Name: name, Err: err}
		}
		if n != size {
			return FileContents{}, &errs.LoadError{Name: name, Err: xerrors.Errorf("short read: got %d of %d bytes", n, size)}
		}
	}

	sum := sha1.Sum(buf)
	var digest hashcodec.Digest
	copy(digest[:], sum[:])

	uid, gid := 0, 0
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		uid, gid = int(st.Uid), int(st.Gid)
	}

	return FileContents{
		Data: buf,
		Size: int64(size),
		Mode: fi.Mode(),
		UID:  uid,
		GID:  gid,
		SHA1: digest,
	}, nil
}

// loadMTD implements applypatch.c's LoadMTDContents probe: read the
// partition in one forward pass, and after each candidate's worth of bytes
// has accumulated, clone the running hash and check it against that
// candidate's expected SHA-1. Candidates are visited smallest first (see
// mtduri.ParseRead), so the first match is also the smallest.
func loadMTD(drv mtd.Driver, name string) (FileContents, error) {
	uri, err := mtduri.ParseRead(name)
	if err != nil {
		return FileContents{}, &errs.FormatError{Context: "loading MTD contents", Err: err}
	}

	part, err := drv.Partition(uri.Partition)
	if err != nil {
		return FileContents{}, &errs.LoadError{Name: name, Err: err}
	}
	rc, err := part.ReadContext()
	if err != nil {
		return FileContents{}, &errs.LoadError{Name: name, Err: err}
	}
	defer rc.Close()

	largest := uri.Candidates[len(uri.Candidates)-1].Size
	buf := make([]byte, largest)

	h := sha1.New()
	var cursor int64
	var matchedSize int64 = -1
	for _, c := range uri.Candidates {
		want := c.Size - cursor
		if want > 0 {
			if _, err := io.ReadFull(rc, buf[cursor:cursor+want]); err != nil {
				return FileContents{}, &errs.LoadError{Name: name, Err: err}
			}
			h.Write(buf[cursor : cursor+want])
			cursor += want
		}
		if bytes.Equal(cloneSum(h), c.SHA1[:]) {
			matchedSize = c.Size
			break
		}
	}
	if matchedSize < 0 {
		return FileContents{}, &errs.ProbeMiss{Partition: uri.Partition}
	}

	var digest hashcodec.Digest
	copy(digest[:], cloneSum(h))

	return FileContents{
		Data: buf[:matchedSize],
		Size: matchedSize,
		Mode: 0644,
		SHA1: digest,
	}, nil
}

// cloneSum finalizes a copy of h's running state without disturbing h
// itself, mirroring the original's "duplicate the SHA_CTX, finalize the
// duplicate" probe trick. crypto/sha1's hash.Hash implementation supports
// this via its encoding.BinaryMarshaler/Unmarshaler methods.
func cloneSum(h hash.Hash) []byte {
	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		panic("content: sha1 hash does not support cloning: " + err.Error())
	}
	clone := sha1.New()
	if err := clone.(encoding.BinaryUnmarshaler).UnmarshalBinary(state); err != nil {
		panic("content: sha1 hash does not support cloning: " + err.Error())
	}
	return clone.Sum(nil)
}
