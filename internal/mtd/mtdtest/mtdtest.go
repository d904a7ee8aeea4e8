// Package mtdtest provides an in-memory mtd.Driver fake for exercising the
// MTD read/write discipline and the update engine without real flash
// hardware.
package mtdtest

import (
	"bytes"
	"io"

	"github.com/distr1/otapatch/internal/mtd"
	"golang.org/x/xerrors"
)

const eraseSize = 4096

// Driver is an in-memory fake implementing mtd.Driver. Zero value is ready
// to use; register partitions with Set.
type Driver struct {
	partitions map[string][]byte
}

// Set seeds (or replaces) the named partition's contents, as if it already
// held data before the current process run. The backing buffer is padded
// up to at least capacity bytes with zero bytes, simulating stale trailing
// flash contents from a previous, longer image.
func (d *Driver) Set(name string, data []byte, capacity int) {
	if d.partitions == nil {
		d.partitions = make(map[string][]byte)
	}
	if capacity < len(data) {
		capacity = len(data)
	}
	buf := make([]byte, capacity)
	copy(buf, data)
	d.partitions[name] = buf
}

// Contents returns the current bytes actually committed to the named
// partition (i.e. what a real device's read path would return).
func (d *Driver) Contents(name string) []byte {
	return append([]byte(nil), d.partitions[name]...)
}

func (d *Driver) Partition(name string) (mtd.Partition, error) {
	if d.partitions == nil {
		d.partitions = make(map[string][]byte)
	}
	if _, ok := d.partitions[name]; !ok {
		return nil, xerrors.Errorf("mtdtest: partition %q not found", name)
	}
	return &fakePartition{drv: d, name: name}, nil
}

type fakePartition struct {
	drv  *Driver
	name string
}

func (p *fakePartition) ReadContext() (mtd.ReadContext, error) {
	return &fakeReadContext{r: bytes.NewReader(p.drv.partitions[p.name])}, nil
}

func (p *fakePartition) WriteContext() (mtd.WriteContext, error) {
	return &fakeWriteContext{drv: p.drv, name: p.name}, nil
}

type fakeReadContext struct {
	r *bytes.Reader
}

func (c *fakeReadContext) Read(p []byte) (int, error) { return io.ReadFull(c.r, p) }
func (c *fakeReadContext) Close() error                { return nil }

// fakeWriteContext writes directly into the partition's backing buffer as
// each Write call arrives, the same as a real flash device would (writes
// land immediately; only the erase is deferred) — so a test can simulate a
// crash mid-write by just stopping before EraseTail/Close are called.
type fakeWriteContext struct {
	drv     *Driver
	name    string
	written int
}

func (c *fakeWriteContext) Write(p []byte) (int, error) {
	buf := c.drv.partitions[c.name]
	if c.written+len(p) > len(buf) {
		return 0, xerrors.New("mtdtest: write exceeds partition capacity")
	}
	n := copy(buf[c.written:], p)
	c.written += n
	return n, nil
}

func (c *fakeWriteContext) EraseTail() error {
	buf := c.drv.partitions[c.name]
	boundary := ((c.written + eraseSize - 1) / eraseSize) * eraseSize
	for i := boundary; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

func (c *fakeWriteContext) Close() error { return nil }
