//go:build linux

package mtd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// The MTD raw-device ioctl ABI (linux/mtd/mtd-abi.h). No package in the
// retrieval pack vendors these constants, so they are reproduced here as
// the thinnest possible binding to the kernel interface; everything past
// "open the device node and ioctl it" belongs to the out-of-scope flash
// driver.
const (
	memGetInfo = 0x80204d01 // MEMGETINFO: _IOR('M', 1, struct mtd_info_user)
	memErase   = 0x40084d02 // MEMERASE:   _IOW('M', 2, struct erase_info_user)
)

type mtdInfoUser struct {
	Type      uint8
	_         [3]byte
	Flags     uint32
	Size      uint32
	EraseSize uint32
	WriteSize uint32
	OOBSize   uint32
	_         uint64
}

type eraseInfoUser struct {
	Start  uint32
	Length uint32
}

func ioctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// linuxDriver maps partition names to /dev/mtd<N> device nodes, read from
// /proc/mtd (the kernel's own partition-table enumeration; the scan itself
// is an out-of-scope flash-driver concern, but the lookup table it produces
// is what WriteToPartition/probing need).
type linuxDriver struct {
	devices map[string]int // partition name -> mtd device number
}

func newLinuxDriver() (*linuxDriver, error) {
	f, err := os.Open("/proc/mtd")
	if err != nil {
		return nil, xerrors.Errorf("reading partition table: %w", err)
	}
	defer f.Close()

	devices := make(map[string]int)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "mtd") {
			continue // header line
		}
		// Format: "mtd3: 00500000 00020000 \"boot\""
		fields := strings.SplitN(line, ":", 2)
		if len(fields) != 2 {
			continue
		}
		numStr := strings.TrimPrefix(fields[0], "mtd")
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		idx := strings.IndexByte(fields[1], '"')
		if idx < 0 {
			continue
		}
		rest := fields[1][idx+1:]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			continue
		}
		devices[rest[:end]] = num
	}
	if err := sc.Err(); err != nil {
		return nil, xerrors.Errorf("reading partition table: %w", err)
	}
	return &linuxDriver{devices: devices}, nil
}

func (d *linuxDriver) Partition(name string) (Partition, error) {
	num, ok := d.devices[name]
	if !ok {
		return nil, xerrors.Errorf("mtd partition %q not found", name)
	}
	return &linuxPartition{devNode: fmt.Sprintf("/dev/mtd%d", num)}, nil
}

type linuxPartition struct {
	devNode string
}

func (p *linuxPartition) ReadContext() (ReadContext, error) {
	f, err := os.Open(p.devNode)
	if err != nil {
		return nil, xerrors.Errorf("opening %s for read: %w", p.devNode, err)
	}
	return &linuxReadContext{f: f}, nil
}

func (p *linuxPartition) WriteContext() (WriteContext, error) {
	f, err := os.OpenFile(p.devNode, os.O_WRONLY, 0)
	if err != nil {
		return nil, xerrors.Errorf("opening %s for write: %w", p.devNode, err)
	}
	var info mtdInfoUser
	if err := ioctl(f.Fd(), memGetInfo, unsafe.Pointer(&info)); err != nil {
		f.Close()
		return nil, xerrors.Errorf("MEMGETINFO %s: %w", p.devNode, err)
	}
	return &linuxWriteContext{f: f, eraseSize: info.EraseSize, partSize: info.Size}, nil
}

type linuxReadContext struct {
	f *os.File
}

func (c *linuxReadContext) Read(p []byte) (int, error) { return c.f.Read(p) }
func (c *linuxReadContext) Close() error                { return c.f.Close() }

type linuxWriteContext struct {
	f         *os.File
	eraseSize uint32
	partSize  uint32
	written   uint32
}

func (c *linuxWriteContext) Write(p []byte) (int, error) {
	n, err := c.f.Write(p)
	c.written += uint32(n)
	return n, err
}

// EraseTail erases every erase-block from the current write position to
// the end of the partition, matching "mtd_erase_blocks(ctx, -1)".
func (c *linuxWriteContext) EraseTail() error {
	if c.eraseSize == 0 {
		return xerrors.New("mtd: erase block size is zero")
	}
	start := (c.written + c.eraseSize - 1) / c.eraseSize * c.eraseSize
	if start >= c.partSize {
		return nil
	}
	info := eraseInfoUser{Start: start, Length: c.partSize - start}
	if err := ioctl(c.f.Fd(), memErase, unsafe.Pointer(&info)); err != nil {
		return xerrors.Errorf("MEMERASE start=%d length=%d: %w", info.Start, info.Length, err)
	}
	return nil
}

func (c *linuxWriteContext) Close() error { return c.f.Close() }
