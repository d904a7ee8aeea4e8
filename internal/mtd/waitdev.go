package mtd

import (
	"context"
	"strconv"
	"time"

	"github.com/s-urbaniak/uevent"
	"golang.org/x/xerrors"
)

// WaitForPartition blocks until the named partition's device node exists,
// or until timeout elapses. Recovery images race the kernel's MTD scan: the
// updater can start running before /dev/mtd<N> nodes exist yet, so the
// first touch of any MTD name in a process run goes through here rather
// than straight to Default().Partition.
//
// Adapted from cmd/minitrd's uevent subscription loop, which waits for a
// block device's "add"/"change" uevent instead of an mtd device's.
func WaitForPartition(ctx context.Context, name string, timeout time.Duration) error {
	drv, err := Default()
	if err != nil {
		return err
	}
	if _, err := drv.Partition(name); err == nil {
		return nil // already present, nothing to wait for
	}

	deadline, canc := context.WithTimeout(ctx, timeout)
	defer canc()

	r, err := uevent.NewReader()
	if err != nil {
		return xerrors.Errorf("mtd: subscribing to uevents: %w", err)
	}
	defer r.Close()
	dec := uevent.NewDecoder(r)

	events := make(chan uevent.Event, 1)
	errs := make(chan error, 1)
	go func() {
		for {
			ev, err := dec.Decode()
			if err != nil {
				errs <- err
				return
			}
			select {
			case events <- ev:
			case <-deadline.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-deadline.Done():
			return xerrors.Errorf("mtd: timed out waiting for partition %q to appear", name)
		case err := <-errs:
			return xerrors.Errorf("mtd: uevent: %w", err)
		case ev := <-events:
			if ev.Subsystem != "mtd" || ev.Action != "add" {
				continue
			}
			// The new device node's minor number tells us which /dev/mtd<N>
			// just appeared; re-scan the partition table to pick up its name.
			if _, err := strconv.Atoi(ev.Vars["MINOR"]); err != nil {
				continue
			}
			if err := rescan(); err != nil {
				return err
			}
			if _, err := defaultDrv.Partition(name); err == nil {
				return nil
			}
		}
	}
}

// rescan forces a fresh partition-table read, used after a uevent reports a
// new MTD device so that Default()'s cached table picks it up.
func rescan() error {
	d, err := newLinuxDriver()
	if err != nil {
		return xerrors.Errorf("mtd: rescanning partitions: %w", err)
	}
	defaultDrv = d
	return nil
}
