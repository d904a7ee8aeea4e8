//go:build !linux

package mtd

import "golang.org/x/xerrors"

func newLinuxDriver() (*linuxDriver, error) {
	return nil, xerrors.New("mtd: raw flash access is only implemented for linux")
}

type linuxDriver struct{}

func (d *linuxDriver) Partition(name string) (Partition, error) {
	return nil, xerrors.New("mtd: raw flash access is only implemented for linux")
}
