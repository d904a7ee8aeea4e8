package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/distr1/otapatch/internal/checkmode"
	"github.com/distr1/otapatch/internal/env"
	"github.com/distr1/otapatch/internal/hashcodec"
	"github.com/distr1/otapatch/internal/mtd"
	"github.com/distr1/otapatch/internal/mtduri"
	"golang.org/x/xerrors"
)

type hashListFlag struct {
	digests []hashcodec.Digest
}

func (h *hashListFlag) String() string {
	return fmt.Sprintf("%d hash(es)", len(h.digests))
}

func (h *hashListFlag) Set(v string) error {
	d, err := hashcodec.ParseSHA1(v)
	if err != nil {
		return err
	}
	h.digests = append(h.digests, d)
	return nil
}

func check(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("check", flag.ExitOnError)
	var hashes hashListFlag
	fset.Var(&hashes, "hash", "expected SHA-1 in hex, repeatable; omit entirely to accept any successful load")
	filename := fset.String("filename", "", "path or MTD: URI to check")
	cacheRoot := fset.String("cache_root", "", "override the cache-copy root directory")
	fset.Usage = usage(fset, "usage: otapatch check -filename <path> [-hash <hex> ...]")
	fset.Parse(args)

	if *filename == "" {
		fset.Usage()
		return xerrors.New("check: -filename is required")
	}
	if *cacheRoot != "" {
		env.CacheRoot = *cacheRoot
	}

	var drv mtd.Driver
	if mtduri.IsMTD(*filename) {
		var err error
		drv, err = mtd.Default()
		if err != nil {
			return xerrors.Errorf("check: %w", err)
		}
	}

	if err := checkmode.Check(drv, *filename, hashes.digests); err != nil {
		return xerrors.Errorf("check: %w", err)
	}
	fmt.Println("ok")
	return nil
}
