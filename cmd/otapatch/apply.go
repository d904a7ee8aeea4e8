package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"time"

	otapatch "github.com/distr1/otapatch"
	"github.com/distr1/otapatch/internal/cache"
	"github.com/distr1/otapatch/internal/engine"
	"github.com/distr1/otapatch/internal/env"
	"github.com/distr1/otapatch/internal/mtd"
	"github.com/distr1/otapatch/internal/mtduri"
	"github.com/distr1/otapatch/internal/space"
	"golang.org/x/xerrors"
)

// patchFlag collects repeated "-patch <source_sha1>:<path-to-blob>" flags
// into a list of engine.PatchCandidate.
type patchFlag struct {
	candidates []engine.PatchCandidate
}

func (p *patchFlag) String() string {
	return fmt.Sprintf("%d patch(es)", len(p.candidates))
}

func (p *patchFlag) Set(v string) error {
	idx := strings.IndexByte(v, ':')
	if idx < 0 {
		return xerrors.Errorf("-patch %q: want <source_sha1>:<path>", v)
	}
	hash, path := v[:idx], v[idx+1:]
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return xerrors.Errorf("-patch %q: %w", v, err)
	}
	p.candidates = append(p.candidates, engine.PatchCandidate{
		SourceHashHex: hash,
		Patch:         engine.PatchValue{Tag: engine.BlobTag, Data: data},
	})
	return nil
}

func apply(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("apply", flag.ExitOnError)
	var patches patchFlag
	fset.Var(&patches, "patch", "source_sha1:path-to-blob, repeatable")
	source := fset.String("source", "", "path or MTD: URI of the content to patch")
	target := fset.String("target", "-", `output path or MTD: URI ("-" means overwrite source in place)`)
	targetHash := fset.String("target_hash", "", "expected SHA-1 of the patched content, in hex")
	targetSize := fset.Int64("target_size", 0, "size in bytes of the patched content")
	cacheRoot := fset.String("cache_root", "", "override the cache-copy root directory (defaults to $OTAPATCH_CACHE_ROOT or /cache)")
	mtdWaitTimeout := fset.Duration("mtd_wait_timeout", 30*time.Second, "how long to wait for an MTD device node to appear before giving up")
	strictBug := fset.Bool("strict_cache_index_bug", false, "reproduce the original recovery image's cache-lookup-excludes-first-candidate bug")
	fset.Usage = usage(fset, "usage: otapatch apply -source <path> -target <path> -target_hash <hex> -target_size <n> -patch <hash>:<blob> [-patch ...]")
	fset.Parse(args)

	if *source == "" || *targetHash == "" {
		fset.Usage()
		return xerrors.New("apply: -source and -target_hash are required")
	}
	if *cacheRoot != "" {
		env.CacheRoot = *cacheRoot
	}

	otapatch.RegisterAtExit(func() error {
		if _, err := os.Stat(cache.TempSourcePath()); err == nil {
			log.Printf("cache copy still present at %s; a future run will resume recovery from it", cache.TempSourcePath())
		}
		return nil
	})

	resolvedTarget := *target
	if resolvedTarget == "-" {
		resolvedTarget = *source
	}
	var drv mtd.Driver
	if mtduri.IsMTD(*source) || mtduri.IsMTD(resolvedTarget) {
		var err error
		drv, err = mtd.Default()
		if err != nil {
			return xerrors.Errorf("apply: %w", err)
		}
	}

	req := engine.Request{
		SourceName:    *source,
		TargetName:    *target,
		TargetHashHex: *targetHash,
		TargetSize:    *targetSize,
		Patches:       patches.candidates,
		Options: engine.Options{
			StrictCacheIndexBug: *strictBug,
			MTDWaitTimeout:      *mtdWaitTimeout,
			Evictor:             space.NullEvictor{},
		},
	}

	res, err := engine.Run(ctx, drv, req)
	if err != nil {
		return xerrors.Errorf("apply: %w", err)
	}
	if res.Applied {
		fmt.Println("applied")
	} else {
		fmt.Println("already up to date")
	}
	return nil
}
