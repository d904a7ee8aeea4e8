package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/distr1/otapatch/internal/cache"
	"github.com/distr1/otapatch/internal/content"
	"github.com/distr1/otapatch/internal/errs"
	"github.com/distr1/otapatch/internal/hashcodec"
	"github.com/distr1/otapatch/internal/mtd"
	"github.com/distr1/otapatch/internal/mtduri"
	"github.com/distr1/otapatch/internal/space"
	"github.com/distr1/otapatch/internal/trace"
)

// maxAttempts is the decoder-failure retry budget: one try, one retry.
const maxAttempts = 2

// Run executes one engine invocation end to end: probe the target for the
// already-applied no-op, select a matching source (original or cache
// copy), apply the patch with the space protocol and a single
// decoder-failure retry, verify, commit, and clean up.
func Run(ctx context.Context, drv mtd.Driver, req Request) (Result, error) {
	ev := trace.Event("engine.Run "+req.SourceName, 0)
	defer ev.Done()

	target := req.resolvedTarget()
	evictor := req.Options.Evictor
	if evictor == nil {
		evictor = space.NullEvictor{}
	}

	if req.Options.MTDWaitTimeout > 0 {
		if mtduri.IsMTD(req.SourceName) {
			if err := waitReady(ctx, req.SourceName, req.Options.MTDWaitTimeout); err != nil {
				return Result{}, &errs.LoadError{Name: req.SourceName, Err: err}
			}
		}
		if target != req.SourceName && mtduri.IsMTD(target) {
			if err := waitReady(ctx, target, req.Options.MTDWaitTimeout); err != nil {
				return Result{}, &errs.LoadError{Name: target, Err: err}
			}
		}
	}

	if targetFC, err := content.Load(drv, target); err == nil {
		if strings.EqualFold(hashcodec.FormatSHA1(targetFC.SHA1), req.TargetHashHex) {
			return Result{Applied: false}, nil // already at goal state
		}
	}

	sourceFC, sourceErr := content.Load(drv, req.SourceName)
	cacheFC, cacheErr := content.Load(drv, cache.TempSourcePath())

	sel, ok := selectSource(sourceFC, sourceErr, cacheFC, cacheErr, req.Patches, req.Options.StrictCacheIndexBug)
	if !ok {
		return Result{}, &errs.NoMatchingPatch{Name: req.SourceName}
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		err := attempt(drv, evictor, req, target, sel)
		if err == nil {
			return Result{Applied: true}, nil
		}
		var df *decodeFailure
		if !errors.As(err, &df) {
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, lastErr
}

// waitReady extracts the partition name from an MTD URI (read- or
// write-grammar, both tolerated by mtduri.ParseWrite) and blocks until its
// device node appears, per internal/mtd.WaitForPartition.
func waitReady(ctx context.Context, name string, timeout time.Duration) error {
	partition, err := mtduri.ParseWrite(name)
	if err != nil {
		return err
	}
	return mtd.WaitForPartition(ctx, partition, timeout)
}
