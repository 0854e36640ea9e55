package fetch

import (
	"context"
	"log/slog"

	"github.com/gaurav-prasanna/pagecapture/core"
	"golang.org/x/sync/errgroup"
)

// FetchAll runs one task per descriptor, at most MaxConcurrency at a time,
// and returns once every task has settled. A failing task never cancels or
// fails its siblings: successes are returned as assets, the rest as failures.
// Assets keep descriptor order.
func (f *HTTPFetcher) FetchAll(ctx context.Context, descs []core.Descriptor) ([]core.Asset, []core.FetchFailure) {
	return FetchAll(ctx, f, descs, f.cfg.MaxConcurrency, f.cfg.Logger)
}

// FetchAll is the pool behind HTTPFetcher.FetchAll, usable with any AssetFetcher.
// limit <= 0 means unbounded.
func FetchAll(ctx context.Context, fetcher core.AssetFetcher, descs []core.Descriptor, limit int, log *slog.Logger) ([]core.Asset, []core.FetchFailure) {
	type result struct {
		asset *core.Asset
		err   error
	}
	results := make([]result, len(descs))
	if log == nil {
		log = slog.Default()
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, d := range descs {
		g.Go(func() error {
			asset, err := fetcher.Fetch(ctx, d)
			results[i] = result{asset: asset, err: err}
			return nil
		})
	}
	_ = g.Wait()

	assets := make([]core.Asset, 0, len(descs))
	var failures []core.FetchFailure
	for i, r := range results {
		if r.err != nil || r.asset == nil {
			log.Warn("fetch: image dropped", "source", descs[i].Source(), "error", r.err)
			failures = append(failures, core.FetchFailure{Source: descs[i].Source(), Err: r.err})
			continue
		}
		assets = append(assets, *r.asset)
	}
	return assets, failures
}

