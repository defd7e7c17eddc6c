package analyze

import (
	"context"

	"golang.org/x/sync/errgroup"

	"aivid/internal/report"
)

// BatchResult pairs a path with its report or error.
type BatchResult struct {
	Path   string
	Report *report.Report
	Err    error
}

// AnalyzeBatch analyzes several files with bounded parallelism. One
// file failing never aborts the others; each result carries its own
// error. The returned slice is ordered like the input paths.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string) []BatchResult {
	results := make([]BatchResult, len(paths))

	workers := a.cfg.Batch.Workers
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		results[i].Path = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			r, err := a.AnalyzeFile(ctx, path)
			results[i].Report = r
			results[i].Err = err
			return nil
		})
	}

	// Workers never return errors; cancellation surfaces per result.
	_ = g.Wait()
	return results
}
