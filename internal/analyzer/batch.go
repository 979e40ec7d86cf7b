package analyzer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// BatchItem is the outcome for one drawing of a batch.
type BatchItem struct {
	Path   string
	Result *model.DrawingAnalysisResult
	Err    error
}

// AnalyzeBatch analyzes paths with at most workers drawings in flight and
// returns one item per path in input order. A failed drawing records its
// error in its item and does not stop the others. workers below 1 runs the
// drawings one at a time.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string, opts AnalyzeOptions, workers int) []BatchItem {
	items := make([]BatchItem, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, path := range paths {
		g.Go(func() error {
			items[i].Path = path
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			items[i].Result, items[i].Err = a.AnalyzeDrawing(ctx, path, opts)
			return nil
		})
	}
	_ = g.Wait()

	return items
}
