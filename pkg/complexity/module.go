package complexity

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
)

// AnalyzeModule analyses every function of m and returns the results in
// module order. Up to opts.Parallelism functions are walked at once; each
// walk owns its state and only reads the shared CFG. The first failure stops
// the run and no results are returned.
func AnalyzeModule(ctx context.Context, m *cfg.Module, opts Options) ([]Result, error) {
	results := make([]Result, len(m.Functions))

	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, info := range m.Functions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if info == nil {
				return fmt.Errorf("%w: function %d is nil", ErrMalformedFunction, i)
			}

			graph, err := info.Graph()
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrMalformedFunction, info.FunctionName, err)
			}

			res, err := Analyze(graph, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
