package mfi

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Walker holds the input of one independent simulation.
type Walker struct {
	Name     string
	Hills    *mat.Dense
	CVX, CVY []float64
}

// RunWalkers runs one Mean Force Integration per walker, at most O.Cpus at the
// same time, all on the grid g. The results are returned in the order of the walkers.
// The first error cancels the walkers that are still running.
func RunWalkers(ctx context.Context, g *Grid, walkers []*Walker, O *Options) ([]*Result, error) {
	if O == nil {
		O = DefaultOptions()
	}
	if len(walkers) == 0 {
		return nil, newError(InvalidInput, "RunWalkers", "no walkers")
	}
	results := make([]*Result, len(walkers))
	eg, egctx := errgroup.WithContext(ctx)
	if O.Cpus > 0 {
		eg.SetLimit(O.Cpus)
	}
	for i, w := range walkers {
		i, w := i, w
		eg.Go(func() error {
			o := *O
			o.Name = w.Name
			if o.Name == "" {
				o.Name = fmt.Sprintf("walker%d", i)
			}
			A, err := NewAccumulator(g, w.Hills, w.CVX, w.CVY, &o)
			if err != nil {
				return errDecorate(err, fmt.Sprintf("RunWalkers: %s", o.Name))
			}
			results[i], err = A.RunContext(egctx)
			return errDecorate(err, fmt.Sprintf("RunWalkers: %s", o.Name))
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PatchResults combines the results of several walkers with error propagation.
func PatchResults(results []*Result) (*Record, *mat.Dense, error) {
	records := make([]*Record, len(results))
	for i, v := range results {
		if v == nil {
			return nil, nil, newError(InvalidInput, "PatchResults", "result %d is nil", i)
		}
		records[i] = v.Record()
	}
	rec, e, err := PatchWithError(records)
	return rec, e, errDecorate(err, "PatchResults")
}
