package sim

import (
	"context"
	"sync"
)

// RunAll runs independent simulators concurrently. Each simulator keeps to
// its own goroutine; results are returned in input order. The first error is
// returned after every run has finished.
func RunAll(ctx context.Context, sims []*Simulator) ([]*Result, error) {
	results := make([]*Result, len(sims))
	errs := make([]error, len(sims))

	var wg sync.WaitGroup
	for i, s := range sims {
		wg.Add(1)
		go func(idx int, s *Simulator) {
			defer wg.Done()
			results[idx], errs[idx] = s.Run(ctx)
		}(i, s)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
