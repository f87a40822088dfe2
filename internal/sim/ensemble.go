package sim

import (
	"context"
	"sync"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/md"
)

// Ensemble runs the same configuration under several velocity seeds. Each
// run gets its own freshly built pipeline, so runs share nothing and can
// proceed concurrently.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
}

func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context) ([]*md.Result, error) {
	results := make([]*md.Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := *e.cfg
			cfgCopy.Particles.Seed = e.seedStart + int64(idx)

			simulator, runCfg, err := Build(&cfgCopy)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = simulator.Run(ctx, runCfg)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
