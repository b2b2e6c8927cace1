package calculation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/internal/metrics"
)

// pathWorker owns the partial aggregate and retained results of one goroutine.
type pathWorker struct {
	agg     *PartialAggregate
	results []domain.PathResult
}

// simulate fans path indices out over the worker pool. Each worker keeps its
// own partial aggregate; partials are merged after the pool drains. On
// cancellation the merged partial covers only the finished paths and the
// error wraps ErrRunIncomplete.
func (e *Engine) simulate(ctx context.Context, plan *PathPlan, pathCount int) (*PartialAggregate, []domain.PathResult, error) {
	workers := e.workers
	if workers > pathCount {
		workers = pathCount
	}
	milestones := plan.Schedule.Milestones()
	keep := plan.Verbosity.KeepsAnnual()

	state := make([]*pathWorker, workers)
	pool := newWorkerPool(ctx, workers, e.cfg.Engine.QueueDepth, func(id int) func(context.Context, int) error {
		w := &pathWorker{agg: NewPartialAggregate(milestones)}
		state[id] = w
		return func(ctx context.Context, pathIndex int) error {
			res, err := RunPath(ctx, plan, pathIndex)
			if err != nil {
				return err
			}
			w.agg.Add(res.Summary)
			if keep {
				w.results = append(w.results, res)
			}
			metrics.PathsSimulated.Inc()
			for _, name := range res.Summary.Flags.Names() {
				metrics.PathBreaches.WithLabelValues(name).Inc()
			}
			return nil
		}
	})

	submitted := 0
	for i := 0; i < pathCount; i++ {
		if !pool.Submit(ctx, i) {
			break
		}
		submitted++
		if c := pool.QueueCap(); c > 0 {
			metrics.QueueUtilization.Set(float64(pool.QueueLen()) / float64(c))
		}
	}
	poolErr := pool.Drain()
	metrics.QueueUtilization.Set(0)

	total := NewPartialAggregate(milestones)
	var results []domain.PathResult
	for _, w := range state {
		total.Merge(w.agg)
		results = append(results, w.results...)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Summary.PathIndex < results[j].Summary.PathIndex })

	switch {
	case poolErr != nil && !errors.Is(poolErr, ErrRunIncomplete):
		return total, nil, poolErr
	case poolErr != nil || ctx.Err() != nil || total.Count() < pathCount:
		cause := context.Cause(ctx)
		if cause == nil {
			cause = poolErr
		}
		return total, nil, fmt.Errorf("%w: %d of %d paths finished (%d submitted): %w",
			ErrRunIncomplete, total.Count(), pathCount, submitted, cause)
	}
	return total, results, nil
}
