package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/internal/search"
	"github.com/gcbaptista/go-collection-search/model"
)

// ExecuteProblem runs the search of one problem. Results of an earlier run
// are discarded first, so every call searches from an empty store.
func (e *Engine) ExecuteProblem(name string, verbosity search.Verbosity) (*model.ExecutionSummary, error) {
	instance, err := e.instance(name)
	if err != nil {
		return nil, err
	}
	if instance.Executed() {
		if err := instance.ResetResults(); err != nil {
			return nil, err
		}
	}

	mode := strconv.Itoa(instance.Problem().Parameters().SearchMode)
	start := time.Now()
	counters, err := instance.Execute(verbosity)
	took := time.Since(start)

	_, culled := instance.LastCounters()
	retained := instance.Retained()
	e.metrics.ObserveExecution(name, mode, took, culled, counters.Names(), counters.Values(), retained, err)
	if err != nil {
		e.log.Warn("execution failed", zap.String("problem", name), zap.Error(err))
		return nil, err
	}

	summary := &model.ExecutionSummary{
		ExecutionID: uuid.New().String(),
		Problem:     name,
		Culled:      culled,
		Retained:    retained,
		Counters:    make(map[string]int64, len(counters.PerConstraint)+8),
		TookMs:      took.Milliseconds(),
	}
	values := counters.Values()
	for i, n := range counters.Names() {
		summary.Counters[n] = values[i]
	}
	e.log.Info("problem executed",
		zap.String("problem", name),
		zap.String("execution_id", summary.ExecutionID),
		zap.Int("culled", culled),
		zap.Int("retained", retained),
		zap.Int64("analyzed", counters.Analyzed),
		zap.Duration("took", took),
	)
	return summary, nil
}

func (e *Engine) checkBatch(names []string) error {
	if len(names) == 0 {
		return internalErrors.NewValidationError("problems", "at least one problem name is required")
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return internalErrors.NewValidationError("problems", fmt.Sprintf("problem '%s' listed twice", name))
		}
		seen[name] = true
		if _, err := e.instance(name); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteMany runs several independent problems concurrently, at most
// maxWorkers at a time. Summaries are returned in the order of names. The
// first failure cancels the problems that have not started yet.
func (e *Engine) ExecuteMany(ctx context.Context, names []string, verbosity search.Verbosity) ([]*model.ExecutionSummary, error) {
	if err := e.checkBatch(names); err != nil {
		return nil, err
	}

	summaries := make([]*model.ExecutionSummary, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxWorkers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, err := e.ExecuteProblem(name, verbosity)
			if err != nil {
				return fmt.Errorf("problem '%s': %w", name, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}
