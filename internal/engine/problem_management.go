package engine

import (
	"sort"

	"go.uber.org/zap"

	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/model"
	"github.com/gcbaptista/go-collection-search/services"
)

var (
	_ services.ProblemManagerWithAsync = (*Engine)(nil)
	_ services.JobManager              = (*Engine)(nil)
	_ services.ProblemAccessor         = (*ProblemInstance)(nil)
)

// CreateProblem validates, builds, loads and persists a new problem.
func (e *Engine) CreateProblem(def model.ProblemDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.problems[def.Name]; exists {
		return internalErrors.NewProblemAlreadyExistsError(def.Name)
	}
	instance, err := BuildInstance(def, e.defaults, e.log)
	if err != nil {
		return err
	}
	if err := e.persistDefinition(def); err != nil {
		return err
	}

	e.problems[def.Name] = instance
	e.metrics.SetProblems(len(e.problems))
	e.log.Info("problem created", zap.String("problem", def.Name), zap.Int("items", len(def.Items)))
	return nil
}

// GetProblem returns the named problem.
func (e *Engine) GetProblem(name string) (services.ProblemAccessor, error) {
	return e.instance(name)
}

func (e *Engine) instance(name string) (*ProblemInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.problems[name]
	if !exists {
		return nil, internalErrors.NewProblemNotFoundError(name)
	}
	return instance, nil
}

// DeleteProblem releases a problem and removes its definition from disk.
func (e *Engine) DeleteProblem(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, exists := e.problems[name]
	if !exists {
		return internalErrors.NewProblemNotFoundError(name)
	}
	delete(e.problems, name)
	instance.Release()

	if err := e.removeDefinition(name); err != nil {
		return err
	}
	e.metrics.ForgetProblem(name)
	e.metrics.SetProblems(len(e.problems))
	e.jobManager.ForgetProblem(name)
	e.log.Info("problem deleted", zap.String("problem", name))
	return nil
}

// ListProblems returns the summaries of all problems sorted by name.
func (e *Engine) ListProblems() []model.ProblemSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.ProblemSummary, 0, len(e.problems))
	for _, instance := range e.problems {
		out = append(out, instance.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResetProblem discards the results of a problem.
func (e *Engine) ResetProblem(name string) error {
	instance, err := e.instance(name)
	if err != nil {
		return err
	}
	return instance.ResetResults()
}

// EstimateProblem returns log10 of the unpruned state space of a problem.
func (e *Engine) EstimateProblem(name string) (float64, error) {
	instance, err := e.instance(name)
	if err != nil {
		return 0, err
	}
	return instance.EstimateStateSpace(), nil
}

// Results returns a page of ranked collections and the total retained.
func (e *Engine) Results(name string, offset, limit int) (*model.ResultsPage, error) {
	instance, err := e.instance(name)
	if err != nil {
		return nil, err
	}
	if !instance.Executed() {
		return nil, internalErrors.NewValidationError("problem", "problem has not been executed")
	}
	return &model.ResultsPage{
		Problem:     name,
		Total:       instance.Retained(),
		Offset:      offset,
		Limit:       limit,
		Collections: instance.Collections(offset, limit),
	}, nil
}
