package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/internal/search"
	"github.com/gcbaptista/go-collection-search/model"
)

// CreateProblemAsync builds and persists a problem in a background job.
func (e *Engine) CreateProblemAsync(def model.ProblemDefinition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	if _, err := e.instance(def.Name); err == nil {
		return "", internalErrors.NewProblemAlreadyExistsError(def.Name)
	}

	jobID := e.jobManager.CreateJob(model.JobTypeCreateProblem, def.Name, map[string]string{
		"operation":  "create_problem",
		"item_count": strconv.Itoa(len(def.Items)),
	})
	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		return nil, e.CreateProblem(def)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start create problem job: %w", err)
	}
	return jobID, nil
}

// DeleteProblemAsync deletes a problem in a background job.
func (e *Engine) DeleteProblemAsync(name string) (string, error) {
	if _, err := e.instance(name); err != nil {
		return "", err
	}

	jobID := e.jobManager.CreateJob(model.JobTypeDeleteProblem, name, map[string]string{
		"operation": "delete_problem",
	})
	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		return nil, e.DeleteProblem(name)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start delete problem job: %w", err)
	}
	return jobID, nil
}

// ExecuteProblemAsync runs ExecuteProblem in a background job. The execution
// summary is attached to the job when it completes.
func (e *Engine) ExecuteProblemAsync(name string, verbosity search.Verbosity) (string, error) {
	if _, err := e.instance(name); err != nil {
		return "", err
	}

	jobID := e.jobManager.CreateJob(model.JobTypeExecute, name, map[string]string{
		"operation": "execute",
		"verbosity": strconv.FormatUint(uint64(verbosity), 10),
	})
	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		e.jobManager.UpdateJobProgress(jobID, 0, 1, "searching")
		summary, err := e.ExecuteProblem(name, verbosity)
		if err != nil {
			return nil, err
		}
		e.jobManager.UpdateJobProgress(jobID, 1, 1, fmt.Sprintf("%d collections retained", summary.Retained))
		return summary, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start execute job: %w", err)
	}
	return jobID, nil
}

// ExecuteManyAsync runs ExecuteMany in a background job. Progress counts
// finished problems; the job fails if any problem fails.
func (e *Engine) ExecuteManyAsync(names []string, verbosity search.Verbosity) (string, error) {
	if err := e.checkBatch(names); err != nil {
		return "", err
	}

	jobID := e.jobManager.CreateJob(model.JobTypeBatchExecute, "", map[string]string{
		"operation": "batch_execute",
		"problems":  strings.Join(names, ","),
	})
	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		e.jobManager.UpdateJobProgress(jobID, 0, len(names), "searching")
		summaries, err := e.ExecuteMany(ctx, names, verbosity)
		if err != nil {
			return nil, err
		}
		e.jobManager.UpdateJobProgress(jobID, len(summaries), len(names), "all problems executed")
		e.log.Info("batch execute finished", zap.String("job_id", jobID), zap.Int("problems", len(summaries)))
		return nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start batch execute job: %w", err)
	}
	return jobID, nil
}
