package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-collection-search/internal/errors"
	"github.com/gcbaptista/go-collection-search/model"
)

func waitForStatus(t *testing.T, m *Manager, jobID string, want model.JobStatus) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = m.GetJob(jobID)
		return err == nil && job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	manager := NewManager(2, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeExecute, "lineup", map[string]string{
		"verbosity": "0",
	})
	require.NotEmpty(t, jobID)

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobTypeExecute, job.Type)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, "lineup", job.ProblemName)
	assert.Equal(t, int64(1), manager.GetCurrentWorkload())
}

func TestJobManager_ExecuteJob(t *testing.T) {
	manager := NewManager(2, nil)
	manager.Start()
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeExecute, "lineup", nil)

	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		manager.UpdateJobProgress(jobID, 1, 2, "culled")
		manager.UpdateJobProgress(jobID, 2, 2, "searched")
		return &model.ExecutionSummary{Problem: job.ProblemName, Retained: 3}, nil
	})
	require.NoError(t, err)

	job := waitForStatus(t, manager, jobID, model.JobStatusCompleted)
	require.NotNil(t, job.Progress)
	assert.Equal(t, 2, job.Progress.Current)
	require.NotNil(t, job.Result)
	assert.Equal(t, 3, job.Result.Retained)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	assert.Error(t, manager.ExecuteJob(jobID, nil), "only pending jobs run")

	metrics := manager.GetMetrics()
	assert.Equal(t, int64(1), metrics.JobsCompleted)
	assert.Equal(t, int64(1), metrics.JobsByStatus[model.JobStatusCompleted])
	assert.Equal(t, int64(0), manager.GetCurrentWorkload())
}

func TestJobManager_FailedJob(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeBatchExecute, "", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		return nil, errors.New("problem not loaded")
	}))

	job := waitForStatus(t, manager, jobID, model.JobStatusFailed)
	assert.Equal(t, "problem not loaded", job.Error)
	assert.Equal(t, 0.0, manager.GetJobSuccessRate())
}

func TestJobManager_UnknownJob(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	_, err := manager.GetJob("missing")
	assert.ErrorIs(t, err, internalErrors.ErrJobNotFound)
	assert.ErrorIs(t, manager.ExecuteJob("missing", nil), internalErrors.ErrJobNotFound)
}

func TestJobManager_ListAndCleanup(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	done := manager.CreateJob(model.JobTypeExecute, "a", nil)
	manager.CreateJob(model.JobTypeExecute, "a", nil)
	manager.CreateJob(model.JobTypeExecute, "b", nil)

	require.NoError(t, manager.ExecuteJob(done, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		return nil, nil
	}))
	waitForStatus(t, manager, done, model.JobStatusCompleted)

	assert.Len(t, manager.ListJobs("a", nil), 2)
	pending := model.JobStatusPending
	assert.Len(t, manager.ListJobs("a", &pending), 1)

	assert.Equal(t, 1, manager.CleanupOldJobs(0))
	assert.Len(t, manager.ListJobs("a", nil), 1)

	manager.ForgetProblem("b")
	assert.Len(t, manager.ListJobs("b", nil), 1, "unfinished jobs are kept")
}

func TestJobManager_StopRejectsNewWork(t *testing.T) {
	manager := NewManager(1, nil)
	manager.Stop()
	manager.Stop()

	jobID := manager.CreateJob(model.JobTypeExecute, "a", nil)
	assert.Error(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) (*model.ExecutionSummary, error) {
		return nil, nil
	}))
	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)
}
