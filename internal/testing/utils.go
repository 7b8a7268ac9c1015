// Package testing provides fixtures and helpers for tests that need a running engine.
package testing

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-collection-search/internal/engine"
	"github.com/gcbaptista/go-collection-search/model"
	"github.com/gcbaptista/go-collection-search/services"
)

// CreateTestEngine creates an engine over a temporary directory that is
// closed and removed when the test ends.
func CreateTestEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	eng := engine.NewEngine(t.TempDir(), opts...)
	t.Cleanup(eng.Close)
	return eng
}

// SampleDefinition is two primary groups of three items with one pick each,
// unit costs and a budget of 2. The best collection is {a, d} worth 11.
func SampleDefinition(name string) model.ProblemDefinition {
	return model.ProblemDefinition{
		Name:    name,
		Picks:   []int{1, 1},
		MaxCost: 2,
		Features: []model.FeatureDefinition{{
			Name:       "position",
			Groups:     2,
			Partition:  true,
			Membership: [][]int{{0}, {0}, {0}, {1}, {1}, {1}},
		}},
		Items: []model.ItemDefinition{
			{ID: "a", Cost: 1, Value: 5},
			{ID: "b", Cost: 1, Value: 4},
			{ID: "c", Cost: 1, Value: 3},
			{ID: "d", Cost: 1, Value: 6},
			{ID: "e", Cost: 1, Value: 2},
			{ID: "f", Cost: 1, Value: 1},
		},
	}
}

// RandomDefinition builds a reproducible partition problem with the given
// group sizes and picks, a second partition feature of teams and one
// max-per-team constraint.
func RandomDefinition(name string, seed int64, sizes, picks []int, teams int) model.ProblemDefinition {
	rng := rand.New(rand.NewSource(seed))
	def := model.ProblemDefinition{
		Name:  name,
		Picks: picks,
		Features: []model.FeatureDefinition{
			{Name: "position", Groups: len(sizes), Partition: true},
			{Name: "team", Groups: teams, Partition: true},
		},
		Constraints: []model.ConstraintDefinition{{Type: "max_per_group", Args: []int{1, 2}}},
	}

	var totalCost float32
	for g, n := range sizes {
		for i := 0; i < n; i++ {
			item := model.ItemDefinition{
				ID:    fmt.Sprintf("g%d-%d", g, i),
				Cost:  float32(1 + rng.Intn(9)),
				Value: float32(1 + rng.Intn(30)),
			}
			totalCost += item.Cost
			def.Items = append(def.Items, item)
			def.Features[0].Membership = append(def.Features[0].Membership, []int{g})
			def.Features[1].Membership = append(def.Features[1].Membership, []int{rng.Intn(teams)})
		}
	}
	def.MaxCost = totalCost / 3
	return def
}

// CreateTestProblem registers SampleDefinition under name.
func CreateTestProblem(t *testing.T, eng *engine.Engine, name string) model.ProblemDefinition {
	t.Helper()
	def := SampleDefinition(name)
	require.NoError(t, eng.CreateProblem(def), "Failed to create test problem")
	return def
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 10 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJobCompletion polls a job until it completes, failing the test if
// it fails or times out.
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted:
				if opts.LogProgress {
					t.Logf("Job %s completed in %v", jobID, job.CompletedAt.Sub(job.CreatedAt))
				}
				return job
			case model.JobStatusFailed, model.JobStatusCancelled:
				t.Fatalf("Job %s ended with status %s: %s", jobID, job.Status, job.Error)
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s", jobID, job.Progress.Current, job.Progress.Total, job.Progress.Message)
				}
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedProblem string) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedProblem, job.ProblemName, "Job problem name should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// AssertRanked verifies that collections are in non-increasing value order
// with consecutive ranks.
func AssertRanked(t *testing.T, collections []model.Collection) {
	t.Helper()
	for i, c := range collections {
		if i == 0 {
			continue
		}
		assert.GreaterOrEqual(t, collections[i-1].Value, c.Value, "collection %d out of order", i)
		assert.Equal(t, collections[i-1].Rank+1, c.Rank)
	}
}
