package services

import (
	"context"

	"github.com/gcbaptista/go-collection-search/internal/search"
	"github.com/gcbaptista/go-collection-search/model"
)

// Executor defines operations for running the search of one problem
type Executor interface {
	Execute(verbosity search.Verbosity) (search.Counters, error)
	ResetResults() error
	EstimateStateSpace() float64
}

// ResultReader defines operations for reading the retained collections
type ResultReader interface {
	PrepareResults() int
	CollectionLength() int
	GetResults(n int, itemsOut [][]int, valuesOut []float32) int
	Collections(offset, limit int) []model.Collection
}

// ProblemAccessor combines execution and result access for a single problem
type ProblemAccessor interface {
	Executor
	ResultReader
	Name() string
	Definition() model.ProblemDefinition
	Summary() model.ProblemSummary
}

// ProblemManager manages the lifecycle of named problems
type ProblemManager interface {
	CreateProblem(def model.ProblemDefinition) error
	GetProblem(name string) (ProblemAccessor, error)
	DeleteProblem(name string) error
	ListProblems() []model.ProblemSummary
	ExecuteProblem(name string, verbosity search.Verbosity) (*model.ExecutionSummary, error)
	ExecuteMany(ctx context.Context, names []string, verbosity search.Verbosity) ([]*model.ExecutionSummary, error)
	ResetProblem(name string) error
	EstimateProblem(name string) (float64, error)
	Results(name string, offset, limit int) (*model.ResultsPage, error)
}

// ProblemManagerWithAsync extends ProblemManager with background jobs.
// Every method returns the id of the job doing the work.
type ProblemManagerWithAsync interface {
	ProblemManager
	CreateProblemAsync(def model.ProblemDefinition) (string, error)
	DeleteProblemAsync(name string) (string, error)
	ExecuteProblemAsync(name string, verbosity search.Verbosity) (string, error)
	ExecuteManyAsync(names []string, verbosity search.Verbosity) (string, error)
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(problemName string, status *model.JobStatus) []*model.Job
}
