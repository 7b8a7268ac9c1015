package engine

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/internal/jobs"
	"github.com/gcbaptista/go-collection-search/internal/metrics"
	"github.com/gcbaptista/go-collection-search/model"
)

// Engine manages named problem instances, their persisted definitions, the
// background job manager and the search metrics.
// It implements the services.ProblemManager interface.
type Engine struct {
	mu       sync.RWMutex
	problems map[string]*ProblemInstance
	dataDir  string

	defaults   config.SearchParameters
	maxWorkers int
	jobManager *jobs.Manager
	metrics    *metrics.SearchMetrics
	log        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDefaults sets the parameters used for definitions that carry none.
func WithDefaults(p config.SearchParameters) Option {
	return func(e *Engine) { e.defaults = p }
}

// WithMaxWorkers bounds the number of concurrent background jobs.
func WithMaxWorkers(n int) Option {
	return func(e *Engine) { e.maxWorkers = n }
}

// WithMetrics shares a metrics set with the caller.
func WithMetrics(m *metrics.SearchMetrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine creates an engine rooted at dataDir and reloads every persisted
// problem definition found there.
func NewEngine(dataDir string, opts ...Option) *Engine {
	eng := &Engine{
		problems:   make(map[string]*ProblemInstance),
		dataDir:    dataDir,
		defaults:   config.DefaultSearchParameters(),
		maxWorkers: config.DefaultServerConfig().MaxWorkers,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.maxWorkers <= 0 {
		eng.maxWorkers = 1
	}
	if eng.metrics == nil {
		eng.metrics = metrics.New()
	}
	eng.jobManager = jobs.NewManager(eng.maxWorkers, eng.log)
	eng.jobManager.Start()

	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		eng.log.Warn("could not create data directory, definitions will not persist", zap.String("dir", dataDir), zap.Error(err))
	}
	eng.loadProblemsFromDisk()
	return eng
}

// Close stops the job manager after its running jobs finish.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// Metrics returns the search metrics.
func (e *Engine) Metrics() *metrics.SearchMetrics {
	return e.metrics
}

// Defaults returns the parameters applied to definitions without their own.
func (e *Engine) Defaults() config.SearchParameters {
	return e.defaults
}

// GetJob retrieves a background job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns the jobs of a problem, optionally filtered by status.
func (e *Engine) ListJobs(problemName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(problemName, status)
}

// GetJobMetrics returns the job manager metrics.
func (e *Engine) GetJobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// GetJobSuccessRate returns the share of finished jobs that completed.
func (e *Engine) GetJobSuccessRate() float64 {
	return e.jobManager.GetJobSuccessRate()
}

// GetCurrentWorkload returns the number of pending and running jobs.
func (e *Engine) GetCurrentWorkload() int64 {
	return e.jobManager.GetCurrentWorkload()
}
