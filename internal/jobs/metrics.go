package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/go-collection-search/model"
)

// JobMetricsData is a point-in-time copy of the job metrics
type JobMetricsData struct {
	JobsCreated          int64                           `json:"jobs_created"`
	JobsCompleted        int64                           `json:"jobs_completed"`
	JobsFailed           int64                           `json:"jobs_failed"`
	TotalExecutionTime   time.Duration                   `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration                   `json:"average_execution_time_ns"`
	JobsByType           map[model.JobType]int64         `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64       `json:"jobs_by_status"`
	AverageByType        map[model.JobType]time.Duration `json:"average_by_type_ns"`
	SuccessRate          float64                         `json:"success_rate"`
	LastUpdated          time.Time                       `json:"last_updated"`
}

type typeTiming struct {
	count int64
	total time.Duration
}

// JobMetrics tracks counts and timings of background jobs
type JobMetrics struct {
	mu          sync.RWMutex
	created     int64
	completed   int64
	failed      int64
	totalTime   time.Duration
	byType      map[model.JobType]int64
	byStatus    map[model.JobStatus]int64
	timing      map[model.JobType]*typeTiming
	lastUpdated time.Time
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		byType:      make(map[model.JobType]int64),
		byStatus:    make(map[model.JobStatus]int64),
		timing:      make(map[model.JobType]*typeTiming),
		lastUpdated: time.Now(),
	}
}

// RecordJobCreated counts a new pending job
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	m.byType[jobType]++
	m.byStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()
}

// RecordJobStatusChange moves one job between status buckets
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.byStatus[oldStatus] > 0 {
		m.byStatus[oldStatus]--
	}
	m.byStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordJobCompleted records a successful job and its duration
func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completed++
	m.totalTime += executionTime
	tt := m.timing[jobType]
	if tt == nil {
		tt = &typeTiming{}
		m.timing[jobType] = tt
	}
	tt.count++
	tt.total += executionTime
	m.lastUpdated = time.Now()
}

// RecordJobFailed records a failed job
func (m *JobMetrics) RecordJobFailed(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed++
	m.lastUpdated = time.Now()
}

// GetMetrics returns a copy of the current metrics
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := JobMetricsData{
		JobsCreated:        m.created,
		JobsCompleted:      m.completed,
		JobsFailed:         m.failed,
		TotalExecutionTime: m.totalTime,
		JobsByType:         make(map[model.JobType]int64, len(m.byType)),
		JobsByStatus:       make(map[model.JobStatus]int64, len(m.byStatus)),
		AverageByType:      make(map[model.JobType]time.Duration, len(m.timing)),
		SuccessRate:        m.successRate(),
		LastUpdated:        m.lastUpdated,
	}
	if m.completed > 0 {
		data.AverageExecutionTime = m.totalTime / time.Duration(m.completed)
	}
	for k, v := range m.byType {
		data.JobsByType[k] = v
	}
	for k, v := range m.byStatus {
		data.JobsByStatus[k] = v
	}
	for k, tt := range m.timing {
		data.AverageByType[k] = tt.total / time.Duration(tt.count)
	}
	return data
}

// GetAverageExecutionTimeByType returns the mean duration of completed jobs of one type
func (m *JobMetrics) GetAverageExecutionTimeByType(jobType model.JobType) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tt := m.timing[jobType]
	if tt == nil || tt.count == 0 {
		return 0
	}
	return tt.total / time.Duration(tt.count)
}

func (m *JobMetrics) successRate() float64 {
	finished := m.completed + m.failed
	if finished == 0 {
		return 1.0
	}
	return float64(m.completed) / float64(finished)
}

// GetSuccessRate returns the success rate (0.0 to 1.0)
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successRate()
}

// GetCurrentWorkload returns the number of pending and running jobs
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byStatus[model.JobStatusPending] + m.byStatus[model.JobStatusRunning]
}
