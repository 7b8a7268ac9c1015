// Package metrics exposes prometheus instrumentation for search executions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics records the outcome of every search execution.
type SearchMetrics struct {
	registry   *prometheus.Registry
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	outcomes   *prometheus.CounterVec
	culled     prometheus.Counter
	retained   *prometheus.GaugeVec
	problems   prometheus.Gauge
}

// New creates the metrics on their own registry so several engines can live
// in one process.
func New() *SearchMetrics {
	m := &SearchMetrics{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collection_search_executions_total",
			Help: "Total search executions",
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collection_search_execution_seconds",
			Help:    "Wall time of search executions",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collection_search_candidates_total",
			Help: "Search counters accumulated over all executions",
		}, []string{"counter"}),
		culled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collection_search_culled_items_total",
			Help: "Item/group exclusions made by the dominance cull",
		}),
		retained: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "collection_search_retained_collections",
			Help: "Collections retained by the last execution of each problem",
		}, []string{"problem"}),
		problems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collection_search_problems",
			Help: "Number of loaded problems",
		}),
	}

	m.registry.MustRegister(m.executions)
	m.registry.MustRegister(m.duration)
	m.registry.MustRegister(m.outcomes)
	m.registry.MustRegister(m.culled)
	m.registry.MustRegister(m.retained)
	m.registry.MustRegister(m.problems)
	return m
}

// Registry returns the registry to serve from /metrics.
func (m *SearchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveExecution records one execution. names and values are the search
// counters in matching order.
func (m *SearchMetrics) ObserveExecution(problem string, mode string, d time.Duration, culled int, names []string, values []int64, retained int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.executions.WithLabelValues(status).Inc()
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
	if err != nil {
		return
	}
	if culled > 0 {
		m.culled.Add(float64(culled))
	}
	for i, name := range names {
		if i < len(values) && values[i] > 0 {
			m.outcomes.WithLabelValues(name).Add(float64(values[i]))
		}
	}
	m.retained.WithLabelValues(problem).Set(float64(retained))
}

// SetProblems records the number of loaded problems.
func (m *SearchMetrics) SetProblems(n int) {
	m.problems.Set(float64(n))
}

// ForgetProblem drops the per-problem series of a deleted problem.
func (m *SearchMetrics) ForgetProblem(problem string) {
	m.retained.DeleteLabelValues(problem)
}
