package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reclassification module.
type Metrics struct {
	// Organization records streamed and evaluated
	RecordsEvaluated prometheus.Counter

	// Per-record phase outcomes: "candidate" or "disqualified"
	EvaluationOutcome *prometheus.CounterVec

	// Candidates removed by the hierarchy pass
	HierarchyDisqualified prometheus.Counter

	// Bulk mutation outcomes: "success" or "failure"
	MutationOutcome *prometheus.CounterVec

	// Completed runs by status: "completed", "failed", "dry_run"
	Runs *prometheus.CounterVec

	// Full pipeline latency
	RunDuration prometheus.Histogram
}

// New creates a new Metrics instance with all reclassification metrics registered.
func New() *Metrics {
	return &Metrics{
		RecordsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reclass_records_evaluated_total",
			Help: "Total organization records streamed through the rule phase",
		}),

		EvaluationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reclass_evaluation_outcomes_total",
			Help: "Per-record rule phase outcomes",
		}, []string{"outcome"}),

		HierarchyDisqualified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reclass_hierarchy_disqualified_total",
			Help: "Candidates removed by the reports-to hierarchy pass",
		}),

		MutationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reclass_mutation_outcomes_total",
			Help: "Per-record bulk mutation outcomes",
		}, []string{"outcome"}),

		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reclass_runs_total",
			Help: "Pipeline runs by final status",
		}, []string{"status"}),

		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "reclass_run_duration_seconds",
			Help:    "Duration of a full pipeline run",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// AddEvaluated records streamed organization records.
func (m *Metrics) AddEvaluated(n int) {
	if m != nil {
		m.RecordsEvaluated.Add(float64(n))
	}
}

// AddEvaluationOutcome records per-record rule phase outcomes in bulk.
func (m *Metrics) AddEvaluationOutcome(outcome string, n int) {
	if m != nil && n > 0 {
		m.EvaluationOutcome.WithLabelValues(outcome).Add(float64(n))
	}
}

// AddHierarchyDisqualified records candidates removed by the hierarchy pass.
func (m *Metrics) AddHierarchyDisqualified(n int) {
	if m != nil {
		m.HierarchyDisqualified.Add(float64(n))
	}
}

// IncrementMutationOutcome records one bulk mutation outcome.
func (m *Metrics) IncrementMutationOutcome(outcome string) {
	if m != nil {
		m.MutationOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementRuns records a finished run.
func (m *Metrics) IncrementRuns(status string) {
	if m != nil {
		m.Runs.WithLabelValues(status).Inc()
	}
}

// ObserveRunDuration records the total run duration.
func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m != nil {
		m.RunDuration.Observe(d.Seconds())
	}
}
