package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the workflow engine.
type Metrics struct {
	transitions      *prometheus.CounterVec
	guardFailures    *prometheus.CounterVec
	reconcileRuns    prometheus.Counter
	reconcileWrites  *prometheus.CounterVec
	approvalOutcomes *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigov_lifecycle_transitions_total",
				Help: "Lifecycle transition attempts by target stage and outcome",
			},
			[]string{"target", "outcome"},
		),
		guardFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigov_guard_failures_total",
				Help: "Guard failures by error code",
			},
			[]string{"code"},
		),
		reconcileRuns: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "aigov_task_reconcile_runs_total",
				Help: "Governance task reconciliation passes",
			},
		),
		reconcileWrites: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigov_task_reconcile_writes_total",
				Help: "Task rows written by reconciliation, by kind",
			},
			[]string{"kind"},
		),
		approvalOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aigov_assessment_reviews_total",
				Help: "Risk assessment review outcomes",
			},
			[]string{"outcome"},
		),
	}
}

// RecordTransition counts one lifecycle transition attempt.
func (m *Metrics) RecordTransition(target LifecycleStage, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(target), outcome).Inc()
}

// RecordGuardFailures counts each failed guard by code.
func (m *Metrics) RecordGuardFailures(errs GovernanceErrors) {
	if m == nil {
		return
	}
	for _, e := range errs {
		m.guardFailures.WithLabelValues(e.Code).Inc()
	}
}

// RecordReconcile counts one reconciliation pass and its writes.
func (m *Metrics) RecordReconcile(result ReconcileResult) {
	if m == nil {
		return
	}
	m.reconcileRuns.Inc()
	m.reconcileWrites.WithLabelValues("created").Add(float64(len(result.Created)))
	m.reconcileWrites.WithLabelValues("completed").Add(float64(len(result.Completed)))
}

// RecordReview counts one assessment review outcome.
func (m *Metrics) RecordReview(outcome string) {
	if m == nil {
		return
	}
	m.approvalOutcomes.WithLabelValues(outcome).Inc()
}
