package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the change workflow engine.
type Metrics struct {
	// Lifecycle transitions by from/to status
	Transitions *prometheus.CounterVec

	// Approver decisions by outcome
	Decisions *prometheus.CounterVec

	// Optimistic-concurrency retries of the mutation loop
	ConflictRetries prometheus.Counter
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "changeflow_transitions_total",
			Help: "Total change request status transitions by from and to status",
		}, []string{"from", "to"}),

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "changeflow_decisions_total",
			Help: "Total approver decisions recorded by outcome",
		}, []string{"decision"}),

		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "changeflow_conflict_retries_total",
			Help: "Total version-conflict retries of workflow mutations",
		}),
	}
}
