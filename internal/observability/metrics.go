package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

var (
	assignmentsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rehab_assign",
		Name:      "assignments_submitted_total",
		Help:      "Per-patient assignment calls issued by bulk submit, by outcome.",
	}, []string{"outcome"})
	wizardSessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rehab_assign",
		Name:      "wizard_sessions_opened_total",
		Help:      "Assignment wizard sessions opened.",
	})
	submitBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rehab_assign",
		Name:      "submit_batch_size",
		Help:      "Number of patients targeted by a single bulk submit.",
		Buckets:   []float64{1, 2, 5, 10, 20, 50},
	})
)

func init() {
	prometheus.MustRegister(assignmentsSubmitted, wizardSessionsOpened, submitBatchSize)
}

// RecordSubmit records one bulk submit: its size and the per-patient outcomes.
// Patients after the first failure are counted as skipped.
func RecordSubmit(batch, succeeded, failed int) {
	if batch <= 0 {
		return
	}
	submitBatchSize.Observe(float64(batch))
	assignmentsSubmitted.WithLabelValues(OutcomeSuccess).Add(float64(succeeded))
	assignmentsSubmitted.WithLabelValues(OutcomeFailure).Add(float64(failed))
	if skipped := batch - succeeded - failed; skipped > 0 {
		assignmentsSubmitted.WithLabelValues(OutcomeSkipped).Add(float64(skipped))
	}
}

// RecordWizardOpened counts a newly opened wizard session.
func RecordWizardOpened() {
	wizardSessionsOpened.Inc()
}
