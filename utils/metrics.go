package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// JobRuns counts scheduled job invocations by outcome.
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progreso_job_runs_total",
			Help: "Scheduled job runs",
		},
		[]string{"job", "status"},
	)

	// JobUserFailures counts per-user failures inside batch jobs. A nonzero
	// rate here with successful job runs means isolation is doing its job.
	JobUserFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progreso_job_user_failures_total",
			Help: "Per-user failures skipped inside batch jobs",
		},
		[]string{"job"},
	)

	// AIRequestDuration times calls to the generation service.
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "progreso_ai_request_duration_seconds",
			Help: "Generation service call duration",
		},
		[]string{"kind"},
	)

	// ExpiredMissions counts missions closed by the expiry job.
	ExpiredMissions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progreso_expired_missions_total",
			Help: "Missions expired with penalty",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(JobRuns, JobUserFailures, AIRequestDuration, ExpiredMissions)
}
