package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_runs_total",
		Help: "Completed automation job invocations by job and status.",
	}, []string{"job", "status"})

	jobEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_entities_processed_total",
		Help: "Entities successfully processed by automation jobs.",
	}, []string{"job"})
)
