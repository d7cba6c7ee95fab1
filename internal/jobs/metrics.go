package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embed_jobs_queued_total",
		Help: "Embedding jobs accepted into the queue.",
	})
	jobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embed_jobs_rejected_total",
		Help: "Embedding jobs rejected because the queue was full.",
	})
	jobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embed_jobs_processed_total",
		Help: "Embedding jobs completed successfully.",
	})
	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embed_jobs_failed_total",
		Help: "Embedding jobs that failed; the story is left without an embedding.",
	})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "embed_queue_depth",
		Help: "Embedding jobs currently waiting in the queue.",
	})
)
