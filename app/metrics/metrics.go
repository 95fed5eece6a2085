// Package metrics exposes the scheduler's Prometheus counters and gauges,
// built the same way as the email-service's own metrics package: one
// registry via promauto, one /metrics HTTP handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unknownAppContext = "Unknown"

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processor_operations_total",
			Help: "Total number of operations reaching each lifecycle phase",
		},
		[]string{"chain", "app_context", "phase"},
	)

	queueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "processor_queue_length",
			Help: "Current number of operations held in a stage queue",
		},
		[]string{"chain", "queue"},
	)

	workerPoolJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "processor_worker_pool_jobs_active",
			Help: "Number of jobs currently executing in a stage's worker pool",
		},
		[]string{"chain", "phase"},
	)

	workerPoolJobsQueued = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "processor_worker_pool_jobs_queued",
			Help: "Number of jobs waiting for a free worker in a stage's worker pool",
		},
		[]string{"chain", "phase"},
	)
)

func labelAppContext(appContext string) string {
	if appContext == "" {
		return unknownAppContext
	}
	return appContext
}

// RecordPrepared increments the prepared counter for chain/appContext.
func RecordPrepared(chain, appContext string) {
	operationsTotal.WithLabelValues(chain, labelAppContext(appContext), "prepared").Inc()
}

// RecordSubmitted increments the submitted counter for chain/appContext.
func RecordSubmitted(chain, appContext string) {
	operationsTotal.WithLabelValues(chain, labelAppContext(appContext), "submitted").Inc()
}

// RecordConfirmed increments the confirmed counter for chain/appContext.
func RecordConfirmed(chain, appContext string) {
	operationsTotal.WithLabelValues(chain, labelAppContext(appContext), "confirmed").Inc()
}

// RecordFailed increments the failed counter for chain/appContext.
func RecordFailed(chain, appContext string) {
	operationsTotal.WithLabelValues(chain, labelAppContext(appContext), "failed").Inc()
}

// RecordDropped increments the dropped counter for chain/appContext.
func RecordDropped(chain, appContext string) {
	operationsTotal.WithLabelValues(chain, labelAppContext(appContext), "dropped").Inc()
}

// SetQueueLength sets the processor_queue_length gauge for chain/queue.
func SetQueueLength(chain, queue string, n int) {
	queueLength.WithLabelValues(chain, queue).Set(float64(n))
}

// SetWorkerPoolJobsActive sets the active-jobs gauge for chain/phase.
func SetWorkerPoolJobsActive(chain, phase string, n int) {
	workerPoolJobsActive.WithLabelValues(chain, phase).Set(float64(n))
}

// SetWorkerPoolJobsQueued sets the queued-jobs gauge for chain/phase.
func SetWorkerPoolJobsQueued(chain, phase string, n int) {
	workerPoolJobsQueued.WithLabelValues(chain, phase).Set(float64(n))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
