package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpDurationHistogram     *prometheus.HistogramVec
	depositCounter            *prometheus.CounterVec
	callbackCounter           *prometheus.CounterVec
	transitionConflictCounter prometheus.Counter
	idempotencyCounter        *prometheus.CounterVec
	workerRunCounter          *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		depositCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deposit_submissions_total",
			Help: "Deposit submission outcomes",
		}, []string{"result"})

		callbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Processor callback outcomes",
		}, []string{"outcome"})

		transitionConflictCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_transition_conflicts_total",
			Help: "Terminal status transitions rejected as conflicting",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			depositCounter,
			callbackCounter,
			transitionConflictCounter,
			idempotencyCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementDeposit(result string) {
	if depositCounter == nil {
		return
	}
	depositCounter.WithLabelValues(result).Inc()
}

func IncrementCallback(outcome string) {
	if callbackCounter == nil {
		return
	}
	callbackCounter.WithLabelValues(outcome).Inc()
}

func IncrementTransitionConflict() {
	if transitionConflictCounter == nil {
		return
	}
	transitionConflictCounter.Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
