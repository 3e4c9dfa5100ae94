package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	dbQueryDuration      *prometheus.HistogramVec
	claimOutcomes        *prometheus.CounterVec
	donationsTransferred prometheus.Counter
	sweepRuns            *prometheus.CounterVec
	notificationsDropped prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	claimOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "food_claim_outcomes_total",
		Help: "Claim lifecycle outcomes by state or error code",
	}, []string{"outcome"})

	donationsTransferred := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "food_donations_transferred_total",
		Help: "Expired food items moved into the donation pipeline",
	})

	sweepRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_sweep_runs_total",
		Help: "Scheduled donation sweeps by result",
	}, []string{"result"})

	notificationsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total",
		Help: "Notifications that could not be queued",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, claimOutcomes, donationsTransferred, sweepRuns, notificationsDropped, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		dbQueryDuration:      dbQueryDuration,
		claimOutcomes:        claimOutcomes,
		donationsTransferred: donationsTransferred,
		sweepRuns:            sweepRuns,
		notificationsDropped: notificationsDropped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordClaimOutcome counts a claim transition or rejection.
func (m *MetricsService) RecordClaimOutcome(outcome string) {
	if m == nil {
		return
	}
	m.claimOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDonationsTransferred adds newly created donations.
func (m *MetricsService) RecordDonationsTransferred(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.donationsTransferred.Add(float64(n))
}

// RecordSweepRun counts a scheduled sweep tick.
func (m *MetricsService) RecordSweepRun(result string) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(result).Inc()
}

// RecordNotificationDropped counts a notification lost to a full queue.
func (m *MetricsService) RecordNotificationDropped() {
	if m == nil {
		return
	}
	m.notificationsDropped.Inc()
}
