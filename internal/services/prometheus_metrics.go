package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	ingestTotal         *prometheus.CounterVec
	ingestDuration      prometheus.Histogram
	storageRetries      *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	activeSubscriptions prometheus.Gauge
}

func NewPrometheusMetrics() MetricsRecorderInterface {
	return &PrometheusMetrics{
		ingestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transaction_ingest_total",
				Help: "Total number of transaction submissions by outcome",
			},
			[]string{"status"},
		),
		ingestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transaction_ingest_duration_milliseconds",
				Help:    "Transaction ingestion duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		storageRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_retry_attempts_total",
				Help: "Total number of storage retry attempts by pipeline stage",
			},
			[]string{"stage"},
		),
		notificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Total number of notification deliveries by outcome",
			},
			[]string{"outcome"},
		),
		activeSubscriptions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_subscriptions",
				Help: "Current number of live event stream subscriptions",
			},
		),
	}
}

func (m *PrometheusMetrics) RecordIngest(status string, duration time.Duration) {
	m.ingestTotal.WithLabelValues(status).Inc()
	m.ingestDuration.Observe(float64(duration.Milliseconds()))
}

func (m *PrometheusMetrics) RecordStorageRetry(stage string) {
	m.storageRetries.WithLabelValues(stage).Inc()
}

func (m *PrometheusMetrics) RecordNotification(outcome string) {
	m.notificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) SetActiveSubscriptions(count int) {
	m.activeSubscriptions.Set(float64(count))
}
