package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one daemon instance.
//
// Metrics:
//   - pocketsafe_scans_total{kind,result} - scans by outcome (ok, error)
//   - pocketsafe_reminders_total{kind} - reminder events emitted
//   - pocketsafe_delivery_failures_total{kind} - notifier errors
//   - pocketsafe_scan_duration_seconds{kind} - scan latency
//   - pocketsafe_goal_remainder - remainder for the configured period
type Metrics struct {
	Registry *prometheus.Registry

	ScansTotal       *prometheus.CounterVec
	RemindersTotal   *prometheus.CounterVec
	DeliveryFailures *prometheus.CounterVec
	ScanDuration     *prometheus.HistogramVec
	GoalRemainder    prometheus.Gauge
}

// NewMetrics registers collectors on a private registry so several services
// can coexist in one process (tests do this).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ScansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketsafe_scans_total",
				Help: "Total number of reminder scans by outcome",
			},
			[]string{"kind", "result"},
		),
		RemindersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketsafe_reminders_total",
				Help: "Total number of reminder events emitted",
			},
			[]string{"kind"},
		),
		DeliveryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketsafe_delivery_failures_total",
				Help: "Total number of reminder deliveries that failed",
			},
			[]string{"kind"},
		),
		ScanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pocketsafe_scan_duration_seconds",
				Help:    "Duration of a reminder scan in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"kind"},
		),
		GoalRemainder: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pocketsafe_goal_remainder",
				Help: "Income minus spending for the configured period",
			},
		),
	}
}

// RecordScan records one finished scan.
func (m *Metrics) RecordScan(kind string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ScansTotal.WithLabelValues(kind, result).Inc()
	m.ScanDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordReminder records one emitted reminder and whether it was delivered.
func (m *Metrics) RecordReminder(kind string, delivered bool) {
	m.RemindersTotal.WithLabelValues(kind).Inc()
	if !delivered {
		m.DeliveryFailures.WithLabelValues(kind).Inc()
	}
}
