package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brainac"

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses, mostly gateway round trips (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range (15s - 60s) ---
	20000, 30000, 45000, 60000,
}

// Metric is a definition for the name, description, type and labels of a
// collector, plus the collector itself once built.
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric builds the prometheus.Collector described by m.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
			m.Args,
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	}
	m.MetricCollector = metric
	return metric
}

var (
	metricBusinessProcess = &Metric{
		ID:          "bpDur",
		Name:        "bp_dur_ms",
		Description: "business process latency in milliseconds",
		Type:        "histogram_vec",
		Args:        []string{"type", "subtype", "result"},
	}
	metricTransitions = &Metric{
		ID:          "subTransitions",
		Name:        "subscription_transitions_total",
		Description: "subscription status transitions, partitioned by target status and trigger",
		Type:        "counter_vec",
		Args:        []string{"to", "source"},
	}
	metricWebhooks = &Metric{
		ID:          "webhookEvents",
		Name:        "webhook_events_total",
		Description: "payment gateway webhook deliveries by event and outcome",
		Type:        "counter_vec",
		Args:        []string{"event", "result"},
	}
)

var (
	businessProcess = NewMetric(metricBusinessProcess, "app").(*prometheus.HistogramVec)
	transitions     = NewMetric(metricTransitions, "app").(*prometheus.CounterVec)
	webhooks        = NewMetric(metricWebhooks, "app").(*prometheus.CounterVec)
)

func init() {
	prometheus.MustRegister(businessProcess, transitions, webhooks)
}

// MillisecondsSince returns the elapsed time since start in milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

// ObserveProcess records how long a business step took, e.g.
// ("gateway", "create_order", "ok").
func ObserveProcess(kind, subtype string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	businessProcess.WithLabelValues(kind, subtype, result).Observe(MillisecondsSince(start))
}

// RecordTransition counts a subscription entering status `to`.
func RecordTransition(to, source string) {
	transitions.WithLabelValues(to, source).Inc()
}

// RecordWebhook counts one webhook delivery.
func RecordWebhook(event, result string) {
	webhooks.WithLabelValues(event, result).Inc()
}

const (
	RefererKey = "X-Referer"
)
