// Package metrics provides Prometheus metrics for notification delivery.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics groups the counters and histograms of the notification pipeline.
// All methods are safe to call on a nil receiver so callers and tests may omit metrics.
type NotificationMetrics struct {
	DeliveriesTotal        *prometheus.CounterVec   // push calls by gateway and outcome
	DeliveryDuration       *prometheus.HistogramVec // push call latency by gateway
	TokensPrunedTotal      prometheus.Counter       // tokens removed after permanent failures
	DispatchesTotal        prometheus.Counter       // fan-outs started
	NotificationsPersisted *prometheus.CounterVec   // stored records by notification type
	SkippedRecipients      *prometheus.CounterVec   // recipients dropped by preference gate, by reason
	CircuitBreakerState    *prometheus.GaugeVec     // 0=closed, 1=half-open, 2=open
	EventsProcessed        *prometheus.CounterVec   // queue events by type and status
}

// NewNotificationMetrics creates and registers the metrics on reg.
func NewNotificationMetrics(reg prometheus.Registerer) (*NotificationMetrics, error) {
	m := &NotificationMetrics{
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_push_deliveries_total",
				Help: "Total number of push delivery attempts by gateway and outcome",
			},
			[]string{"gateway", "outcome"},
		),
		DeliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notification_push_delivery_duration_seconds",
				Help:    "Time taken by one push gateway call",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"gateway"},
		),
		TokensPrunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_tokens_pruned_total",
			Help: "Device tokens removed after a permanent gateway rejection",
		}),
		DispatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notification_dispatches_total",
			Help: "Push fan-outs started",
		}),
		NotificationsPersisted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_records_persisted_total",
				Help: "Notification records stored by notification type",
			},
			[]string{"type"},
		),
		SkippedRecipients: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_recipients_skipped_total",
				Help: "Recipients excluded from storage or push by reason",
			},
			[]string{"reason"}, // category_disabled, push_disabled, quiet_hours
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "notification_gateway_circuit_breaker_state",
				Help: "Circuit breaker state for the push gateway (0=closed, 1=half-open, 2=open)",
			},
			[]string{"gateway"},
		),
		EventsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_events_processed_total",
				Help: "Queue events handled by workers by event type and status",
			},
			[]string{"event_type", "status"},
		),
	}

	if err := reg.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register notification metrics: %w", err)
	}
	return m, nil
}

// RecordDelivery records one push call.
func (m *NotificationMetrics) RecordDelivery(gateway, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(gateway, outcome).Inc()
	if duration > 0 {
		m.DeliveryDuration.WithLabelValues(gateway).Observe(duration.Seconds())
	}
}

func (m *NotificationMetrics) RecordPruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensPrunedTotal.Add(float64(n))
}

func (m *NotificationMetrics) IncrementDispatchTotal() {
	if m == nil {
		return
	}
	m.DispatchesTotal.Inc()
}

func (m *NotificationMetrics) RecordPersisted(notificationType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.NotificationsPersisted.WithLabelValues(notificationType).Add(float64(n))
}

func (m *NotificationMetrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.SkippedRecipients.WithLabelValues(reason).Inc()
}

// UpdateCircuitBreakerState sets the gauge for gateway.
func (m *NotificationMetrics) UpdateCircuitBreakerState(gateway string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(gateway).Set(float64(state))
}

func (m *NotificationMetrics) RecordEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(eventType, status).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.DeliveriesTotal.Describe(ch)
	m.DeliveryDuration.Describe(ch)
	m.TokensPrunedTotal.Describe(ch)
	m.DispatchesTotal.Describe(ch)
	m.NotificationsPersisted.Describe(ch)
	m.SkippedRecipients.Describe(ch)
	m.CircuitBreakerState.Describe(ch)
	m.EventsProcessed.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.DeliveriesTotal.Collect(ch)
	m.DeliveryDuration.Collect(ch)
	m.TokensPrunedTotal.Collect(ch)
	m.DispatchesTotal.Collect(ch)
	m.NotificationsPersisted.Collect(ch)
	m.SkippedRecipients.Collect(ch)
	m.CircuitBreakerState.Collect(ch)
	m.EventsProcessed.Collect(ch)
}
