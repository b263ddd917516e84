package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"

	AllocationFresh       = "fresh"
	AllocationForcedReuse = "forced_reuse"
)

// OrderMetrics tracks checkout and order polling health.
type OrderMetrics struct {
	submissions *prometheus.CounterVec
	allocations *prometheus.CounterVec
	transitions *prometheus.CounterVec
	lastRefresh prometheus.Gauge
	sessions    prometheus.Gauge
}

// NewOrderMetrics registers order metrics on reg. A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_submissions_total",
			Help: "Order submissions by payment type and outcome.",
		}, []string{"pay_type", "outcome"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daily_number_allocations_total",
			Help: "Daily order number allocations by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Applied order status transitions by target status.",
		}, []string{"status"}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "order_refresh_last_success_timestamp_seconds",
			Help: "Unix time of the last successful order list refresh.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kiosk_sessions_active",
			Help: "Open kiosk sessions.",
		}),
	}
	reg.MustRegister(m.submissions, m.allocations, m.transitions, m.lastRefresh, m.sessions)
	return m
}

func (m *OrderMetrics) IncSubmission(payType, outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(payType), normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) IncAllocation(outcome string) {
	if m == nil || m.allocations == nil {
		return
	}
	m.allocations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) MarkRefreshed(at time.Time) {
	if m == nil || m.lastRefresh == nil {
		return
	}
	m.lastRefresh.Set(float64(at.Unix()))
}

func (m *OrderMetrics) SetActiveSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}
