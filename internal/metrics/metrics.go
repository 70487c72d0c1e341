package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the ingester's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	sessionsActive   prometheus.Gauge
	messagesReceived *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	rowsFlushed      *prometheus.CounterVec
	sessionOutcomes  *prometheus.CounterVec
	flushDuration    *prometheus.SummaryVec
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}
	m.sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ais_ingester",
		Name:      "sessions_active",
		Help:      "Stream sessions currently connected or connecting",
	})
	m.messagesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ais_ingester",
		Name:      "messages_received_total",
		Help:      "Frames received from the feed",
	}, []string{"message_type"})
	m.messagesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ais_ingester",
		Name:      "messages_dropped_total",
		Help:      "Frames discarded before formatting, by reason",
	}, []string{"message_type", "reason"})
	m.rowsFlushed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ais_ingester",
		Name:      "rows_flushed_total",
		Help:      "Rows appended to CSV output, by group",
	}, []string{"group"})
	m.sessionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ais_ingester",
		Name:      "sessions_total",
		Help:      "Finished sessions by terminal status",
	}, []string{"message_type", "status"})
	m.flushDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "ais_ingester",
		Name:      "flush_duration_seconds",
		Help:      "Time spent appending one batch",
	}, []string{"group"})

	m.Registry.MustRegister(
		m.sessionsActive, m.messagesReceived, m.messagesDropped,
		m.rowsFlushed, m.sessionOutcomes, m.flushDuration,
	)
	return m
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionEnded(messageType, status string) {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
	m.sessionOutcomes.WithLabelValues(messageType, status).Inc()
}

func (m *Metrics) Received(messageType string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(messageType).Inc()
}

func (m *Metrics) Dropped(messageType, reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.WithLabelValues(messageType, reason).Inc()
}

func (m *Metrics) Flushed(group string, rows int, took time.Duration) {
	if m == nil {
		return
	}
	m.rowsFlushed.WithLabelValues(group).Add(float64(rows))
	m.flushDuration.WithLabelValues(group).Observe(took.Seconds())
}

// Dump returns a one-line-per-series snapshot of counters and gauges (for logging).
func (m *Metrics) Dump() string {
	if m == nil {
		return ""
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return ""
	}
	var out []string
	for _, mf := range families {
		for _, s := range mf.GetMetric() {
			var v float64
			switch {
			case s.GetCounter() != nil:
				v = s.GetCounter().GetValue()
			case s.GetGauge() != nil:
				v = s.GetGauge().GetValue()
			default:
				continue
			}
			lbls := make([]string, 0, len(s.GetLabel()))
			for _, lp := range s.GetLabel() {
				lbls = append(lbls, lp.GetName()+"="+lp.GetValue())
			}
			out = append(out, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(lbls, ","), v))
		}
	}
	sort.Strings(out)
	return strings.Join(out, "\n")
}
