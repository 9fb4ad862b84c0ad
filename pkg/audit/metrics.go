package audit

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts events by action and outcome.
type MetricsSink struct {
	events *prometheus.CounterVec
}

// NewMetricsSink registers the bucketgate_audit_events_total counter on reg.
// A nil registerer falls back to prometheus.DefaultRegisterer.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketgate",
		Subsystem: "audit",
		Name:      "events_total",
		Help:      "Audit events emitted by the gateway, by action and outcome.",
	}, []string{"action", "outcome"})

	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &MetricsSink{events: events}, nil
}

func (s *MetricsSink) Emit(_ context.Context, e Event) {
	s.events.WithLabelValues(e.Action, string(e.Outcome)).Inc()
}
