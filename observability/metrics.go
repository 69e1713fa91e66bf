package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver counts events by type and severity.
type MetricsObserver struct {
	events *prometheus.CounterVec
}

// NewMetricsObserver creates a MetricsObserver and registers its counter with
// reg when reg is non-nil.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "turnstate",
		Name:      "events_total",
		Help:      "Lifecycle events by type and level.",
	}, []string{"type", "level"})

	if reg != nil {
		if err := reg.Register(events); err != nil {
			return nil, err
		}
	}
	return &MetricsObserver{events: events}, nil
}

// Counter exposes the underlying counter vector.
func (m *MetricsObserver) Counter() *prometheus.CounterVec {
	return m.events
}

func (m *MetricsObserver) OnEvent(_ context.Context, event Event) {
	m.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}
