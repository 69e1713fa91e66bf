package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/tailored-agentic-units/turnstate/storage"

// Metrics holds the Prometheus collectors recorded by an instrumented store.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates the store collectors and registers them with reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnstate",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Storage operations by operation and result.",
		}, []string{"operation", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnstate",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Storage operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Operations, m.Duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

type instrumentedStore struct {
	next    Store
	metrics *Metrics
	tracer  trace.Tracer
}

// Instrument wraps next so every operation records metrics and a span. A nil
// tracer falls back to a no-op tracer; nil metrics disables metric recording.
func Instrument(next Store, metrics *Metrics, tracer trace.Tracer) Store {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return &instrumentedStore{next: next, metrics: metrics, tracer: tracer}
}

func (s *instrumentedStore) Read(ctx context.Context, keys ...string) (map[string]Item, error) {
	ctx, done := s.start(ctx, "read", keys)
	items, err := s.next.Read(ctx, keys...)
	done(err)
	return items, err
}

func (s *instrumentedStore) Write(ctx context.Context, changes map[string]Item) error {
	keys := make([]string, 0, len(changes))
	for key := range changes {
		keys = append(keys, key)
	}

	ctx, done := s.start(ctx, "write", keys)
	err := s.next.Write(ctx, changes)
	done(err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, keys ...string) error {
	ctx, done := s.start(ctx, "delete", keys)
	err := s.next.Delete(ctx, keys...)
	done(err)
	return err
}

func (s *instrumentedStore) start(ctx context.Context, op string, keys []string) (context.Context, func(error)) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "storage."+op, trace.WithAttributes(
		attribute.StringSlice("storage.keys", keys),
	))

	return ctx, func(err error) {
		result := "ok"
		switch {
		case errors.Is(err, ErrETagConflict):
			result = "conflict"
		case err != nil:
			result = "error"
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if s.metrics != nil {
			s.metrics.Operations.WithLabelValues(op, result).Inc()
			s.metrics.Duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
		}
	}
}

func (s *instrumentedStore) Close() error {
	return Close(s.next)
}
