// Package kernel implements the turn runtime: it builds the state store from
// configuration, runs registered middleware (typically state containers)
// around a handler for each inbound activity, and reports what the turn
// produced.
//
//	k, err := kernel.New(&cfg)
//	convo, err := kernel.AddConversationState[Counter](k)
//	result, err := k.Process(ctx, activity, handler)
package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/turnstate/observability"
	"github.com/tailored-agentic-units/turnstate/state"
	"github.com/tailored-agentic-units/turnstate/storage"
	"github.com/tailored-agentic-units/turnstate/turn"
)

// Result holds the outcome of one processed turn.
type Result struct {
	ActivityID string          // ID of the inbound activity.
	Replies    []turn.Activity // Replies queued by the handler.
	Duration   time.Duration   // Wall time spent in the pipeline.
}

// Option configures a Kernel after config-driven initialization.
// Applied by New after cold start; overrides replace config-created defaults.
type Option func(*Kernel)

// WithStore overrides the config-created store.
func WithStore(s storage.Store) Option {
	return func(k *Kernel) { k.store = s }
}

// WithObserver overrides the config-selected observer.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithMiddleware appends middleware ahead of any added later.
func WithMiddleware(mw ...turn.Middleware) Option {
	return func(k *Kernel) { k.pipeline.Use(mw...) }
}

// WithMetrics records store operation and lifecycle event metrics in reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(k *Kernel) { k.registerer = reg }
}

// WithTracer records a span per store operation.
func WithTracer(t trace.Tracer) Option {
	return func(k *Kernel) { k.tracer = t }
}

// Kernel runs turns through a middleware pipeline backed by one store.
type Kernel struct {
	store      storage.Store
	pipeline   *turn.Pipeline
	observer   observability.Observer
	settings   state.Settings
	registerer prometheus.Registerer
	tracer     trace.Tracer
}

// New creates a Kernel from configuration. The store and observer are
// initialized from their config sections; options applied afterwards can
// override either. When metrics or tracing are requested the final store is
// wrapped with instrumentation.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	store, err := storage.NewStore(context.Background(), &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	name := cfg.Observer
	if name == "" {
		name = defaultObserver
	}
	observer, err := observability.GetObserver(name)
	if err != nil {
		storage.Close(store)
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	k := &Kernel{
		store:    store,
		pipeline: turn.NewPipeline(),
		observer: observer,
		settings: cfg.State.Settings(),
	}

	for _, opt := range opts {
		opt(k)
	}

	if k.registerer != nil || k.tracer != nil {
		var metrics *storage.Metrics
		if k.registerer != nil {
			metrics, err = storage.NewMetrics(k.registerer)
			if err != nil {
				storage.Close(k.store)
				return nil, fmt.Errorf("failed to register store metrics: %w", err)
			}

			events, err := observability.NewMetricsObserver(k.registerer)
			if err != nil {
				storage.Close(k.store)
				return nil, fmt.Errorf("failed to register event metrics: %w", err)
			}
			k.observer = observability.NewMultiObserver(k.observer, events)
		}
		k.store = storage.Instrument(k.store, metrics, k.tracer)
	}

	return k, nil
}

// Store returns the store state containers should persist through.
func (k *Kernel) Store() storage.Store {
	return k.store
}

// Settings returns the configured state settings.
func (k *Kernel) Settings() state.Settings {
	return k.settings
}

// Observer returns the kernel's observer.
func (k *Kernel) Observer() observability.Observer {
	return k.observer
}

// Use appends middleware to the turn pipeline.
func (k *Kernel) Use(mw ...turn.Middleware) {
	k.pipeline.Use(mw...)
}

// Close releases resources held by the store.
func (k *Kernel) Close() error {
	return storage.Close(k.store)
}

// Process runs one turn for activity: every middleware in registration
// order, then handler. Errors from middleware or handler are returned as-is
// alongside the partial Result.
func (k *Kernel) Process(ctx context.Context, activity turn.Activity, handler turn.Handler) (*Result, error) {
	if handler == nil {
		return nil, ErrNoHandler
	}

	tc := turn.NewContext(activity)
	result := &Result{ActivityID: tc.Activity().ID}
	started := time.Now()

	k.observer.OnEvent(ctx, observability.Event{
		Type:      EventTurnStart,
		Level:     observability.LevelInfo,
		Timestamp: started,
		Source:    "kernel.Process",
		Data: map[string]any{
			"activity_id":     result.ActivityID,
			"channel_id":      activity.ChannelID,
			"conversation_id": activity.ConversationID,
			"middleware":      k.pipeline.Len(),
		},
	})

	err := k.pipeline.Run(ctx, tc, handler)
	result.Replies = tc.Replies()
	result.Duration = time.Since(started)

	if err != nil {
		k.observer.OnEvent(ctx, observability.Event{
			Type:      EventTurnError,
			Level:     observability.LevelError,
			Timestamp: time.Now(),
			Source:    "kernel.Process",
			Data: map[string]any{
				"activity_id": result.ActivityID,
				"error":       err.Error(),
			},
		})
		return result, err
	}

	k.observer.OnEvent(ctx, observability.Event{
		Type:      EventTurnComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "kernel.Process",
		Data: map[string]any{
			"activity_id": result.ActivityID,
			"replies":     len(result.Replies),
			"duration_ms": result.Duration.Milliseconds(),
		},
	})
	return result, nil
}

// AddConversationState creates conversation-scoped state for T on k's store,
// settings and observer, and registers it as middleware.
func AddConversationState[T any](k *Kernel, opts ...state.Option[T]) (*state.ConversationState[T], error) {
	s, err := state.NewConversationState[T](k.store, stateOptions(k, opts)...)
	if err != nil {
		return nil, err
	}
	k.Use(s)
	return s, nil
}

// AddUserState creates user-scoped state for T on k's store, settings and
// observer, and registers it as middleware.
func AddUserState[T any](k *Kernel, opts ...state.Option[T]) (*state.UserState[T], error) {
	s, err := state.NewUserState[T](k.store, stateOptions(k, opts)...)
	if err != nil {
		return nil, err
	}
	k.Use(s)
	return s, nil
}

// stateOptions prepends the kernel's settings and observer so caller options
// take precedence.
func stateOptions[T any](k *Kernel, opts []state.Option[T]) []state.Option[T] {
	base := []state.Option[T]{
		state.WithSettings[T](k.settings),
		state.WithObserver[T](k.observer),
	}
	return append(base, opts...)
}
