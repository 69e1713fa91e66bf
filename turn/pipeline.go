package turn

import "context"

// NextFunc runs the rest of the pipeline.
type NextFunc func(ctx context.Context) error

// Handler processes a turn once every middleware has run its before step.
type Handler func(ctx context.Context, tc *Context) error

// Middleware wraps the rest of the pipeline. Work done before calling next
// happens before downstream stages; work after next returns happens once they
// have completed.
type Middleware interface {
	OnTurn(ctx context.Context, tc *Context, next NextFunc) error
}

// MiddlewareFunc allows plain functions to satisfy Middleware.
type MiddlewareFunc func(ctx context.Context, tc *Context, next NextFunc) error

func (fn MiddlewareFunc) OnTurn(ctx context.Context, tc *Context, next NextFunc) error {
	return fn(ctx, tc, next)
}

// Pipeline runs middleware in registration order around a handler.
type Pipeline struct {
	middleware []Middleware
}

// NewPipeline creates a Pipeline from the given middleware. Nil entries are
// dropped.
func NewPipeline(middleware ...Middleware) *Pipeline {
	p := &Pipeline{}
	return p.Use(middleware...)
}

// Use appends middleware to the pipeline.
func (p *Pipeline) Use(middleware ...Middleware) *Pipeline {
	for _, mw := range middleware {
		if mw != nil {
			p.middleware = append(p.middleware, mw)
		}
	}
	return p
}

// Len returns the number of registered middleware.
func (p *Pipeline) Len() int {
	return len(p.middleware)
}

// Run executes the pipeline for tc. A nil handler terminates the chain after
// the last middleware. Each middleware's next may be called at most once;
// a second call returns ErrNextCalledTwice without re-running downstream.
func (p *Pipeline) Run(ctx context.Context, tc *Context, handler Handler) error {
	return p.run(ctx, tc, handler, 0)
}

func (p *Pipeline) run(ctx context.Context, tc *Context, handler Handler, i int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if i == len(p.middleware) {
		if handler == nil {
			return nil
		}
		return handler(ctx, tc)
	}

	called := false
	next := func(ctx context.Context) error {
		if called {
			return ErrNextCalledTwice
		}
		called = true
		return p.run(ctx, tc, handler, i+1)
	}
	return p.middleware[i].OnTurn(ctx, tc, next)
}
