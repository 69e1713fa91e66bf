package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig controls how transient store failures are retried.
// MaxRetries of zero disables retrying.
type RetryConfig struct {
	MaxRetries      uint64        `json:"max_retries,omitempty" env:"MAX_RETRIES"`
	InitialInterval time.Duration `json:"initial_interval,omitempty" env:"INITIAL_INTERVAL"`
	MaxInterval     time.Duration `json:"max_interval,omitempty" env:"MAX_INTERVAL"`
}

// DefaultRetryConfig returns a disabled retry policy with sane intervals for
// when MaxRetries is raised.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Merge applies non-zero values from source into c.
func (c *RetryConfig) Merge(source *RetryConfig) {
	if source.MaxRetries > 0 {
		c.MaxRetries = source.MaxRetries
	}
	if source.InitialInterval > 0 {
		c.InitialInterval = source.InitialInterval
	}
	if source.MaxInterval > 0 {
		c.MaxInterval = source.MaxInterval
	}
}

type retryStore struct {
	next Store
	cfg  RetryConfig
}

// WithRetry wraps next so failed operations are retried with exponential
// backoff. ETag conflicts, invalid keys and context errors are returned
// immediately. Returns next unchanged when cfg.MaxRetries is zero.
func WithRetry(next Store, cfg RetryConfig) Store {
	if cfg.MaxRetries == 0 {
		return next
	}
	return &retryStore{next: next, cfg: cfg}
}

func (s *retryStore) Read(ctx context.Context, keys ...string) (map[string]Item, error) {
	var items map[string]Item
	err := s.retry(ctx, func() error {
		var err error
		items, err = s.next.Read(ctx, keys...)
		return err
	})
	return items, err
}

func (s *retryStore) Write(ctx context.Context, changes map[string]Item) error {
	return s.retry(ctx, func() error {
		return s.next.Write(ctx, changes)
	})
}

func (s *retryStore) Delete(ctx context.Context, keys ...string) error {
	return s.retry(ctx, func() error {
		return s.next.Delete(ctx, keys...)
	})
}

func (s *retryStore) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.InitialInterval
	policy.MaxInterval = s.cfg.MaxInterval
	policy.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, s.cfg.MaxRetries), ctx))
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrETagConflict),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (s *retryStore) Close() error {
	return Close(s.next)
}
