package ratelimiter

import (
	"context"
	"fmt"
)

// Limiter charges uploads against a per-key byte quota.
type Limiter interface {
	AllowN(ctx context.Context, key string, bytes int64) (*Result, error)
}

// Bucket implements a token bucket limiter counted in bytes.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket creates a byte quota limiter.
func NewBucket(store Store, config Config) (*Bucket, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: config}, nil
}

// AllowN charges bytes to key.
func (b *Bucket) AllowN(ctx context.Context, key string, bytes int64) (*Result, error) {
	if bytes <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidCost, bytes)
	}
	return b.consume(ctx, key, bytes)
}

// Status returns the current state of key without charging it.
func (b *Bucket) Status(ctx context.Context, key string) (*Result, error) {
	return b.consume(ctx, key, 0)
}

// Reset refills the bucket of key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}

func (b *Bucket) consume(ctx context.Context, key string, bytes int64) (*Result, error) {
	remaining, resetAt, err := b.store.ConsumeTokens(ctx, key, bytes, b.config)
	if err != nil {
		return nil, err
	}
	return &Result{
		Limit:     int64(b.config.Capacity),
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	if c.UnknownLength < 0 {
		return fmt.Errorf("%w: unknown length charge must not be negative", ErrInvalidConfig)
	}
	return nil
}
