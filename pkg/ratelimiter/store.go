package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state per key.
type Store interface {
	// ConsumeTokens refills the bucket of key and takes cost bytes from it when
	// enough are left. A denied request leaves the bucket untouched and reports
	// a negative remaining value (the shortfall). A cost of 0 only refills.
	ConsumeTokens(ctx context.Context, key string, cost int64, config Config) (remaining int64, resetAt time.Time, err error)

	// Reset clears the state of key.
	Reset(ctx context.Context, key string) error
}

// refill returns the token count after the elapsed full intervals, capped at capacity.
func refill(tokens, elapsedIntervals int64, config Config) int64 {
	if elapsedIntervals <= 0 {
		return tokens
	}
	capacity, rate := int64(config.Capacity), int64(config.RefillRate)
	// Cap the interval count so the multiplication cannot overflow.
	elapsedIntervals = min(elapsedIntervals, capacity/rate+1)
	return min(tokens+elapsedIntervals*rate, capacity)
}
