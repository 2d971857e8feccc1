package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid upload quota configuration")

	// ErrInvalidCost indicates a non-positive byte count.
	ErrInvalidCost = errors.New("invalid upload cost")

	// ErrStoreUnavailable indicates that the store backend failed.
	ErrStoreUnavailable = errors.New("upload quota store unavailable")
)
