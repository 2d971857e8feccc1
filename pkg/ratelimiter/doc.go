// Package ratelimiter enforces a per-client upload quota counted in bytes.
//
// Field budgets in formdata bound a single request. The quota bounds how much a
// client may upload over time: each client owns a token bucket whose tokens are
// bytes. A request is charged its Content-Length; the bucket refills by
// RefillRate bytes every RefillInterval up to Capacity. A request that does not
// fit is rejected before its body is read and leaves the bucket untouched.
//
// # Usage
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	quota, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       256 << 20,
//		RefillRate:     32 << 20,
//		RefillInterval: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(quota, ratelimiter.ClientIPKey)).Post("/forms/{form}", upload)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset, and answers denied requests with 429, Retry-After and a
// JSON DeniedResponse. WithDeniedHandler replaces that response.
//
// # Stores
//
// MemoryStore serves a single instance and drops buckets idle for an hour.
// RedisStore keeps the buckets in Redis behind a Lua script, so replicas share
// one quota per client.
package ratelimiter
