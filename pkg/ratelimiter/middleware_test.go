package ratelimiter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/clientip"
	"github.com/dmitrymomot/formkit/pkg/ratelimiter"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
}

func upload(size int, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/forms/avatar", strings.NewReader(strings.Repeat("x", size)))
	req.RemoteAddr = ip + ":40000"
	return req
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, newClock())
	h := ratelimiter.Middleware(b, ratelimiter.ClientIPKey)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(700, "203.0.113.1"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "300", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, upload(400, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "close", rec.Header().Get("Connection"))

	var body ratelimiter.DeniedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upload_quota_exceeded", body.Error)
	assert.Equal(t, int64(1000), body.Limit)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, upload(400, "203.0.113.2"))
	assert.Equal(t, http.StatusCreated, rec.Code, "other clients keep their quota")
}

func TestMiddlewareUsesStoredClientIP(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, newClock())
	h := clientip.Middleware(ratelimiter.Middleware(b, ratelimiter.ClientIPKey)(okHandler()))

	first := upload(1000, "10.0.0.1")
	first.Header.Set("X-Forwarded-For", "198.51.100.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	second := upload(1, "10.0.0.2")
	second.Header.Set("X-Forwarded-For", "198.51.100.9")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMiddlewareUnknownLength(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, newClock())
	h := ratelimiter.Middleware(b, ratelimiter.ClientIPKey, ratelimiter.WithUnknownLengthCost(600))(okHandler())

	req := upload(10, "203.0.113.5")
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "400", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddlewareEmptyKeySkips(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, newClock())
	h := ratelimiter.Middleware(b, func(*http.Request) string { return "" })(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(5000, "203.0.113.5"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

type failingLimiter struct{}

func (failingLimiter) AllowN(context.Context, string, int64) (*ratelimiter.Result, error) {
	return nil, errors.New("store down")
}

func TestMiddlewareStoreError(t *testing.T) {
	t.Parallel()

	h := ratelimiter.Middleware(failingLimiter{}, ratelimiter.ClientIPKey)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(1, "203.0.113.5"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMiddlewareDeniedHandler(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, newClock())
	var called bool
	h := ratelimiter.Middleware(b, ratelimiter.ClientIPKey,
		ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, _ *http.Request, res *ratelimiter.Result) {
			called = true
			assert.Equal(t, int64(-1), res.Remaining)
			w.WriteHeader(http.StatusServiceUnavailable)
		}),
	)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(1001, "203.0.113.5"))
	assert.True(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestComposite(t *testing.T) {
	t.Parallel()

	req := upload(1, "203.0.113.5")
	req.Header.Set("X-Form", "avatar")
	formKey := func(r *http.Request) string { return r.Header.Get("X-Form") }

	assert.Equal(t, "203.0.113.5:avatar", ratelimiter.Composite(ratelimiter.ClientIPKey, formKey)(req))
	assert.Equal(t, "avatar", ratelimiter.Composite(func(*http.Request) string { return "" }, formKey)(req))

	long := func(*http.Request) string { return strings.Repeat("k", 80) }
	hashed := ratelimiter.Composite(long, formKey)(req)
	assert.LessOrEqual(t, len(hashed), 64)
	assert.Equal(t, hashed, ratelimiter.Composite(long, formKey)(req))
}

func TestResultRetryAfter(t *testing.T) {
	t.Parallel()

	res := &ratelimiter.Result{Remaining: -1, ResetAt: time.Now().Add(30 * time.Second)}
	assert.InDelta(t, 30, res.RetryAfter().Seconds(), 1)

	past := &ratelimiter.Result{Remaining: -1, ResetAt: time.Now().Add(-time.Second)}
	assert.Zero(t, past.RetryAfter())
}
