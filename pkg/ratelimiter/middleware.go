package ratelimiter

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/formkit/pkg/clientip"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// maxKeyLength bounds store keys; longer composite keys are hashed.
const maxKeyLength = 64

// KeyFunc extracts the quota key from a request. An empty key skips the quota.
type KeyFunc func(r *http.Request) string

// ClientIPKey keys the quota by client address, preferring the one stored by clientip.Middleware.
func ClientIPKey(r *http.Request) string {
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return ip
	}
	return clientip.FromRequest(r)
}

// Composite joins several key functions. Keys over 64 characters are hashed with FNV-1a.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		combined := strings.Join(parts, ":")
		if len(combined) <= maxKeyLength {
			return combined
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(combined))
		return strconv.FormatUint(h.Sum64(), 36)
	}
}

// DeniedResponse is the JSON body written when a request does not fit the quota.
type DeniedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Limit      int64  `json:"limit"`
	RetryAfter int64  `json:"retry_after"`
}

// DeniedHandler answers a request that exceeded the quota.
type DeniedHandler func(w http.ResponseWriter, r *http.Request, result *Result)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middleware)

type middleware struct {
	limiter       Limiter
	keyFunc       KeyFunc
	unknownLength int64
	denied        DeniedHandler
	logger        *slog.Logger
}

// WithUnknownLengthCost sets the charge for requests without a Content-Length.
func WithUnknownLengthCost(bytes int64) MiddlewareOption {
	return func(m *middleware) {
		if bytes > 0 {
			m.unknownLength = bytes
		}
	}
}

// WithDeniedHandler replaces the default 429 JSON response.
func WithDeniedHandler(h DeniedHandler) MiddlewareOption {
	return func(m *middleware) {
		if h != nil {
			m.denied = h
		}
	}
}

// WithLogger sets the logger for denied requests and store failures.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(m *middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// Middleware charges every request its declared body size against the quota of
// its key. It sets the X-RateLimit-* headers and rejects requests that do not fit.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	m := &middleware{
		limiter:       limiter,
		keyFunc:       keyFunc,
		unknownLength: 1,
		denied:        DefaultDeniedHandler,
		logger:        logger.Noop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cost := r.ContentLength
			if cost <= 0 {
				cost = m.unknownLength
			}

			result, err := m.limiter.AllowN(r.Context(), key, cost)
			if err != nil {
				m.logger.ErrorContext(r.Context(), "upload quota check failed",
					logger.Component("ratelimiter"),
					logger.Error(err),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, result.Remaining), 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				m.logger.InfoContext(r.Context(), "upload quota exceeded",
					logger.Component("ratelimiter"),
					logger.Bytes(cost),
				)
				m.denied(w, r, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultDeniedHandler writes 429 with a Retry-After header and a DeniedResponse body.
func DefaultDeniedHandler(w http.ResponseWriter, _ *http.Request, result *Result) {
	retryAfter := int64(math.Ceil(result.RetryAfter().Seconds()))
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(DeniedResponse{
		Error:      "upload_quota_exceeded",
		Message:    "upload quota exceeded, retry later",
		Limit:      result.Limit,
		RetryAfter: retryAfter,
	})
}
