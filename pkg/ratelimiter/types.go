package ratelimiter

import (
	"time"

	"github.com/dmitrymomot/formkit/pkg/formdata"
)

// Result is the outcome of a quota check. Limit and Remaining are in bytes.
type Result struct {
	Limit     int64     // Bucket capacity.
	Remaining int64     // Bytes left after the request; negative when denied.
	ResetAt   time.Time // Next refill.
}

// Allowed reports whether the request fitted in the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying, 0 if the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Store drivers accepted by Config.Store.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config defines a per-client upload quota as a token bucket counted in bytes.
type Config struct {
	Enabled        bool              `env:"UPLOAD_QUOTA_ENABLED" envDefault:"false"`    // Turn the quota middleware on.
	Store          string            `env:"UPLOAD_QUOTA_STORE" envDefault:"memory"`     // memory or redis.
	Capacity       formdata.ByteSize `env:"UPLOAD_QUOTA_BYTES" envDefault:"256MiB"`     // Burst: bytes a client may send at once.
	RefillRate     formdata.ByteSize `env:"UPLOAD_QUOTA_REFILL" envDefault:"32MiB"`     // Bytes returned to the bucket per interval.
	RefillInterval time.Duration     `env:"UPLOAD_QUOTA_INTERVAL" envDefault:"1m"`      // Refill period.
	UnknownLength  formdata.ByteSize `env:"UPLOAD_QUOTA_UNKNOWN_LENGTH" envDefault:"0"` // Charge for bodies without Content-Length; 0 charges one byte.
}
