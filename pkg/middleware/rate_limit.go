package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	apperrors "lodge/pkg/errors"
	httputil "lodge/pkg/http"
	"lodge/pkg/logger"
	"lodge/pkg/ratelimit"
)

const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRateLimitPolicy    = "RateLimit-Policy"
	HeaderRetryAfter         = "Retry-After"

	DefaultRateLimitMessage = "Too many requests, please try again later."
	BookingRateLimitMessage = "Too many booking attempts from this IP, please try later."
)

type KeyExtractor func(r *http.Request) string

type RateLimitOptions struct {
	Message string
	// KeyFunc defaults to the resolved client IP
	KeyFunc KeyExtractor
	Now     func() time.Time
}

// RateLimit counts each request against store and answers 429 once the key
// has used up its window. A failing store lets the request through.
func RateLimit(store ratelimit.Store, opts RateLimitOptions, log *logger.Logger) func(http.Handler) http.Handler {
	if opts.Message == "" {
		opts.Message = DefaultRateLimitMessage
	}
	if opts.KeyFunc == nil {
		opts.KeyFunc = ClientIPKeyExtractor
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFunc(r)

			decision, err := store.Allow(r.Context(), key)
			if err != nil {
				log.Error("Rate limiter unavailable, allowing request",
					"request_id", GetRequestID(r.Context()),
					"key", key,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			wait := decision.RetryAfter(opts.Now())
			setRateLimitHeaders(w.Header(), decision, wait)

			if !decision.Allowed {
				log.Warn("Rate limit exceeded",
					"request_id", GetRequestID(r.Context()),
					"key", key,
					"path", r.URL.Path,
					"limit", decision.Limit,
				)
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(ceilSeconds(wait)))
				_ = httputil.WriteError(w, apperrors.RateLimited(opts.Message))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClientIPKeyExtractor(r *http.Request) string {
	if ip := GetClientIP(r.Context()); ip != "" {
		return ip
	}
	return remoteHost(r.RemoteAddr)
}

func setRateLimitHeaders(h http.Header, d ratelimit.Decision, wait time.Duration) {
	h.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderRateLimitReset, strconv.Itoa(ceilSeconds(wait)))
	h.Set(HeaderRateLimitPolicy, fmt.Sprintf("%d;w=%d", d.Limit, ceilSeconds(d.Window)))
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
