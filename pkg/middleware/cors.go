package middleware

import (
	"net/http"
	"time"

	"github.com/rs/cors"
)

// CORS answers preflight requests and sets Access-Control-* headers for the
// allowed origins. Disallowed origins are already rejected by OriginAllowList.
func CORS(allowed []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"X-Recaptcha-Response",
			"X-G-Recaptcha-Response",
			IdempotencyKeyHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
			HeaderRateLimitLimit,
			HeaderRateLimitRemaining,
			HeaderRateLimitReset,
			HeaderRateLimitPolicy,
			HeaderRetryAfter,
		},
		MaxAge: int((10 * time.Minute).Seconds()),
	})
	return c.Handler
}
