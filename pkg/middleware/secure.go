package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the usual hardening headers. HSTS is only sent when the
// request reached the proxy over HTTPS.
func SecureHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		CustomFrameOptionsValue: "SAMEORIGIN",
		ContentTypeNosniff:      true,
		ReferrerPolicy:          "no-referrer",
		ContentSecurityPolicy:   "default-src 'self'; frame-ancestors 'self'; object-src 'none'",
		STSSeconds:              15552000,
		STSIncludeSubdomains:    true,
		SSLProxyHeaders:         map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:           isDevelopment,
	})
	return s.Handler
}
