package middleware

import (
	"net/http"

	apperrors "lodge/pkg/errors"
	httputil "lodge/pkg/http"
	"lodge/pkg/logger"
)

const OriginNotAllowedMessage = "Origin not allowed"

// OriginAllowList rejects browser requests whose Origin header is not listed.
// Requests without an Origin (curl, server-to-server) pass. A "*" entry allows
// every origin.
func OriginAllowList(allowed []string, log *logger.Logger) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	_, wildcard := set["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || wildcard {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := set[origin]; !ok {
				log.Warn("Origin not allowed",
					"request_id", GetRequestID(r.Context()),
					"origin", origin,
					"path", r.URL.Path,
				)
				_ = httputil.WriteError(w, apperrors.Forbidden(OriginNotAllowedMessage))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
