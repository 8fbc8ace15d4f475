package middleware

import (
	"net/http"

	apperrors "lodge/pkg/errors"
	httputil "lodge/pkg/http"
)

const RequestTooLargeMessage = "Request body too large"

// MaxRequestSize caps request bodies at maxBytes. A declared Content-Length
// over the cap is refused before the handler runs; undeclared bodies fail on
// read with *http.MaxBytesError.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				_ = httputil.WriteError(w, apperrors.PayloadTooLarge(RequestTooLargeMessage))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
