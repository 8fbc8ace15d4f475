package middleware

import (
	"mime"
	"net/http"

	apperrors "lodge/pkg/errors"
	httputil "lodge/pkg/http"
	"lodge/pkg/logger"
)

const UnsupportedContentTypeMessage = "Content-Type must be application/json or application/x-www-form-urlencoded"

// ContentTypeValidation accepts JSON and urlencoded form bodies on writes.
// A write with neither a body nor a Content-Type passes through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r.Method) {
				header := r.Header.Get("Content-Type")
				if header == "" && r.ContentLength == 0 {
					next.ServeHTTP(w, r)
					return
				}

				contentType := extractContentType(header)
				if contentType != httputil.ContentTypeJSON && contentType != httputil.ContentTypeForm {
					rejectInvalidContentType(w, log, r, contentType)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header
	}
	return mediaType
}

func rejectInvalidContentType(w http.ResponseWriter, log *logger.Logger, r *http.Request, contentType string) {
	log.Warn("Invalid Content-Type header",
		"request_id", GetRequestID(r.Context()),
		"content_type", contentType,
		"path", r.URL.Path,
		"method", r.Method,
	)

	_ = httputil.WriteError(w, apperrors.UnsupportedMediaType(UnsupportedContentTypeMessage))
}
