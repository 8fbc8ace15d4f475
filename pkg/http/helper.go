package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	apperrors "lodge/pkg/errors"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Fields is a flat view of a submitted JSON object or urlencoded form.
type Fields map[string]any

// String returns the value under key when it was submitted as a string.
// Any other JSON type reads as empty.
func (f Fields) String(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

// Text returns string and numeric values in their submitted textual form.
func (f Fields) Text(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// DecodeFields reads a JSON object or urlencoded form body. An empty body
// decodes to no fields.
func DecodeFields(r *http.Request) (Fields, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == ContentTypeForm {
		return decodeForm(r)
	}
	return decodeJSON(r)
}

func decodeForm(r *http.Request) (Fields, error) {
	if err := r.ParseForm(); err != nil {
		return nil, classifyBodyError(err)
	}

	fields := Fields{}
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, nil
}

func decodeJSON(r *http.Request) (Fields, error) {
	fields := Fields{}
	if r.Body == nil {
		return fields, nil
	}

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return Fields{}, nil
		}
		return nil, classifyBodyError(err)
	}
	return fields, nil
}

func classifyBodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.PayloadTooLarge("Request body too large")
	}
	return apperrors.InvalidInput("Invalid request body")
}
