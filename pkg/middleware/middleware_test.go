package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lodge/pkg/logger"
	"lodge/pkg/ratelimit"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
})

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Error
}

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name        string
		remoteAddr  string
		forwarded   []string
		trustedHops int
		want        string
	}{
		{"no proxy trusted", "10.0.0.1:5000", []string{"203.0.113.7"}, 0, "10.0.0.1"},
		{"no forwarded header", "10.0.0.1:5000", nil, 1, "10.0.0.1"},
		{"single hop", "10.0.0.1:5000", []string{"203.0.113.7"}, 1, "203.0.113.7"},
		{"spoofed left entry ignored", "10.0.0.1:5000", []string{"1.2.3.4, 203.0.113.7"}, 1, "203.0.113.7"},
		{"multiple headers", "10.0.0.1:5000", []string{"1.2.3.4", "203.0.113.7"}, 1, "203.0.113.7"},
		{"two hops", "10.0.0.1:5000", []string{"1.2.3.4, 203.0.113.7, 10.0.0.2"}, 2, "203.0.113.7"},
		{"fewer entries than hops", "10.0.0.1:5000", []string{"203.0.113.7"}, 3, "203.0.113.7"},
		{"remote addr without port", "10.0.0.1", nil, 1, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}

			if got := ResolveClientIP(req, tt.trustedHops); got != tt.want {
				t.Errorf("ResolveClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP_StoresInContext(t *testing.T) {
	var got string
	h := ClientIP(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "203.0.113.7" {
		t.Errorf("client ip = %q", got)
	}
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	var got string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if got == "" {
		t.Fatal("expected request id in context")
	}
	if w.Header().Get(RequestIDHeader) != got {
		t.Errorf("header %q != context %q", w.Header().Get(RequestIDHeader), got)
	}
}

func TestRecovery_Returns500(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/booking", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if msg := decodeError(t, w.Body); msg != "Internal server error" {
		t.Errorf("error = %q", msg)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("panic detail leaked to client")
	}
}

func TestOriginAllowList(t *testing.T) {
	h := OriginAllowList([]string{"https://demo.grasshopperlodge.com"}, logger.Discard())(okHandler)

	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{"no origin", "", http.StatusOK},
		{"allowed origin", "https://demo.grasshopperlodge.com", http.StatusOK},
		{"unknown origin", "https://evil.example", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/booking", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusForbidden {
				if msg := decodeError(t, w.Body); msg != OriginNotAllowedMessage {
					t.Errorf("error = %q", msg)
				}
			}
		})
	}
}

func TestOriginAllowList_Wildcard(t *testing.T) {
	h := OriginAllowList([]string{"*"}, logger.Discard())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anything.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS([]string{"https://demo.grasshopperlodge.com"})(okHandler)

	tests := []struct {
		name    string
		origin  string
		headers string
		want    string
	}{
		{"content type", "https://demo.grasshopperlodge.com", "content-type", "https://demo.grasshopperlodge.com"},
		{"token header", "https://demo.grasshopperlodge.com", "content-type,x-recaptcha-response", "https://demo.grasshopperlodge.com"},
		{"idempotency key", "https://demo.grasshopperlodge.com", "content-type,idempotency-key", "https://demo.grasshopperlodge.com"},
		{"unknown header", "https://demo.grasshopperlodge.com", "x-unknown", ""},
		{"unknown origin", "https://evil.example", "content-type", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/booking", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", tt.headers)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	h := SecureHeaders(false)(okHandler)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	want := map[string]string{
		"X-Frame-Options":        "SAMEORIGIN",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected Content-Security-Policy header")
	}
}

func TestMaxRequestSize(t *testing.T) {
	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := MaxRequestSize(16)(readAll)

	t.Run("declared length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 17)))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", w.Code)
		}
		if msg := decodeError(t, w.Body); msg != RequestTooLargeMessage {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("undeclared length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 17)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", w.Code)
		}
	})

	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		want        int
	}{
		{"json", http.MethodPost, "application/json", `{}`, http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", "name=a", http.StatusOK},
		{"plain text", http.MethodPost, "text/plain", "hello", http.StatusUnsupportedMediaType},
		{"missing with body", http.MethodPost, "", "hello", http.StatusUnsupportedMediaType},
		{"missing without body", http.MethodPost, "", "", http.StatusOK},
		{"get ignored", http.MethodGet, "text/plain", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/booking", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

type mockStore struct {
	AllowFunc func(ctx context.Context, key string) (ratelimit.Decision, error)
	keys      []string
}

func (m *mockStore) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	m.keys = append(m.keys, key)
	return m.AllowFunc(ctx, key)
}

func (m *mockStore) Reset(ctx context.Context, key string) error { return nil }
func (m *mockStore) Close() error                                { return nil }

func TestRateLimit_SetsHeadersAndRejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	allowed := true
	store := &mockStore{
		AllowFunc: func(ctx context.Context, key string) (ratelimit.Decision, error) {
			return ratelimit.Decision{
				Allowed:   allowed,
				Limit:     20,
				Remaining: 0,
				Window:    time.Hour,
				ResetAt:   now.Add(90 * time.Second),
			}, nil
		},
	}
	h := ClientIP(1)(RateLimit(store, RateLimitOptions{
		Message: BookingRateLimitMessage,
		Now:     func() time.Time { return now },
	}, logger.Discard())(okHandler))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/booking", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		return req
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newReq())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get(HeaderRateLimitLimit); got != "20" {
		t.Errorf("RateLimit-Limit = %q", got)
	}
	if got := w.Header().Get(HeaderRateLimitReset); got != "90" {
		t.Errorf("RateLimit-Reset = %q", got)
	}
	if got := w.Header().Get(HeaderRateLimitPolicy); got != "20;w=3600" {
		t.Errorf("RateLimit-Policy = %q", got)
	}

	allowed = false
	w = httptest.NewRecorder()
	h.ServeHTTP(w, newReq())
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get(HeaderRetryAfter); got != "90" {
		t.Errorf("Retry-After = %q", got)
	}
	if msg := decodeError(t, w.Body); msg != BookingRateLimitMessage {
		t.Errorf("error = %q", msg)
	}

	for _, key := range store.keys {
		if key != "203.0.113.7" {
			t.Errorf("limited on key %q, want client ip", key)
		}
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	store := &mockStore{
		AllowFunc: func(ctx context.Context, key string) (ratelimit.Decision, error) {
			return ratelimit.Decision{}, errors.New("redis down")
		},
	}
	h := RateLimit(store, RateLimitOptions{}, logger.Discard())(okHandler)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRateLimit_WithMemoryStore(t *testing.T) {
	store, err := ratelimit.NewMemoryStore(ratelimit.Config{Limit: 2, Window: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	h := RateLimit(store, RateLimitOptions{}, logger.Discard())(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		codes = append(codes, w.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status = %d, want %d", i+1, codes[i], want[i])
		}
	}
}

func TestRequestTimeout(t *testing.T) {
	t.Run("slow handler", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			<-release
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/booking", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
		if msg := decodeError(t, w.Body); msg != RequestTimeoutMessage {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("fast handler keeps headers", func(t *testing.T) {
		h := RequestTimeout(time.Second)(okHandler)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if w.Header().Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
		}
	})

	t.Run("panic reaches recovery", func(t *testing.T) {
		h := Recovery(logger.Discard())(RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}

func TestIdempotency_ReplaysPerClient(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"message":"Booking request received."}`))
	})
	h := ClientIP(1)(Idempotency(store, logger.Discard())(handler))

	send := func(ip, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/booking", nil)
		req.Header.Set("X-Forwarded-For", ip)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	first := send("203.0.113.7", "abc")
	second := send("203.0.113.7", "abc")

	if calls.Load() != 1 {
		t.Errorf("handler called %d times, want 1", calls.Load())
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body = %q, want %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay marker header")
	}

	send("198.51.100.1", "abc")
	if calls.Load() != 2 {
		t.Errorf("key from another client replayed, calls = %d", calls.Load())
	}

	send("203.0.113.7", "")
	if calls.Load() != 3 {
		t.Errorf("request without key was not handled, calls = %d", calls.Load())
	}
}

func TestIdempotency_DoesNotCacheErrors(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	h := Idempotency(store, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/booking", nil)
		req.Header.Set(IdempotencyKeyHeader, "abc")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls.Load() != 2 {
		t.Errorf("handler called %d times, want 2", calls.Load())
	}
}
