// Package verifier decides whether a booking submission comes from a human,
// using a siteverify-style challenge service (reCAPTCHA, hCaptcha, Turnstile).
package verifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	bookingserrors "lodge/internal/bookings/errors"
	"lodge/pkg/client"
	"lodge/pkg/logger"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks an anti-abuse token. A nil error means the request is trusted.
// Rejections wrap ErrTokenMissing, ErrVerificationFailed or ErrLowScore; any
// other error means the check itself could not be completed.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Nop trusts every request. Used when no verification secret is configured.
type Nop struct{}

func (Nop) Verify(context.Context, string, string) error { return nil }

type Result struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score,omitempty"`
	Action     string   `json:"action,omitempty"`
	Hostname   string   `json:"hostname,omitempty"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

type Config struct {
	Secret    string
	MinScore  float64
	VerifyURL string
	Timeout   time.Duration
}

type SiteVerifier struct {
	cfg        Config
	httpClient *client.HttpClient
	log        *logger.Logger
}

func NewSiteVerifier(cfg Config, log *logger.Logger) *SiteVerifier {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	return &SiteVerifier{
		cfg:        cfg,
		httpClient: client.NewHttpClient(cfg.VerifyURL, cfg.Timeout),
		log:        log,
	}
}

// New returns a SiteVerifier when a secret is configured, Nop otherwise.
func New(cfg Config, log *logger.Logger) Verifier {
	if cfg.Secret == "" {
		return Nop{}
	}
	return NewSiteVerifier(cfg, log)
}

func (v *SiteVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return bookingserrors.ErrTokenMissing
	}

	form := url.Values{}
	form.Set("secret", v.cfg.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	resp, err := v.httpClient.POSTForm(ctx, "", form, nil)
	if err != nil {
		return fmt.Errorf("siteverify: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siteverify: unexpected status %d", resp.StatusCode)
	}

	var result Result
	if err := resp.DecodeJSON(&result); err != nil {
		return fmt.Errorf("%w: %v", bookingserrors.ErrMalformedVerification, err)
	}

	if !result.Success {
		v.log.Warn("Captcha verification failed", "error_codes", result.ErrorCodes, "remote_ip", remoteIP)
		return bookingserrors.ErrVerificationFailed
	}

	// Score is only reported by score-based (v3 style) challenges.
	if result.Score != nil && *result.Score < v.cfg.MinScore {
		v.log.Warn("Captcha score below threshold", "score", *result.Score, "threshold", v.cfg.MinScore, "remote_ip", remoteIP)
		return fmt.Errorf("%w: %.2f < %.2f", bookingserrors.ErrLowScore, *result.Score, v.cfg.MinScore)
	}

	return nil
}
