package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// BookingClient talks to the booking intake API.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl, DefaultTimeout),
	}
}

func (c *BookingClient) Submit(ctx context.Context, body any, headers map[string]string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/booking", body, headers)
}

func (c *BookingClient) SubmitForm(ctx context.Context, form url.Values, headers map[string]string) (*Response, error) {
	return c.httpClient.POSTForm(ctx, "/api/booking", form, headers)
}

func (c *BookingClient) Health(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/health", nil)
}

func (c *BookingClient) Ready(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/ready", nil)
}

// WaitForHealthy polls the health endpoint until it answers 200 or maxWait passes.
func (c *BookingClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.Health(ctx)
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
