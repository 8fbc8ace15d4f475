package heroimages

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lodge/pkg/client"
	"lodge/pkg/logger"
)

const (
	DefaultSourceURL = "https://www.grasshopperlodge.com/uploads/9/4/0/6/9406342/img-0080_orig.jpg"
	DefaultReferer   = "https://www.grasshopperlodge.com/"

	DefaultDownloadTimeout = 60 * time.Second
)

// Some hosts answer 403 to unknown clients, so the first attempt looks like a
// desktop browser and the retry like a different one.
var (
	primaryIdentity = map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Referer":    DefaultReferer,
	}
	alternateIdentity = map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15",
		"Referer":    DefaultReferer,
	}
)

type Downloader struct {
	httpClient *client.HttpClient
	log        *logger.Logger
}

func NewDownloader(timeout time.Duration, log *logger.Logger) *Downloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &Downloader{
		httpClient: client.NewHttpClient("", timeout),
		log:        log,
	}
}

// Download fetches url into dest, retrying once with the alternate identity on 403.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	d.log.Info("Downloading source image", "url", url)

	resp, err := d.httpClient.GET(ctx, url, primaryIdentity)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	if resp.StatusCode == http.StatusForbidden {
		d.log.Warn("Download returned 403, retrying with alternate headers", "url", url)
		resp, err = d.httpClient.GET(ctx, url, alternateIdentity)
		if err != nil {
			return fmt.Errorf("failed to download %s: %w", url, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, resp.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	d.log.Info("Source image saved", "path", dest, "bytes", len(resp.Body))
	return nil
}
