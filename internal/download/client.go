package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"cetpredict/internal/config"
	"cetpredict/internal/util"
)

// Client pulls published cutoff lists from an admission board's site into
// the local cutoff directory. The boards rate-limit aggressively during
// result season, so requests are spaced and 5xx responses retried.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.DownloadTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.DownloadRateLimitRPS),
	}
}

// DownloadAll fetches every URL into destDir, named after the URL's last
// path segment. One failing URL fails the batch; partial files are not left
// behind.
func (c *Client) DownloadAll(ctx context.Context, urls []string, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(urls))
	for _, rawURL := range urls {
		dest, err := c.downloadOne(ctx, rawURL, destDir)
		if err != nil {
			return out, err
		}
		out = append(out, dest)
	}
	return out, nil
}

func (c *Client) downloadOne(ctx context.Context, rawURL, destDir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("bad url %s: %w", rawURL, err)
	}
	name := util.SanitizeFilename(path.Base(parsed.Path))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive filename from %s", rawURL)
	}
	dest := filepath.Join(destDir, name)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return "", err
		}

		body, err := c.fetch(ctx, rawURL)
		if err != nil {
			lastErr = err
			continue
		}

		if err := os.WriteFile(dest, body, 0o644); err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", fmt.Errorf("download %s: %w", rawURL, lastErr)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
