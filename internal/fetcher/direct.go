package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joedrozd/aiamazonseo/internal/ratelimit"
)

// Markers Amazon serves on its interstitial pages instead of results.
var captchaMarkers = []string{
	"Enter the characters you see below",
	"api-services-support@amazon.com",
	"Robot Check",
}

// Direct fetches pages with plain HTTP GET requests, rotating the
// User-Agent on every call. It is the lightweight strategy for pages that
// do not need JavaScript.
type Direct struct {
	client *http.Client
	agents *ratelimit.AgentPool
	logger *slog.Logger
}

func NewDirect(timeout time.Duration, agents *ratelimit.AgentPool, logger *slog.Logger) *Direct {
	return &Direct{
		client: &http.Client{Timeout: timeout},
		agents: agents,
		logger: logger.With("component", "fetcher", "strategy", "direct"),
	}
}

func (d *Direct) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{Kind: KindNetwork, URL: url, Err: err}
	}

	req.Header.Set("User-Agent", d.agents.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	d.logger.Debug("requesting page", "url", url)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return "", &Error{Kind: KindBlocked, URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &Error{Kind: KindNetwork, URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindNetwork, URL: url, Err: err}
	}

	html := string(body)
	for _, marker := range captchaMarkers {
		if strings.Contains(html, marker) {
			return "", &Error{Kind: KindBlocked, URL: url, Err: fmt.Errorf("captcha interstitial")}
		}
	}

	return html, nil
}

func (d *Direct) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
