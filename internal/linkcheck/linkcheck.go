// Package linkcheck verifies that previously scraped product links still
// resolve, and proposes canonical replacement URLs for dead ones whose
// ASIN can be recovered.
package linkcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joedrozd/aiamazonseo/internal/parser"
	"github.com/joedrozd/aiamazonseo/internal/ratelimit"
)

// Result describes the liveness of one product URL. Suggested is a
// canonical /dp/ URL rebuilt from the ASIN, set only for broken links.
type Result struct {
	URL       string
	OK        bool
	Status    string
	ASIN      string
	Suggested string
}

type Checker struct {
	client      *http.Client
	agents      *ratelimit.AgentPool
	baseURL     string
	affiliateID string
	logger      *slog.Logger
}

func NewChecker(timeout time.Duration, agents *ratelimit.AgentPool, baseURL, affiliateID string, logger *slog.Logger) *Checker {
	return &Checker{
		client:      &http.Client{Timeout: timeout},
		agents:      agents,
		baseURL:     strings.TrimRight(baseURL, "/"),
		affiliateID: affiliateID,
		logger:      logger.With("component", "linkcheck"),
	}
}

// Check probes a single URL with a HEAD request, falling back to GET when
// the HEAD response is inconclusive. Redirects are followed.
func (c *Checker) Check(ctx context.Context, rawURL string) Result {
	result := Result{
		URL:  rawURL,
		ASIN: parser.ExtractASIN(rawURL),
	}

	ok, status := c.probe(ctx, http.MethodHead, rawURL)
	if status == "" {
		ok, status = c.probe(ctx, http.MethodGet, rawURL)
	}

	result.OK = ok
	result.Status = status

	if !ok && result.ASIN != "" {
		result.Suggested = c.CanonicalURL(result.ASIN)
	}

	return result
}

// CheckAll probes every URL in order, pacing requests with the limiter.
func (c *Checker) CheckAll(ctx context.Context, urls []string, limiter ratelimit.Limiter) []Result {
	results := make([]Result, 0, len(urls))

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		result := c.Check(ctx, u)
		c.logger.Info("checked link", "url", u, "ok", result.OK, "status", result.Status)
		results = append(results, result)
	}

	return results
}

// probe returns (ok, status). An empty status means the verdict is
// inconclusive and the caller should retry with a heavier method.
func (c *Checker) probe(ctx context.Context, method, rawURL string) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return false, fmt.Sprintf("request error: %v", err)
	}
	req.Header.Set("User-Agent", c.agents.Next())

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("request error: %v", err)
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, "OK"
	case http.StatusNotFound:
		return false, "404 Not Found"
	default:
		if method == http.MethodHead {
			return false, ""
		}
		return false, fmt.Sprintf("status code: %d", resp.StatusCode)
	}
}

// CanonicalURL rebuilds the shortest working product URL for an ASIN,
// affiliate tag included when one is configured.
func (c *Checker) CanonicalURL(asin string) string {
	u := fmt.Sprintf("%s/dp/%s", c.baseURL, asin)
	if c.affiliateID != "" {
		u += "?tag=" + url.QueryEscape(c.affiliateID)
	}
	return u
}
