package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joedrozd/aiamazonseo/internal/fetcher"
	"github.com/joedrozd/aiamazonseo/internal/models"
	"github.com/joedrozd/aiamazonseo/internal/ratelimit"
)

// fakeFetcher serves canned payloads in call order; call n beyond the
// scripted pages returns an empty payload.
type fakeFetcher struct {
	pages []string
	errAt int // 1-based call index that fails; 0 disables
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	if f.errAt > 0 && f.calls == f.errAt {
		return "", &fetcher.Error{Kind: fetcher.KindNetwork, URL: url, Err: errors.New("connection reset")}
	}
	if f.calls > len(f.pages) {
		return "", nil
	}
	return f.pages[f.calls-1], nil
}

func (f *fakeFetcher) Close() error { return nil }

// countParser decodes payloads of the form "N" into N stub records.
type countParser struct{}

func (countParser) Parse(html, keyword string) ([]models.Product, error) {
	var n int
	if html != "" {
		fmt.Sscanf(html, "%d", &n)
	}

	products := make([]models.Product, n)
	for i := range products {
		products[i] = models.Product{
			URL:           fmt.Sprintf("https://www.amazon.com/dp/B00000000%d", i),
			SearchKeyword: keyword,
		}
	}
	return products, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScraper(f fetcher.Fetcher) *SearchScraper {
	return NewSearchScraper(f, countParser{}, ratelimit.None{}, "https://www.amazon.com/s", testLogger())
}

func TestPageURL(t *testing.T) {
	s := newTestScraper(&fakeFetcher{})

	url := s.PageURL("gaming keyboard", 2)
	assert.Equal(t, "https://www.amazon.com/s?k=gaming+keyboard&page=2&ref=sr_pg_2", url)
}

func TestCollectStopsAtMaxPages(t *testing.T) {
	f := &fakeFetcher{pages: []string{"10", "10", "10", "10", "10"}}
	s := newTestScraper(f)

	products, pages, err := s.Collect(context.Background(), "kw", 3, 1000)
	require.NoError(t, err)
	assert.Len(t, products, 30)
	assert.Equal(t, 3, pages)
	assert.Equal(t, 3, f.calls)
}

func TestCollectStopsOnEmptyPage(t *testing.T) {
	f := &fakeFetcher{pages: []string{"10", "0", "10"}}
	s := newTestScraper(f)

	products, pages, err := s.Collect(context.Background(), "kw", 5, 1000)
	require.NoError(t, err)
	assert.Len(t, products, 10)
	assert.Equal(t, 2, pages)
	assert.Equal(t, 2, f.calls)
}

func TestCollectEnforcesProductCap(t *testing.T) {
	f := &fakeFetcher{pages: []string{"60", "60", "60"}}
	s := newTestScraper(f)

	products, _, err := s.Collect(context.Background(), "kw", 3, 10)
	require.NoError(t, err)
	assert.Len(t, products, 10)
	// The cap was hit on page 1; the remaining pages are never fetched.
	assert.Equal(t, 1, f.calls)
}

func TestCollectReturnsPartialsOnFetchError(t *testing.T) {
	f := &fakeFetcher{pages: []string{"10", "10", "10"}, errAt: 2}
	s := newTestScraper(f)

	products, pages, err := s.Collect(context.Background(), "kw", 3, 1000)
	require.Error(t, err)
	assert.Equal(t, fetcher.KindNetwork, fetcher.KindOf(err))
	assert.Len(t, products, 10)
	assert.Equal(t, 1, pages)
}

func TestCollectHonorsCancellation(t *testing.T) {
	f := &fakeFetcher{pages: []string{"10", "10", "10"}}
	s := newTestScraper(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products, _, err := s.Collect(ctx, "kw", 3, 1000)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, products)
	assert.Equal(t, 0, f.calls)
}

func TestRunAggregatesAcrossKeywords(t *testing.T) {
	f := &fakeFetcher{pages: []string{"5", "0", "3", "0"}}
	s := newTestScraper(f)

	all, results := s.Run(context.Background(), []string{"first", "second"}, 5, 1000)

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Keyword)
	assert.Equal(t, "second", results[1].Keyword)
	assert.Len(t, results[0].Products, 5)
	assert.Len(t, results[1].Products, 3)

	require.Len(t, all, 8)
	// Keyword order is preserved in the aggregate.
	assert.Equal(t, "first", all[0].SearchKeyword)
	assert.Equal(t, "second", all[7].SearchKeyword)
}

func TestRunSharesProductBudget(t *testing.T) {
	f := &fakeFetcher{pages: []string{"6", "6", "6", "6"}}
	s := newTestScraper(f)

	all, results := s.Run(context.Background(), []string{"first", "second", "third"}, 1, 10)

	assert.Len(t, all, 10)
	require.Len(t, results, 2)
	assert.Len(t, results[0].Products, 6)
	assert.Len(t, results[1].Products, 4)
}

func TestRunContinuesAfterKeywordFailure(t *testing.T) {
	f := &fakeFetcher{pages: []string{"5", "5", "5"}, errAt: 1}
	s := newTestScraper(f)

	all, results := s.Run(context.Background(), []string{"broken", "fine"}, 1, 1000)

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Empty(t, results[0].Products)
	assert.NoError(t, results[1].Err)
	assert.Len(t, results[1].Products, 5)
	assert.Len(t, all, 5)
}

func TestDedupe(t *testing.T) {
	products := []models.Product{
		{URL: "https://www.amazon.com/dp/B0863TXGM3", ASIN: "B0863TXGM3", SearchKeyword: "a"},
		{URL: "https://www.amazon.com/dp/B0BGXZF1MD", ASIN: "B0BGXZF1MD", SearchKeyword: "a"},
		{URL: "https://www.amazon.com/dp/B0863TXGM3?ref=x", ASIN: "B0863TXGM3", SearchKeyword: "b"},
		{URL: "https://www.amazon.com/gp/item/1", SearchKeyword: "b"},
		{URL: "https://www.amazon.com/gp/item/1", SearchKeyword: "b"},
	}

	deduped := Dedupe(products)
	require.Len(t, deduped, 3)
	// First occurrence wins.
	assert.Equal(t, "a", deduped[0].SearchKeyword)
}
