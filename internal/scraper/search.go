package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/joedrozd/aiamazonseo/internal/fetcher"
	"github.com/joedrozd/aiamazonseo/internal/models"
	"github.com/joedrozd/aiamazonseo/internal/ratelimit"
)

// Parser turns one search results page into product records.
type Parser interface {
	Parse(html, keyword string) ([]models.Product, error)
}

// SearchScraper paginates through Amazon search results for a set of
// keywords. Keywords and pages are processed strictly sequentially; the
// rate limiter is consulted before every fetch.
type SearchScraper struct {
	fetcher   fetcher.Fetcher
	parser    Parser
	limiter   ratelimit.Limiter
	logger    *slog.Logger
	searchURL string
}

func NewSearchScraper(f fetcher.Fetcher, p Parser, l ratelimit.Limiter, searchURL string, logger *slog.Logger) *SearchScraper {
	return &SearchScraper{
		fetcher:   f,
		parser:    p,
		limiter:   l,
		logger:    logger.With("component", "scraper"),
		searchURL: searchURL,
	}
}

// PageURL builds the search URL for a keyword and 1-based page number. The
// next page is always derived from the page counter, never scraped from
// pagination markup.
func (s *SearchScraper) PageURL(keyword string, page int) string {
	query := url.Values{}
	query.Set("k", keyword)
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("ref", fmt.Sprintf("sr_pg_%d", page))

	return s.searchURL + "?" + query.Encode()
}

// Collect gathers up to maxProducts records for one keyword across at most
// maxPages result pages, returning the records and the number of pages
// fetched. Pagination stops early when a page yields no records. A fetch
// failure stops this keyword only: whatever was already collected is
// returned alongside the error.
func (s *SearchScraper) Collect(ctx context.Context, keyword string, maxPages, maxProducts int) ([]models.Product, int, error) {
	var (
		collected []models.Product
		fetched   int
	)

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return collected, fetched, err
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return collected, fetched, err
		}

		pageURL := s.PageURL(keyword, page)
		s.logger.Info("fetching search page", "keyword", keyword, "page", page, "url", pageURL)

		html, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			s.logger.Warn("fetch failed, stopping keyword", "keyword", keyword, "page", page, "error", err)
			return collected, fetched, err
		}
		fetched++

		products, err := s.parser.Parse(html, keyword)
		if err != nil {
			return collected, fetched, fmt.Errorf("parsing page %d for %q: %w", page, keyword, err)
		}

		s.logger.Info("parsed search page", "keyword", keyword, "page", page, "products", len(products))

		if len(products) == 0 {
			// An empty page signals the end of results.
			break
		}

		for _, product := range products {
			if len(collected) >= maxProducts {
				break
			}
			collected = append(collected, product)
		}

		if len(collected) >= maxProducts {
			break
		}
	}

	return collected, fetched, nil
}

// Run processes the keywords in order and aggregates their records,
// preserving keyword order, then page order, then listing order. The
// product budget is shared across keywords. Duplicate products appearing
// under several keywords are kept; a product found by more than one search
// term is a meaningful signal, not noise.
func (s *SearchScraper) Run(ctx context.Context, keywords []string, maxPages, maxProducts int) ([]models.Product, []models.KeywordResult) {
	var (
		all     []models.Product
		results []models.KeywordResult
	)

	for _, keyword := range keywords {
		remaining := maxProducts - len(all)
		if remaining <= 0 {
			break
		}

		products, pages, err := s.Collect(ctx, keyword, maxPages, remaining)
		all = append(all, products...)

		results = append(results, models.KeywordResult{
			Keyword:  keyword,
			Products: products,
			Pages:    pages,
			Err:      err,
		})

		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Info("scrape finished", "keywords", len(results), "products", len(all))

	return all, results
}

// Dedupe removes records sharing an identity (ASIN, or URL when no ASIN
// was derived), keeping the first occurrence. It is an opt-in
// post-processing step; Run never applies it.
func Dedupe(products []models.Product) []models.Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]models.Product, 0, len(products))

	for _, product := range products {
		id := product.Identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, product)
	}

	return out
}
