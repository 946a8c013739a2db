package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/joedrozd/aiamazonseo/internal/browser"
)

const resultSelector = "div[data-component-type='s-search-result']"

// Playwright renders pages in a long-lived Chromium session before handing
// the document back. One session serves the whole run; Close releases it.
type Playwright struct {
	browser *browser.Browser
	logger  *slog.Logger
}

func NewPlaywright(opts *browser.Options, logger *slog.Logger) (*Playwright, error) {
	b, err := browser.New(opts)
	if err != nil {
		return nil, &Error{Kind: KindRender, Err: err}
	}

	return &Playwright{
		browser: b,
		logger:  logger.With("component", "fetcher", "strategy", "playwright"),
	}, nil
}

func (p *Playwright) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindRender, URL: url, Err: err}
	}

	page, err := p.browser.NewPage()
	if err != nil {
		return "", &Error{Kind: KindRender, URL: url, Err: err}
	}
	defer page.Close()

	p.logger.Debug("navigating", "url", url)

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return "", &Error{Kind: KindRender, URL: url, Err: err}
	}

	// Best effort: a page with zero results never shows the selector.
	page.WaitForSelector(resultSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	})

	// Let late product tiles settle.
	time.Sleep(2 * time.Second)

	html, err := page.Content()
	if err != nil {
		return "", &Error{Kind: KindRender, URL: url, Err: err}
	}

	return html, nil
}

func (p *Playwright) Close() error {
	return p.browser.Close()
}
