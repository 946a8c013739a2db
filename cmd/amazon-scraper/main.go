package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/joedrozd/aiamazonseo/internal/browser"
	"github.com/joedrozd/aiamazonseo/internal/config"
	"github.com/joedrozd/aiamazonseo/internal/export"
	"github.com/joedrozd/aiamazonseo/internal/fetcher"
	"github.com/joedrozd/aiamazonseo/internal/models"
	"github.com/joedrozd/aiamazonseo/internal/parser"
	"github.com/joedrozd/aiamazonseo/internal/ratelimit"
	"github.com/joedrozd/aiamazonseo/internal/scraper"
	"github.com/joedrozd/aiamazonseo/pkg/logger"
)

func main() {
	var (
		maxPages    = flag.Int("max-pages", 0, "Maximum pages to scrape per keyword (default from config)")
		maxProducts = flag.Int("max-products", 0, "Maximum products to scrape in total (default from config)")
		format      = flag.String("format", "", "Output format: json, txt, csv or all (default from config)")
		output      = flag.String("output", "", "Output base filename without extension (default from config)")
		useSelenium = flag.Bool("selenium", false, "Fetch pages through a rendered browser session")
		headless    = flag.Bool("headless", true, "Run the browser in headless mode (only with -selenium)")
		engine      = flag.String("engine", "", "Rendered fetch backend: playwright or selenium (default from config)")
		affiliateID = flag.String("affiliate-id", "", "Amazon affiliate tracking ID (default from config)")
	)
	flag.Parse()

	keywords := flag.Args()
	if len(keywords) == 0 {
		fmt.Fprintln(os.Stderr, "at least one search keyword is required")
		flag.Usage()
		os.Exit(2)
	}

	headlessSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			headlessSet = true
		}
	})
	if headlessSet && !*useSelenium {
		fmt.Fprintln(os.Stderr, "-headless is only meaningful together with -selenium")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	applyFlags(cfg, *maxPages, *maxProducts, *format, *output, *engine, *affiliateID, *headless, headlessSet)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With("run_id", uuid.NewString())
	log.Info("starting amazon product scraper", "keywords", keywords, "selenium", *useSelenium)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	agents := ratelimit.NewAgentPool(cfg.Scraper.UserAgents)

	f, err := newFetcher(cfg, *useSelenium, agents, log)
	if err != nil {
		log.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	limiter := ratelimit.NewJittered(cfg.Scraper.MinDelay, cfg.Scraper.MaxDelay)
	searchParser := parser.NewSearchParser(cfg.Scraper.BaseURL, cfg.Scraper.AffiliateID)
	search := scraper.NewSearchScraper(f, searchParser, limiter, cfg.Scraper.SearchURL, log)

	products, results := search.Run(ctx, keywords, cfg.Scraper.MaxPages, cfg.Scraper.MaxProducts)

	printSummary(results, products)

	if len(products) == 0 && allFailed(results) {
		log.Error("no data collected, every keyword failed")
		os.Exit(1)
	}

	writeOutputs(products, cfg.Output.Basename, cfg.Output.Format, log)
}

func applyFlags(cfg *config.Config, maxPages, maxProducts int, format, output, engine, affiliateID string, headless, headlessSet bool) {
	if maxPages > 0 {
		cfg.Scraper.MaxPages = maxPages
	}
	if maxProducts > 0 {
		cfg.Scraper.MaxProducts = maxProducts
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if output != "" {
		cfg.Output.Basename = output
	}
	if engine != "" {
		cfg.Browser.Engine = engine
	}
	if affiliateID != "" {
		cfg.Scraper.AffiliateID = affiliateID
	}
	if headlessSet {
		cfg.Browser.Headless = headless
	}
}

func newFetcher(cfg *config.Config, useSelenium bool, agents *ratelimit.AgentPool, log *slog.Logger) (fetcher.Fetcher, error) {
	if !useSelenium {
		return fetcher.NewDirect(cfg.Scraper.Timeout, agents, log), nil
	}

	if cfg.Browser.Engine == "selenium" {
		return fetcher.NewSelenium(fetcher.SeleniumOptions{
			DriverPath: cfg.Browser.ChromeDriverPath,
			Port:       cfg.Browser.ChromeDriverPort,
			Headless:   cfg.Browser.Headless,
			UserAgent:  agents.Next(),
			Timeout:    cfg.Browser.Timeout,
		}, log)
	}

	return fetcher.NewPlaywright(&browser.Options{
		Headless:  cfg.Browser.Headless,
		Timeout:   cfg.Browser.Timeout,
		UserAgent: agents.Next(),
	}, log)
}

func printSummary(results []models.KeywordResult, products []models.Product) {
	fmt.Printf("\nScraped %d products\n", len(products))

	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("  %q: %d products over %d pages (stopped early: %v)\n",
				result.Keyword, len(result.Products), result.Pages, result.Err)
			continue
		}
		fmt.Printf("  %q: %d products over %d pages\n", result.Keyword, len(result.Products), result.Pages)
	}

	if len(products) > 0 {
		sample := products[0]
		fmt.Println("\nSample product:")
		fmt.Printf("  Title: %s\n", sample.Title)
		fmt.Printf("  Link: %s\n", sample.URL)
		fmt.Printf("  Price: %s\n", sample.Price)
	}
}

func allFailed(results []models.KeywordResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, result := range results {
		if result.Err == nil {
			return false
		}
	}
	return true
}

// writeOutputs attempts every requested format; a failure in one format
// does not prevent the others from being written.
func writeOutputs(products []models.Product, basename, format string, log *slog.Logger) {
	if format == "json" || format == "all" {
		path := basename + ".json"
		if err := export.WriteJSON(products, path); err != nil {
			log.Error("failed to write JSON output", "path", path, "error", err)
		} else {
			fmt.Printf("JSON results saved to %s\n", path)
		}
	}

	if format == "txt" || format == "all" {
		path := basename + "_links.txt"
		if err := export.WriteTXT(products, path); err != nil {
			log.Error("failed to write TXT output", "path", path, "error", err)
		} else {
			fmt.Printf("Product links saved to %s\n", path)
		}
	}

	if format == "csv" || format == "all" {
		path := basename + "_links.csv"
		if err := export.WriteCSV(products, path); err != nil {
			log.Error("failed to write CSV output", "path", path, "error", err)
		} else {
			fmt.Printf("Product links saved to %s\n", path)
		}
	}
}
