package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joedrozd/aiamazonseo/internal/config"
	"github.com/joedrozd/aiamazonseo/internal/linkcheck"
	"github.com/joedrozd/aiamazonseo/internal/ratelimit"
	"github.com/joedrozd/aiamazonseo/pkg/logger"
)

func main() {
	inputFile := flag.String("file", "", "File containing product URLs, one per line")
	flag.Parse()

	urls := flag.Args()
	if *inputFile != "" {
		fileURLs, err := readURLs(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *inputFile, err)
			os.Exit(2)
		}
		urls = append(urls, fileURLs...)
	}

	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "no URLs to check; pass them as arguments or with -file")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	agents := ratelimit.NewAgentPool(cfg.Scraper.UserAgents)
	checker := linkcheck.NewChecker(cfg.Scraper.Timeout, agents, cfg.Scraper.BaseURL, cfg.Scraper.AffiliateID, log)
	limiter := ratelimit.NewJittered(cfg.Scraper.MinDelay, cfg.Scraper.MaxDelay)

	results := checker.CheckAll(ctx, urls, limiter)

	broken := 0
	for _, result := range results {
		status := "OK"
		if !result.OK {
			status = "BROKEN (" + result.Status + ")"
			broken++
		}
		fmt.Printf("%s  %s\n", status, result.URL)
		if result.Suggested != "" {
			fmt.Printf("    suggested: %s\n", result.Suggested)
		}
	}

	fmt.Printf("\nChecked %d links, %d broken\n", len(results), broken)
}

func readURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}

	return urls, scanner.Err()
}
