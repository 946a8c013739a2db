package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Scraper Scraper
	Browser Browser
	Output  Output
	Logging Logging
}

type Scraper struct {
	BaseURL     string
	SearchURL   string
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
	MaxPages    int
	MaxProducts int
	AffiliateID string
	UserAgents  []string
}

type Browser struct {
	Engine           string // playwright or selenium
	Headless         bool
	Timeout          time.Duration
	ChromeDriverPath string
	ChromeDriverPort int
}

type Output struct {
	Basename string
	Format   string // json, txt, csv or all
}

type Logging struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, with a .env file applied
// first when one is present in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scraper: Scraper{
			BaseURL:     getEnvOrDefault("AMAZON_BASE_URL", "https://www.amazon.com"),
			SearchURL:   getEnvOrDefault("AMAZON_SEARCH_URL", "https://www.amazon.com/s"),
			MinDelay:    getDurationOrDefault("SCRAPER_MIN_DELAY", 1*time.Second),
			MaxDelay:    getDurationOrDefault("SCRAPER_MAX_DELAY", 3*time.Second),
			Timeout:     getDurationOrDefault("SCRAPER_TIMEOUT", 30*time.Second),
			MaxPages:    getIntOrDefault("SCRAPER_MAX_PAGES", 3),
			MaxProducts: getIntOrDefault("SCRAPER_MAX_PRODUCTS", 50),
			AffiliateID: getEnvOrDefault("SCRAPER_AFFILIATE_ID", "cyberheroes-20"),
			UserAgents:  getStringSliceOrDefault("SCRAPER_USER_AGENTS", defaultUserAgents()),
		},
		Browser: Browser{
			Engine:           getEnvOrDefault("BROWSER_ENGINE", "playwright"),
			Headless:         getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:          getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ChromeDriverPath: getEnvOrDefault("CHROMEDRIVER_PATH", "/usr/local/bin/chromedriver"),
			ChromeDriverPort: getIntOrDefault("CHROMEDRIVER_PORT", 4444),
		},
		Output: Output{
			Basename: getEnvOrDefault("OUTPUT_BASENAME", "amazon_products"),
			Format:   getEnvOrDefault("OUTPUT_FORMAT", "all"),
		},
		Logging: Logging{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.MinDelay > c.Scraper.MaxDelay {
		return fmt.Errorf("SCRAPER_MIN_DELAY cannot be greater than SCRAPER_MAX_DELAY")
	}

	if c.Scraper.MaxPages < 1 {
		return fmt.Errorf("SCRAPER_MAX_PAGES must be at least 1")
	}

	if c.Scraper.MaxProducts < 1 {
		return fmt.Errorf("SCRAPER_MAX_PRODUCTS must be at least 1")
	}

	if len(c.Scraper.UserAgents) == 0 {
		return fmt.Errorf("SCRAPER_USER_AGENTS must not be empty")
	}

	switch c.Browser.Engine {
	case "playwright", "selenium":
	default:
		return fmt.Errorf("BROWSER_ENGINE must be playwright or selenium, got %q", c.Browser.Engine)
	}

	switch c.Output.Format {
	case "json", "txt", "csv", "all":
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be json, txt, csv or all, got %q", c.Output.Format)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
