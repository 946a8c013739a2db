package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// Script run after navigation so the page does not see the automation
// flags chromedriver leaves behind.
const maskScript = `
	Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
	window.chrome = {runtime: {}};
`

// Selenium renders pages through a chromedriver-managed Chrome session.
// The driver service and WebDriver session are started once and live until
// Close.
type Selenium struct {
	service *selenium.Service
	driver  selenium.WebDriver
	logger  *slog.Logger
}

type SeleniumOptions struct {
	DriverPath string
	Port       int
	Headless   bool
	UserAgent  string
	Timeout    time.Duration
}

func NewSelenium(opts SeleniumOptions, logger *slog.Logger) (*Selenium, error) {
	service, err := selenium.NewChromeDriverService(opts.DriverPath, opts.Port)
	if err != nil {
		return nil, &Error{Kind: KindRender, Err: fmt.Errorf("starting chromedriver: %w", err)}
	}

	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-blink-features=AutomationControlled",
		"--disable-gpu",
		"--window-size=1920,1080",
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent="+opts.UserAgent)
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{
		Args:            args,
		ExcludeSwitches: []string{"enable-automation"},
	})

	driver, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", opts.Port))
	if err != nil {
		service.Stop()
		return nil, &Error{Kind: KindRender, Err: fmt.Errorf("creating webdriver session: %w", err)}
	}

	if opts.Timeout > 0 {
		driver.SetPageLoadTimeout(opts.Timeout)
	}

	return &Selenium{
		service: service,
		driver:  driver,
		logger:  logger.With("component", "fetcher", "strategy", "selenium"),
	}, nil
}

func (s *Selenium) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Kind: KindRender, URL: url, Err: err}
	}

	s.logger.Debug("navigating", "url", url)

	if err := s.driver.Get(url); err != nil {
		return "", &Error{Kind: KindRender, URL: url, Err: err}
	}

	s.driver.ExecuteScript(maskScript, nil)

	// Give dynamically inserted result tiles time to render.
	time.Sleep(2 * time.Second)

	html, err := s.driver.PageSource()
	if err != nil {
		return "", &Error{Kind: KindRender, URL: url, Err: err}
	}

	return html, nil
}

// Close tears down the WebDriver session and then the chromedriver
// service, reporting every failure.
func (s *Selenium) Close() error {
	var errs []error

	if s.driver != nil {
		if err := s.driver.Quit(); err != nil {
			errs = append(errs, fmt.Errorf("failed to quit driver: %w", err))
		}
	}

	if s.service != nil {
		if err := s.service.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop chromedriver: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}
