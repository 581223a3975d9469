package browser

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session owns one isolated browser instance with a single page. Every
// scrape operation gets its own session; nothing is shared between lookups.
type Session struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	context   playwright.BrowserContext
	page      playwright.Page
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

type Options struct {
	Headless        bool
	PageLoadTimeout time.Duration
	UserAgent       string
	ViewportWidth   int
	ViewportHeight  int
}

func DefaultOptions() *Options {
	return &Options{
		Headless:        true,
		PageLoadTimeout: 30 * time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:   1400,
		ViewportHeight:  1500,
	}
}

// NewSession launches a Chromium instance, applies the anti-automation and
// stability configuration, and opens the session's single page. The
// configuration is fixed before the first navigation and immutable after.
// A launch failure returns a *StartError; it is not retried here because
// callers need a fresh process per attempt anyway.
func NewSession(opts *Options, logger *slog.Logger) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, &StartError{Err: fmt.Errorf("failed to start playwright: %w", err)}
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			fmt.Sprintf("--window-size=%d,%d", opts.ViewportWidth, opts.ViewportHeight),
			"--user-agent=" + opts.UserAgent,
		},
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, &StartError{Err: fmt.Errorf("failed to launch browser: %w", err)}
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:         &opts.UserAgent,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	}

	context, err := b.NewContext(contextOpts)
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, &StartError{Err: fmt.Errorf("failed to create browser context: %w", err)}
	}

	// Drops the navigator.webdriver fingerprint before any page script runs.
	if err := context.AddInitScript(playwright.Script{
		Content: playwright.String("Object.defineProperty(navigator, 'webdriver', {get: () => undefined})"),
	}); err != nil {
		context.Close()
		b.Close()
		pw.Stop()
		return nil, &StartError{Err: fmt.Errorf("failed to add init script: %w", err)}
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		b.Close()
		pw.Stop()
		return nil, &StartError{Err: fmt.Errorf("failed to create page: %w", err)}
	}

	page.SetDefaultTimeout(float64(opts.PageLoadTimeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(opts.PageLoadTimeout.Milliseconds()))

	return &Session{
		pw:      pw,
		browser: b,
		context: context,
		page:    page,
		logger:  logger.With("component", "browser"),
	}, nil
}

func (s *Session) Page() playwright.Page {
	return s.page
}

// Close tears down page, context, browser process and the playwright driver
// in order. It is safe on every exit path and runs the full chain exactly
// once; repeated calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error

		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close page: %w", err))
			}
		}

		if s.context != nil {
			if err := s.context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close context: %w", err))
			}
		}

		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			}
		}

		if s.pw != nil {
			if err := s.pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
			}
		}

		if len(errs) > 0 {
			s.closeErr = fmt.Errorf("errors during close: %v", errs)
		}
	})

	return s.closeErr
}

// Content returns the current HTML snapshot of the session's page.
func (s *Session) Content() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return html, nil
}
