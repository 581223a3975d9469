package browser

import (
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Navigate loads url, retrying transient failures up to maxRetries attempts
// with a jittered delay between them. The final failure is returned as a
// *NavigationError; it is never swallowed.
func (s *Session) Navigate(url string, maxRetries int, baseDelay time.Duration) error {
	attempt := func() error {
		_, err := s.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		})
		return err
	}

	attempts, err := retryNavigate(attempt, maxRetries, baseDelay, time.Sleep, s.logger.With("url", url))
	if err != nil {
		return &NavigationError{URL: url, Attempts: attempts, Err: err}
	}

	return nil
}

// retryNavigate runs attempt up to maxRetries times, returning how many
// attempts were made. Only transient failures are retried; between them it
// sleeps baseDelay plus a uniform jitter in [0.5s, 1.5s) so parallel
// deployments don't hammer the target in lockstep. A success returns
// immediately without waiting out the remaining budget, and a permanent
// failure (bad URL, closed page) fails fast without burning it.
func retryNavigate(attempt func() error, maxRetries int, baseDelay time.Duration, sleep func(time.Duration), logger *slog.Logger) (int, error) {
	if maxRetries < 1 {
		return 0, errors.New("retry budget must allow at least one attempt")
	}

	var lastErr error

	for i := 1; i <= maxRetries; i++ {
		lastErr = attempt()
		if lastErr == nil {
			return i, nil
		}

		if !isTransientNavigationError(lastErr) {
			logger.Warn("navigation failed permanently, not retrying", "attempt", i, "error", lastErr)
			return i, lastErr
		}

		if i < maxRetries {
			delay := baseDelay + jitter()
			logger.Warn("navigation failed, retrying",
				"attempt", i,
				"max_retries", maxRetries,
				"delay", delay,
				"error", lastErr,
			)
			sleep(delay)
		}
	}

	return maxRetries, lastErr
}

// isTransientNavigationError separates the failures worth a retry
// (navigation timeouts, chromium net::ERR_* transport codes) from the ones
// a fresh attempt cannot cure.
func isTransientNavigationError(err error) bool {
	msg := err.Error()

	if strings.Contains(msg, "net::ERR_") {
		return true
	}

	return strings.Contains(strings.ToLower(msg), "timeout")
}

func jitter() time.Duration {
	return time.Duration((0.5 + rand.Float64()) * float64(time.Second))
}
