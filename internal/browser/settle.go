package browser

import (
	"fmt"
	"time"
)

// ScrollToBottom repeatedly scrolls the page to the current document bottom
// until the document height stops growing between two consecutive scrolls,
// pausing between iterations so lazily-appended content can render. Running
// out of attempts is best effort, not an error: anything still below the
// fold stays unseen and is logged.
func (s *Session) ScrollToBottom(maxAttempts int, pause time.Duration) error {
	lastHeight, err := s.documentHeight()
	if err != nil {
		return err
	}

	for i := 0; i < maxAttempts; i++ {
		if _, err := s.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)"); err != nil {
			return fmt.Errorf("failed to scroll: %w", err)
		}

		time.Sleep(pause)

		height, err := s.documentHeight()
		if err != nil {
			return err
		}

		if height == lastHeight {
			s.logger.Debug("page settled", "height", height, "scrolls", i+1)
			return nil
		}

		lastHeight = height
	}

	s.logger.Warn("page did not settle within scroll budget", "attempts", maxAttempts, "height", lastHeight)
	return nil
}

// WaitForContainer polls until the container selector exists and, when
// childSelector is non-empty, holds at least one matching child. Each failed
// poll nudges lazy loading by scrolling one viewport height before sleeping.
// Expiry of the window returns a *ContentNotFoundError: the page cannot be
// extracted without the container.
func (s *Session) WaitForContainer(selector, childSelector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		found, err := s.containerReady(selector, childSelector)
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		if time.Now().After(deadline) {
			target := selector
			if childSelector != "" {
				target = selector + " " + childSelector
			}
			return &ContentNotFoundError{Selector: target}
		}

		if _, err := s.page.Evaluate("window.scrollBy(0, window.innerHeight)"); err != nil {
			return fmt.Errorf("failed to nudge scroll: %w", err)
		}

		time.Sleep(time.Second)
	}
}

func (s *Session) containerReady(selector, childSelector string) (bool, error) {
	count, err := s.page.Locator(selector).Count()
	if err != nil {
		return false, fmt.Errorf("failed to query container %s: %w", selector, err)
	}
	if count == 0 {
		return false, nil
	}

	if childSelector == "" {
		return true, nil
	}

	children, err := s.page.Locator(selector).Locator(childSelector).Count()
	if err != nil {
		return false, fmt.Errorf("failed to query children of %s: %w", selector, err)
	}

	return children > 0, nil
}

func (s *Session) documentHeight() (int, error) {
	result, err := s.page.Evaluate("document.body.scrollHeight")
	if err != nil {
		return 0, fmt.Errorf("failed to read document height: %w", err)
	}

	switch v := result.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("unexpected height type %T", result)
	}
}
