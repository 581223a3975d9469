package browser

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.PageLoadTimeout != 30*time.Second {
		t.Errorf("Expected page load timeout to be 30s, got %v", opts.PageLoadTimeout)
	}

	if opts.ViewportWidth != 1400 || opts.ViewportHeight != 1500 {
		t.Errorf("Expected viewport to be 1400x1500, got %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}

	if opts.UserAgent == "" {
		t.Error("Expected a default user agent")
	}
}

func TestErrorTypes(t *testing.T) {
	cause := errors.New("connection refused")

	start := &StartError{Err: cause}
	if !errors.Is(start, cause) {
		t.Error("StartError should unwrap to its cause")
	}

	nav := &NavigationError{URL: "https://example.com", Attempts: 3, Err: cause}
	if !errors.Is(nav, cause) {
		t.Error("NavigationError should unwrap to its cause")
	}

	var navErr *NavigationError
	if !errors.As(error(nav), &navErr) {
		t.Error("NavigationError should match errors.As")
	}

	missing := &ContentNotFoundError{Selector: "#g-items li"}
	if missing.Error() != "content not found: #g-items li" {
		t.Errorf("unexpected message: %s", missing.Error())
	}
}
