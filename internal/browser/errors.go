package browser

import (
	"fmt"
)

// StartError means the browser process could not be launched. It is fatal
// for the run; callers retry by acquiring a fresh session, never by reusing
// a half-started one.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("browser start failed: %v", e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// NavigationError means a page load kept failing after the retry budget was
// spent. It aborts that URL's unit of work.
type NavigationError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ContentNotFoundError means a required DOM container never appeared within
// the wait window. Extraction cannot proceed without it.
type ContentNotFoundError struct {
	Selector string
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("content not found: %s", e.Selector)
}
