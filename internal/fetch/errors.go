package fetch

import "fmt"

// FetchError represents a network/timeout failure while fetching a page.
// Bounded retries are applied by the caller; after exhausting them the
// candidate is quarantined, never silently dropped.
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	switch {
	case e.URL != "" && e.Cause != nil:
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	case e.URL != "":
		return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("fetch error: %s: %v", e.Message, e.Cause)
	default:
		return fmt.Sprintf("fetch error: %s", e.Message)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
