package pipeline

import "fmt"

// ListingError means a source's listing pages could not be read. Nothing can
// be discovered for that source, so its processing is abandoned for the run.
type ListingError struct {
	Source string
	URL    string
	Err    error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing fetch failed for source %q at %s: %v", e.Source, e.URL, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// WorkError means one work's processing was abandoned; the run continues
// with the next work.
type WorkError struct {
	Work string
	Err  error
}

func (e *WorkError) Error() string {
	return fmt.Sprintf("work %q failed: %v", e.Work, e.Err)
}

func (e *WorkError) Unwrap() error {
	return e.Err
}
