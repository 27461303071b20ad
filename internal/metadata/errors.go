// Package metadata extracts declared canonical, Open Graph, title and description values
// from page sources and checks them.
package metadata

import "fmt"

// ExtractionError represents a failure reading or parsing a page's metadata sources
type ExtractionError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata extraction error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("metadata extraction error: %s: %s", e.Path, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
