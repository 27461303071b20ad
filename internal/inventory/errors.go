package inventory

import "fmt"

// ScanError represents a failure enumerating page sources
type ScanError struct {
	Message string
	Cause   error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("page scan error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("page scan error: %s", e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}
