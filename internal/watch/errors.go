package watch

import "fmt"

// Error is returned when the file watcher cannot be set up.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("watch error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("watch error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
