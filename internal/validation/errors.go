// Package validation runs the site analyzers in order and turns their findings into a
// pass/fail verdict.
package validation

import (
	"errors"
	"fmt"
)

// StageError represents a failure inside one analyzer stage
type StageError struct {
	Stage Stage
	// Fatal stages abort the run; the others contribute zero findings.
	Fatal   bool
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stage %s error: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("stage %s error: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// FatalError represents a run that could not complete. It is distinct from a run that
// completed and failed its policy.
type FatalError struct {
	Message string
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fatal error: %s", e.Message)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err comes from a run that could not complete.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
