// Package rendering renders validation results as Markdown reports.
package rendering

import (
	"fmt"
	"strings"
)

// Report kinds named in errors.
const (
	KindValidation = "validation"
	KindGate       = "gate"
)

// ReportError is returned when a Markdown report cannot be produced. Kind is the report
// being rendered and RunID the run it describes, when one was given.
type ReportError struct {
	Kind    string
	RunID   string
	Message string
	Cause   error
}

func (e *ReportError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s report", e.Kind)
	if e.RunID != "" {
		fmt.Fprintf(&sb, " for run %s", e.RunID)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

func (e *ReportError) Unwrap() error {
	return e.Cause
}
