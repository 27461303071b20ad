// Package types provides type definitions for structured data used throughout the sitecheck system.
package types

import "time"

// ValidationStats are aggregate counters derived from the page list and issue list of a run.
type ValidationStats struct {
	TotalPages          int              `json:"totalPages"`
	IndexablePages      int              `json:"indexablePages"`
	PagesWithErrors     int              `json:"pagesWithErrors"`
	PagesWithWarnings   int              `json:"pagesWithWarnings"`
	OrphanPages         int              `json:"orphanPages"`
	WeakPages           int              `json:"weakPages"`
	DeadEndPages        int              `json:"deadEndPages"`
	ImageReferences     int              `json:"imageReferences"`
	ImageIssues         int              `json:"imageIssues"`
	CanonicalMismatches int              `json:"canonicalMismatches"`
	CriticalCount       int              `json:"criticalCount"`
	ErrorCount          int              `json:"errorCount"`
	WarningCount        int              `json:"warningCount"`
	ByCategory          map[Category]int `json:"byCategory"`
}

// ValidationResult is the machine-readable outcome of a validation run.
// RunID and GeneratedAt differ between runs and are excluded from equality checks.
type ValidationResult struct {
	RunID       string          `json:"runId"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Passed      bool            `json:"passed"`
	Errors      []Issue         `json:"errors"`
	Warnings    []Issue         `json:"warnings"`
	Stats       ValidationStats `json:"stats"`
}

// Critical returns the critical-severity subset of the result's errors.
func (r *ValidationResult) Critical() []Issue {
	return FilterSeverity(r.Errors, SeverityCritical)
}
