// Package types provides type definitions for structured data used throughout the sitecheck system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Severity ranks an issue by build-blocking weight: critical > error > warning.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// Weight returns the ordering weight of the severity. Unknown severities weigh zero.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// IsError reports whether the severity belongs in the errors bucket of a result.
func (s Severity) IsError() bool {
	return s == SeverityCritical || s == SeverityError
}

// Category groups issues by the rule family that produced them.
type Category string

const (
	CategoryCanonical     Category = "canonical"
	CategoryOGURL         Category = "og-url"
	CategoryMismatch      Category = "mismatch"
	CategoryDuplicate     Category = "duplicate"
	CategoryAltText       Category = "alt-text"
	CategoryDimensions    Category = "dimensions"
	CategoryFileSize      Category = "file-size"
	CategoryFormat        Category = "format"
	CategoryIncomingLinks Category = "incoming-links"
	CategoryOutgoingLinks Category = "outgoing-links"
	CategoryMeta          Category = "meta"
)

// Rule identifiers. Stats are computed by counting these, never by parsing messages.
const (
	RuleMissingCanonical    = "missing-canonical"
	RuleRelativeCanonical   = "relative-canonical"
	RuleUnresolvedCanonical = "unresolved-canonical"
	RuleMalformedCanonical  = "malformed-canonical"
	RuleUnexpectedCanonical = "unexpected-canonical"
	RuleMissingOGURL        = "missing-og-url"
	RuleCanonicalOGMismatch = "canonical-og-mismatch"
	RuleDuplicateCanonical  = "duplicate-canonical"
	RuleMissingAlt          = "missing-alt"
	RuleGenericAlt          = "generic-alt"
	RuleLongAlt             = "long-alt"
	RuleShortAlt            = "short-alt"
	RuleImageTooLarge       = "image-too-large"
	RuleImageTooWide        = "image-too-wide"
	RuleImageTooTall        = "image-too-tall"
	RuleLegacyFormat        = "legacy-format"
	RuleUnreadableImage     = "unreadable-image"
	RuleOrphanPage          = "orphan-page"
	RuleWeakPage            = "weak-page"
	RuleDeadEndPage         = "dead-end-page"
	RuleMissingTitle        = "missing-title"
	RuleLongTitle           = "long-title"
	RuleMissingDescription  = "missing-description"
	RuleDescriptionLength   = "description-length"
	RuleNoIndexablePages    = "no-indexable-pages"
	RuleMissingRootPage     = "missing-root-page"
)

// Issue is the uniform finding shape produced by every analyzer.
type Issue struct {
	Subject  string         `json:"subject"`
	Severity Severity       `json:"severity"`
	Category Category       `json:"category"`
	Rule     string         `json:"rule"`
	Message  string         `json:"message"`
	Fix      string         `json:"fix,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PartitionIssues splits issues into the errors bucket (critical and error) and the
// warnings bucket, preserving input order.
func PartitionIssues(issues []Issue) (errs []Issue, warnings []Issue) {
	errs = []Issue{}
	warnings = []Issue{}
	for _, issue := range issues {
		if issue.Severity.IsError() {
			errs = append(errs, issue)
		} else {
			warnings = append(warnings, issue)
		}
	}
	return errs, warnings
}

// FilterSeverity returns the issues with exactly the given severity.
func FilterSeverity(issues []Issue, severity Severity) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}
