package validation

import (
	"github.com/jonathan/sitecheck/internal/inventory"
	"github.com/jonathan/sitecheck/internal/types"
)

var imageCategories = map[types.Category]bool{
	types.CategoryAltText:    true,
	types.CategoryDimensions: true,
	types.CategoryFileSize:   true,
	types.CategoryFormat:     true,
}

// ComputeStats derives run statistics from the page list, the issue list and the image
// reference count. It reads only rule ids, categories and severities.
func ComputeStats(pages []types.PageRecord, issues []types.Issue, imageReferences int) types.ValidationStats {
	summary := inventory.Summarize(pages)
	stats := types.ValidationStats{
		TotalPages:      summary.Total,
		IndexablePages:  summary.Indexable,
		ImageReferences: imageReferences,
		ByCategory:      map[types.Category]int{},
	}

	errorSubjects := map[string]bool{}
	warningSubjects := map[string]bool{}
	for _, issue := range issues {
		switch issue.Severity {
		case types.SeverityCritical:
			stats.CriticalCount++
		case types.SeverityError:
			stats.ErrorCount++
		case types.SeverityWarning:
			stats.WarningCount++
		}
		if issue.Severity.IsError() {
			errorSubjects[issue.Subject] = true
		} else {
			warningSubjects[issue.Subject] = true
		}

		switch issue.Rule {
		case types.RuleOrphanPage:
			stats.OrphanPages++
		case types.RuleWeakPage:
			stats.WeakPages++
		case types.RuleDeadEndPage:
			stats.DeadEndPages++
		case types.RuleCanonicalOGMismatch:
			stats.CanonicalMismatches++
		}
		if imageCategories[issue.Category] {
			stats.ImageIssues++
		}
		stats.ByCategory[issue.Category]++
	}
	stats.PagesWithErrors = len(errorSubjects)
	stats.PagesWithWarnings = len(warningSubjects)
	return stats
}
