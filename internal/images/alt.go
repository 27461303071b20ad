// Package images scans page sources for image references, checks their alt text and
// validates the referenced image files.
package images

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/sitecheck/internal/types"
)

const (
	// MaxAltLength is the longest alt text accepted without a warning.
	MaxAltLength = 125
	// MinAltLength is the shortest alt text accepted without a warning.
	MinAltLength = 5
)

// genericAltWords are alt values that describe nothing about the image.
var genericAltWords = map[string]bool{
	"image":   true,
	"img":     true,
	"picture": true,
	"pic":     true,
	"photo":   true,
	"icon":    true,
	"logo":    true,
	"banner":  true,
	"graphic": true,
}

// ValidateAltText checks one alt value. A nil alt means the attribute is absent.
// The generic, long and short checks are independent and may all fire at once.
func ValidateAltText(alt *string, subject string) []types.Issue {
	if alt == nil || strings.TrimSpace(*alt) == "" {
		declared := ""
		if alt != nil {
			declared = *alt
		}
		return []types.Issue{{
			Subject:  subject,
			Severity: types.SeverityError,
			Category: types.CategoryAltText,
			Rule:     types.RuleMissingAlt,
			Message:  "Image is missing alt text",
			Fix:      "Add an alt attribute that describes the image content",
			Details:  map[string]any{"alt": declared},
		}}
	}

	value := strings.TrimSpace(*alt)
	length := utf8.RuneCountInString(value)
	var issues []types.Issue

	if genericAltWords[strings.ToLower(value)] {
		issues = append(issues, types.Issue{
			Subject:  subject,
			Severity: types.SeverityWarning,
			Category: types.CategoryAltText,
			Rule:     types.RuleGenericAlt,
			Message:  fmt.Sprintf("Alt text %q is too generic", value),
			Fix:      "Describe what the image shows instead of naming its type",
			Details:  map[string]any{"alt": value},
		})
	}

	if length > MaxAltLength {
		issues = append(issues, types.Issue{
			Subject:  subject,
			Severity: types.SeverityWarning,
			Category: types.CategoryAltText,
			Rule:     types.RuleLongAlt,
			Message:  fmt.Sprintf("Alt text is too long (%d characters, max %d)", length, MaxAltLength),
			Fix:      "Shorten the alt text; move long descriptions into surrounding content",
			Details:  map[string]any{"alt": value, "length": length},
		})
	}

	if length < MinAltLength {
		issues = append(issues, types.Issue{
			Subject:  subject,
			Severity: types.SeverityWarning,
			Category: types.CategoryAltText,
			Rule:     types.RuleShortAlt,
			Message:  fmt.Sprintf("Alt text %q is too short (%d characters, min %d)", value, length, MinAltLength),
			Fix:      "Use a few descriptive words",
			Details:  map[string]any{"alt": value, "length": length},
		})
	}

	return issues
}
