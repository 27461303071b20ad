package metadata

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/sitecheck/internal/types"
)

const (
	// MaxTitleLength is the longest title accepted without a warning.
	MaxTitleLength = 60
	// MinDescriptionLength and MaxDescriptionLength bound a well-sized description.
	MinDescriptionLength = 50
	MaxDescriptionLength = 160
)

// CheckCanonical validates the canonical and Open Graph URLs declared for route.
// origin is the site origin used to compute the expected canonical.
func CheckCanonical(route string, declared Declared, origin string) []types.Issue {
	var issues []types.Issue
	origin = strings.TrimRight(origin, "/")

	switch {
	case declared.Canonical == nil && declared.CanonicalExpr != "":
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityError,
			Category: types.CategoryCanonical,
			Rule:     types.RuleUnresolvedCanonical,
			Message:  fmt.Sprintf("Canonical URL of page %s cannot be resolved statically: %s", route, declared.CanonicalExpr),
			Fix:      "Declare the canonical as a string literal or a constant defined in the same file",
			Details:  map[string]any{"route": route, "expression": declared.CanonicalExpr},
		})
	case declared.Canonical == nil:
		fix := "Add alternates: { canonical } with the absolute URL of the page"
		if origin != "" {
			fix = fmt.Sprintf("Add alternates: { canonical: '%s' } to the page metadata", expectedCanonical(origin, route))
		}
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityError,
			Category: types.CategoryCanonical,
			Rule:     types.RuleMissingCanonical,
			Message:  fmt.Sprintf("Page %s does not declare a canonical URL", route),
			Fix:      fix,
			Details:  map[string]any{"route": route},
		})
	}

	if declared.OGURL == nil {
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityWarning,
			Category: types.CategoryOGURL,
			Rule:     types.RuleMissingOGURL,
			Message:  fmt.Sprintf("Page %s does not declare an Open Graph URL", route),
			Fix:      "Add openGraph: { url } matching the canonical URL",
			Details:  map[string]any{"route": route},
		})
	}

	if declared.Canonical != nil && declared.OGURL != nil {
		canonical := strings.TrimSpace(*declared.Canonical)
		ogURL := strings.TrimSpace(*declared.OGURL)
		if canonical != ogURL {
			issues = append(issues, types.Issue{
				Subject:  route,
				Severity: types.SeverityWarning,
				Category: types.CategoryMismatch,
				Rule:     types.RuleCanonicalOGMismatch,
				Message:  fmt.Sprintf("Canonical URL %s and Open Graph URL %s differ", canonical, ogURL),
				Fix:      "Use the same URL for alternates.canonical and openGraph.url",
				Details:  map[string]any{"canonical": canonical, "ogUrl": ogURL},
			})
		}
	}

	if declared.Canonical != nil {
		if issue, ok := checkCanonicalValue(route, strings.TrimSpace(*declared.Canonical), origin); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

func checkCanonicalValue(route, canonical, origin string) (types.Issue, bool) {
	if !strings.HasPrefix(canonical, "http://") && !strings.HasPrefix(canonical, "https://") {
		issue := types.Issue{
			Subject:  route,
			Severity: types.SeverityError,
			Category: types.CategoryCanonical,
			Rule:     types.RuleRelativeCanonical,
			Message:  fmt.Sprintf("Canonical URL is not absolute: %s", canonical),
			Fix:      "Use an absolute URL including scheme and host; set origin to get a suggested value",
			Details:  map[string]any{"canonical": canonical},
		}
		if origin != "" {
			suggested := origin + "/" + strings.TrimPrefix(canonical, "/")
			issue.Fix = fmt.Sprintf("Use %s", suggested)
			issue.Details["suggested"] = suggested
		}
		return issue, true
	}

	parsed, err := url.Parse(canonical)
	if err != nil || parsed.Host == "" {
		reason := "missing host"
		if err != nil {
			reason = err.Error()
		}
		fix := "Use an absolute URL including scheme and host"
		if origin != "" {
			fix = fmt.Sprintf("Use %s", expectedCanonical(origin, route))
		}
		return types.Issue{
			Subject:  route,
			Severity: types.SeverityCritical,
			Category: types.CategoryCanonical,
			Rule:     types.RuleMalformedCanonical,
			Message:  fmt.Sprintf("Canonical URL %s is malformed: %s", canonical, reason),
			Fix:      fix,
			Details:  map[string]any{"canonical": canonical},
		}, true
	}

	// Canonicals carrying a query or fragment are exempt from the expected-URL comparison.
	if origin == "" || strings.ContainsAny(canonical, "?#") {
		return types.Issue{}, false
	}
	expected := expectedCanonical(origin, route)
	if strings.TrimSuffix(canonical, "/") == strings.TrimSuffix(expected, "/") {
		return types.Issue{}, false
	}
	return types.Issue{
		Subject:  route,
		Severity: types.SeverityWarning,
		Category: types.CategoryCanonical,
		Rule:     types.RuleUnexpectedCanonical,
		Message:  fmt.Sprintf("Canonical URL %s differs from the expected %s", canonical, expected),
		Fix:      "Confirm the page is meant to consolidate into another URL",
		Details:  map[string]any{"canonical": canonical, "expected": expected},
	}, true
}

func expectedCanonical(origin, route string) string {
	if route == "/" {
		return origin + "/"
	}
	return origin + route
}

// CheckMeta validates the declared title and description of route.
func CheckMeta(route string, declared Declared) []types.Issue {
	var issues []types.Issue

	if declared.Title == nil || strings.TrimSpace(*declared.Title) == "" {
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityError,
			Category: types.CategoryMeta,
			Rule:     types.RuleMissingTitle,
			Message:  fmt.Sprintf("Page %s does not declare a title", route),
			Fix:      "Add title to the page metadata",
			Details:  map[string]any{"route": route},
		})
	} else if title := strings.TrimSpace(*declared.Title); utf8.RuneCountInString(title) > MaxTitleLength {
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityWarning,
			Category: types.CategoryMeta,
			Rule:     types.RuleLongTitle,
			Message:  fmt.Sprintf("Title is %d characters (max %d)", utf8.RuneCountInString(title), MaxTitleLength),
			Fix:      "Shorten the title so search results do not truncate it",
			Details:  map[string]any{"title": title},
		})
	}

	if declared.Description == nil || strings.TrimSpace(*declared.Description) == "" {
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityWarning,
			Category: types.CategoryMeta,
			Rule:     types.RuleMissingDescription,
			Message:  fmt.Sprintf("Page %s does not declare a description", route),
			Fix:      "Add description to the page metadata",
			Details:  map[string]any{"route": route},
		})
	} else {
		description := strings.TrimSpace(*declared.Description)
		length := utf8.RuneCountInString(description)
		if length < MinDescriptionLength || length > MaxDescriptionLength {
			issues = append(issues, types.Issue{
				Subject:  route,
				Severity: types.SeverityWarning,
				Category: types.CategoryMeta,
				Rule:     types.RuleDescriptionLength,
				Message:  fmt.Sprintf("Description is %d characters (expected %d-%d)", length, MinDescriptionLength, MaxDescriptionLength),
				Fix:      "Write a one or two sentence summary of the page",
				Details:  map[string]any{"description": description, "length": length},
			})
		}
	}
	return issues
}

// CanonicalEntry pairs a route with its declared canonical URL.
type CanonicalEntry struct {
	Route     string `json:"route"`
	Canonical string `json:"canonical"`
}

// FindDuplicates flags pages that share a canonical URL with other pages, except the
// page the canonical points at. Issues follow the input order of entries.
func FindDuplicates(entries []CanonicalEntry) []types.Issue {
	groups := make(map[string][]string)
	for _, entry := range entries {
		canonical := strings.TrimSpace(entry.Canonical)
		if canonical == "" {
			continue
		}
		groups[canonical] = append(groups[canonical], entry.Route)
	}

	var issues []types.Issue
	for _, entry := range entries {
		canonical := strings.TrimSpace(entry.Canonical)
		group := groups[canonical]
		if len(group) < 2 || normalizeRoute(entry.Route) == canonicalPath(canonical) {
			continue
		}

		others := make([]string, 0, len(group)-1)
		for _, route := range group {
			if route != entry.Route {
				others = append(others, route)
			}
		}
		sort.Strings(others)

		issues = append(issues, types.Issue{
			Subject:  entry.Route,
			Severity: types.SeverityWarning,
			Category: types.CategoryDuplicate,
			Rule:     types.RuleDuplicateCanonical,
			Message:  fmt.Sprintf("Canonical URL %s is shared with %s", canonical, strings.Join(others, ", ")),
			Fix:      "Give the page its own canonical URL unless it intentionally consolidates",
			Details:  map[string]any{"canonical": canonical, "duplicateWith": others},
		})
	}
	return issues
}

// canonicalPath returns the normalized path component of a canonical URL.
func canonicalPath(canonical string) string {
	parsed, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	return normalizeRoute(parsed.Path)
}

func normalizeRoute(route string) string {
	route = strings.TrimSuffix(route, "/")
	if route == "" {
		return "/"
	}
	return route
}
