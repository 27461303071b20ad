package inventory

import (
	"strings"

	"github.com/jonathan/sitecheck/internal/types"
)

var authPrefixes = []string{"/auth", "/login", "/signin", "/signup", "/register"}

// Classify applies the indexability rules in order and returns the reason of the first
// rule that matches, or "" when the route is indexable.
func Classify(route string, pageType types.PageType) types.NonIndexableReason {
	switch pageType {
	case types.PageTypeCatchAll:
		return types.ReasonCatchAllRoute
	case types.PageTypeDynamic:
		return types.ReasonDynamicRoute
	}

	if hasPrefixSegment(route, "/admin") {
		return types.ReasonAdminRoute
	}

	segments := strings.Split(strings.Trim(route, "/"), "/")
	for _, segment := range segments {
		if segment == "portal" {
			return types.ReasonPortalRoute
		}
	}

	for _, prefix := range authPrefixes {
		if hasPrefixSegment(route, prefix) {
			return types.ReasonAuthRoute
		}
	}

	for _, segment := range segments {
		if isTestSegment(segment) {
			return types.ReasonTestRoute
		}
	}
	return ""
}

// hasPrefixSegment matches prefix on a segment boundary, so /authors is not /auth.
func hasPrefixSegment(route, prefix string) bool {
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}

func isTestSegment(segment string) bool {
	return segment == "test" || segment == "tests" ||
		strings.HasPrefix(segment, "test-") || strings.HasSuffix(segment, "-test")
}

// Indexable returns the indexable subset of pages, preserving order.
func Indexable(pages []types.PageRecord) []types.PageRecord {
	out := []types.PageRecord{}
	for _, page := range pages {
		if page.IsIndexable {
			out = append(out, page)
		}
	}
	return out
}

// NonIndexable returns the non-indexable subset of pages, preserving order.
func NonIndexable(pages []types.PageRecord) []types.PageRecord {
	out := []types.PageRecord{}
	for _, page := range pages {
		if !page.IsIndexable {
			out = append(out, page)
		}
	}
	return out
}

// Summarize counts pages by indexability and page type.
func Summarize(pages []types.PageRecord) types.PageStats {
	stats := types.PageStats{Total: len(pages)}
	for _, page := range pages {
		if page.IsIndexable {
			stats.Indexable++
		} else {
			stats.NonIndexable++
		}
		switch page.PageType {
		case types.PageTypeCatchAll:
			stats.CatchAll++
		case types.PageTypeDynamic:
			stats.Dynamic++
		default:
			stats.Static++
		}
	}
	return stats
}

// Routes returns the route paths of pages in order.
func Routes(pages []types.PageRecord) []string {
	routes := make([]string, 0, len(pages))
	for _, page := range pages {
		routes = append(routes, page.RoutePath)
	}
	return routes
}
