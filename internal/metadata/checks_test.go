package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sitecheck/internal/types"
)

const origin = "https://example.com"

func str(s string) *string {
	return &s
}

func categories(issues []types.Issue) []types.Category {
	var out []types.Category
	for _, issue := range issues {
		out = append(out, issue.Category)
	}
	return out
}

func issueRules(issues []types.Issue) []string {
	var out []string
	for _, issue := range issues {
		out = append(out, issue.Rule)
	}
	return out
}

func TestCheckCanonical_MatchingValues(t *testing.T) {
	issues := CheckCanonical("/about", Declared{
		Canonical: str("https://example.com/about"),
		OGURL:     str(" https://example.com/about "),
	}, origin)
	assert.Empty(t, issues)
}

func TestCheckCanonical_OnlyOGURL(t *testing.T) {
	issues := CheckCanonical("/about", Declared{OGURL: str("https://example.com/about")}, origin)

	require.Len(t, issues, 1)
	assert.Equal(t, types.CategoryCanonical, issues[0].Category)
	assert.Equal(t, types.SeverityError, issues[0].Severity)
	assert.Equal(t, types.RuleMissingCanonical, issues[0].Rule)
}

func TestCheckCanonical_OnlyCanonical(t *testing.T) {
	issues := CheckCanonical("/about", Declared{Canonical: str("https://example.com/about")}, origin)

	require.Len(t, issues, 1)
	assert.Equal(t, types.CategoryOGURL, issues[0].Category)
	assert.Equal(t, types.SeverityWarning, issues[0].Severity)
}

func TestCheckCanonical_Mismatch(t *testing.T) {
	issues := CheckCanonical("/about", Declared{
		Canonical: str("https://example.com/about"),
		OGURL:     str("https://example.com/about-us"),
	}, origin)

	require.Len(t, issues, 1)
	assert.Equal(t, types.CategoryMismatch, issues[0].Category)
	assert.Equal(t, types.SeverityWarning, issues[0].Severity)
	assert.Equal(t, "https://example.com/about", issues[0].Details["canonical"])
	assert.Equal(t, "https://example.com/about-us", issues[0].Details["ogUrl"])
}

func TestCheckCanonical_RelativeSuggestsAbsolute(t *testing.T) {
	issues := CheckCanonical("/about", Declared{Canonical: str("/about"), OGURL: str("/about")}, origin)

	require.Equal(t, []string{types.RuleRelativeCanonical}, issueRules(issues))
	assert.Equal(t, types.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "/about")
	assert.Equal(t, "https://example.com/about", issues[0].Details["suggested"])
}

func TestCheckCanonical_WithoutOriginSuggestsNoURL(t *testing.T) {
	issues := CheckCanonical("/about", Declared{Canonical: str("/about"), OGURL: str("/about")}, "")

	require.Equal(t, []string{types.RuleRelativeCanonical}, issueRules(issues))
	assert.NotEqual(t, "Use /about", issues[0].Fix)
	assert.Contains(t, issues[0].Fix, "origin")
	assert.NotContains(t, issues[0].Details, "suggested")

	issues = CheckCanonical("/about", Declared{OGURL: str("https://example.com/about")}, "")
	require.Equal(t, []string{types.RuleMissingCanonical}, issueRules(issues))
	assert.NotContains(t, issues[0].Fix, "'/about'")

	issues = CheckCanonical("/about", Declared{Canonical: str("https://"), OGURL: str("https://")}, "")
	require.Equal(t, []string{types.RuleMalformedCanonical}, issueRules(issues))
	assert.NotEqual(t, "Use /about", issues[0].Fix)
}

func TestCheckCanonical_UnresolvedIsNotMissing(t *testing.T) {
	issues := CheckCanonical("/blog/hello", Declared{
		CanonicalExpr: "post.canonicalUrl",
		OGURL:         str("https://example.com/blog/hello"),
	}, origin)

	require.Equal(t, []string{types.RuleUnresolvedCanonical}, issueRules(issues))
	assert.Equal(t, types.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "cannot be resolved")
	assert.NotContains(t, issues[0].Message, "does not declare")
	assert.Equal(t, "post.canonicalUrl", issues[0].Details["expression"])
}

func TestCheckCanonical_Malformed(t *testing.T) {
	for _, canonical := range []string{"https://", "http:///about", "https://exa mple.com/about"} {
		issues := CheckCanonical("/about", Declared{Canonical: str(canonical), OGURL: str(canonical)}, origin)
		require.Equal(t, []string{types.RuleMalformedCanonical}, issueRules(issues), canonical)
		assert.Equal(t, types.SeverityCritical, issues[0].Severity)
		assert.Equal(t, canonical, issues[0].Details["canonical"])
	}
}

func TestCheckCanonical_ExpectedComparison(t *testing.T) {
	tests := []struct {
		name      string
		route     string
		canonical string
		flagged   bool
	}{
		{"exact", "/about", "https://example.com/about", false},
		{"trailing slash", "/about", "https://example.com/about/", false},
		{"root without slash", "/", "https://example.com", false},
		{"root with slash", "/", "https://example.com/", false},
		{"consolidated", "/page1", "https://example.com/main", true},
		{"other host", "/about", "https://www.example.com/about", true},
		{"query exempt", "/page1", "https://example.com/main?ref=nav", false},
		{"fragment exempt", "/page1", "https://example.com/main#top", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := CheckCanonical(tt.route, Declared{Canonical: str(tt.canonical), OGURL: str(tt.canonical)}, origin)
			if tt.flagged {
				require.Equal(t, []string{types.RuleUnexpectedCanonical}, issueRules(issues))
				assert.Equal(t, types.SeverityWarning, issues[0].Severity)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestFindDuplicates(t *testing.T) {
	issues := FindDuplicates([]CanonicalEntry{
		{Route: "/page1", Canonical: "https://x/main"},
		{Route: "/page2", Canonical: "https://x/main"},
		{Route: "/page3", Canonical: "https://x/other"},
	})

	require.Len(t, issues, 2)
	assert.Equal(t, "/page1", issues[0].Subject)
	assert.Equal(t, "/page2", issues[1].Subject)
	for _, issue := range issues {
		assert.Equal(t, types.CategoryDuplicate, issue.Category)
		assert.Equal(t, types.SeverityWarning, issue.Severity)
		assert.Equal(t, "https://x/main", issue.Details["canonical"])
	}
	assert.Equal(t, []string{"/page2"}, issues[0].Details["duplicateWith"])
}

func TestFindDuplicates_CanonicalTargetIsExempt(t *testing.T) {
	issues := FindDuplicates([]CanonicalEntry{
		{Route: "/main", Canonical: "https://x/main"},
		{Route: "/page1", Canonical: "https://x/main"},
	})

	require.Len(t, issues, 1)
	assert.Equal(t, "/page1", issues[0].Subject)
	assert.Equal(t, []string{"/main"}, issues[0].Details["duplicateWith"])
}

func TestFindDuplicates_RootTarget(t *testing.T) {
	issues := FindDuplicates([]CanonicalEntry{
		{Route: "/", Canonical: "https://x/"},
		{Route: "/home", Canonical: "https://x/"},
	})
	require.Len(t, issues, 1)
	assert.Equal(t, "/home", issues[0].Subject)
}

func TestCheckMeta(t *testing.T) {
	goodDescription := "Compare plans and pick the right fit for your team in under a minute."

	assert.Empty(t, CheckMeta("/pricing", Declared{Title: str("Pricing"), Description: str(goodDescription)}))

	missing := CheckMeta("/pricing", Declared{})
	assert.Equal(t, []string{types.RuleMissingTitle, types.RuleMissingDescription}, issueRules(missing))
	assert.Equal(t, types.SeverityError, missing[0].Severity)
	assert.Equal(t, types.SeverityWarning, missing[1].Severity)
	assert.Equal(t, []types.Category{types.CategoryMeta, types.CategoryMeta}, categories(missing))

	long := CheckMeta("/pricing", Declared{Title: str(strings.Repeat("t", 61)), Description: str(strings.Repeat("d", 161))})
	assert.Equal(t, []string{types.RuleLongTitle, types.RuleDescriptionLength}, issueRules(long))

	boundary := CheckMeta("/pricing", Declared{Title: str(strings.Repeat("t", 60)), Description: str(strings.Repeat("d", 50))})
	assert.Empty(t, boundary)

	short := CheckMeta("/pricing", Declared{Title: str("Pricing"), Description: str("Too short.")})
	assert.Equal(t, []string{types.RuleDescriptionLength}, issueRules(short))
}
