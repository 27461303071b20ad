package rendering

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sitecheck/internal/types"
	"github.com/jonathan/sitecheck/internal/validation"
)

func testResult(warnings int) *types.ValidationResult {
	result := &types.ValidationResult{
		RunID:       "run-1",
		GeneratedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Errors: []types.Issue{
			{Subject: "/pricing", Severity: types.SeverityError, Category: types.CategoryCanonical, Rule: types.RuleMissingCanonical, Message: "Missing canonical URL", Fix: "Add alternates.canonical"},
			{Subject: "/old", Severity: types.SeverityCritical, Category: types.CategoryCanonical, Rule: types.RuleMalformedCanonical, Message: "Malformed canonical URL: https://"},
		},
		Warnings: []types.Issue{},
		Stats:    types.ValidationStats{TotalPages: 12, IndexablePages: 9},
	}
	for i := 0; i < warnings; i++ {
		result.Warnings = append(result.Warnings, types.Issue{
			Subject:  fmt.Sprintf("/page-%02d", i),
			Severity: types.SeverityWarning,
			Category: types.CategoryIncomingLinks,
			Rule:     types.RuleWeakPage,
			Message:  "Page has only one incoming internal link",
		})
	}
	return result
}

func TestRenderReport_SectionOrder(t *testing.T) {
	out, err := RenderReport(testResult(3))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Site validation report\n"))
	assert.Contains(t, out, "Generated 2025-03-04 05:06:07 UTC (run `run-1`)")
	assert.Contains(t, out, "**Status: FAILED**")
	assert.Contains(t, out, "| Pages | 12 (9 indexable) |")

	critical := strings.Index(out, "## Critical (1)")
	errs := strings.Index(out, "## Errors (1)")
	warnings := strings.Index(out, "## Warnings (3)")
	require.True(t, critical >= 0 && errs >= 0 && warnings >= 0, out)
	assert.Less(t, critical, errs)
	assert.Less(t, errs, warnings)

	assert.Less(t, critical, strings.Index(out, "**/old**"))
	assert.Less(t, strings.Index(out, "**/old**"), errs)
	assert.Less(t, errs, strings.Index(out, "**/pricing**"))
	assert.Contains(t, out, "- **/pricing** `canonical` Missing canonical URL\n  - Fix: Add alternates.canonical\n")
	assert.NotContains(t, out, "more")
}

func TestRenderReport_TruncatesWarnings(t *testing.T) {
	out, err := RenderReport(testResult(25))
	require.NoError(t, err)

	assert.Contains(t, out, "## Warnings (25)")
	assert.Contains(t, out, "**/page-19**")
	assert.NotContains(t, out, "**/page-20**")
	assert.Contains(t, out, "...and 5 more")
	assert.Equal(t, MaxWarnings, strings.Count(out, "Page has only one incoming internal link"))
}

func TestRenderReport_EmptySections(t *testing.T) {
	result := testResult(0)
	result.Errors = nil
	result.Passed = true

	out, err := RenderReport(result)
	require.NoError(t, err)
	assert.Contains(t, out, "**Status: PASSED**")
	assert.Equal(t, 3, strings.Count(out, "None."))
}

func TestRenderReport_EscapesSubjects(t *testing.T) {
	result := testResult(0)
	result.Errors = []types.Issue{{Subject: "/blog/[slug]", Severity: types.SeverityError, Category: types.CategoryMeta, Message: "Missing *title*"}}

	out, err := RenderReport(result)
	require.NoError(t, err)
	assert.Contains(t, out, `**/blog/\[slug\]**`)
	assert.Contains(t, out, `Missing \*title\*`)
}

func TestRenderReport_Nil(t *testing.T) {
	_, err := RenderReport(nil)
	var reportErr *ReportError
	require.ErrorAs(t, err, &reportErr)
	assert.Equal(t, KindValidation, reportErr.Kind)
	assert.Equal(t, "validation report: no result to render", err.Error())

	_, err = RenderGateReport(&validation.GateResult{})
	require.ErrorAs(t, err, &reportErr)
	assert.Equal(t, KindGate, reportErr.Kind)
}

func TestReportError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &ReportError{Kind: KindGate, RunID: "run-1", Message: "failed to execute report template", Cause: cause}

	assert.Equal(t, "gate report for run run-1: failed to execute report template: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestRenderGateReport(t *testing.T) {
	compliance := testResult(1)
	malformed := compliance.Errors[1]
	gate := &validation.GateResult{
		Passed:     false,
		Compliance: compliance,
		Sections: []validation.GateSection{
			{Source: validation.SourceCompliance, Issues: append(append([]types.Issue{}, compliance.Errors...), compliance.Warnings...), Blocking: 1},
			{Source: validation.SourceImages, Issues: []types.Issue{{Subject: "app/page.tsx:4 (/hero.png)", Severity: types.SeverityWarning, Category: types.CategoryAltText, Message: "Generic alt text"}}},
			{Source: validation.SourceCanonicals, Issues: []types.Issue{malformed}, Blocking: 1},
		},
		Blocking: []types.Issue{malformed, malformed},
		Backlog:  []types.Issue{{Subject: "public/old.jpg", Severity: types.SeverityWarning, Category: types.CategoryFormat, Message: "Legacy format"}},
	}

	out, err := RenderGateReport(gate)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Build gate report\n"))
	assert.Contains(t, out, "| compliance | 3 issues, 1 blocking |")
	assert.Contains(t, out, "| images | 1 issues, 0 blocking |")
	assert.Contains(t, out, "## Critical (1)", "the canonical finding reported twice is listed once")
	assert.Contains(t, out, "## Warnings (2)")
	assert.Contains(t, out, "Generic alt text")
	assert.Contains(t, out, "| Unreferenced asset backlog | 1 issues |")
	assert.NotContains(t, out, "public/old.jpg", "backlog findings are counted, not listed")
	assert.Contains(t, out, "| Critical / errors / warnings | 1 / 1 / 2 |")
}
