package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sitecheck/internal/images"
	"github.com/jonathan/sitecheck/internal/types"
)

func TestPolicy_Evaluate(t *testing.T) {
	imageError := issue("public/hero.png", types.SeverityError, types.CategoryDimensions, types.RuleUnreadableImage)

	tests := []struct {
		name     string
		policy   Policy
		findings []Findings
		passed   bool
	}{
		{"report only", RunOptions{}.Policy(), []Findings{{SourceCompliance, []types.Issue{malformed, missingTitle}}}, true},
		{"fail on error", RunOptions{FailOnError: true}.Policy(), []Findings{{SourceCompliance, []types.Issue{missingTitle}}}, false},
		{"fail on error ignores warnings", RunOptions{FailOnError: true}.Policy(), []Findings{{SourceCompliance, []types.Issue{missingOG}}}, true},
		{"fail on warning", RunOptions{FailOnWarning: true}.Policy(), []Findings{{SourceCompliance, []types.Issue{missingOG}}}, false},
		{"gate blocks compliance critical", GatePolicy, []Findings{{SourceCompliance, []types.Issue{malformed}}}, false},
		{"gate blocks canonical critical", GatePolicy, []Findings{{SourceCanonicals, []types.Issue{malformed}}}, false},
		{"gate passes errors", GatePolicy, []Findings{{SourceCompliance, []types.Issue{missingTitle}}}, true},
		{"gate never blocks images", GatePolicy, []Findings{{SourceImages, []types.Issue{imageError, malformed}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := tt.policy.Evaluate(tt.findings...)
			assert.Equal(t, tt.passed, verdict.Passed)
			assert.Equal(t, tt.passed, len(verdict.Blocking) == 0)
		})
	}
}

func TestGate_BlocksOnlyOnCritical(t *testing.T) {
	v := newTestValidator(fakeMetadata{canonical: []types.Issue{malformed, missingOG}}, nil)
	backlog := fakeImages{report: &images.Report{
		Issues:  []types.Issue{issue("app/page.tsx:4 (/hero.png)", types.SeverityError, types.CategoryAltText, types.RuleMissingAlt)},
		Backlog: []types.Issue{issue("public/old.jpg", types.SeverityWarning, types.CategoryFormat, types.RuleLegacyFormat)},
	}}

	result, err := NewGate(v, backlog, nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Passed)
	require.Len(t, result.Sections, 3)
	assert.Equal(t, SourceCompliance, result.Sections[0].Source)
	assert.Equal(t, 1, result.Sections[0].Blocking)
	assert.Equal(t, SourceImages, result.Sections[1].Source)
	assert.Len(t, result.Sections[1].Issues, 1, "backlog findings are kept out of the images section")
	assert.Zero(t, result.Sections[1].Blocking)
	assert.Equal(t, []string{types.RuleLegacyFormat}, rulesOf(result.Backlog))
	assert.Equal(t, SourceCanonicals, result.Sections[2].Source)
	assert.Equal(t, 1, result.Sections[2].Blocking)
	assert.Len(t, result.Blocking, 2)
}

func TestGate_ImageIssuesNeverBlock(t *testing.T) {
	v := newTestValidator(fakeMetadata{meta: []types.Issue{missingTitle}, canonical: []types.Issue{missingOG}}, nil)
	backlog := fakeImages{report: &images.Report{
		Issues: []types.Issue{issue("app/page.tsx:4 (/hero.png)", types.SeverityError, types.CategoryAltText, types.RuleMissingAlt)},
	}}

	result, err := NewGate(v, backlog, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Blocking)
	assert.Equal(t, []string{types.RuleMissingTitle}, rulesOf(result.Compliance.Errors))
}

func TestGate_ImageFailureIsTolerated(t *testing.T) {
	v := newTestValidator(fakeMetadata{canonical: []types.Issue{malformed}}, nil)

	result, err := NewGate(v, fakeImages{err: errors.New("decoder crashed")}, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Passed, "canonical findings still count")
	assert.Empty(t, result.Sections[1].Issues)
}

func TestGate_FatalCanonicalFailure(t *testing.T) {
	v := newTestValidator(fakeMetadata{canonicalErr: errors.New("unreadable page")}, nil)

	_, err := NewGate(v, nil, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestGateResult_ResultMergesSections(t *testing.T) {
	v := newTestValidator(fakeMetadata{canonical: []types.Issue{malformed, missingOG}}, nil)
	backlog := fakeImages{report: &images.Report{
		References: 3,
		Issues:     []types.Issue{issue("app/page.tsx:4 (/hero.png)", types.SeverityError, types.CategoryAltText, types.RuleMissingAlt)},
		Backlog:    []types.Issue{issue("public/old.jpg", types.SeverityWarning, types.CategoryFormat, types.RuleLegacyFormat)},
	}}

	gate, err := NewGate(v, backlog, nil, nil).Run(context.Background())
	require.NoError(t, err)

	merged := gate.Result()
	assert.False(t, merged.Passed)
	assert.Equal(t, gate.Compliance.RunID, merged.RunID)
	// Canonical findings appear in both compliance and canonical sections and are kept once.
	assert.Equal(t, []string{types.RuleMalformedCanonical, types.RuleMissingAlt}, rulesOf(merged.Errors))
	assert.Equal(t, []string{
		types.RuleWeakPage,
		types.RuleDeadEndPage,
		types.RuleMissingOGURL,
	}, rulesOf(merged.Warnings), "backlog findings are not merged")
	assert.Len(t, gate.Compliance.Errors, 1, "the compliance result is not modified")
}

func TestGateResult_ResultStatsMatchMergedIssues(t *testing.T) {
	v := newTestValidator(fakeMetadata{canonical: []types.Issue{malformed, missingOG}}, nil)
	imgs := fakeImages{report: &images.Report{
		References: 3,
		Issues:     []types.Issue{issue("app/page.tsx:4 (/hero.png)", types.SeverityError, types.CategoryAltText, types.RuleMissingAlt)},
		Backlog:    []types.Issue{issue("public/old.jpg", types.SeverityWarning, types.CategoryFormat, types.RuleLegacyFormat)},
	}}

	gate, err := NewGate(v, imgs, nil, nil).Run(context.Background())
	require.NoError(t, err)

	merged := gate.Result()
	stats := merged.Stats
	assert.Equal(t, len(merged.Errors), stats.CriticalCount+stats.ErrorCount)
	assert.Equal(t, len(merged.Warnings), stats.WarningCount)
	assert.Equal(t, 1, stats.CriticalCount)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 1, stats.ImageIssues)
	assert.Equal(t, 3, stats.ImageReferences)
	assert.Zero(t, stats.ByCategory[types.CategoryFormat])
	assert.Equal(t, gate.Compliance.Stats.TotalPages, stats.TotalPages)
	assert.Equal(t, gate.Compliance.Stats.IndexablePages, stats.IndexablePages)

	assert.Zero(t, gate.Compliance.Stats.ErrorCount, "the compliance stats are not modified")
}
