package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sitecheck/internal/types"
)

func testResult() *types.ValidationResult {
	return &types.ValidationResult{
		RunID:       "run-1",
		GeneratedAt: time.Unix(1700000000, 0).UTC(),
		Passed:      false,
		Errors: []types.Issue{
			{Subject: "/a", Severity: types.SeverityError, Category: types.CategoryCanonical},
			{Subject: "/b", Severity: types.SeverityError, Category: types.CategoryCanonical},
			{Subject: "/c", Severity: types.SeverityCritical, Category: types.CategoryCanonical},
		},
		Warnings: []types.Issue{
			{Subject: "/d", Severity: types.SeverityWarning, Category: types.CategoryIncomingLinks},
		},
		Stats: types.ValidationStats{TotalPages: 10, IndexablePages: 7, WeakPages: 1, ImageReferences: 12},
	}
}

func TestRecord(t *testing.T) {
	m := New()
	m.Record(testResult())

	assert.Equal(t, 7.0, testutil.ToFloat64(m.Pages.WithLabelValues("true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Pages.WithLabelValues("false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Issues.WithLabelValues("error", "canonical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Issues.WithLabelValues("critical", "canonical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinkPages.WithLabelValues("weak")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.ImageReferences))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Passed))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
}

func TestRecord_ResetsIssueGauges(t *testing.T) {
	m := New()
	m.Record(testResult())

	clean := testResult()
	clean.Errors = nil
	clean.Passed = true
	m.Record(clean)

	assert.Equal(t, 1, testutil.CollectAndCount(m.Issues))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("passed")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Record(testResult())
	m.RecordFatal()

	path := filepath.Join(t.TempDir(), "sitecheck.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sitecheck_run_passed 0")
	assert.Contains(t, string(data), `sitecheck_runs_total{outcome="fatal"} 1`)
	assert.Contains(t, string(data), `sitecheck_issues{category="canonical",severity="error"} 2`)
}
