package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sitecheck/internal/types"
	"github.com/jonathan/sitecheck/internal/validation"
)

// resetFlags restores every flag to its default so commands can run more than once.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	return rootCmd.Execute()
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func basicSite(t *testing.T) string {
	return writeSite(t, map[string]string{
		"app/page.tsx":       `export default function Home() { return <h1>Home</h1> }`,
		"app/about/page.tsx": `export default function About() { return <h1>About</h1> }`,
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitPassed, exitCode(nil))
	assert.Equal(t, exitFailed, exitCode(&failedError{Blocking: 2}))
	assert.Equal(t, exitFailed, exitCode(fmt.Errorf("gate: %w", &failedError{Blocking: 1})))
	assert.Equal(t, exitFatal, exitCode(&validation.FatalError{Message: "page scan failed"}))
	assert.Equal(t, exitFatal, exitCode(errors.New("unknown flag")))
}

func TestValidateCommand_ReportOnlyPasses(t *testing.T) {
	root := basicSite(t)
	out := filepath.Join(t.TempDir(), "result.json")

	require.NoError(t, execute(t, "validate", "--root", root, "--json", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result types.ValidationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.Passed)
	assert.Equal(t, 2, result.Stats.TotalPages)
	assert.NotEmpty(t, result.RunID)
}

func TestValidateCommand_FailOnErrorWithoutRootPage(t *testing.T) {
	root := writeSite(t, map[string]string{
		"app/about/page.tsx": `export default function About() { return null }`,
	})

	err := execute(t, "validate", "--root", root, "--fail-on-error")
	require.Error(t, err)
	var failed *failedError
	require.ErrorAs(t, err, &failed)
	assert.Positive(t, failed.Blocking)
	assert.Equal(t, exitFailed, exitCode(err))
}

func TestValidateCommand_Markdown(t *testing.T) {
	root := basicSite(t)
	out := filepath.Join(t.TempDir(), "reports", "report.md")

	require.NoError(t, execute(t, "validate", "--root", root, "--markdown", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Site validation report")
}

func TestValidateCommand_MissingRootIsFatal(t *testing.T) {
	err := execute(t, "validate", "--root", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, exitFatal, exitCode(err))
}

func TestValidateCommand_SkipValidation(t *testing.T) {
	t.Setenv("SKIP_VALIDATION", "true")

	err := execute(t, "validate", "--root", filepath.Join(t.TempDir(), "missing"), "--fail-on-error")
	assert.NoError(t, err)
}

func TestValidateCommand_MetricsFile(t *testing.T) {
	root := basicSite(t)
	out := filepath.Join(t.TempDir(), "sitecheck.prom")

	require.NoError(t, execute(t, "validate", "--root", root, "--metrics-file", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sitecheck_")
}

func TestGateCommand_PassesWithoutCriticals(t *testing.T) {
	root := basicSite(t)
	out := filepath.Join(t.TempDir(), "gate.json")

	require.NoError(t, execute(t, "gate", "--root", root, "--json", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result validation.GateResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.Passed)
	assert.Len(t, result.Sections, 3)
}

func TestGateCommand_BlocksOnMissingRootPage(t *testing.T) {
	root := writeSite(t, map[string]string{
		"app/about/page.tsx": `export default function About() { return null }`,
	})

	err := execute(t, "gate", "--root", root)
	var failed *failedError
	require.ErrorAs(t, err, &failed)
}

func TestPagesCommand_JSON(t *testing.T) {
	root := writeSite(t, map[string]string{
		"app/page.tsx":             `export default function Home() { return null }`,
		"app/about/page.tsx":       `export default function About() { return null }`,
		"app/blog/[slug]/page.tsx": `export default function Post() { return null }`,
	})
	out := filepath.Join(t.TempDir(), "pages.json")

	require.NoError(t, execute(t, "pages", "--root", root, "--indexable", "--json", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var pages []types.PageRecord
	require.NoError(t, json.Unmarshal(data, &pages))
	var routes []string
	for _, page := range pages {
		routes = append(routes, page.RoutePath)
	}
	assert.Equal(t, []string{"/", "/about"}, routes)
}

func TestLinksCommand_FailOnOrphans(t *testing.T) {
	root := basicSite(t)
	out := filepath.Join(t.TempDir(), "links.json")

	require.NoError(t, execute(t, "links", "--root", root, "--json", out, "--fail-on-orphans"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"orphans"`)
}

func TestHistoryCommand_RequiresDatabase(t *testing.T) {
	t.Setenv("SITECHECK_DATABASE_URL", "")

	err := execute(t, "history", "--root", basicSite(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database configured")
}
