package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sitecheck/internal/db"
	"github.com/jonathan/sitecheck/internal/observability"
	"github.com/jonathan/sitecheck/internal/rendering"
	"github.com/jonathan/sitecheck/internal/types"
	"github.com/jonathan/sitecheck/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run every check over the site source",
	Long: "Scans pages, metadata, the link graph, images and canonical URLs. " +
		"By default the run only reports; --fail-on-error and --fail-on-warning turn findings into a failing exit code.",
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var (
	validateFailOnError   bool
	validateFailOnWarning bool
	validateJSON          string
	validateMarkdown      string
	validateDatabaseURL   string
	validateMetricsFile   string
)

func init() {
	validateCmd.Flags().BoolVar(&validateFailOnError, "fail-on-error", false, "Fail when any critical or error issue is found")
	validateCmd.Flags().BoolVar(&validateFailOnWarning, "fail-on-warning", false, "Fail when any warning is found")
	validateCmd.Flags().StringVarP(&validateJSON, "json", "j", "", "Write the result as JSON to this path (- for stdout)")
	validateCmd.Flags().StringVarP(&validateMarkdown, "markdown", "m", "", "Write a Markdown report to this path")
	validateCmd.Flags().StringVar(&validateDatabaseURL, "database-url", "", "PostgreSQL URL for run history")
	validateCmd.Flags().StringVar(&validateMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if skipValidation() {
		return nil
	}

	extra := map[string]any{}
	if cmd.Flags().Changed("database-url") {
		extra["database_url"] = validateDatabaseURL
	}
	if cmd.Flags().Changed("metrics-file") {
		extra["metrics_file"] = validateMetricsFile
	}
	s, err := openSite(cmd, extra)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	opts := validation.RunOptions{FailOnError: validateFailOnError, FailOnWarning: validateFailOnWarning}
	result, err := s.validator().Run(ctx, opts)
	if err != nil {
		writeMetrics(s.logger, s.cfg.MetricsFile, nil)
		return err
	}
	writeMetrics(s.logger, s.cfg.MetricsFile, result)
	checkResultSchema(s.logger, result)

	if validateJSON != "" {
		if err := writeJSON(os.Stdout, validateJSON, result); err != nil {
			return err
		}
	}
	if validateMarkdown != "" {
		md, err := rendering.RenderReport(result)
		if err != nil {
			return err
		}
		if err := writeFile(validateMarkdown, []byte(md)); err != nil {
			return err
		}
	}
	saveHistory(ctx, s.logger, s.cfg.DatabaseURL, db.RunKindValidate, s.cfg.Root, result)

	if validateJSON != "-" {
		observability.NewPrinter(os.Stdout).PrintResult(result)
	}
	if !result.Passed {
		verdict := opts.Policy().Evaluate(validation.Findings{
			Source: validation.SourceCompliance,
			Issues: append(append([]types.Issue{}, result.Errors...), result.Warnings...),
		})
		return &failedError{Blocking: len(verdict.Blocking)}
	}
	return nil
}
