package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sitecheck/internal/db"
	"github.com/jonathan/sitecheck/internal/images"
	"github.com/jonathan/sitecheck/internal/observability"
	"github.com/jonathan/sitecheck/internal/rendering"
	"github.com/jonathan/sitecheck/internal/validation"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Build gate: fail only on critical findings",
	Long: "Runs the full compliance check, image validation including the asset backlog, and canonical checks. " +
		"The build is blocked only by critical compliance or canonical findings; image findings never block.",
	Args: cobra.NoArgs,
	RunE: runGate,
}

var (
	gateJSON        string
	gateMarkdown    string
	gateDatabaseURL string
	gateMetricsFile string
)

func init() {
	gateCmd.Flags().StringVarP(&gateJSON, "json", "j", "", "Write the gate result as JSON to this path (- for stdout)")
	gateCmd.Flags().StringVarP(&gateMarkdown, "markdown", "m", "", "Write a Markdown report to this path")
	gateCmd.Flags().StringVar(&gateDatabaseURL, "database-url", "", "PostgreSQL URL for run history")
	gateCmd.Flags().StringVar(&gateMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, _ []string) error {
	if skipValidation() {
		return nil
	}

	extra := map[string]any{}
	if cmd.Flags().Changed("database-url") {
		extra["database_url"] = gateDatabaseURL
	}
	if cmd.Flags().Changed("metrics-file") {
		extra["metrics_file"] = gateMetricsFile
	}
	s, err := openSite(cmd, extra)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	gate := validation.NewGate(s.validator(), s.images(images.ModeRuntime, true), validation.GatePolicy, s.logger.Named("gate"))
	outcome, err := gate.Run(ctx)
	if err != nil {
		writeMetrics(s.logger, s.cfg.MetricsFile, nil)
		return err
	}
	result := outcome.Result()
	writeMetrics(s.logger, s.cfg.MetricsFile, result)

	if gateJSON != "" {
		if err := writeJSON(os.Stdout, gateJSON, outcome); err != nil {
			return err
		}
	}
	if gateMarkdown != "" {
		md, err := rendering.RenderGateReport(outcome)
		if err != nil {
			return err
		}
		if err := writeFile(gateMarkdown, []byte(md)); err != nil {
			return err
		}
	}
	saveHistory(ctx, s.logger, s.cfg.DatabaseURL, db.RunKindGate, s.cfg.Root, result)

	if gateJSON != "-" {
		observability.NewPrinter(os.Stdout).PrintGate(outcome)
	}
	if !outcome.Passed {
		return &failedError{Blocking: len(outcome.Blocking)}
	}
	return nil
}
