package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/sitecheck/internal/db"
	"github.com/jonathan/sitecheck/internal/observability"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show stored validation runs",
	Long:  "Lists recent runs of the site root from the run history database, or the issues of one run when a run ID is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var (
	historyDatabaseURL string
	historyLimit       int
)

func init() {
	historyCmd.Flags().StringVar(&historyDatabaseURL, "database-url", "", "PostgreSQL URL for run history")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	var extra map[string]any
	if cmd.Flags().Changed("database-url") {
		extra = map[string]any{"database_url": historyDatabaseURL}
	}
	s, err := openSite(cmd, extra)
	if err != nil {
		return err
	}
	defer s.close()

	if s.cfg.DatabaseURL == "" {
		return errors.New("no database configured: set --database-url or SITECHECK_DATABASE_URL")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if len(args) == 1 {
		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
		run, err := database.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", runID)
		}
		issues, err := database.ListIssues(ctx, runID)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s RUN %s, %s", strings.ToUpper(run.Kind), run.GeneratedAt.Format("2006-01-02 15:04:05"), passedLabel(run.Passed))
		observability.NewPrinter(os.Stdout).PrintIssues(title, issues)
		return nil
	}

	runs, err := database.ListRuns(ctx, s.cfg.Root, historyLimit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN ID\tKIND\tGENERATED\tPASSED\tERRORS\tWARNINGS")
	for _, run := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\n",
			run.ID, run.Kind, run.GeneratedAt.Format("2006-01-02 15:04:05"), run.Passed, run.ErrorCount, run.WarningCount)
	}
	return tw.Flush()
}

func passedLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
