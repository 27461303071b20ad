package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/sitecheck/internal/observability"
	"github.com/jonathan/sitecheck/internal/rendering"
	"github.com/jonathan/sitecheck/internal/validation"
	"github.com/jonathan/sitecheck/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run validation whenever the site source changes",
	Long:  "Runs validate once, then again after each burst of file changes under the site root. Stop with Ctrl-C.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var (
	watchMarkdown string
	watchJSON     string
)

func init() {
	watchCmd.Flags().StringVarP(&watchMarkdown, "markdown", "m", "", "Rewrite a Markdown report at this path after every run")
	watchCmd.Flags().StringVarP(&watchJSON, "json", "j", "", "Rewrite the JSON result at this path after every run")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := openSite(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validator := s.validator()
	w := watch.New(watch.Options{
		Root:     s.cfg.Root,
		Debounce: s.cfg.Watch.Debounce,
		Logger:   s.logger.Named("watch"),
	})
	return w.Run(ctx, func(ctx context.Context) {
		s.tree.Reset()
		result, err := validator.Run(ctx, validation.RunOptions{})
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error("validation run failed", zap.Error(err))
			}
			return
		}
		writeMetrics(s.logger, s.cfg.MetricsFile, result)
		if watchJSON != "" && watchJSON != "-" {
			if err := writeJSON(os.Stdout, watchJSON, result); err != nil {
				s.logger.Warn("failed to write result", zap.Error(err))
			}
		}
		if watchMarkdown != "" {
			md, err := rendering.RenderReport(result)
			if err == nil {
				err = writeFile(watchMarkdown, []byte(md))
			}
			if err != nil {
				s.logger.Warn("failed to write report", zap.Error(err))
			}
		}
		observability.NewPrinter(os.Stdout).PrintResult(result)
	})
}
