package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sitecheck/internal/images"
	"github.com/jonathan/sitecheck/internal/observability"
	"github.com/jonathan/sitecheck/internal/types"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Validate image references and files",
	Long: "Scans sources for image references, checks alt text, and validates the referenced files for size, " +
		"dimensions and format. --inventory also reports unreferenced assets as backlog.",
	Args: cobra.NoArgs,
	RunE: runImages,
}

var (
	imagesInventory   bool
	imagesBacklog     bool
	imagesSkipFormat  bool
	imagesFailOnError bool
	imagesJSON        string
)

func init() {
	imagesCmd.Flags().BoolVar(&imagesInventory, "inventory", false, "Walk the whole asset tree, not just referenced files")
	imagesCmd.Flags().BoolVar(&imagesBacklog, "backlog", false, "Include unreferenced asset files as backlog")
	imagesCmd.Flags().BoolVar(&imagesSkipFormat, "skip-format", false, "Skip the modern-format sibling check")
	imagesCmd.Flags().BoolVar(&imagesFailOnError, "fail-on-error", true, "Fail when any referenced image has an error")
	imagesCmd.Flags().StringVarP(&imagesJSON, "json", "j", "", "Write the report as JSON to this path (- for stdout)")

	rootCmd.AddCommand(imagesCmd)
}

func runImages(cmd *cobra.Command, _ []string) error {
	var extra map[string]any
	if cmd.Flags().Changed("skip-format") {
		extra = map[string]any{"images.skip_format": imagesSkipFormat}
	}
	s, err := openSite(cmd, extra)
	if err != nil {
		return err
	}
	defer s.close()

	mode := images.ModeRuntime
	if imagesInventory {
		mode = images.ModeInventory
	}
	report, err := s.images(mode, imagesBacklog).Run(cmd.Context())
	if err != nil {
		return err
	}

	if imagesJSON != "" {
		if err := writeJSON(os.Stdout, imagesJSON, report); err != nil {
			return err
		}
	}
	if imagesJSON != "-" {
		observability.NewPrinter(os.Stdout).PrintImageReport(report)
	}

	errs, _ := types.PartitionIssues(report.Issues)
	if imagesFailOnError && len(errs) > 0 {
		return &failedError{Blocking: len(errs)}
	}
	return nil
}
