package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/sitecheck/internal/observability"
	"github.com/jonathan/sitecheck/internal/types"
)

var canonicalsCmd = &cobra.Command{
	Use:   "canonicals",
	Short: "Check canonical and Open Graph URLs",
	Long:  "Extracts canonical and og:url declarations of every indexable page and reports missing, malformed, mismatched and duplicate values.",
	Args:  cobra.NoArgs,
	RunE:  runCanonicals,
}

var (
	canonicalsFailOnError bool
	canonicalsJSON        string
)

func init() {
	canonicalsCmd.Flags().BoolVar(&canonicalsFailOnError, "fail-on-error", true, "Fail when any critical or error issue is found")
	canonicalsCmd.Flags().StringVarP(&canonicalsJSON, "json", "j", "", "Write the issues as JSON to this path (- for stdout)")

	rootCmd.AddCommand(canonicalsCmd)
}

func runCanonicals(cmd *cobra.Command, _ []string) error {
	s, err := openSite(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	issues, err := s.validator().Canonicals(cmd.Context())
	if err != nil {
		return err
	}

	if canonicalsJSON != "" {
		if err := writeJSON(os.Stdout, canonicalsJSON, issues); err != nil {
			return err
		}
	}
	if canonicalsJSON != "-" {
		observability.NewPrinter(os.Stdout).PrintIssues("CANONICAL AND OPEN GRAPH URLS", issues)
	}

	errs, _ := types.PartitionIssues(issues)

	if canonicalsFailOnError && len(errs) > 0 {
		return &failedError{Blocking: len(errs)}
	}
	return nil
}
