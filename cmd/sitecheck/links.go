package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/sitecheck/internal/inventory"
	"github.com/jonathan/sitecheck/internal/linkgraph"
	"github.com/jonathan/sitecheck/internal/observability"
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Analyze the synthesized internal link graph",
	Long: "Builds the internal link graph of indexable pages from the navigation rules and reports orphan, " +
		"weakly linked and dead-end pages.",
	Args: cobra.NoArgs,
	RunE: runLinks,
}

var (
	linksFailOnOrphans bool
	linksJSON          string
)

func init() {
	linksCmd.Flags().BoolVar(&linksFailOnOrphans, "fail-on-orphans", false, "Fail when any orphan page is found")
	linksCmd.Flags().StringVarP(&linksJSON, "json", "j", "", "Write the analysis as JSON to this path (- for stdout)")

	rootCmd.AddCommand(linksCmd)
}

func runLinks(cmd *cobra.Command, _ []string) error {
	s, err := openSite(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	pages, err := s.pages.Scan(cmd.Context())
	if err != nil {
		return err
	}
	analysis := linkgraph.Analyze(inventory.Routes(inventory.Indexable(pages)), s.rules)

	if linksJSON != "" {
		if err := writeJSON(os.Stdout, linksJSON, analysis); err != nil {
			return err
		}
	}
	if linksJSON != "-" {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ROUTE\tIN\tOUT")
		for _, node := range analysis.Nodes {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\n", node.Route, node.IncomingCount, node.OutgoingCount)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(os.Stdout)
		observability.NewPrinter(os.Stdout).PrintLinkAnalysis(analysis)
	}

	if linksFailOnOrphans && len(analysis.Orphans) > 0 {
		return &failedError{Blocking: len(analysis.Orphans)}
	}
	return nil
}
