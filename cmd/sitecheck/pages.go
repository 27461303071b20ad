package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/sitecheck/internal/inventory"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the page inventory",
	Long:  "Lists every page found under the configured page roots with its route, type and indexability.",
	Args:  cobra.NoArgs,
	RunE:  runPages,
}

var (
	pagesJSON          string
	pagesIndexableOnly bool
)

func init() {
	pagesCmd.Flags().StringVarP(&pagesJSON, "json", "j", "", "Write the inventory as JSON to this path (- for stdout)")
	pagesCmd.Flags().BoolVar(&pagesIndexableOnly, "indexable", false, "Only list indexable pages")

	rootCmd.AddCommand(pagesCmd)
}

func runPages(cmd *cobra.Command, _ []string) error {
	s, err := openSite(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	pages, err := s.pages.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if pagesIndexableOnly {
		pages = inventory.Indexable(pages)
	}

	if pagesJSON != "" {
		return writeJSON(os.Stdout, pagesJSON, pages)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ROUTE\tTYPE\tINDEXABLE\tREASON\tSOURCE")
	for _, page := range pages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", page.RoutePath, page.PageType, page.IsIndexable, page.Reason, page.SourcePath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats := inventory.Summarize(pages)
	_, _ = fmt.Fprintf(os.Stdout, "\n%d page(s), %d indexable\n", stats.Total, stats.Indexable)
	return nil
}
