// Package observability provides formatted terminal summaries of CLI runs.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/sitecheck/internal/images"
	"github.com/jonathan/sitecheck/internal/linkgraph"
	"github.com/jonathan/sitecheck/internal/types"
	"github.com/jonathan/sitecheck/internal/validation"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output of run summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeIssues lists up to maxItemsToShow issues under a heading.
func writeIssues(sb *strings.Builder, heading string, issues []types.Issue) {
	if len(issues) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("%s:\n", heading))
	count := min(len(issues), maxItemsToShow)
	for i := 0; i < count; i++ {
		issue := issues[i]
		sb.WriteString(fmt.Sprintf("  • %s  %s\n", issue.Subject, issue.Rule))
	}
	if len(issues) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(issues)-maxItemsToShow))
	}
	sb.WriteString("\n")
}

func verdict(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

// PrintResult outputs the stats and findings of a validation run.
func (p *Printer) PrintResult(result *types.ValidationResult) {
	if result == nil {
		return
	}

	stats := result.Stats
	critical := result.Critical()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pages:    %d total, %d indexable\n", stats.TotalPages, stats.IndexablePages))
	sb.WriteString(fmt.Sprintf("Links:    %d orphan, %d weak, %d dead-end\n", stats.OrphanPages, stats.WeakPages, stats.DeadEndPages))
	sb.WriteString(fmt.Sprintf("Images:   %d reference(s), %d issue(s)\n", stats.ImageReferences, stats.ImageIssues))
	sb.WriteString(fmt.Sprintf("Issues:   %d critical, %d error(s), %d warning(s)\n",
		len(critical), len(result.Errors)-len(critical), len(result.Warnings)))
	sb.WriteString("\n")

	writeIssues(&sb, "Critical", critical)
	writeIssues(&sb, "Errors", types.FilterSeverity(result.Errors, types.SeverityError))

	sb.WriteString(fmt.Sprintf("Result:   %s", verdict(result.Passed)))
	p.printBox("SITE VALIDATION", sb.String())
}

// PrintGate outputs the per-analyzer sections and blocking issues of a gate run.
func (p *Printer) PrintGate(gate *validation.GateResult) {
	if gate == nil {
		return
	}

	var sb strings.Builder
	for _, section := range gate.Sections {
		sb.WriteString(fmt.Sprintf("%-12s %4d finding(s), %d blocking\n", section.Source, len(section.Issues), section.Blocking))
	}
	if len(gate.Backlog) > 0 {
		sb.WriteString(fmt.Sprintf("%-12s %4d finding(s) in unreferenced assets\n", "backlog", len(gate.Backlog)))
	}
	sb.WriteString("\n")
	writeIssues(&sb, "Blocking", gate.Blocking)
	sb.WriteString(fmt.Sprintf("Result:   %s", verdict(gate.Passed)))
	p.printBox("BUILD GATE", sb.String())
}

// PrintLinkAnalysis outputs the classified pages of a link graph.
func (p *Printer) PrintLinkAnalysis(analysis *linkgraph.Analysis) {
	if analysis == nil {
		return
	}

	nodes := make(map[string]types.LinkGraphNode, len(analysis.Nodes))
	for _, node := range analysis.Nodes {
		nodes[node.Route] = node
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pages: %d, synthesized links: %d\n\n", len(analysis.Nodes), len(analysis.Edges)))
	for _, group := range []struct {
		name   string
		routes []string
	}{
		{"Orphans", analysis.Orphans},
		{"Weak", analysis.Weak},
		{"Dead ends", analysis.DeadEnds},
	} {
		if len(group.routes) == 0 {
			sb.WriteString(fmt.Sprintf("%s: none\n", group.name))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s:\n", group.name))
		count := min(len(group.routes), maxItemsToShow)
		for _, route := range group.routes[:count] {
			node := nodes[route]
			sb.WriteString(fmt.Sprintf("  • %s (in %d, out %d)\n", route, node.IncomingCount, node.OutgoingCount))
		}
		if len(group.routes) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(group.routes)-maxItemsToShow))
		}
	}
	p.printBox("LINK GRAPH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintImageReport outputs reference counts and findings of an image run.
func (p *Printer) PrintImageReport(report *images.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("References:    %d (%d unresolved)\n", report.References, report.Unresolved))
	sb.WriteString(fmt.Sprintf("Files checked: %d\n\n", report.FilesChecked))
	errs, warnings := types.PartitionIssues(report.Issues)
	writeIssues(&sb, "Errors", errs)
	writeIssues(&sb, "Warnings", warnings)
	if len(report.Backlog) > 0 {
		sb.WriteString(fmt.Sprintf("Backlog: %d issue(s) in unreferenced assets", len(report.Backlog)))
	}
	p.printBox("IMAGES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintIssues outputs a flat issue list under title.
func (p *Printer) PrintIssues(title string, issues []types.Issue) {
	var sb strings.Builder
	errs, warnings := types.PartitionIssues(issues)
	sb.WriteString(fmt.Sprintf("%d error(s), %d warning(s)\n\n", len(errs), len(warnings)))
	writeIssues(&sb, "Errors", errs)
	writeIssues(&sb, "Warnings", warnings)
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}
