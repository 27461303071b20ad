package rendering

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/jonathan/sitecheck/internal/types"
	"github.com/jonathan/sitecheck/internal/validation"
)

// MaxWarnings is the number of warnings listed before the rest are summarized.
const MaxWarnings = 20

//go:embed report.md.tmpl
var reportTemplate string

var report = template.Must(template.New("report").Funcs(template.FuncMap{
	"escape": EscapeMarkdown,
}).Parse(reportTemplate))

// ReportData is the data passed to the report template
type ReportData struct {
	Title        string
	RunID        string
	GeneratedAt  string
	Passed       bool
	Stats        types.ValidationStats
	Sections     []SectionSummary
	Backlog      int
	Critical     []types.Issue
	Errors       []types.Issue // non-critical errors
	Warnings     []types.Issue // first MaxWarnings warnings
	WarningTotal int
	MoreWarnings int
}

// SectionSummary is one analyzer row of a gate report
type SectionSummary struct {
	Name     string
	Count    int
	Blocking int
}

// RenderReport renders a validation result as Markdown.
func RenderReport(result *types.ValidationResult) (string, error) {
	if result == nil {
		return "", &ReportError{Kind: KindValidation, Message: "no result to render"}
	}
	return execute(KindValidation, buildReportData("Site validation report", result, result.Passed))
}

// RenderGateReport renders a build gate outcome as Markdown. Findings from every
// analyzer are listed; the summary shows which ones blocked.
func RenderGateReport(gate *validation.GateResult) (string, error) {
	if gate == nil || gate.Compliance == nil {
		return "", &ReportError{Kind: KindGate, Message: "no gate result to render"}
	}

	var sections []SectionSummary
	for _, section := range gate.Sections {
		sections = append(sections, SectionSummary{
			Name:     string(section.Source),
			Count:    len(section.Issues),
			Blocking: section.Blocking,
		})
	}

	data := buildReportData("Build gate report", gate.Result(), gate.Passed)
	data.Sections = sections
	data.Backlog = len(gate.Backlog)
	return execute(KindGate, data)
}

func buildReportData(title string, result *types.ValidationResult, passed bool) *ReportData {
	data := &ReportData{
		Title:        title,
		RunID:        result.RunID,
		GeneratedAt:  result.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
		Passed:       passed,
		Stats:        result.Stats,
		Critical:     []types.Issue{},
		Errors:       []types.Issue{},
		WarningTotal: len(result.Warnings),
	}
	for _, issue := range result.Errors {
		if issue.Severity == types.SeverityCritical {
			data.Critical = append(data.Critical, issue)
		} else {
			data.Errors = append(data.Errors, issue)
		}
	}
	data.Warnings = result.Warnings
	if len(data.Warnings) > MaxWarnings {
		data.MoreWarnings = len(data.Warnings) - MaxWarnings
		data.Warnings = data.Warnings[:MaxWarnings]
	}
	return data
}

func execute(kind string, data *ReportData) (string, error) {
	var out strings.Builder
	if err := report.Execute(&out, data); err != nil {
		return "", &ReportError{
			Kind:    kind,
			RunID:   data.RunID,
			Message: "failed to execute report template",
			Cause:   err,
		}
	}
	return out.String(), nil
}
