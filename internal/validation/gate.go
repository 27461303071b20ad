package validation

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/sitecheck/internal/types"
)

// GateSection is the outcome of one analyzer run by the gate.
type GateSection struct {
	Source   Source        `json:"source"`
	Issues   []types.Issue `json:"issues"`
	Blocking int           `json:"blocking"`
}

// GateResult is the outcome of a build gate run. Backlog holds findings for asset files
// no page references; they are reported but never merged into the run's findings.
type GateResult struct {
	Passed          bool                    `json:"passed"`
	Compliance      *types.ValidationResult `json:"compliance"`
	Sections        []GateSection           `json:"sections"`
	Blocking        []types.Issue           `json:"blocking"`
	Backlog         []types.Issue           `json:"backlog"`
	ImageReferences int                     `json:"imageReferences"`
}

// Gate runs the full compliance check, image validation with backlog and canonical
// checks, and blocks according to a Policy.
type Gate struct {
	validator *Validator
	images    ImageChecker
	policy    Policy
	logger    *zap.Logger
}

// NewGate creates a Gate. images should include the asset backlog; it may be nil. A nil
// policy uses GatePolicy.
func NewGate(validator *Validator, images ImageChecker, policy Policy, logger *zap.Logger) *Gate {
	if policy == nil {
		policy = GatePolicy
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{validator: validator, images: images, policy: policy, logger: logger}
}

// Run executes the three analyzers in order. Fatal compliance or canonical failures are
// returned as errors; an image failure is logged and yields no findings.
func (g *Gate) Run(ctx context.Context) (*GateResult, error) {
	compliance, err := g.validator.Run(ctx, RunOptions{})
	if err != nil {
		return nil, err
	}
	complianceIssues := append(append([]types.Issue{}, compliance.Errors...), compliance.Warnings...)

	imageIssues := []types.Issue{}
	backlog := []types.Issue{}
	imageReferences := compliance.Stats.ImageReferences
	if g.images != nil {
		report, err := g.images.Run(ctx)
		if err != nil {
			g.validator.tolerate(ctx, g.logger, StageImages, nil, err)
		} else {
			imageIssues = append(imageIssues, report.Issues...)
			backlog = append(backlog, report.Backlog...)
			imageReferences = report.References
		}
	}

	canonicalIssues, err := g.validator.Canonicals(ctx)
	if err != nil {
		return nil, err
	}

	findings := []Findings{
		{Source: SourceCompliance, Issues: complianceIssues},
		{Source: SourceImages, Issues: imageIssues},
		{Source: SourceCanonicals, Issues: canonicalIssues},
	}
	result := &GateResult{
		Compliance:      compliance,
		Blocking:        []types.Issue{},
		Backlog:         backlog,
		ImageReferences: imageReferences,
	}
	for _, f := range findings {
		verdict := g.policy.Evaluate(f)
		result.Sections = append(result.Sections, GateSection{Source: f.Source, Issues: f.Issues, Blocking: len(verdict.Blocking)})
		result.Blocking = append(result.Blocking, verdict.Blocking...)
	}
	result.Passed = len(result.Blocking) == 0

	g.logger.Info("build gate complete",
		zap.Bool("passed", result.Passed),
		zap.Int("blocking", len(result.Blocking)),
		zap.Int("backlog", len(result.Backlog)))
	return result, nil
}

// Result merges the findings of every section into one result. Issues reported by more
// than one analyzer are kept once and the stats are recomputed over the merged list.
// Backlog findings are left out. Passed is the gate verdict.
func (r *GateResult) Result() *types.ValidationResult {
	var all []types.Issue
	for _, section := range r.Sections {
		all = append(all, section.Issues...)
	}
	all = dedupe(all)

	merged := *r.Compliance
	merged.Passed = r.Passed
	merged.Errors, merged.Warnings = types.PartitionIssues(all)
	merged.Stats = ComputeStats(nil, all, r.ImageReferences)
	merged.Stats.TotalPages = r.Compliance.Stats.TotalPages
	merged.Stats.IndexablePages = r.Compliance.Stats.IndexablePages
	return &merged
}

func dedupe(issues []types.Issue) []types.Issue {
	type key struct {
		subject string
		rule    string
		message string
	}
	seen := make(map[key]bool, len(issues))
	out := make([]types.Issue, 0, len(issues))
	for _, issue := range issues {
		k := key{issue.Subject, issue.Rule, issue.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, issue)
	}
	return out
}
