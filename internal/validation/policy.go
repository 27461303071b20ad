package validation

import "github.com/jonathan/sitecheck/internal/types"

// Source names an analyzer whose findings the policy weighs.
type Source string

const (
	SourceCompliance Source = "compliance"
	SourceImages     Source = "images"
	SourceCanonicals Source = "canonicals"
)

// Sources lists every source in evaluation order.
var Sources = []Source{SourceCompliance, SourceImages, SourceCanonicals}

// SeveritySet is the set of severities that block a build.
type SeveritySet map[types.Severity]bool

// Severities builds a SeveritySet.
func Severities(severities ...types.Severity) SeveritySet {
	set := SeveritySet{}
	for _, severity := range severities {
		set[severity] = true
	}
	return set
}

// Policy maps each source to the severities that block. A source without an entry
// never blocks.
type Policy map[Source]SeveritySet

// GatePolicy blocks the build only on critical findings from compliance and canonical
// checks. Image findings never block.
var GatePolicy = Policy{
	SourceCompliance: Severities(types.SeverityCritical),
	SourceCanonicals: Severities(types.SeverityCritical),
	SourceImages:     Severities(),
}

// RunOptions selects the pass/fail policy of a single Run. The zero value reports
// without ever failing.
type RunOptions struct {
	FailOnError   bool
	FailOnWarning bool
}

// Policy returns the single-run policy for these options.
func (o RunOptions) Policy() Policy {
	blocking := Severities()
	if o.FailOnError {
		blocking[types.SeverityCritical] = true
		blocking[types.SeverityError] = true
	}
	if o.FailOnWarning {
		blocking[types.SeverityWarning] = true
	}
	return Policy{SourceCompliance: blocking}
}

// Findings are the issues produced by one source.
type Findings struct {
	Source Source
	Issues []types.Issue
}

// Verdict is the outcome of evaluating findings against a policy.
type Verdict struct {
	Passed   bool
	Blocking []types.Issue
}

// Evaluate returns the blocking issues of findings under p, in input order. The run
// passes when none block.
func (p Policy) Evaluate(findings ...Findings) Verdict {
	blocking := []types.Issue{}
	for _, f := range findings {
		severities := p[f.Source]
		for _, issue := range f.Issues {
			if severities[issue.Severity] {
				blocking = append(blocking, issue)
			}
		}
	}
	return Verdict{Passed: len(blocking) == 0, Blocking: blocking}
}
