package linkgraph

import (
	"fmt"

	"github.com/jonathan/sitecheck/internal/types"
)

// Analysis is the outcome of analyzing one route set.
type Analysis struct {
	Nodes    []types.LinkGraphNode `json:"nodes"`
	Edges    []types.LinkEdge      `json:"edges"`
	Orphans  []string              `json:"orphans"`
	Weak     []string              `json:"weak"`
	DeadEnds []string              `json:"deadEnds"`
}

// Analyze synthesizes edges for routes, builds the graph and runs every classification.
// A nil rules value uses the embedded defaults.
func Analyze(routes []string, rules *Rules) *Analysis {
	if rules == nil {
		rules = DefaultRules()
	}
	edges := Synthesize(routes, rules)
	g := Build(routes, edges)
	return &Analysis{
		Nodes:    g.Nodes(),
		Edges:    edges,
		Orphans:  g.FindOrphanPages(),
		Weak:     g.FindWeakPages(),
		DeadEnds: g.FindDeadEndPages(rules.IsTerminal),
	}
}

// Issues converts the classifications into findings: orphans first, then weak pages,
// then dead ends.
func (a *Analysis) Issues() []types.Issue {
	counts := make(map[string]types.LinkGraphNode, len(a.Nodes))
	for _, node := range a.Nodes {
		counts[node.Route] = node
	}

	issues := []types.Issue{}
	for _, route := range a.Orphans {
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityError,
			Category: types.CategoryIncomingLinks,
			Rule:     types.RuleOrphanPage,
			Message:  "Page has no incoming internal links",
			Fix:      "Link to this page from the home page, a hub page or the main navigation",
			Details:  map[string]any{"incomingCount": 0},
		})
	}
	for _, route := range a.Weak {
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityWarning,
			Category: types.CategoryIncomingLinks,
			Rule:     types.RuleWeakPage,
			Message:  "Page has only one incoming internal link",
			Fix:      "Add links from related pages or a section hub",
			Details:  map[string]any{"incomingCount": counts[route].IncomingCount},
		})
	}
	for _, route := range a.DeadEnds {
		issues = append(issues, types.Issue{
			Subject:  route,
			Severity: types.SeverityWarning,
			Category: types.CategoryOutgoingLinks,
			Rule:     types.RuleDeadEndPage,
			Message:  fmt.Sprintf("Page has no outgoing internal links (%d incoming)", counts[route].IncomingCount),
			Fix:      "Link onward to related content or the main navigation",
			Details:  map[string]any{"outgoingCount": 0},
		})
	}
	return issues
}
