package linkgraph

import (
	"sort"

	"github.com/jonathan/sitecheck/internal/types"
)

// Edge labels name the navigation assumption that produced an edge.
const (
	LabelRootNav  = "root-nav"
	LabelMainNav  = "main-nav"
	LabelGroupHub = "group-hub"
	LabelSibling  = "sibling"
)

// Synthesize applies rules uniformly to routes and returns the implied edges. Edges only
// connect known routes and never loop back to their source. Output order depends only
// on the route set and the rules.
func Synthesize(routes []string, rules *Rules) []types.LinkEdge {
	sorted := uniqueSorted(routes)
	known := make(map[string]bool, len(sorted))
	for _, route := range sorted {
		known[route] = true
	}

	var edges []types.LinkEdge
	add := func(from, to, label string) {
		if from != to && known[from] && known[to] {
			edges = append(edges, types.LinkEdge{From: from, To: to, Label: label})
		}
	}

	for _, route := range sorted {
		add("/", route, LabelRootNav)
	}
	for _, route := range sorted {
		for _, hub := range rules.Hubs {
			add(route, hub, LabelMainNav)
		}
	}
	for _, group := range rules.Groups {
		var members []string
		for _, route := range sorted {
			if group.Contains(route) {
				members = append(members, route)
			}
		}
		for _, member := range members {
			if group.Hub != "" {
				add(member, group.Hub, LabelGroupHub)
			}
			if group.Siblings {
				for _, sibling := range members {
					add(member, sibling, LabelSibling)
				}
			}
		}
	}
	return edges
}

func uniqueSorted(routes []string) []string {
	seen := make(map[string]bool, len(routes))
	out := make([]string, 0, len(routes))
	for _, route := range routes {
		if !seen[route] {
			seen[route] = true
			out = append(out, route)
		}
	}
	sort.Strings(out)
	return out
}
